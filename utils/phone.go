package utils

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// DigitsOnly strips every non-digit character from a phone number.
func DigitsOnly(phoneNumber string) string {
	return nonDigits.ReplaceAllString(phoneNumber, "")
}

// LastFourDigits returns the last four digits of a phone number, or ""
// when fewer than four digits remain after stripping.
func LastFourDigits(phoneNumber string) string {
	digits := DigitsOnly(phoneNumber)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// MaskPhone hides all but the last four digits for log output.
func MaskPhone(phoneNumber string) string {
	digits := DigitsOnly(phoneNumber)
	if digits == "" {
		return ""
	}
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
