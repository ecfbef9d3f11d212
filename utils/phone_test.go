package utils

import "testing"

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+1 (555) 867-5309", "15558675309"},
		{"555.867.5309", "5558675309"},
		{"no digits here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DigitsOnly(tt.input); got != tt.want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLastFourDigits(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+1 (555) 867-5309", "5309"},
		{"867-5309", "5309"},
		{"123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := LastFourDigits(tt.input); got != tt.want {
			t.Errorf("LastFourDigits(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+1 (555) 867-5309", "*******5309"},
		{"5309", "5309"},
		{"12", "12"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskPhone(tt.input); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
