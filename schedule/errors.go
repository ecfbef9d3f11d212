package schedule

import "errors"

var (
	// ErrInvalidDate marks an absent or unparsable arrival/departure value.
	ErrInvalidDate = errors.New("invalid or missing date")
	// ErrInvalidWindow marks a window whose departure is not after arrival.
	ErrInvalidWindow = errors.New("departure must be after arrival")
)
