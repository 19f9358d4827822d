package alert

import (
	"errors"
	"fmt"
)

var (
	ErrAlertNotFound      = errors.New("alert not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNotOwner           = errors.New("only the alert owner can resolve it")
	ErrOwnAlert           = errors.New("cannot help with your own alert")
	ErrAlreadyHelping     = errors.New("you are already helping")
	ErrNotHelping         = errors.New("you were not helping")
	ErrAlreadyResolved    = errors.New("alert is already resolved")
)

// RateLimitError rejects an alert creation attempted inside the per-user
// cooldown window.
type RateLimitError struct {
	SecondsRemaining int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit: %d second(s) remaining", e.SecondsRemaining)
}
