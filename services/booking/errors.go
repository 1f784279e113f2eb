package booking

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrSubmissionInProgress = errors.New("a booking submission is already in progress")
	ErrEmptyCart            = errors.New("your cart is empty")
	ErrSlotRequired         = errors.New("please select both a date and a time for your appointment")
	ErrAuthRequired         = errors.New("please sign in to complete your booking")
	ErrNothingPending       = errors.New("no booking is waiting for sign-in")
	ErrNotHomeCollection    = errors.New("address lookup is only used for home collection")
)

const genericProviderMessage = "We could not complete your booking right now. Please try again."

// ProviderError is a failed appointment or payment call. Message is safe to
// show to the visitor.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(message string, err error) *ProviderError {
	message = strings.TrimSpace(message)
	if message == "" {
		message = genericProviderMessage
	}
	return &ProviderError{Message: message, Err: err}
}

// FieldErrors maps a form field (JSON name) to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid booking form: " + strings.Join(parts, "; ")
}
