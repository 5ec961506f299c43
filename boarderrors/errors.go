// Package boarderrors holds the sentinel errors shared by the board, parser,
// and HTTP adapter packages. Kept separate, in the style of the teacher
// repo's matcherrors package, so neither side needs to import the other.
package boarderrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed positions, labels, and player IDs.
	ErrInvalidInput = errors.New("invalid-input")

	// ErrInvalidState covers a violated internal precondition, e.g. calling
	// flipSecond without a first card held. Programmer error, not a flip rule.
	ErrInvalidState = errors.New("invalid-state")

	// ErrParse covers a malformed board file.
	ErrParse = errors.New("parse-error")

	// ErrNotFound covers a reference to a board ID that isn't registered.
	ErrNotFound = errors.New("not-found")

	// ErrFlip is the umbrella for flip rule violations; always wrapped
	// together with one of ErrRemoved or ErrControlled below.
	ErrFlip = errors.New("flip-error")

	// ErrRemoved is the flip-error reason: the target card is off the board.
	ErrRemoved = errors.New("removed")

	// ErrControlled is the flip-error reason: the target is face up and
	// already held by some player (possibly the caller).
	ErrControlled = errors.New("controlled")
)

// NewFlipError wraps reason (ErrRemoved or ErrControlled) so callers can test
// with errors.Is against both ErrFlip and the specific reason.
func NewFlipError(reason error) error {
	return fmt.Errorf("%w: %w", ErrFlip, reason)
}

// Invalidf builds an ErrInvalidInput with a formatted detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Parsef builds an ErrParse with a formatted detail message.
func Parsef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
