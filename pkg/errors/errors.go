// Package errors defines the failures clef distinguishes between. A
// catalog that found nothing, one that found too much and a node that
// is down all lead to different messages at the command line, so each
// has its own type and sentinel.
package errors

import "errors"

// New is errors.New, re-exported so callers need a single import.
var New = errors.New

var (
	ErrNoMatch            = errors.New("no matches found on ESGF")
	ErrOverflow           = errors.New("too many results")
	ErrNoInput            = errors.New("no input rows")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTimeout            = errors.New("operation timed out")
	ErrCanceled           = errors.New("operation canceled")
)

// IsNoMatch reports whether err means the catalog returned no documents.
func IsNoMatch(err error) bool { return errors.Is(err, ErrNoMatch) }

// IsOverflow reports whether err means a result would have been truncated.
func IsOverflow(err error) bool { return errors.Is(err, ErrOverflow) }

// IsNoInput reports whether err means a grouping stage got an empty table.
func IsNoInput(err error) bool { return errors.Is(err, ErrNoInput) }

// IsValidationError reports whether err is rejected user input.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

func IsTimeout(err error) bool  { return errors.Is(err, ErrTimeout) }
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// causeText is the message of a wrapped cause, or "" when there is none.
func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
