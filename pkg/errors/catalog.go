package errors

import "fmt"

// NoMatchError is a search that returned zero documents. URL is the
// browsable search page for the same constraints, if one could be built.
type NoMatchError struct {
	Query string
	URL   string
}

func NewNoMatchError(query, url string) *NoMatchError {
	return &NoMatchError{Query: query, URL: url}
}

func (e *NoMatchError) Error() string {
	if e.URL == "" {
		return ErrNoMatch.Error()
	}
	return ErrNoMatch.Error() + ", check at " + e.URL
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

// OverflowError is a search whose hit count exceeds the row limit. Clef
// refuses to work on a partial page.
type OverflowError struct {
	Found int
	Limit int
	URL   string
}

func NewOverflowError(found, limit int, url string) *OverflowError {
	return &OverflowError{Found: found, Limit: limit, URL: url}
}

func (e *OverflowError) Error() string {
	msg := fmt.Sprintf("%s (%d > %d), try limiting your search", ErrOverflow, e.Found, e.Limit)
	if e.URL != "" {
		msg += ": " + e.URL
	}
	return msg
}

func (e *OverflowError) Is(target error) bool { return target == ErrOverflow }

// APIError is a non-200 reply from a search node. 5xx replies match
// ErrCatalogUnavailable.
type APIError struct {
	Node       string
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

func NewAPIError(node string, status int, message string) *APIError {
	return &APIError{Node: node, StatusCode: status, Message: message}
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("search node %s: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("search node %s returned %d: %s", e.Node, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	return target == ErrCatalogUnavailable && e.StatusCode >= 500
}
