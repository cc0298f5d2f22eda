package errors

// IOError is a failed filesystem operation on a queue, request or
// export file.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Operation + ": " + causeText(e.Err)
	}
	return e.Operation + " " + e.Path + ": " + causeText(e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO returns nil when err is nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ParseError is malformed input: a JSON reply, a queue CSV, a date range.
type ParseError struct {
	Format  string
	File    string
	Message string
	Err     error
}

func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	where := e.Format
	if e.File != "" {
		where += " " + e.File
	}
	return "cannot parse " + where + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// WrapParse returns nil when err is nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// ResourceError is a failure talking to the inventory database or the
// catalog as a whole.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

func (e *ResourceError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += " " + e.ID
	}
	return "cannot " + e.Operation + " " + target + ": " + causeText(e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// WrapResource returns nil when err is nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}
