package page

import "fmt"

// Error represents an error while parsing or operating on a document.
type Error struct {
	Handle  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	prefix := "page error"
	if e.Handle != "" {
		prefix = fmt.Sprintf("page error for %s", e.Handle)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
