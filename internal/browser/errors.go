package browser

import "fmt"

// Error represents an error while driving the browser page.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
