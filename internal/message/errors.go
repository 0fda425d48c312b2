package message

import "fmt"

// Error represents a rejected request.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid message: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid message: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
