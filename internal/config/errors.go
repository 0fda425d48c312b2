package config

import "fmt"

// Error represents a configuration file that could not be loaded or is invalid.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path == "" {
		if e.Cause != nil {
			return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
		}
		return fmt.Sprintf("config error: %s", e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("config error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("config error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
