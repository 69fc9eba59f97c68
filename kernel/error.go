package kernel

// Error describes an error reported by one of the core modules. Errors are
// defined as global variables that point to an Error instance so callers can
// compare them by identity.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
