package kernel

import (
	"fmt"
	"io"
)

var errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}

// Panic writes the supplied error (if not nil) to the console writer and
// parks the machine via haltFn. This is the only error path with no
// recovery: once Panic runs the machine never resumes.
func Panic(w io.Writer, haltFn func(), e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	fmt.Fprintf(w, "\n-----------------------------------\n")
	if err != nil {
		fmt.Fprintf(w, "[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	fmt.Fprintf(w, "*** kernel panic: system halted ***")
	fmt.Fprintf(w, "\n-----------------------------------\n")

	if haltFn != nil {
		haltFn()
	}
}
