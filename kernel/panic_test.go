package kernel

import (
	"bytes"
	"strings"
	"testing"
)

func TestPanicFormatsKnownErrorTypes(t *testing.T) {
	specs := []struct {
		descr string
		err   interface{}
		exp   string
	}{
		{"kernel error", &Error{Module: "irq", Message: "vector table corrupt"}, "[irq] unrecoverable error: vector table corrupt"},
		{"string", "stack overrun", "[rt] unrecoverable error: stack overrun"},
		{"stdlib error", errStub("bus fault"), "[rt] unrecoverable error: bus fault"},
	}

	for specIndex, spec := range specs {
		var (
			buf    bytes.Buffer
			halted bool
		)

		Panic(&buf, func() { halted = true }, spec.err)

		if !halted {
			t.Errorf("[spec %d] %s: expected haltFn to be invoked", specIndex, spec.descr)
		}

		out := buf.String()
		if !strings.Contains(out, spec.exp) {
			t.Errorf("[spec %d] %s: expected output to contain %q; got:\n%s", specIndex, spec.descr, spec.exp, out)
		}

		if !strings.Contains(out, "*** kernel panic: system halted ***") {
			t.Errorf("[spec %d] %s: expected panic banner in output; got:\n%s", specIndex, spec.descr, out)
		}
	}
}

func TestPanicWithNilHaltFn(t *testing.T) {
	var buf bytes.Buffer
	Panic(&buf, nil, &Error{Module: "test", Message: "boom"})

	if buf.Len() == 0 {
		t.Fatal("expected panic output to be written")
	}
}

type errStub string

func (e errStub) Error() string { return string(e) }
