package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseScript(t *testing.T) {
	path := writeScript(t, `
# boot smoke script
text echo hello
raw 0x2a 0x1e 0x9e 0xaa
wait 50ms
`)

	ops, err := parseScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops; got %d", len(ops))
	}

	if ops[0].text != "echo hello" {
		t.Errorf("expected text op %q; got %q", "echo hello", ops[0].text)
	}

	expRaw := []uint8{0x2a, 0x1e, 0x9e, 0xaa}
	if len(ops[1].raw) != len(expRaw) {
		t.Fatalf("expected %d raw scancodes; got %v", len(expRaw), ops[1].raw)
	}
	for i, scancode := range expRaw {
		if ops[1].raw[i] != scancode {
			t.Errorf("expected raw scancode %#x at %d; got %#x", scancode, i, ops[1].raw[i])
		}
	}

	if ops[2].delay != 50*time.Millisecond {
		t.Errorf("expected 50ms wait; got %v", ops[2].delay)
	}
}

func TestParseScriptErrors(t *testing.T) {
	specs := []struct {
		contents string
	}{
		{"frobnicate stuff\n"},
		{"raw\n"},
		{"raw zz\n"},
		{"wait forever\n"},
	}

	for specIndex, spec := range specs {
		path := writeScript(t, spec.contents)
		if _, err := parseScript(path); err == nil {
			t.Errorf("[spec %d] expected a parse error for %q", specIndex, spec.contents)
		}
	}
}
