// Package shell implements the interactive line shell. The shell owns a
// fixed-capacity input buffer that the keyboard interrupt path appends to
// one character at a time; on newline it tokenizes the buffered line and
// dispatches the first token to a fixed command table.
package shell

import (
	"fmt"
	"strings"

	"goros/device/video/console"
	"goros/kernel/clock"
)

// BufferCapacity is the size of the shell input buffer. One slot is always
// kept free so a terminating scan never reads past written data; the buffer
// therefore holds at most BufferCapacity-1 characters.
const BufferCapacity = 256

// Console is the output device the shell renders to.
type Console interface {
	Clear()
	WriteChar(ch byte)
	WriteString(s string)
	SetColors(fg, bg console.RGB)
	Colors() (console.RGB, console.RGB)
}

// Clock provides the elapsed-time readings consumed by the uptime, sysinfo
// and stats commands. The shell reads but never mutates clock state.
type Clock interface {
	TickCount() uint64
	UptimeMs() uint64
	Uptime() clock.Uptime
}

type command struct {
	name string
	help string
	run  func(sh *Shell, args []string)
}

// Shell holds the line-editing state. It is owned by the machine and guarded
// by the same interrupt-safe lock as the console it writes to.
type Shell struct {
	cons Console
	clk  Clock

	buf    [BufferCapacity]byte
	length int

	commandCount uint64
	commands     []command
}

// New returns a shell writing to cons and reading elapsed time from clk.
func New(cons Console, clk Clock) *Shell {
	sh := &Shell{cons: cons, clk: clk}
	sh.commands = []command{
		{"help", "Show this help message", (*Shell).cmdHelp},
		{"clear", "Clear the screen", (*Shell).cmdClear},
		{"version", "Show OS version information", (*Shell).cmdVersion},
		{"echo", "Display a message", (*Shell).cmdEcho},
		{"uptime", "Show time since boot", (*Shell).cmdUptime},
		{"sysinfo", "Show system information", (*Shell).cmdSysinfo},
		{"stats", "Show shell usage statistics", (*Shell).cmdStats},
	}
	return sh
}

// Banner prints the welcome banner shown at boot and after clear.
func (sh *Shell) Banner() {
	sh.printColored(console.Cyan, "=== %s v%s - Shell ===\n", osName, Version)
	sh.cons.WriteString("Type 'help' for commands.\n")
}

// ShowPrompt prints the shell prompt.
func (sh *Shell) ShowPrompt() {
	sh.printColored(console.Green, "%s", osName)
	sh.cons.WriteString("> ")
}

// CanBackspace reports whether any characters are currently buffered. The
// keyboard path consults it before reflecting a backspace visually so the
// prompt itself can never be erased.
func (sh *Shell) CanBackspace() bool {
	return sh.length > 0
}

// Length returns the number of buffered characters.
func (sh *Shell) Length() int {
	return sh.length
}

// CommandCount returns the number of non-empty commands dispatched so far.
func (sh *Shell) CommandCount() uint64 {
	return sh.commandCount
}

// HandleChar consumes one decoded character. Newline dispatches the buffered
// line, backspace removes the last buffered character, printable characters
// are appended and anything else is ignored.
func (sh *Shell) HandleChar(ch byte) {
	switch {
	case ch == '\n':
		sh.dispatch()
	case ch == '\b':
		sh.backspace()
	case ch >= ' ' && ch <= '~':
		sh.append(ch)
	}
}

func (sh *Shell) append(ch byte) {
	if sh.length < BufferCapacity-1 {
		sh.buf[sh.length] = ch
		sh.length++
		return
	}

	// Buffer full: drop the character and warn.
	sh.printColored(console.Red, " [BUFFER FULL] ")
}

func (sh *Shell) backspace() {
	if sh.length > 0 {
		sh.length--
		sh.buf[sh.length] = 0
	}
}

// dispatch snapshots and clears the input buffer, runs the buffered command
// if it is non-empty and redraws the prompt.
func (sh *Shell) dispatch() {
	line := string(sh.buf[:sh.length])
	sh.cons.WriteChar('\n')

	if fields := strings.Fields(line); len(fields) > 0 {
		sh.execute(fields[0], fields[1:])
		sh.commandCount++
	}

	sh.clearBuffer()
	sh.ShowPrompt()
}

func (sh *Shell) execute(verb string, args []string) {
	for _, cmd := range sh.commands {
		if cmd.name == verb {
			cmd.run(sh, args)
			return
		}
	}

	sh.printColored(console.Red, "Unknown command: '%s'\n", verb)
	sh.printColored(console.Yellow, "Type 'help' for available commands.\n")
}

func (sh *Shell) clearBuffer() {
	for i := 0; i < sh.length; i++ {
		sh.buf[i] = 0
	}
	sh.length = 0
}

// printColored writes formatted output in the given foreground color and
// restores the default white-on-black afterwards.
func (sh *Shell) printColored(fg console.RGB, format string, args ...interface{}) {
	sh.cons.SetColors(fg, console.Black)
	sh.cons.WriteString(fmt.Sprintf(format, args...))
	sh.cons.SetColors(console.White, console.Black)
}
