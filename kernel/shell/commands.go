package shell

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"goros/device/video/console"
)

const osName = "goros"

// Version is the build version reported by the version command.
var Version = semver.MustParse("0.2.1")

func (sh *Shell) cmdHelp(_ []string) {
	sh.printColored(console.Cyan, "=== %s Shell Commands ===\n", osName)
	for _, cmd := range sh.commands {
		usage := cmd.name
		if cmd.name == "echo" {
			usage = "echo <message>"
		}
		sh.cons.WriteString(fmt.Sprintf("%-17s - %s\n", usage, cmd.help))
	}
	sh.cons.WriteChar('\n')
	sh.printColored(console.Yellow, "Examples:\n  echo Hello World!\n\nTip: All keyboard features still work!\n- Shift/Caps Lock for uppercase\n- Backspace to delete\n- Tab for indentation\n")
}

func (sh *Shell) cmdClear(_ []string) {
	sh.cons.Clear()
	sh.Banner()
}

func (sh *Shell) cmdVersion(_ []string) {
	sh.printColored(console.Cyan, "=== %s Version Information ===\n", osName)
	sh.cons.WriteString(fmt.Sprintf("OS Name:      %s\n", osName))
	sh.cons.WriteString(fmt.Sprintf("Version:      %s\n", Version))
	sh.cons.WriteString("Architecture: x86_64\n")
	sh.cons.WriteString("Build:        Debug\n\n")
	sh.printColored(console.Green, "Features:\n")
	sh.cons.WriteString("- Graphical framebuffer output\n")
	sh.cons.WriteString("- 8259 PIC interrupt handling\n")
	sh.cons.WriteString("- 8253 PIT system timer\n")
	sh.cons.WriteString("- PS/2 keyboard driver\n")
	sh.cons.WriteString("- Interactive shell interface\n")
}

func (sh *Shell) cmdEcho(args []string) {
	sh.cons.WriteString(strings.Join(args, " "))
	sh.cons.WriteChar('\n')
}

func (sh *Shell) cmdUptime(_ []string) {
	up := sh.clk.Uptime()
	ticks := sh.clk.TickCount()

	sh.printColored(console.Cyan, "=== System Uptime ===\n")
	sh.cons.WriteString(fmt.Sprintf("Uptime:       %dd %02d:%02d:%02d.%03d\n",
		up.Days, up.Hours, up.Minutes, up.Seconds, up.Milliseconds))
	sh.cons.WriteString(fmt.Sprintf("Total ms:     %d\n", up.TotalMs))
	sh.cons.WriteString(fmt.Sprintf("Timer ticks:  %d\n", ticks))
	if ticks > 0 {
		sh.cons.WriteString(fmt.Sprintf("Avg ms/tick:  %d\n", up.TotalMs/ticks))
	}
}

func (sh *Shell) cmdSysinfo(_ []string) {
	up := sh.clk.Uptime()

	sh.printColored(console.Cyan, "=== System Information ===\n")
	sh.cons.WriteString(fmt.Sprintf("OS:           %s v%s\n", osName, Version))
	sh.cons.WriteString("CPU:          single core, interrupts enabled\n")
	sh.cons.WriteString("Interrupts:   dual 8259 PIC, vectors 32/33\n")
	sh.cons.WriteString("Timer:        8253 PIT @ 100 Hz\n")
	sh.cons.WriteString("Keyboard:     PS/2 set-1 scancodes\n")
	sh.cons.WriteString("Display:      framebuffer text console\n")
	sh.cons.WriteString(fmt.Sprintf("Uptime:       %02d:%02d:%02d\n",
		up.Hours+up.Days*24, up.Minutes, up.Seconds))
}

func (sh *Shell) cmdStats(_ []string) {
	uptimeMs := sh.clk.UptimeMs()

	sh.printColored(console.Cyan, "=== Shell Statistics ===\n")
	sh.cons.WriteString(fmt.Sprintf("Commands run: %d\n", sh.commandCount))
	sh.cons.WriteString(fmt.Sprintf("Buffer usage: %d/%d\n", sh.length, BufferCapacity-1))
	if uptimeMs > 0 {
		perMin := sh.commandCount * 60000 / uptimeMs
		sh.cons.WriteString(fmt.Sprintf("Commands/min: %d\n", perMin))
	} else {
		sh.cons.WriteString("Commands/min: n/a (clock not running)\n")
	}
}
