package main

import (
	"context"
	"io"

	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"goros/machine"
)

type runCmd struct {
	machineFlags
}

func (r *runCmd) Run(log *logrus.Logger) error {
	// Stderr belongs to the terminal UI; without an explicit log file the
	// logs are dropped.
	if cli.LogFile == "" {
		log.SetOutput(io.Discard)
	}

	m := machine.New(r.config(log))
	if err := m.Boot(); err != nil {
		return err
	}

	gui, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &consoleUI{gui: gui, machine: m}
	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(); err != nil {
		return err
	}
	m.SetTap(ui)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- m.Run(ctx)
	}()

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	cancel()
	return <-runErr
}

// consoleUI presents the machine's character stream in a gocui view and
// feeds terminal keystrokes back in as synthesized scancodes.
type consoleUI struct {
	gui     *gocui.Gui
	machine *machine.Machine
}

const consoleViewName = "console"

func (ui *consoleUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	v, err := g.SetView(consoleViewName, 0, 0, maxX-1, maxY-1)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = " goros "
		v.Autoscroll = true
		v.Wrap = true

		if _, err := g.SetCurrentView(consoleViewName); err != nil {
			return err
		}
	}
	return nil
}

// Write receives the console tap stream from the interrupt context and
// appends it to the view on the UI goroutine.
func (ui *consoleUI) Write(data []byte) (int, error) {
	buf := append([]byte(nil), data...)
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(consoleViewName)
		if err != nil {
			return err
		}
		for _, ch := range buf {
			if ch == '\b' {
				// The view has no destructive backspace; the erased
				// cell is repainted by the machine, so rewind here.
				v.EditDelete(true)
				continue
			}
			v.Write([]byte{ch})
		}
		return nil
	})
	return len(data), nil
}

func (ui *consoleUI) bindKeys() error {
	g := ui.gui

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}

	special := map[interface{}]byte{
		gocui.KeyEnter:      '\n',
		gocui.KeySpace:      ' ',
		gocui.KeyTab:        '\t',
		gocui.KeyBackspace:  '\b',
		gocui.KeyBackspace2: '\b',
	}
	for key, ch := range special {
		ch := ch
		err := g.SetKeybinding("", key, gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
			ui.machine.InjectKey(ch)
			return nil
		})
		if err != nil {
			return err
		}
	}

	for ch := byte('!'); ch <= '~'; ch++ {
		ch := ch
		err := g.SetKeybinding("", rune(ch), gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
			ui.machine.InjectKey(ch)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}
