package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"goros/device/video/console"
	"goros/machine"
)

type replayCmd struct {
	machineFlags

	Script string `arg:"" type:"existingfile" help:"Key script to replay."`
	Out    string `type:"path" default:"console.png" help:"Framebuffer snapshot destination."`
	Settle string `default:"250ms" help:"How long to let the machine settle after the script."`
	Watch  bool   `help:"Re-run the script whenever it changes."`
}

// A key script is a line-oriented file:
//
//	# comment
//	text echo hello      types the rest of the line followed by enter
//	raw 0x2a 0x1e 0x9e   injects raw scancodes
//	wait 500ms           lets the machine run for the given duration
type scriptOp struct {
	text  string
	raw   []uint8
	delay time.Duration
}

func (r *replayCmd) Run(log *logrus.Logger) error {
	ops, err := parseScript(r.Script)
	if err != nil {
		return err
	}
	if err := r.replay(log, ops); err != nil {
		return err
	}
	if !r.Watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(r.Script); err != nil {
		return err
	}
	log.WithField("script", r.Script).Info("watching for changes")

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			ops, err := parseScript(r.Script)
			if err != nil {
				log.WithError(err).Error("script reload failed")
				continue
			}
			if err := r.replay(log, ops); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// replay boots a fresh machine, feeds it the script and writes the resulting
// framebuffer to the output file.
func (r *replayCmd) replay(log *logrus.Logger, ops []scriptOp) error {
	settle, err := time.ParseDuration(r.Settle)
	if err != nil {
		return err
	}

	m := machine.New(r.config(log))
	if err := m.Boot(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- m.Run(ctx)
	}()

	for _, op := range ops {
		switch {
		case op.delay > 0:
			time.Sleep(op.delay)
		case op.raw != nil:
			for _, scancode := range op.raw {
				m.InjectScancode(scancode)
				time.Sleep(2 * time.Millisecond)
			}
		default:
			for i := 0; i < len(op.text); i++ {
				m.InjectKey(op.text[i])
				time.Sleep(2 * time.Millisecond)
			}
			m.InjectKey('\n')
		}
	}
	time.Sleep(settle)

	snap := m.Snapshot()
	cancel()
	if err := <-runErr; err != nil {
		return err
	}

	if err := writePNG(r.Out, snap); err != nil {
		return err
	}
	log.WithField("out", r.Out).Info("framebuffer written")
	return nil
}

func parseScript(path string) ([]scriptOp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ops []scriptOp
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		verb, rest, _ := strings.Cut(line, " ")
		switch verb {
		case "text":
			ops = append(ops, scriptOp{text: rest})
		case "raw":
			var codes []uint8
			for _, tok := range strings.Fields(rest) {
				v, err := strconv.ParseUint(tok, 0, 8)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad scancode %q: %w", path, lineNo, tok, err)
				}
				codes = append(codes, uint8(v))
			}
			if len(codes) == 0 {
				return nil, fmt.Errorf("%s:%d: raw needs at least one scancode", path, lineNo)
			}
			ops = append(ops, scriptOp{raw: codes})
		case "wait":
			d, err := time.ParseDuration(rest)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad duration %q: %w", path, lineNo, rest, err)
			}
			ops = append(ops, scriptOp{delay: d})
		default:
			return nil, fmt.Errorf("%s:%d: unknown directive %q", path, lineNo, verb)
		}
	}
	return ops, scanner.Err()
}

// writePNG converts the BGR(A) surface to an image and writes it out.
func writePNG(path string, surface console.Surface) error {
	img := image.NewRGBA(image.Rect(0, 0, int(surface.Width), int(surface.Height)))

	for y := uint32(0); y < surface.Height; y++ {
		for x := uint32(0); x < surface.Width; x++ {
			offset := y*surface.Pitch + x*surface.BytesPerPixel
			if offset+surface.BytesPerPixel > uint32(len(surface.Buffer)) {
				continue
			}
			px := surface.Buffer[offset:]
			img.SetRGBA(int(x), int(y), color.RGBA{R: px[2], G: px[1], B: px[0], A: 0xff})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
