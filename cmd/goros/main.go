// goros boots the console core inside a simulated machine and exposes it
// through a terminal frontend or a scripted replay harness.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"goros/device/timer"
	"goros/machine"
)

var cli struct {
	Verbose bool   `short:"v" help:"Enable debug logging."`
	LogFile string `type:"path" help:"Append logs to this file instead of stderr."`

	Run    runCmd    `cmd:"" default:"1" help:"Boot the machine with an interactive terminal frontend."`
	Replay replayCmd `cmd:"" help:"Boot the machine, replay a key script and snapshot the framebuffer."`
}

// machineFlags is the machine geometry shared by every subcommand.
type machineFlags struct {
	Width  uint32 `default:"640" help:"Display width in pixels."`
	Height uint32 `default:"480" help:"Display height in pixels."`
	Depth  uint32 `default:"4" enum:"3,4" help:"Bytes per pixel."`
	Scale  uint32 `default:"2" help:"Integer font scale factor."`
	Hz     uint32 `default:"100" help:"Timer tick frequency (19-1000)."`
}

func (f machineFlags) Validate() error {
	if f.Hz < timer.MinFrequencyHz || f.Hz > timer.MaxFrequencyHz {
		return fmt.Errorf("--hz must be between %d and %d", timer.MinFrequencyHz, timer.MaxFrequencyHz)
	}
	return nil
}

func (f machineFlags) config(log *logrus.Logger) machine.Config {
	return machine.Config{
		Width:         f.Width,
		Height:        f.Height,
		BytesPerPixel: f.Depth,
		FontScale:     f.Scale,
		TimerHz:       f.Hz,
		Logger:        log,
	}
}

func newLogger() (*logrus.Logger, error) {
	log := logrus.New()
	if cli.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if cli.LogFile != "" {
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		log.SetOutput(f)
	}
	return log, nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("goros"),
		kong.Description("An interactive console core on a simulated legacy PC."))

	log, err := newLogger()
	ctx.FatalIfErrorf(err)

	ctx.FatalIfErrorf(ctx.Run(log))
}
