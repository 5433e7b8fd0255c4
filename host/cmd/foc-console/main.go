// Command foc-console prints the drive's trace stream: boot events,
// calibration results, faults and periodic telemetry.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"gofoc/host/serial"
)

var (
	consoleOpts = struct {
		device  string
		baud    int
		replay  string
		capture string
		noColor bool
		quiet   bool
	}{}

	rootCmd = &cobra.Command{
		Use:   "foc-console",
		Short: "Monitor the drive's trace stream",
		Long:  "Decode the event and telemetry frames the drive writes to its debug USART, live from a serial port or from a capture file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&consoleOpts.device, "device", "d", "/dev/ttyUSB0", "Serial device path")
	f.IntVarP(&consoleOpts.baud, "baud", "b", serial.DefaultBaud, "Baud rate")
	f.StringVarP(&consoleOpts.replay, "replay", "r", "", "Decode a capture file instead of a serial port")
	f.StringVarP(&consoleOpts.capture, "capture", "c", "", "Also write the raw byte stream to this file")
	f.BoolVar(&consoleOpts.noColor, "no-color", false, "Disable colour output")
	f.BoolVarP(&consoleOpts.quiet, "quiet", "q", false, "Hide telemetry lines")
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	var port serial.Port
	if consoleOpts.replay != "" {
		f, err := os.Open(consoleOpts.replay)
		if err != nil {
			return fmt.Errorf("open capture: %w", err)
		}
		port = serial.NopFlush(readOnly{f})
	} else {
		cfg := serial.DefaultConfig(consoleOpts.device)
		cfg.Baud = consoleOpts.baud
		p, err := serial.Open(cfg)
		if err != nil {
			return err
		}
		if err := p.Flush(); err != nil {
			p.Close()
			return fmt.Errorf("flush %s: %w", cfg.Device, err)
		}
		port = p
	}
	defer port.Close()

	var src io.Reader = port
	if consoleOpts.capture != "" {
		f, err := os.Create(consoleOpts.capture)
		if err != nil {
			return fmt.Errorf("create capture: %w", err)
		}
		defer f.Close()
		src = io.TeeReader(port, f)
	}

	out := colorable.NewColorableStdout()
	if consoleOpts.noColor {
		out = colorable.NewNonColorable(os.Stdout)
	}
	pr := &printer{w: out, hideTelemetry: consoleOpts.quiet}

	mon := serial.NewMonitor(src, pr.handler())
	err := mon.Run(ctx)
	frames, dropped, lost := mon.Stats()
	pr.summary(frames, dropped, lost)
	return err
}

// readOnly discards writes to a capture opened for replay.
type readOnly struct {
	*os.File
}

func (readOnly) Write(b []byte) (int, error) { return len(b), nil }
