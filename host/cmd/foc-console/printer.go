package main

import (
	"fmt"
	"io"

	"gofoc/core"
	"gofoc/host/serial"
	"gofoc/protocol"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

// printer renders decoded frames as one line each. Escape sequences are
// written unconditionally; the writer strips or translates them.
type printer struct {
	w             io.Writer
	hideTelemetry bool
}

func (p *printer) handler() serial.Handler {
	return serial.Handler{
		Identify:  p.identify,
		Event:     p.event,
		Telemetry: p.telemetry,
		Malformed: p.malformed,
	}
}

func (p *printer) identify(version string) {
	fmt.Fprintf(p.w, "%sfirmware %s%s\n", colorCyan, version, colorReset)
}

func eventColor(k core.EventKind) string {
	switch k {
	case core.EvtTimeout, core.EvtFault:
		return colorRed
	case core.EvtTrimFallback, core.EvtOverrun:
		return colorYellow
	}
	return colorGreen
}

func (p *printer) event(ev protocol.Event) {
	k := core.EventKind(ev.Kind)
	fmt.Fprintf(p.w, "%s[%8d] %-13s%s %s\n", eventColor(k), ev.Clock, k.String(), colorReset, describe(ev))
}

// describe spells out the values of an event in the units the firmware
// recorded them in.
func describe(ev protocol.Event) string {
	switch core.EventKind(ev.Kind) {
	case core.EvtBoot:
		return fmt.Sprintf("period=%d ticks clock=%d MHz", ev.V1, ev.V2)
	case core.EvtCalibrated:
		return fmt.Sprintf("adc%d vref=%.4f V vrefint=%d", ev.Unit, float64(ev.V1)/1e6, ev.V2)
	case core.EvtTrimFallback:
		return fmt.Sprintf("adc%d trim=%d", ev.Unit, ev.V1)
	case core.EvtZeroOffset:
		return fmt.Sprintf("adc%d zero=%d", ev.Unit, ev.V1)
	case core.EvtTimeout:
		return fmt.Sprintf("adc%d spins=%d", ev.Unit, ev.V1)
	case core.EvtStreamPass:
		return fmt.Sprintf("adc%d passes=%d dma=%d", ev.Unit, ev.V1, ev.V2)
	case core.EvtFault:
		return fmt.Sprintf("code=%d", ev.V1)
	case core.EvtOverrun:
		return fmt.Sprintf("adc%d count=%d", ev.Unit, ev.V1)
	}
	return fmt.Sprintf("unit=%d v1=%d v2=%d", ev.Unit, ev.V1, ev.V2)
}

func (p *printer) telemetry(t protocol.Telemetry) {
	if p.hideTelemetry {
		return
	}
	fmt.Fprintf(p.w, "[%8d] control=%d streams=%d/%d bus=%.2fV temp=%d id=%.3fA iq=%.3fA sector=%d\n",
		t.Clock, t.ControlRuns, t.StreamPasses[0], t.StreamPasses[1],
		float64(t.BusMillivolt)/1000, t.TempCode,
		float64(t.IdMilliamp)/1000, float64(t.IqMilliamp)/1000, t.Sector)
}

func (p *printer) malformed(f protocol.Frame, err error) {
	fmt.Fprintf(p.w, "%smalformed %s frame seq=%d: %v%s\n", colorYellow, f.Msg, f.Seq, err, colorReset)
}

func (p *printer) summary(frames, dropped, lost uint32) {
	c := colorGreen
	if dropped != 0 || lost != 0 {
		c = colorYellow
	}
	fmt.Fprintf(p.w, "%s%d frames, %d dropped, %d lost%s\n", c, frames, dropped, lost, colorReset)
}
