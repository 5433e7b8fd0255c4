package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-colorable"

	"gofoc/core"
	"gofoc/protocol"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		ev   protocol.Event
		want string
	}{
		{protocol.Event{Kind: uint8(core.EvtBoot), V1: 8500, V2: 170}, "period=8500 ticks clock=170 MHz"},
		{protocol.Event{Kind: uint8(core.EvtCalibrated), Unit: 1, V1: 3300000, V2: 1500}, "adc1 vref=3.3000 V vrefint=1500"},
		{protocol.Event{Kind: uint8(core.EvtZeroOffset), Unit: 2, V1: 2048}, "adc2 zero=2048"},
		{protocol.Event{Kind: uint8(core.EvtFault), V1: 1}, "code=1"},
		{protocol.Event{Kind: 200, Unit: 3, V1: 4, V2: 5}, "unit=3 v1=4 v2=5"},
	}
	for _, c := range cases {
		if got := describe(c.ev); got != c.want {
			t.Errorf("describe(%+v) = %q, want %q", c.ev, got, c.want)
		}
	}
}

func TestPrinterColours(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf}
	p.event(protocol.Event{Kind: uint8(core.EvtTimeout), Unit: 1, V1: 50})
	if !strings.HasPrefix(buf.String(), colorRed) || !strings.Contains(buf.String(), "TIMEOUT!") {
		t.Errorf("timeout line = %q", buf.String())
	}

	buf.Reset()
	p.w = colorable.NewNonColorable(&buf)
	p.event(protocol.Event{Kind: uint8(core.EvtStreamPass), Unit: 2, V1: 1, V2: 2})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("escape left in %q", buf.String())
	}
	if !strings.Contains(buf.String(), "adc2 passes=1 dma=2") {
		t.Errorf("stream line = %q", buf.String())
	}
}

func TestPrinterTelemetry(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf}
	tel := protocol.Telemetry{Clock: 42, ControlRuns: 40, StreamPasses: [2]uint32{5, 5},
		BusMillivolt: 24010, TempCode: 1234, IdMilliamp: -350, IqMilliamp: 1200, Sector: 3}
	p.telemetry(tel)
	want := "[      42] control=40 streams=5/5 bus=24.01V temp=1234 id=-0.350A iq=1.200A sector=3\n"
	if buf.String() != want {
		t.Errorf("got %q\nwant %q", buf.String(), want)
	}

	buf.Reset()
	p.hideTelemetry = true
	p.telemetry(tel)
	if buf.Len() != 0 {
		t.Errorf("quiet printer wrote %q", buf.String())
	}
}
