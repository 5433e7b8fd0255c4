package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gofoc/config"
	"gofoc/host/bench"
	"gofoc/protocol"
)

func TestLoadProfileFromFile(t *testing.T) {
	p := config.Default()
	p.Name = "custom"
	p.Encoder.PolePairs = 4
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	benchOpts.config = path
	defer func() { benchOpts.config = "" }()
	got, err := loadProfile()
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "custom" || got.Encoder.PolePairs != 4 {
		t.Errorf("profile = %+v", got)
	}
}

func TestLoadProfileUnknown(t *testing.T) {
	benchOpts.profile = "nope"
	defer func() { benchOpts.profile = "default" }()
	if _, err := loadProfile(); err == nil {
		t.Error("unknown profile accepted")
	}
}

func TestWriteReport(t *testing.T) {
	r := &bench.Report{
		Profile: "default",
		Periods: 10,
		Iq:      bench.Summary{Mean: 2},
		Events:  []protocol.Event{{Kind: 1, V1: 8500, V2: 170}},
	}
	var out bytes.Buffer
	writeReport(&out, r, true)
	s := out.String()
	for _, want := range []string{"profile", "default", "mean 2.0000", "BOOT", "v1=8500"} {
		if !strings.Contains(s, want) {
			t.Errorf("report lacks %q:\n%s", want, s)
		}
	}

	out.Reset()
	writeReport(&out, r, false)
	if strings.Contains(out.String(), "BOOT") {
		t.Error("events listed without --events")
	}
}
