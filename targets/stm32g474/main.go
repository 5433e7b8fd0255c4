//go:build tinygo && stm32g4

// Firmware for an STM32G474 inverter board. It boots the drive from the
// compiled-in profile, binds the three tasks to the NVIC and streams trace
// frames on the default serial port.
package main

import (
	"machine"
	"runtime/interrupt"
	"time"

	"gofoc/config"
	"gofoc/core"
	"gofoc/drive"
	"gofoc/encoder"
	"gofoc/mmio"
	"gofoc/protocol"
	"gofoc/stm32g4"
)

const (
	telemetryInterval = 100 * time.Millisecond
	// 170 MHz / 32; the TLE5012 tops out at 8 MHz.
	sscPrescaler = 4
)

var (
	sched core.Scheduler
	sys   *drive.System

	frames protocol.Encoder
	output = protocol.NewScratchOutput()
)

func serviceControl(interrupt.Interrupt) { sched.Service(drive.LineControl) }
func serviceStream1(interrupt.Interrupt) { sched.Service(drive.LineStream1) }
func serviceStream2(interrupt.Interrupt) { sched.Service(drive.LineStream2) }

func main() {
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})

	periph := stm32g4.TakePeripherals()
	prof := config.Default()

	ssc := encoder.NewSSC(periph.SPI1, sscPrescaler, mmio.Poller{Limit: prof.PollLimit})
	nss := periph.GPIOB
	sensor := encoder.New(ssc, func(selected bool) {
		nss.Drive(stm32g4.EncoderNSSPin, !selected)
	})
	sensor.CheckSafety = prof.Encoder.CheckSafety

	var err error
	sys, err = drive.Boot(periph, prof, sensor, drive.Options{})
	if err != nil {
		park("boot failed: " + err.Error())
	}
	sys.Bind(&sched)

	// interrupt.New needs constant interrupt numbers, so the streams are
	// wired to DMA1 channels 1 and 2; the profile must agree.
	lines := [...]struct {
		irq  interrupt.Interrupt
		num  int
		line core.Line
	}{
		{interrupt.New(stm32g4.IRQ_ADC1_2, serviceControl), stm32g4.IRQ_ADC1_2, drive.LineControl},
		{interrupt.New(stm32g4.IRQ_DMA1_CH1, serviceStream1), stm32g4.IRQ_DMA1_CH1, drive.LineStream1},
		{interrupt.New(stm32g4.IRQ_DMA1_CH2, serviceStream2), stm32g4.IRQ_DMA1_CH2, drive.LineStream2},
	}
	for _, l := range lines {
		if line, ok := sys.Line(l.num); !ok || line != l.line {
			sys.Shutdown()
			park("profile dma channels do not match the interrupt table")
		}
	}
	for _, l := range lines {
		l.irq.SetPriority(sched.HardwarePriority(l.line))
		l.irq.Enable()
	}
	sys.EnableOutputs()

	output.Reset()
	frames.EncodeIdentify(output)
	flush()

	for {
		st := sys.Status()
		msg := st.Message()
		frames.EncodeTelemetry(output, &msg)
		core.EncodeEvents(&frames, output)
		flush()
		time.Sleep(telemetryInterval)
	}
}

func flush() {
	if b := output.Result(); len(b) > 0 {
		machine.Serial.Write(b)
	}
	output.Reset()
}

// park reports a fatal condition and never returns. The bridge stays
// gated: boot only opens it through EnableOutputs.
func park(reason string) {
	core.SetDebugEnabled(true)
	for {
		frames.EncodeIdentify(output)
		core.EncodeEvents(&frames, output)
		flush()
		core.DebugPrintln(reason)
		core.DumpEvents()
		time.Sleep(time.Second)
	}
}
