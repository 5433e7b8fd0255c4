// Package serial connects the host tools to the drive's debug USART.
package serial

import (
	"io"
)

// Port is a byte link to the firmware. Implementations:
// - NativePort (github.com/tarm/serial)
// - any io.ReadWriteCloser wrapped by NopFlush, e.g. a capture file
type Port interface {
	io.ReadWriteCloser

	// Flush drops any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the debug USART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the firmware's debug USART setting.
const DefaultBaud = 115200

// DefaultConfig returns the configuration the firmware expects.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

type nopFlush struct {
	io.ReadWriteCloser
}

func (nopFlush) Flush() error { return nil }

// NopFlush adapts rw to Port with a Flush that does nothing.
func NopFlush(rw io.ReadWriteCloser) Port {
	return nopFlush{rw}
}
