//go:build !tinygo

package bench

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"

	"gofoc/stm32g4"
)

var ErrTrimMissing = errors.New("bench: dump does not cover the Vrefint trim word")

// TrimFromHex extracts the factory Vrefint trim word from an Intel-HEX dump
// of the system memory area.
func TrimFromHex(r io.Reader) (uint16, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return 0, fmt.Errorf("parse hex dump: %w", err)
	}
	addr := uint32(stm32g4.VrefintCalAddr)
	for _, seg := range mem.GetDataSegments() {
		end := seg.Address + uint32(len(seg.Data))
		if seg.Address <= addr && addr+2 <= end {
			return binary.LittleEndian.Uint16(mem.ToBinary(addr, 2, 0xFF)), nil
		}
	}
	return 0, ErrTrimMissing
}
