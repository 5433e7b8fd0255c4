package stm32g4

import "gofoc/mmio"

// SPI is an SPI/I2S register block.
type SPI struct {
	CR1     mmio.Reg32 // 0x00
	CR2     mmio.Reg32 // 0x04
	SR      mmio.Reg32 // 0x08
	DR      mmio.Reg32 // 0x0C
	CRCPR   mmio.Reg32 // 0x10
	RXCRCR  mmio.Reg32 // 0x14
	TXCRCR  mmio.Reg32 // 0x18
	I2SCFGR mmio.Reg32 // 0x1C
	I2SPR   mmio.Reg32 // 0x20
}

// SPI CR1
const (
	SPI_CR1_CPHA     = 1 << 0
	SPI_CR1_CPOL     = 1 << 1
	SPI_CR1_MSTR     = 1 << 2
	SPI_CR1_BR_Pos   = 3
	SPI_CR1_SPE      = 1 << 6
	SPI_CR1_SSI      = 1 << 8
	SPI_CR1_SSM      = 1 << 9
	SPI_CR1_BIDIOE   = 1 << 14
	SPI_CR1_BIDIMODE = 1 << 15
)

// SPI CR2 / SR
const (
	SPI_CR2_DS_Pos = 8
	SPI_CR2_DS_16  = 0b1111
	SPI_SR_RXNE    = 1 << 0
	SPI_SR_TXE     = 1 << 1
	SPI_SR_BSY     = 1 << 7
)
