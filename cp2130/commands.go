// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package cp2130

import "encoding/binary"

type command byte

// Vendor control requests understood by the CP2130 bridge.
const (
	commandGetClockDivider command = 0x46
	commandSetClockDivider command = 0x47
	commandGetSPIWord      command = 0x30
	commandSetSPIWord      command = 0x31
	commandGetSPIDelay     command = 0x32
	commandSetSPIDelay     command = 0x33
	commandGetGPIOValues   command = 0x20
	commandSetGPIOValues   command = 0x21
	commandGetUSBConfig    command = 0x60
	commandSetUSBConfig    command = 0x61
)

var commands = map[command]string{
	commandGetClockDivider: "Read GPIO.5 clock divider",
	commandSetClockDivider: "Set GPIO.5 clock divider",
	commandGetSPIWord:      "Read SPI word configuration",
	commandSetSPIWord:      "Set SPI word configuration",
	commandGetSPIDelay:     "Read SPI delay configuration",
	commandSetSPIDelay:     "Set SPI delay configuration",
	commandGetGPIOValues:   "Read GPIO pin values",
	commandSetGPIOValues:   "Set GPIO pin values",
	commandGetUSBConfig:    "Read USB configuration",
	commandSetUSBConfig:    "Set USB configuration",
}

func (c command) String() string {
	return commands[c]
}

type spiOp byte

// SPI transfer commands sent in the bulk OUT command header.
const (
	spiRead       spiOp = 0x00
	spiWrite      spiOp = 0x01
	spiWriteRead  spiOp = 0x02
	spiReadWthRTR spiOp = 0x04
)

// spiCommandSize is the length of the command header that prefixes every
// bulk OUT transfer to the bridge.
const spiCommandSize = 8

// spiCommand builds the 8-byte bulk command header: two reserved bytes,
// the transfer command, a reserved byte, and the transfer length as a
// little-endian uint32.
func spiCommand(op spiOp, length int) []byte {
	cmd := make([]byte, spiCommandSize)
	cmd[2] = byte(op)
	binary.LittleEndian.PutUint32(cmd[4:], uint32(length))
	return cmd
}

// WANDmini front-end opcodes, written over the SPI bulk pipe. The radio
// FIFO flush and the stream stop share an opcode; the front end
// distinguishes them by streaming state.
const (
	opcodeFlushRadioFIFO byte = 0x00
	opcodeStartStream    byte = 0x01
	opcodeStopStream     byte = 0x00
)

// regWriteOpcode starts a 4-byte register-write SPI frame:
// opcode, register page, register address, value.
const regWriteOpcode byte = 0x02
