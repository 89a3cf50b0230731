// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package wandmini acquires sEMG samples from a WANDmini front end
// behind a CP2130 USB-to-SPI bridge: it frames raw bulk reads into
// fixed-size packets, decodes them into per-channel values, and persists
// each run as a CSV table.
package wandmini

import "time"

// Action is one step of a start or stop sequence.
type Action interface {
	isAction()
}

// RawCommand sends opcode bytes over the SPI bulk pipe.
type RawCommand []byte

// Delay pauses the sequence.
type Delay time.Duration

// HardwareCall invokes a named bridge command against the transport.
type HardwareCall string

func (RawCommand) isAction()   {}
func (Delay) isAction()        {}
func (HardwareCall) isAction() {}

// Hardware commands a transport must implement by name.
const (
	CallFlushRadioFIFO HardwareCall = "flushRadioFifo"
	CallStartStream    HardwareCall = "startStream"
	CallStopStream     HardwareCall = "stopStream"
)

// Interface describes one WANDmini hardware variant: how big its
// packets are, how to bring it in and out of streaming, and how to
// decode one packet. An Interface is immutable once built and its
// Decode function must be deterministic and side-effect free.
type Interface struct {
	Name         string
	PacketSize   int
	ChannelCount int
	SampleRate   float64 // Hz
	StartSeq     []Action
	StopSeq      []Action
	Decode       DecodeFunc
}

const (
	emgPacketSize   = 200
	emgChannelCount = 67
	emgSampleRate   = 1000

	rawPacketSize = emgChannelCount * 2

	interCommandDelay = 100 * time.Millisecond
)

// StreamEMG returns the variant that drives the front end with raw
// opcode bytes: flush the radio FIFO, settle, start streaming.
func StreamEMG() Interface {
	return Interface{
		Name:         "wandmini-stream",
		PacketSize:   emgPacketSize,
		ChannelCount: emgChannelCount,
		SampleRate:   emgSampleRate,
		StartSeq: []Action{
			RawCommand{0x00}, // flush radio FIFO
			Delay(interCommandDelay),
			RawCommand{0x01}, // start stream
		},
		StopSeq: []Action{
			RawCommand{0x00}, // stop stream
			Delay(interCommandDelay),
		},
		Decode: DecodeEMG,
	}
}

// CommandEMG returns the variant that drives the front end through
// named bridge commands instead of raw opcodes. Packet layout and
// decoding are identical to StreamEMG.
func CommandEMG() Interface {
	return Interface{
		Name:         "wandmini-command",
		PacketSize:   emgPacketSize,
		ChannelCount: emgChannelCount,
		SampleRate:   emgSampleRate,
		StartSeq: []Action{
			CallFlushRadioFIFO,
			Delay(interCommandDelay),
			CallStartStream,
		},
		StopSeq: []Action{
			CallStopStream,
			Delay(interCommandDelay),
		},
		Decode: DecodeEMG,
	}
}

// RawEMG returns the headerless variant: the front end streams as soon
// as the USB interface is up, packets carry no status byte, and every
// packet is taken as valid.
func RawEMG() Interface {
	return Interface{
		Name:         "wandmini-raw",
		PacketSize:   rawPacketSize,
		ChannelCount: emgChannelCount,
		SampleRate:   emgSampleRate,
		Decode:       DecodeRaw,
	}
}
