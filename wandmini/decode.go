// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

import "encoding/binary"

// validStatus is the value of a packet's status byte when the payload
// passed the front end's CRC check.
const validStatus = 198

// Record is one decoded packet: one value per channel plus the CRC
// verdict. A record is produced for every packet, valid or not, so
// downstream row counts always equal the number of packets processed.
type Record struct {
	Channels []float64
	Valid    bool
}

// DecodeFunc turns one fixed-size packet into a Record. The packet is
// exactly the interface's PacketSize bytes long.
type DecodeFunc func(packet []byte) Record

// DecodeEMG decodes a status-framed WANDmini packet. Byte 1 is the
// status byte; when it signals a valid CRC, the payload from byte 2
// onward holds one 16-bit value per channel, low byte first. An invalid
// packet still yields a record, with all channels zero.
func DecodeEMG(packet []byte) Record {
	channels := make([]float64, emgChannelCount)
	if packet[1] != validStatus {
		return Record{Channels: channels}
	}
	payload := packet[2:]
	for i := range channels {
		channels[i] = float64(uint16(payload[2*i+1])<<8 | uint16(payload[2*i]))
	}
	return Record{Channels: channels, Valid: true}
}

// DecodeRaw decodes a headerless packet: back-to-back little-endian
// 16-bit values, one per channel, no status byte to check.
func DecodeRaw(packet []byte) Record {
	channels := make([]float64, emgChannelCount)
	for i := range channels {
		channels[i] = float64(binary.LittleEndian.Uint16(packet[2*i:]))
	}
	return Record{Channels: channels, Valid: true}
}
