// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

import (
	"encoding/binary"
	"fmt"
	"testing"
)

// makeEMGPacket builds a status-framed packet with the given status byte
// and channel values encoded low byte first from offset 2.
func makeEMGPacket(status byte, values []uint16) []byte {
	packet := make([]byte, emgPacketSize)
	packet[1] = status
	for i, v := range values {
		packet[2+2*i] = byte(v)
		packet[2+2*i+1] = byte(v >> 8)
	}
	return packet
}

func rampValues(n int) []uint16 {
	values := make([]uint16, n)
	for i := range values {
		values[i] = uint16(i + 1)
	}
	return values
}

func TestDecodeEMGValidPacket(t *testing.T) {
	record := DecodeEMG(makeEMGPacket(validStatus, rampValues(emgChannelCount)))
	if !record.Valid {
		t.Fatal("expected a CRC-valid record")
	}
	if len(record.Channels) != emgChannelCount {
		t.Fatalf("expected %d channels, got %d", emgChannelCount, len(record.Channels))
	}
	for i, v := range record.Channels {
		if v != float64(i+1) {
			t.Errorf("channel %d: expected %d, got %v", i, i+1, v)
		}
	}
}

func TestDecodeEMGBytePairOrder(t *testing.T) {
	testCases := []struct {
		value    uint16
		expected float64
	}{
		{0x0000, 0},
		{0x0001, 1},
		{0x1234, 4660},
		{0x8000, 32768},
		{0xffff, 65535},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("value %#04x", tc.value), func(t *testing.T) {
			values := make([]uint16, emgChannelCount)
			values[0] = tc.value
			record := DecodeEMG(makeEMGPacket(validStatus, values))
			if record.Channels[0] != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, record.Channels[0])
			}
		})
	}
}

func TestDecodeEMGInvalidPacket(t *testing.T) {
	statuses := []byte{0, 1, 197, 199, 255}
	for _, status := range statuses {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			record := DecodeEMG(makeEMGPacket(status, rampValues(emgChannelCount)))
			if record.Valid {
				t.Fatal("expected an invalid record")
			}
			if len(record.Channels) != emgChannelCount {
				t.Fatalf("expected %d channels, got %d", emgChannelCount, len(record.Channels))
			}
			for i, v := range record.Channels {
				if v != 0 {
					t.Errorf("channel %d: expected 0, got %v", i, v)
				}
			}
		})
	}
}

func TestDecodeEMGDeterministic(t *testing.T) {
	packet := makeEMGPacket(validStatus, rampValues(emgChannelCount))
	first := DecodeEMG(packet)
	second := DecodeEMG(packet)
	for i := range first.Channels {
		if first.Channels[i] != second.Channels[i] {
			t.Fatalf("channel %d differs between decodes", i)
		}
	}
	if first.Valid != second.Valid {
		t.Error("validity differs between decodes")
	}
}

func TestDecodeRaw(t *testing.T) {
	packet := make([]byte, rawPacketSize)
	for i := 0; i < emgChannelCount; i++ {
		binary.LittleEndian.PutUint16(packet[2*i:], uint16(3*i))
	}
	record := DecodeRaw(packet)
	if !record.Valid {
		t.Fatal("headerless packets are always valid")
	}
	for i, v := range record.Channels {
		if v != float64(3*i) {
			t.Errorf("channel %d: expected %d, got %v", i, 3*i, v)
		}
	}
}
