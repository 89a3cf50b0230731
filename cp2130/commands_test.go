// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package cp2130

import (
	"bytes"
	"fmt"
	"testing"
)

func TestSPICommandHeader(t *testing.T) {
	testCases := []struct {
		op       spiOp
		length   int
		expected []byte
	}{
		{spiRead, 200, []byte{0x00, 0x00, 0x00, 0x00, 0xc8, 0x00, 0x00, 0x00}},
		{spiWrite, 1, []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00}},
		{spiWrite, 4, []byte{0x00, 0x00, 0x01, 0x00, 0x04, 0x00, 0x00, 0x00}},
		{spiWriteRead, 0x12345, []byte{0x00, 0x00, 0x02, 0x00, 0x45, 0x23, 0x01, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("op %#02x length %d", byte(tc.op), tc.length), func(t *testing.T) {
			computed := spiCommand(tc.op, tc.length)
			if !bytes.Equal(computed, tc.expected) {
				t.Errorf("expected % x, got % x", tc.expected, computed)
			}
		})
	}
}

func TestCommandStrings(t *testing.T) {
	testCases := []struct {
		cmd      command
		expected string
	}{
		{commandSetUSBConfig, "Set USB configuration"},
		{commandSetSPIWord, "Set SPI word configuration"},
		{commandGetGPIOValues, "Read GPIO pin values"},
	}
	for _, tc := range testCases {
		if got := tc.cmd.String(); got != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, got)
		}
	}
}

func TestLocatorString(t *testing.T) {
	testCases := []struct {
		loc      Locator
		expected string
	}{
		{Locator{Bus: 1, Address: 4}, "bus 1 addr 4"},
		{Locator{Bus: 2, Address: 7, Serial: "0001A"}, "bus 2 addr 7 (S/N 0001A)"},
	}
	for _, tc := range testCases {
		if got := tc.loc.String(); got != tc.expected {
			t.Errorf("expected %q, got %q", tc.expected, got)
		}
	}
}
