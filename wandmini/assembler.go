// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

// Assembler accumulates raw bulk-read chunks and slices them into
// fixed-size packets. Bytes leave the staging buffer strictly in FIFO
// order; after a drain the buffer always holds fewer bytes than one
// packet. The assembler knows nothing about packet contents.
type Assembler struct {
	packetSize int
	buf        []byte
}

// NewAssembler returns an assembler producing packets of the given size.
func NewAssembler(packetSize int) *Assembler {
	return &Assembler{packetSize: packetSize}
}

// Ingest appends raw to the staging buffer and returns every complete
// packet now available, in arrival order. An empty or undersized read
// yields no packets and only grows the buffer; the trailing remainder
// is kept for the next call.
func (a *Assembler) Ingest(raw []byte) [][]byte {
	a.buf = append(a.buf, raw...)
	var packets [][]byte
	for len(a.buf) >= a.packetSize {
		packet := make([]byte, a.packetSize)
		copy(packet, a.buf[:a.packetSize])
		packets = append(packets, packet)
		a.buf = a.buf[a.packetSize:]
	}
	if len(packets) > 0 && len(a.buf) > 0 {
		// Compact so the backing array does not grow without bound.
		remainder := make([]byte, len(a.buf))
		copy(remainder, a.buf)
		a.buf = remainder
	}
	return packets
}

// Pending reports how many bytes are staged awaiting a full packet.
func (a *Assembler) Pending() int {
	return len(a.buf)
}

// Reset discards any staged bytes.
func (a *Assembler) Reset() {
	a.buf = nil
}
