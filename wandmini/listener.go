// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

// Listener receives session notifications; instantiate only the
// callbacks you care about, for example:
//
//	l := wandmini.Listener{
//		DataPacketReady: func(packet []byte) {
//			...
//		},
//	}
//
// DataPacketReady fires once per completed packet with the raw packet
// bytes, on the session's consumer goroutine, so it should hand data off
// quickly. ErrorOccurred fires on any recoverable failure; it is
// advisory and does not change the session's own control flow.
type Listener struct {
	DataPacketReady func(packet []byte)
	ErrorOccurred   func(msg string)
}

func (l *Listener) packetReady(packet []byte) {
	if l != nil && l.DataPacketReady != nil {
		l.DataPacketReady(packet)
	}
}

func (l *Listener) errorOccurred(msg string) {
	if l != nil && l.ErrorOccurred != nil {
		l.ErrorOccurred(msg)
	}
}
