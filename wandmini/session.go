// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package wandmini

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Transport is the capability a session requires of an open bridge.
// *cp2130.Device satisfies it. The session owns the transport
// exclusively for the duration of one run and closes it exactly once on
// stop, on every path.
type Transport interface {
	WriteRegister(page, addr, value byte) error
	BulkRead(maxBytes int, timeout time.Duration) ([]byte, error)
	BulkWrite(p []byte) error
	FlushRadioFIFO() error
	StartStream() error
	StopStream() error
	Close()
}

// State is the session's position in its run lifecycle.
type State int

// Session states. A run moves Idle -> Starting -> Streaming -> Stopping
// and ends back at Idle.
const (
	Idle State = iota
	Starting
	Streaming
	Stopping
)

var stateNames = map[State]string{
	Idle:      "idle",
	Starting:  "starting",
	Streaming: "streaming",
	Stopping:  "stopping",
}

func (s State) String() string {
	return stateNames[s]
}

const (
	defaultReadTimeout = 500 * time.Millisecond
	defaultQueueDepth  = 64
	defaultOutputDir   = "data"

	// wideInputReg is the page-0 front-end register that widens the
	// analog input range.
	wideInputReg = 0x0c
)

// Config carries everything a session needs beyond its transport.
type Config struct {
	Interface     Interface     `json:"-"`
	WideInputMode bool          `json:"wide_input_mode"`
	OutputDir     string        `json:"output_dir"`
	ReadTimeout   time.Duration `json:"-"`
	QueueDepth    int           `json:"-"`
}

// Session drives one acquisition run: it executes the interface's start
// sequence, streams and frames bulk reads on a background reader, decodes
// and accumulates records, and on stop persists them and releases the
// transport.
//
// A dedicated reader goroutine owns the blocking bulk reads and only ever
// pushes chunks into a bounded channel; the consumer goroutine is the
// sole owner of the staging buffer and the record list. The channel is
// the single hand-off point, so bytes reach the decoder in the exact
// order they were read.
type Session struct {
	cfg       Config
	transport Transport
	listener  *Listener
	assembler *Assembler

	mu          sync.Mutex
	state       State
	sampleCount int
	errorCount  int
	records     []Record
	startedAt   time.Time

	chunks       chan []byte
	stopc        chan struct{}
	readerDone   chan struct{}
	consumerDone chan struct{}
}

// NewSession creates an idle session around an open transport. The
// listener may be nil. Zero config fields fall back to defaults.
func NewSession(cfg Config, t Transport, l *Listener) *Session {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	return &Session{
		cfg:       cfg,
		transport: t,
		listener:  l,
		assembler: NewAssembler(cfg.Interface.PacketSize),
	}
}

// State reports the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SampleCount reports how many packets have been framed this run,
// whether or not they decoded as valid.
func (s *Session) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleCount
}

// ErrorCount reports how many framed packets failed the CRC check.
func (s *Session) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// Records returns a copy of the records decoded so far, in arrival
// order. The copy is deep, so mutating it cannot disturb the data the
// session will persist.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]Record, len(s.records))
	for i, record := range s.records {
		channels := make([]float64, len(record.Channels))
		copy(channels, record.Channels)
		records[i] = Record{Channels: channels, Valid: record.Valid}
	}
	return records
}

// Start brings the front end into streaming mode and begins acquisition.
// It may only be called while the session is idle. The wide-input
// register write (when configured) and the interface's start sequence
// run first; if any step fails the failure is reported to the listener
// and the session stays idle. On success the run's counters, records,
// and output timestamp are reset and the reader and consumer goroutines
// begin.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidState, state)
	}
	s.state = Starting
	s.mu.Unlock()

	if s.cfg.WideInputMode {
		if err := s.transport.WriteRegister(0, wideInputReg, 1); err != nil {
			err = fmt.Errorf("enabling wide input mode: %s", err)
			s.abortStart(err)
			return err
		}
	}
	if err := s.runSequence(s.cfg.Interface.StartSeq); err != nil {
		err = fmt.Errorf("start sequence: %s", err)
		s.abortStart(err)
		return err
	}

	s.mu.Lock()
	s.sampleCount = 0
	s.errorCount = 0
	s.records = nil
	s.startedAt = time.Now()
	s.assembler.Reset()
	s.chunks = make(chan []byte, s.cfg.QueueDepth)
	s.stopc = make(chan struct{})
	s.readerDone = make(chan struct{})
	s.consumerDone = make(chan struct{})
	s.state = Streaming
	s.mu.Unlock()

	go s.readLoop()
	go s.consumeLoop()
	log.Printf("session started: %s, %d channels at %g Hz",
		s.cfg.Interface.Name, s.cfg.Interface.ChannelCount, s.cfg.Interface.SampleRate)
	return nil
}

func (s *Session) abortStart(err error) {
	log.Printf("session start error: %s", err)
	s.listener.errorOccurred(err.Error())
	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
}

// Stop takes the front end out of streaming mode, persists the run if it
// produced any samples, and releases the transport. Stop on an idle
// session is a no-op. Stop-sequence failures are logged and reported but
// never block teardown; the transport is released regardless. The
// returned error, if any, is a persistence failure.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return nil
	}
	if s.state != Streaming {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop while %s", ErrInvalidState, state)
	}
	s.state = Stopping
	s.mu.Unlock()

	// Join the reader before touching the transport again, then let the
	// consumer frame whatever is still queued.
	close(s.stopc)
	<-s.readerDone
	close(s.chunks)
	<-s.consumerDone

	if err := s.runSequence(s.cfg.Interface.StopSeq); err != nil {
		err = fmt.Errorf("stop sequence: %s", err)
		log.Printf("%s", err)
		s.listener.errorOccurred(err.Error())
	}

	var persistErr error
	s.mu.Lock()
	sampleCount := s.sampleCount
	errorCount := s.errorCount
	records := s.records
	startedAt := s.startedAt
	s.mu.Unlock()
	if sampleCount > 0 {
		path := sessionPath(s.cfg.OutputDir, startedAt)
		if err := Flush(records, s.cfg.Interface.ChannelCount, path); err != nil {
			persistErr = err
			log.Printf("%s", err)
			s.listener.errorOccurred(err.Error())
		} else {
			log.Printf("data saved to %s", path)
		}
		log.Printf("session stopped: %d samples streamed, %d CRC errors",
			sampleCount, errorCount)
	}

	s.transport.Close()
	s.assembler.Reset()
	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
	return persistErr
}

// runSequence executes start/stop sequence actions in order and stops at
// the first failure.
func (s *Session) runSequence(seq []Action) error {
	for i, action := range seq {
		var err error
		switch a := action.(type) {
		case RawCommand:
			err = s.transport.BulkWrite(a)
		case Delay:
			time.Sleep(time.Duration(a))
		case HardwareCall:
			err = s.hardwareCall(a)
		default:
			err = fmt.Errorf("unknown action type %T", action)
		}
		if err != nil {
			return fmt.Errorf("step %d: %s", i, err)
		}
	}
	return nil
}

func (s *Session) hardwareCall(call HardwareCall) error {
	switch call {
	case CallFlushRadioFIFO:
		return s.transport.FlushRadioFIFO()
	case CallStartStream:
		return s.transport.StartStream()
	case CallStopStream:
		return s.transport.StopStream()
	}
	return fmt.Errorf("unknown hardware command %q", call)
}

// readLoop owns the blocking bulk reads. It only ever pushes chunks into
// the hand-off channel and exits within one read timeout of Stop.
func (s *Session) readLoop() {
	defer close(s.readerDone)
	for {
		select {
		case <-s.stopc:
			return
		default:
		}
		data, err := s.transport.BulkRead(s.cfg.Interface.PacketSize, s.cfg.ReadTimeout)
		if err != nil {
			// USB transfers time out now and then; report and keep going.
			msg := fmt.Sprintf("bulk read failed: %s", err)
			log.Printf("%s", msg)
			s.listener.errorOccurred(msg)
			continue
		}
		if len(data) == 0 {
			continue
		}
		select {
		case s.chunks <- data:
		case <-s.stopc:
			return
		}
	}
}

// consumeLoop is the sole owner of the assembler and record list. It
// drains the hand-off channel until Stop closes it.
func (s *Session) consumeLoop() {
	defer close(s.consumerDone)
	for chunk := range s.chunks {
		s.ingest(chunk)
	}
}

func (s *Session) ingest(chunk []byte) {
	for _, packet := range s.assembler.Ingest(chunk) {
		record := s.cfg.Interface.Decode(packet)
		s.mu.Lock()
		s.sampleCount++
		if !record.Valid {
			s.errorCount++
		}
		s.records = append(s.records, record)
		s.mu.Unlock()
		s.listener.packetReady(packet)
	}
}
