/*
 *
 * Copyright 2025 vnom authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shm

import (
	"unsafe"
)

// ShellChannel is the attacher side of a channel: a reader of the published
// data and a producer into the command ring. Each attach claims a unique
// client id. Closing it unmaps only; the channel stays available for other
// peers.
//
// A ShellChannel may be shared across goroutines: every operation is
// independently atomic against the shared region.
type ShellChannel struct {
	m        *mapping
	name     string
	clientID uint32
	reader   SeqlockReader
	producer CommandProducer
}

// Connect attaches to an existing channel. The channel header is validated
// against this implementation's layout before any region is touched; on
// mismatch the mapping is released and ErrInvalidLayout returned.
func Connect(name string) (*ShellChannel, error) {
	m, err := attachMapping(name)
	if err != nil {
		return nil, err
	}

	hdr := (*channelHeader)(unsafe.Pointer(&m.mem[0]))
	if err := validateChannelHeader(hdr, uint64(len(m.mem))); err != nil {
		m.close()
		return nil, err
	}

	clientID := hdr.ClaimClientID()

	dataSize := hdr.DataSize()
	seqlockOffset := hdr.SeqlockOffset()
	cmdRingOffset := hdr.CmdRingOffset()
	cmdSlots := hdr.CmdSlots()

	return &ShellChannel{
		m:        m,
		name:     name,
		clientID: clientID,
		reader:   newSeqlockReader(m.mem, seqlockOffset, dataSize),
		producer: newCommandProducer(m.mem, cmdRingOffset, cmdSlots, clientID),
	}, nil
}

// ClientID returns the id claimed at attach. Ids are unique per attach for
// the lifetime of the channel.
func (s *ShellChannel) ClientID() uint32 {
	return s.clientID
}

// ReadData copies the daemon's last committed publication into buf, retrying
// through any in-flight publish. It returns the number of bytes copied: the
// publication length, capped at len(buf).
func (s *ShellChannel) ReadData(buf []byte) int {
	return s.reader.Read(buf)
}

// TryReadData attempts one consistent snapshot without retrying. It returns
// (0, false) when a publish was in flight.
func (s *ShellChannel) TryReadData(buf []byte) (int, bool) {
	return s.reader.TryRead(buf)
}

// DataSequence returns the seqlock sequence value; callers can poll it to
// detect new publications cheaply.
func (s *ShellChannel) DataSequence() uint64 {
	return s.reader.Sequence()
}

// TrySendCommand submits a command to the daemon. It returns false when the
// ring is full or the command exceeds SlotPayloadSize.
func (s *ShellChannel) TrySendCommand(cmd []byte) bool {
	return s.producer.TrySend(cmd) == SendAccepted
}

// SendCommand spins until the ring accepts the command. Returns false only
// for an oversize command, which can never be accepted.
func (s *ShellChannel) SendCommand(cmd []byte) bool {
	return s.producer.Send(cmd)
}

// Request sends a command and polls the data region until a new publication
// lands, copying it into respBuf. Response routing is shared: every shell
// observes the same data region, so concurrent requesters may observe each
// other's responses.
func (s *ShellChannel) Request(cmd []byte, respBuf []byte) int {
	before := s.reader.Sequence()
	if !s.SendCommand(cmd) {
		return 0
	}
	for s.reader.Sequence() == before {
		cpuRelax()
	}
	return s.ReadData(respBuf)
}

// Name returns the channel's logical name.
func (s *ShellChannel) Name() string {
	return s.name
}

// RingState returns a diagnostic snapshot of the command ring cursors.
func (s *ShellChannel) RingState() RingState {
	return s.producer.State()
}

// RawPtr returns the base of the mapped region for diagnostics.
func (s *ShellChannel) RawPtr() unsafe.Pointer {
	return unsafe.Pointer(&s.m.mem[0])
}

// Close unmaps the region. The backing object is left in place for the
// daemon and other shells.
func (s *ShellChannel) Close() error {
	if s.m == nil {
		return nil
	}
	err := s.m.close()
	s.m = nil
	return err
}
