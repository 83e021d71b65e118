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
	"bytes"
	"unsafe"
)

// ShutdownCommand is the sentinel command that stops a Run loop.
var ShutdownCommand = []byte("__SHUTDOWN__")

// DaemonChannel is the creator side of a channel: the single publisher of the
// data region and the single consumer of the command ring. Closing it unmaps
// and removes the backing object.
//
// A DaemonChannel is single-publisher, single-consumer by contract: WriteData
// must not race with itself, and TryRecvCommand must not race with itself.
type DaemonChannel struct {
	m        *mapping
	name     string
	cfg      ChannelConfig
	writer   SeqlockWriter
	consumer CommandConsumer
}

// CreateDaemon creates the channel's backing object, initializes all region
// headers, and returns the daemon handle. An existing object of the same
// name is replaced.
func CreateDaemon(name string, cfg ChannelConfig) (*DaemonChannel, error) {
	cfg = cfg.withDefaults()

	totalSize, seqlockOffset, cmdRingOffset, err := CalculateChannelLayout(cfg.DataSize, cfg.CmdSlots)
	if err != nil {
		return nil, err
	}

	m, err := createMapping(name, totalSize)
	if err != nil {
		return nil, err
	}

	hdr := (*channelHeader)(unsafe.Pointer(&m.mem[0]))
	initChannelHeader(hdr, cfg.DataSize, cfg.CmdSlots, seqlockOffset, cmdRingOffset)
	initRingHeader(m.mem, cmdRingOffset, cfg.CmdSlots)

	return &DaemonChannel{
		m:        m,
		name:     name,
		cfg:      cfg,
		writer:   newSeqlockWriter(m.mem, seqlockOffset, cfg.DataSize),
		consumer: newCommandConsumer(m.mem, cmdRingOffset, cfg.CmdSlots),
	}, nil
}

// WriteData publishes data as the channel's current state. Every attached
// shell can read it back with ReadData. len(data) must not exceed the
// configured data size.
func (d *DaemonChannel) WriteData(data []byte) {
	d.writer.Write(data)
}

// TryRecvCommand takes the oldest pending command, if any. It returns the
// sending shell's client id and the number of command bytes copied into buf.
func (d *DaemonChannel) TryRecvCommand(buf []byte) (clientID uint32, n int, ok bool) {
	return d.consumer.TryRecv(buf)
}

// RecvCommand spins until a command arrives.
func (d *DaemonChannel) RecvCommand(buf []byte) (clientID uint32, n int) {
	return d.consumer.Recv(buf)
}

// Run drains commands in a loop, invoking handler for each and publishing
// whatever it returns as the new state. A shell sending ShutdownCommand
// stops the loop.
func (d *DaemonChannel) Run(handler func(clientID uint32, cmd []byte) []byte) {
	buf := make([]byte, SlotPayloadSize)

	for {
		clientID, n := d.RecvCommand(buf)
		cmd := buf[:n]

		if bytes.Equal(cmd, ShutdownCommand) {
			return
		}

		if resp := handler(clientID, cmd); resp != nil {
			d.WriteData(resp)
		}
	}
}

// Name returns the channel's logical name.
func (d *DaemonChannel) Name() string {
	return d.name
}

// Config returns the channel geometry after normalization.
func (d *DaemonChannel) Config() ChannelConfig {
	return d.cfg
}

// RingState returns a diagnostic snapshot of the command ring cursors.
func (d *DaemonChannel) RingState() RingState {
	return d.consumer.State()
}

// RawPtr returns the base of the mapped region for diagnostics.
func (d *DaemonChannel) RawPtr() unsafe.Pointer {
	return unsafe.Pointer(&d.m.mem[0])
}

// Close unmaps the region and removes the backing object. The daemon is the
// only participant allowed to remove it.
func (d *DaemonChannel) Close() error {
	if d.m == nil {
		return nil
	}
	err := d.m.close()
	d.m = nil
	if rmErr := RemoveChannel(d.name); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
