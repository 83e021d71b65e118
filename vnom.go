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

// Package vnom is a single-writer / multiple-reader shared-memory IPC
// channel: one daemon process publishes a byte blob of state through a
// seqlock, and any number of shell processes read it and submit commands
// back through a bounded lock-free MPSC ring. No kernel calls happen on
// either path after the mapping is established.
//
// The daemon side:
//
//	d, err := vnom.CreateDaemon("demo", vnom.DefaultConfig())
//	d.WriteData(state)
//	if id, n, ok := d.TryRecvCommand(buf); ok { ... }
//
// The shell side:
//
//	s, err := vnom.Connect("demo")
//	n := s.ReadData(buf)
//	s.TrySendCommand(cmd)
package vnom

import (
	"github.com/vnom-ipc/vnom/internal/ipc/shm"
)

// ChannelConfig selects the geometry of a channel at creation time.
type ChannelConfig = shm.ChannelConfig

// DaemonChannel is the creator side of a channel.
type DaemonChannel = shm.DaemonChannel

// ShellChannel is the attacher side of a channel.
type ShellChannel = shm.ShellChannel

// RingState is a diagnostic snapshot of the command ring cursors.
type RingState = shm.RingState

// Limits of the fixed layout.
const (
	// SlotPayloadSize is the largest command a single slot carries.
	SlotPayloadSize = shm.SlotPayloadSize
)

// Errors returned by CreateDaemon and Connect.
var (
	ErrNotFound      = shm.ErrNotFound
	ErrMappingFailed = shm.ErrMappingFailed
	ErrInvalidLayout = shm.ErrInvalidLayout
	ErrNameTooLong   = shm.ErrNameTooLong
)

// DefaultConfig returns the default channel geometry: a 64KB data region and
// 32 command slots.
func DefaultConfig() ChannelConfig {
	return shm.DefaultConfig()
}

// CreateDaemon creates a channel and returns the daemon handle. An existing
// channel of the same name is replaced.
func CreateDaemon(name string, cfg ChannelConfig) (*DaemonChannel, error) {
	return shm.CreateDaemon(name, cfg)
}

// Connect attaches to an existing channel as a shell.
func Connect(name string) (*ShellChannel, error) {
	return shm.Connect(name)
}

// Remove unlinks a channel's backing object by name. Live mappings remain
// valid until unmapped.
func Remove(name string) error {
	return shm.RemoveChannel(name)
}

// Exists reports whether a channel's backing object is present.
func Exists(name string) bool {
	return shm.ChannelExists(name)
}
