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

package audiostate

import (
	"encoding/binary"
	"fmt"
)

// Op identifies a command record.
type Op uint8

// Command operations. The record format is fixed at CommandSize bytes so
// every command fits one channel slot.
const (
	OpSetVolume Op = iota + 1
	OpSetMuted
	OpSetMicVolume
	OpSetMicMuted
	OpSetDefaultSink
	OpSetDefaultSource
	OpSetSinkVolume
	OpSetSourceVolume
	OpSetAppVolume
	OpSetAppMuted
	OpMoveAppToSink
	OpSetOveramplification
	OpRefresh
)

// Command record layout constants
const (
	// CommandSize is the encoded size of one command record. It equals the
	// channel's slot payload so a command always travels in a single slot.
	CommandSize = 52

	// MaxCmdName bounds the device name carried in a command record.
	// Longer names are truncated on encode.
	MaxCmdName = CommandSize - 12
)

// Command is one shell-to-daemon request.
type Command struct {
	Op    Op
	Index uint32 // application stream index, for the app ops
	Value int32  // volume, or 0/1 for the boolean ops
	Name  string // device name, for the device ops
}

// Encode serializes the command into buf, which must hold at least
// CommandSize bytes. Returns the encoded size.
func (c Command) Encode(buf []byte) (int, error) {
	if len(buf) < CommandSize {
		return 0, fmt.Errorf("audiostate: command buffer is %d bytes, need %d", len(buf), CommandSize)
	}

	le := binary.LittleEndian

	buf[0] = byte(c.Op)
	buf[1] = 0
	buf[2] = 0
	buf[3] = 0
	le.PutUint32(buf[4:], c.Index)
	le.PutUint32(buf[8:], uint32(c.Value))
	putString(buf[12:CommandSize], c.Name)

	return CommandSize, nil
}

// DecodeCommand parses one command record.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < CommandSize {
		return Command{}, fmt.Errorf("audiostate: command record is %d bytes, need %d", len(buf), CommandSize)
	}

	le := binary.LittleEndian

	c := Command{
		Op:    Op(buf[0]),
		Index: le.Uint32(buf[4:]),
		Value: int32(le.Uint32(buf[8:])),
		Name:  getString(buf[12:CommandSize]),
	}
	if c.Op == 0 || c.Op > OpRefresh {
		return Command{}, fmt.Errorf("audiostate: unknown command op %d", buf[0])
	}
	return c, nil
}

// String renders the op for logs.
func (op Op) String() string {
	switch op {
	case OpSetVolume:
		return "set-volume"
	case OpSetMuted:
		return "set-muted"
	case OpSetMicVolume:
		return "set-mic-volume"
	case OpSetMicMuted:
		return "set-mic-muted"
	case OpSetDefaultSink:
		return "set-default-sink"
	case OpSetDefaultSource:
		return "set-default-source"
	case OpSetSinkVolume:
		return "set-sink-volume"
	case OpSetSourceVolume:
		return "set-source-volume"
	case OpSetAppVolume:
		return "set-app-volume"
	case OpSetAppMuted:
		return "set-app-muted"
	case OpMoveAppToSink:
		return "move-app-to-sink"
	case OpSetOveramplification:
		return "set-overamplification"
	case OpRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Apply mutates the state per the command, clamping volumes to the state's
// allowed range. Unknown device names are ignored, matching the daemon's
// behavior for stale shells.
func (c Command) Apply(s *State) {
	clamp := func(v int32) int32 {
		max := s.MaxVolume
		if max == 0 {
			max = 100
		}
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}
	known := func(devs []Device, name string) bool {
		for _, d := range devs {
			if d.Name == name {
				return true
			}
		}
		return false
	}

	switch c.Op {
	case OpSetVolume:
		s.Volume = clamp(c.Value)
	case OpSetMuted:
		s.Muted = c.Value != 0
	case OpSetMicVolume:
		s.MicVolume = clamp(c.Value)
	case OpSetMicMuted:
		s.MicMuted = c.Value != 0
	case OpSetDefaultSink:
		if !known(s.Sinks, c.Name) {
			break
		}
		for i := range s.Sinks {
			s.Sinks[i].IsDefault = s.Sinks[i].Name == c.Name
			if s.Sinks[i].IsDefault {
				s.DefaultSink = c.Name
			}
		}
	case OpSetDefaultSource:
		if !known(s.Sources, c.Name) {
			break
		}
		for i := range s.Sources {
			s.Sources[i].IsDefault = s.Sources[i].Name == c.Name
			if s.Sources[i].IsDefault {
				s.DefaultSource = c.Name
			}
		}
	case OpSetSinkVolume:
		for i := range s.Sinks {
			if s.Sinks[i].Name == c.Name {
				s.Sinks[i].Volume = clamp(c.Value)
			}
		}
	case OpSetSourceVolume:
		for i := range s.Sources {
			if s.Sources[i].Name == c.Name {
				s.Sources[i].Volume = clamp(c.Value)
			}
		}
	case OpSetAppVolume:
		for i := range s.Apps {
			if s.Apps[i].Index == c.Index {
				s.Apps[i].Volume = clamp(c.Value)
			}
		}
	case OpSetAppMuted:
		for i := range s.Apps {
			if s.Apps[i].Index == c.Index {
				s.Apps[i].Muted = c.Value != 0
			}
		}
	case OpMoveAppToSink:
		// The shared layout carries no per-app sink field; moving a stream
		// only matters to the real mixer backend. No state change here.
	case OpSetOveramplification:
		s.Overamplification = c.Value != 0
		if s.Overamplification {
			s.MaxVolume = 150
		} else {
			s.MaxVolume = 100
			s.Volume = clamp(s.Volume)
		}
	case OpRefresh:
		// Publication itself is the refresh.
	}
}
