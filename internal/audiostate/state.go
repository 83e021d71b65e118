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

// Package audiostate defines the byte layout the demo daemon publishes
// through a vnom channel: the host's audio state (master volume, devices,
// application streams) plus the command records shells send back. The layout
// is fixed little-endian with explicit offsets so independently compiled
// peers agree on it; the channel itself treats the bytes as opaque.
package audiostate

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Layout constants
const (
	// StateMagic identifies the state blob. The four bytes read "UANV" on
	// the wire, "VNAU" as a big-endian constant.
	StateMagic = uint32(0x564E4155)

	// StateVersion is the current state layout version.
	StateVersion = uint32(1)

	// MaxDeviceName bounds device name and description strings.
	MaxDeviceName = 128

	// MaxAppName bounds application stream name and icon strings.
	MaxAppName = 64

	// MaxDevices bounds the sink and source lists.
	MaxDevices = 16

	// MaxAppStreams bounds the application stream list.
	MaxAppStreams = 32

	deviceSize = MaxDeviceName + MaxDeviceName + 4 + 1 + 1 + 2 // 264
	appSize    = 4 + MaxAppName + MaxAppName + 4 + 1 + 3       // 140

	// StateSize is the encoded size of a State blob.
	StateSize = 24 + 2*MaxDeviceName + // fixed head + default device names
		4 + MaxDevices*deviceSize + // sink count + sinks
		4 + MaxDevices*deviceSize + // source count + sources
		4 + MaxAppStreams*appSize + // app count + apps
		4 + 8 + 8 // pad + update counter + timestamp
)

// Device describes one output or input device.
type Device struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Volume      int32  `json:"volume"`
	Muted       bool   `json:"muted"`
	IsDefault   bool   `json:"is_default"`
}

// AppStream describes one application's playback stream.
type AppStream struct {
	Index  uint32 `json:"index"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Volume int32  `json:"volume"`
	Muted  bool   `json:"muted"`
}

// State is the full published audio state.
type State struct {
	Volume            int32       `json:"volume"`
	MicVolume         int32       `json:"mic_volume"`
	Muted             bool        `json:"muted"`
	MicMuted          bool        `json:"mic_muted"`
	Overamplification bool        `json:"overamplification"`
	MaxVolume         int32       `json:"max_volume"`
	DefaultSink       string      `json:"default_sink"`
	DefaultSource     string      `json:"default_source"`
	Sinks             []Device    `json:"sinks"`
	Sources           []Device    `json:"sources"`
	Apps              []AppStream `json:"apps"`
	UpdateCounter     uint64      `json:"update_counter"`
	TimestampNs       uint64      `json:"timestamp_ns"`
}

// Encode serializes the state into buf, which must hold at least StateSize
// bytes. Device and app lists beyond the layout maxima are truncated; strings
// are truncated to their field widths. Returns the encoded size.
func (s *State) Encode(buf []byte) (int, error) {
	if len(buf) < StateSize {
		return 0, fmt.Errorf("audiostate: encode buffer is %d bytes, need %d", len(buf), StateSize)
	}

	le := binary.LittleEndian

	le.PutUint32(buf[0:], StateMagic)
	le.PutUint32(buf[4:], StateVersion)
	le.PutUint32(buf[8:], uint32(s.Volume))
	le.PutUint32(buf[12:], uint32(s.MicVolume))
	buf[16] = encodeBool(s.Muted)
	buf[17] = encodeBool(s.MicMuted)
	buf[18] = encodeBool(s.Overamplification)
	buf[19] = 0
	le.PutUint32(buf[20:], uint32(s.MaxVolume))

	putString(buf[24:24+MaxDeviceName], s.DefaultSink)
	putString(buf[152:152+MaxDeviceName], s.DefaultSource)

	off := 280
	off = encodeDevices(buf, off, s.Sinks)
	off = encodeDevices(buf, off, s.Sources)
	off = encodeApps(buf, off, s.Apps)

	le.PutUint32(buf[off:], 0) // pad
	off += 4
	le.PutUint64(buf[off:], s.UpdateCounter)
	off += 8
	le.PutUint64(buf[off:], s.TimestampNs)
	off += 8

	return off, nil
}

// Decode parses a state blob, validating magic and version.
func Decode(buf []byte) (*State, error) {
	if len(buf) < StateSize {
		return nil, fmt.Errorf("audiostate: blob is %d bytes, need %d", len(buf), StateSize)
	}

	le := binary.LittleEndian

	if got := le.Uint32(buf[0:]); got != StateMagic {
		return nil, fmt.Errorf("audiostate: bad magic 0x%08X, expected 0x%08X", got, StateMagic)
	}
	if got := le.Uint32(buf[4:]); got != StateVersion {
		return nil, fmt.Errorf("audiostate: unsupported version %d, expected %d", got, StateVersion)
	}

	s := &State{
		Volume:            int32(le.Uint32(buf[8:])),
		MicVolume:         int32(le.Uint32(buf[12:])),
		Muted:             buf[16] != 0,
		MicMuted:          buf[17] != 0,
		Overamplification: buf[18] != 0,
		MaxVolume:         int32(le.Uint32(buf[20:])),
		DefaultSink:       getString(buf[24 : 24+MaxDeviceName]),
		DefaultSource:     getString(buf[152 : 152+MaxDeviceName]),
	}

	off := 280
	s.Sinks, off = decodeDevices(buf, off)
	s.Sources, off = decodeDevices(buf, off)
	s.Apps, off = decodeApps(buf, off)

	off += 4 // pad
	s.UpdateCounter = le.Uint64(buf[off:])
	off += 8
	s.TimestampNs = le.Uint64(buf[off:])

	return s, nil
}

func encodeDevices(buf []byte, off int, devices []Device) int {
	le := binary.LittleEndian

	count := len(devices)
	if count > MaxDevices {
		count = MaxDevices
	}
	le.PutUint32(buf[off:], uint32(count))
	off += 4

	for i := 0; i < MaxDevices; i++ {
		field := buf[off : off+deviceSize]
		if i < count {
			d := devices[i]
			putString(field[0:MaxDeviceName], d.Name)
			putString(field[MaxDeviceName:2*MaxDeviceName], d.Description)
			le.PutUint32(field[2*MaxDeviceName:], uint32(d.Volume))
			field[2*MaxDeviceName+4] = encodeBool(d.Muted)
			field[2*MaxDeviceName+5] = encodeBool(d.IsDefault)
			field[2*MaxDeviceName+6] = 0
			field[2*MaxDeviceName+7] = 0
		} else {
			zero(field)
		}
		off += deviceSize
	}
	return off
}

func decodeDevices(buf []byte, off int) ([]Device, int) {
	le := binary.LittleEndian

	count := int(le.Uint32(buf[off:]))
	if count > MaxDevices {
		count = MaxDevices
	}
	off += 4

	devices := make([]Device, 0, count)
	for i := 0; i < MaxDevices; i++ {
		field := buf[off : off+deviceSize]
		if i < count {
			devices = append(devices, Device{
				Name:        getString(field[0:MaxDeviceName]),
				Description: getString(field[MaxDeviceName : 2*MaxDeviceName]),
				Volume:      int32(le.Uint32(field[2*MaxDeviceName:])),
				Muted:       field[2*MaxDeviceName+4] != 0,
				IsDefault:   field[2*MaxDeviceName+5] != 0,
			})
		}
		off += deviceSize
	}
	return devices, off
}

func encodeApps(buf []byte, off int, apps []AppStream) int {
	le := binary.LittleEndian

	count := len(apps)
	if count > MaxAppStreams {
		count = MaxAppStreams
	}
	le.PutUint32(buf[off:], uint32(count))
	off += 4

	for i := 0; i < MaxAppStreams; i++ {
		field := buf[off : off+appSize]
		if i < count {
			a := apps[i]
			le.PutUint32(field[0:], a.Index)
			putString(field[4:4+MaxAppName], a.Name)
			putString(field[4+MaxAppName:4+2*MaxAppName], a.Icon)
			le.PutUint32(field[4+2*MaxAppName:], uint32(a.Volume))
			field[4+2*MaxAppName+4] = encodeBool(a.Muted)
			field[4+2*MaxAppName+5] = 0
			field[4+2*MaxAppName+6] = 0
			field[4+2*MaxAppName+7] = 0
		} else {
			zero(field)
		}
		off += appSize
	}
	return off
}

func decodeApps(buf []byte, off int) ([]AppStream, int) {
	le := binary.LittleEndian

	count := int(le.Uint32(buf[off:]))
	if count > MaxAppStreams {
		count = MaxAppStreams
	}
	off += 4

	apps := make([]AppStream, 0, count)
	for i := 0; i < MaxAppStreams; i++ {
		field := buf[off : off+appSize]
		if i < count {
			apps = append(apps, AppStream{
				Index:  le.Uint32(field[0:]),
				Name:   getString(field[4 : 4+MaxAppName]),
				Icon:   getString(field[4+MaxAppName : 4+2*MaxAppName]),
				Volume: int32(le.Uint32(field[4+2*MaxAppName:])),
				Muted:  field[4+2*MaxAppName+4] != 0,
			})
		}
		off += appSize
	}
	return apps, off
}

// putString copies s into field NUL-padded, truncating to the field width.
func putString(field []byte, s string) {
	n := copy(field, s)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

// getString reads a NUL-padded string field.
func getString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}

func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func zero(field []byte) {
	for i := range field {
		field[i] = 0
	}
}
