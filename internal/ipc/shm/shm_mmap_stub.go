//go:build !linux || !(amd64 || arm64)

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
	"fmt"
	"os"
)

// The fixed layout assumes little-endian 64-bit peers; only linux/amd64 and
// linux/arm64 are supported.

type mapping struct {
	file *os.File
	mem  []byte
	path string
}

func createMapping(name string, size uint64) (*mapping, error) {
	return nil, fmt.Errorf("%w: shared memory channels are unsupported on this platform", ErrMappingFailed)
}

func attachMapping(name string) (*mapping, error) {
	return nil, fmt.Errorf("%w: shared memory channels are unsupported on this platform", ErrMappingFailed)
}

func (m *mapping) close() error {
	return nil
}

// RemoveChannel unlinks a channel's backing object by name.
func RemoveChannel(name string) error {
	return fmt.Errorf("%w: shared memory channels are unsupported on this platform", ErrMappingFailed)
}

// ChannelExists reports whether a channel's backing object is present.
func ChannelExists(name string) bool {
	return false
}
