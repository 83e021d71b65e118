//go:build linux && (amd64 || arm64)

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
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	// channelPrefix is the fixed prefix of every backing object name.
	channelPrefix = "vnom_"

	// maxNameLen bounds the logical name so the full object name stays under
	// the POSIX name limit.
	maxNameLen = 255 - len(channelPrefix)
)

// mapping is a live read/write view of one channel's backing object.
type mapping struct {
	file *os.File
	mem  []byte
	path string
}

// createMapping establishes the backing object for a new channel: the object
// is created fresh (a stale object of the same name is removed first so the
// layout starts clean), truncated to exactly size bytes, and mapped
// read/write. A newly created and truncated object reads as zeros.
func createMapping(name string, size uint64) (*mapping, error) {
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: %d chars, max %d", ErrNameTooLong, len(name), maxNameLen)
	}

	path := channelPath(name)

	// Remove any stale object so O_EXCL creation always starts from zeros.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: removing stale object %s: %v", ErrMappingFailed, path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrMappingFailed, path, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: sizing %s to %d bytes: %v", ErrMappingFailed, path, size, err)
	}

	mem, err := mmapFile(file, int(size))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrMappingFailed, err)
	}

	return &mapping{file: file, mem: mem, path: path}, nil
}

// attachMapping opens an existing channel's backing object at its current
// size and maps it read/write. The caller validates the header before use.
func attachMapping(name string) (*mapping, error) {
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: %d chars, max %d", ErrNameTooLong, len(name), maxNameLen)
	}

	path := channelPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: opening %s: %v", ErrMappingFailed, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrMappingFailed, path, err)
	}

	size := info.Size()
	if size < channelHeaderBytes {
		file.Close()
		return nil, fmt.Errorf("%w: object is %d bytes, smaller than the channel header", ErrInvalidLayout, size)
	}

	mem, err := mmapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", ErrMappingFailed, err)
	}

	return &mapping{file: file, mem: mem, path: path}, nil
}

// close unmaps the region and closes the backing file. The object itself is
// left in place; only the creator removes it.
func (m *mapping) close() error {
	var firstErr error

	if m.mem != nil {
		if err := unix.Munmap(m.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		m.mem = nil
	}

	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.file = nil
	}

	return firstErr
}

// RemoveChannel unlinks a channel's backing object by name. Existing mappings
// remain valid until unmapped.
func RemoveChannel(name string) error {
	err := os.Remove(channelPath(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ChannelExists reports whether a channel's backing object is present.
func ChannelExists(name string) bool {
	_, err := os.Stat(channelPath(name))
	return err == nil
}

// channelPath returns the backing object path for a logical channel name.
func channelPath(name string) string {
	// /dev/shm is the shared memory convention on Linux; fall back to the
	// temporary directory where it is absent.
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", channelPrefix+name)
	}
	return filepath.Join(os.TempDir(), channelPrefix+name)
}

// isDevShmAvailable checks if /dev/shm is available.
func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}
	return info.IsDir()
}

// mmapFile maps a file read/write and shared.
func mmapFile(file *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return data, nil
}
