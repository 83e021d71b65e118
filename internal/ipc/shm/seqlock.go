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
	"sync/atomic"
	"unsafe"
)

// SeqlockWriter publishes into the data region. Only the daemon holds one,
// and it must not be used from more than one goroutine at a time.
//
// No Go pointers into shared memory are stored here; addresses are computed
// on demand from the mapped byte slice.
type SeqlockWriter struct {
	mem      []byte
	hdrOff   uintptr
	dataOff  uintptr
	dataSize uint64
}

// SeqlockReader reads the last committed publication. Any number of readers
// may exist across processes and goroutines.
type SeqlockReader struct {
	mem      []byte
	hdrOff   uintptr
	dataOff  uintptr
	dataSize uint64
}

// newSeqlockWriter builds a writer over the seqlock region at hdrOff.
func newSeqlockWriter(mem []byte, hdrOff, dataSize uint64) SeqlockWriter {
	return SeqlockWriter{
		mem:      mem,
		hdrOff:   uintptr(hdrOff),
		dataOff:  uintptr(hdrOff + SeqlockHeaderSize),
		dataSize: dataSize,
	}
}

// newSeqlockReader builds a reader over the seqlock region at hdrOff.
func newSeqlockReader(mem []byte, hdrOff, dataSize uint64) SeqlockReader {
	return SeqlockReader{
		mem:      mem,
		hdrOff:   uintptr(hdrOff),
		dataOff:  uintptr(hdrOff + SeqlockHeaderSize),
		dataSize: dataSize,
	}
}

func (w *SeqlockWriter) header() *seqlockHeader {
	return (*seqlockHeader)(unsafe.Pointer(uintptr(unsafe.Pointer(&w.mem[0])) + w.hdrOff))
}

func (w *SeqlockWriter) dataPtr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(&w.mem[0])) + w.dataOff)
}

// DataSize returns the payload capacity of the region.
func (w *SeqlockWriter) DataSize() uint64 {
	return w.dataSize
}

// Write publishes data as the new current state. Readers that start after
// the final sequence store observe exactly these bytes; readers that overlap
// the copy detect the odd sequence or the change and retry.
//
// len(data) must not exceed the region's data size; violating that is a
// programmer bug and panics.
func (w *SeqlockWriter) Write(data []byte) {
	if uint64(len(data)) > w.dataSize {
		panic(fmt.Sprintf("shm: publish of %d bytes exceeds data region size %d", len(data), w.dataSize))
	}

	hdr := w.header()
	seq := atomic.LoadUint64(&hdr.sequence)

	// Odd sequence: publish in progress.
	atomic.StoreUint64(&hdr.sequence, seq+1)

	dst := (*[1 << 30]byte)(w.dataPtr())
	copy(dst[:len(data)], data)
	atomic.StoreUint64(&hdr.dataLen, uint64(len(data)))

	// Even sequence: publish committed.
	atomic.StoreUint64(&hdr.sequence, seq+2)
}

func (r *SeqlockReader) header() *seqlockHeader {
	return (*seqlockHeader)(unsafe.Pointer(uintptr(unsafe.Pointer(&r.mem[0])) + r.hdrOff))
}

func (r *SeqlockReader) dataPtr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(&r.mem[0])) + r.dataOff)
}

// DataSize returns the payload capacity of the region.
func (r *SeqlockReader) DataSize() uint64 {
	return r.dataSize
}

// Sequence returns the current sequence value. Even means stable.
func (r *SeqlockReader) Sequence() uint64 {
	return atomic.LoadUint64(&r.header().sequence)
}

// Read copies the last committed publication into buf, retrying until a
// consistent snapshot is observed. It returns the number of bytes copied:
// the publication length, capped at len(buf). A freshly created channel
// reads as length 0.
func (r *SeqlockReader) Read(buf []byte) int {
	hdr := r.header()
	src := (*[1 << 30]byte)(r.dataPtr())

	for {
		s1 := atomic.LoadUint64(&hdr.sequence)
		if s1&1 != 0 {
			// Publish in progress.
			cpuRelax()
			continue
		}

		n := atomic.LoadUint64(&hdr.dataLen)
		if n > r.dataSize {
			n = r.dataSize
		}
		copied := n
		if copied > uint64(len(buf)) {
			copied = uint64(len(buf))
		}
		copy(buf[:copied], src[:copied])

		s2 := atomic.LoadUint64(&hdr.sequence)
		if s1 == s2 {
			return int(copied)
		}

		// A publish landed mid-copy.
		cpuRelax()
	}
}

// TryRead attempts a single consistent snapshot without retrying. It returns
// (bytes copied, true) on success and (0, false) if a publish was in flight
// or landed during the copy.
func (r *SeqlockReader) TryRead(buf []byte) (int, bool) {
	hdr := r.header()

	s1 := atomic.LoadUint64(&hdr.sequence)
	if s1&1 != 0 {
		return 0, false
	}

	n := atomic.LoadUint64(&hdr.dataLen)
	if n > r.dataSize {
		n = r.dataSize
	}
	copied := n
	if copied > uint64(len(buf)) {
		copied = uint64(len(buf))
	}
	src := (*[1 << 30]byte)(r.dataPtr())
	copy(buf[:copied], src[:copied])

	s2 := atomic.LoadUint64(&hdr.sequence)
	if s1 != s2 {
		return 0, false
	}
	return int(copied), true
}
