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

// Package shm implements a single-writer / multiple-reader shared memory
// channel for inter-process communication on the local host.
//
// A channel is one POSIX shared memory object partitioned into three fixed
// regions: a channel header carrying the layout geometry, a seqlock-protected
// data region the daemon publishes into, and a bounded multi-producer /
// single-consumer command ring the shells submit into. After the mapping is
// established no operation touches the kernel: publication uses a seqlock
// (readers retry on conflict, the writer never blocks), and command delivery
// uses per-slot state words with compare-and-swap ownership transfer.
//
// Exactly one process (the daemon) creates a channel and is the only writer
// of the data region and the only consumer of the command ring. Any number of
// shell processes attach, read the published data, and send commands. All
// peers must share pointer width and endianness; the on-disk layout is fixed
// little-endian 64-bit.
package shm
