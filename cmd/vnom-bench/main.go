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

// vnom-bench exercises a channel at saturation and reports what it sees:
// layout geometry, seqlock publish/read throughput with torn-read detection,
// and command ring throughput with exactly-once delivery accounting.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash"

	"github.com/vnom-ipc/vnom"
)

func main() {
	mode := flag.String("mode", "layout", "layout | seqlock | ring")
	name := flag.String("name", fmt.Sprintf("bench_%d", os.Getpid()), "channel name")
	dataSize := flag.Uint64("data-size", 4096, "data region size for seqlock mode")
	readers := flag.Int("readers", 16, "reader goroutines for seqlock mode")
	producers := flag.Int("producers", 8, "producer goroutines for ring mode")
	slots := flag.Uint64("cmd-slots", 64, "command ring slots")
	duration := flag.Duration("duration", 10*time.Second, "run time for seqlock and ring modes")
	flag.Parse()

	switch *mode {
	case "layout":
		reportLayout()
	case "seqlock":
		benchSeqlock(*name, *dataSize, *readers, *duration)
	case "ring":
		benchRing(*name, *slots, *producers, *duration)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

// reportLayout prints the channel geometry for a range of configurations.
func reportLayout() {
	fmt.Printf("=== Channel Layout ===\n")
	fmt.Printf("slot size: 64 bytes, slot payload: %d bytes\n\n", vnom.SlotPayloadSize)

	configs := []vnom.ChannelConfig{
		{DataSize: 4096, CmdSlots: 4},
		{DataSize: 64 * 1024, CmdSlots: 32},
		{DataSize: 1024 * 1024, CmdSlots: 256},
	}

	for _, cfg := range configs {
		d, err := vnom.CreateDaemon(fmt.Sprintf("layout_%d_%d", os.Getpid(), cfg.DataSize), cfg)
		if err != nil {
			log.Fatalf("create failed: %v", err)
		}
		got := d.Config()
		fmt.Printf("data=%d slots=%d -> normalized slots=%d\n", cfg.DataSize, cfg.CmdSlots, got.CmdSlots)
		d.Close()
	}
}

// benchSeqlock runs one publisher against N readers. Every publication
// carries a sequence number and an xxhash fingerprint of its body; a reader
// that observes a payload whose fingerprint does not match saw a torn read.
func benchSeqlock(name string, dataSize uint64, readers int, duration time.Duration) {
	daemon, err := vnom.CreateDaemon(name, vnom.ChannelConfig{DataSize: dataSize, CmdSlots: 4})
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	defer daemon.Close()

	payloadLen := int(dataSize)
	var published, reads, torn uint64
	stop := make(chan struct{})
	var wg sync.WaitGroup

	// Publisher: body bytes derived from the iteration counter, fingerprint
	// in the first 16 bytes.
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, payloadLen)
		var i uint64
		for {
			select {
			case <-stop:
				return
			default:
			}
			i++
			binary.LittleEndian.PutUint64(buf[0:], i)
			for j := 16; j < payloadLen; j++ {
				buf[j] = byte(i + uint64(j))
			}
			binary.LittleEndian.PutUint64(buf[8:], xxhash.Sum64(buf[16:]))
			daemon.WriteData(buf)
			atomic.AddUint64(&published, 1)
		}
	}()

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shell, err := vnom.Connect(name)
			if err != nil {
				log.Fatalf("connect failed: %v", err)
			}
			defer shell.Close()

			buf := make([]byte, payloadLen)
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := shell.ReadData(buf)
				if n == 0 {
					continue
				}
				atomic.AddUint64(&reads, 1)
				want := binary.LittleEndian.Uint64(buf[8:])
				if got := xxhash.Sum64(buf[16:n]); got != want {
					atomic.AddUint64(&torn, 1)
				}
			}
		}()
	}

	time.Sleep(duration)
	close(stop)
	wg.Wait()

	secs := duration.Seconds()
	fmt.Printf("=== Seqlock: 1 publisher, %d readers, %v ===\n", readers, duration)
	fmt.Printf("published: %d (%.0f/s)\n", published, float64(published)/secs)
	fmt.Printf("reads:     %d (%.0f/s)\n", reads, float64(reads)/secs)
	fmt.Printf("torn:      %d\n", torn)
	if torn > 0 {
		os.Exit(1)
	}
}

// benchRing saturates the command ring from P producers and verifies the
// consumer sees every accepted message exactly once and in per-producer
// order. Each message carries the producer's index and its per-producer
// sequence number.
func benchRing(name string, slots uint64, producers int, duration time.Duration) {
	daemon, err := vnom.CreateDaemon(name, vnom.ChannelConfig{DataSize: 4096, CmdSlots: slots})
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	defer daemon.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	accepted := make([]uint64, producers)
	var full uint64

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			shell, err := vnom.Connect(name)
			if err != nil {
				log.Fatalf("connect failed: %v", err)
			}
			defer shell.Close()

			msg := make([]byte, 16)
			binary.LittleEndian.PutUint64(msg[0:], uint64(p))
			var seq uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				binary.LittleEndian.PutUint64(msg[8:], seq)
				if shell.TrySendCommand(msg) {
					seq++
					accepted[p]++
				} else {
					atomic.AddUint64(&full, 1)
				}
			}
		}(p)
	}

	// Consumer: drain until producers stop and the ring is empty.
	var delivered uint64
	lastSeq := make([]int64, producers)
	for i := range lastSeq {
		lastSeq[i] = -1
	}
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		buf := make([]byte, vnom.SlotPayloadSize)
		idle := 0
		for {
			_, n, ok := daemon.TryRecvCommand(buf)
			if !ok {
				select {
				case <-stop:
					idle++
					if idle > 1000 {
						return
					}
				default:
				}
				continue
			}
			idle = 0
			delivered++
			p := binary.LittleEndian.Uint64(buf[0:8])
			seq := int64(binary.LittleEndian.Uint64(buf[8:16]))
			if n != 16 || p >= uint64(producers) {
				log.Fatalf("corrupt message: n=%d p=%d", n, p)
			}
			if seq != lastSeq[p]+1 {
				log.Fatalf("producer %d: delivered seq %d after %d", p, seq, lastSeq[p])
			}
			lastSeq[p] = seq
		}
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	<-consumerDone

	var totalAccepted uint64
	for _, a := range accepted {
		totalAccepted += a
	}

	secs := duration.Seconds()
	fmt.Printf("=== Ring: %d producers, %d slots, %v ===\n", producers, slots, duration)
	fmt.Printf("accepted:  %d (%.0f/s)\n", totalAccepted, float64(totalAccepted)/secs)
	fmt.Printf("delivered: %d\n", delivered)
	fmt.Printf("full:      %d\n", full)
	state := daemon.RingState()
	fmt.Printf("ring:      head=%d tail=%d used=%d/%d\n", state.Head, state.Tail, state.Used, state.Capacity)
	if delivered != totalAccepted {
		log.Fatalf("lost messages: accepted %d, delivered %d", totalAccepted, delivered)
	}
}
