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

// vnom-daemon creates a channel and publishes a synthesized audio state,
// applying commands sent by shells. It stands in for the real mixer daemon:
// the state it publishes is simulated, but the channel traffic is the real
// protocol.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vnom-ipc/vnom"
	"github.com/vnom-ipc/vnom/internal/audiostate"
)

func main() {
	name := flag.String("name", "vnom_demo", "channel name")
	dataSize := flag.Uint64("data-size", vnom.DefaultConfig().DataSize, "data region size in bytes")
	cmdSlots := flag.Uint64("cmd-slots", vnom.DefaultConfig().CmdSlots, "command ring slots (rounded up to a power of two)")
	interval := flag.Duration("interval", 100*time.Millisecond, "command poll interval")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := vnom.ChannelConfig{
		DataSize: *dataSize,
		CmdSlots: *cmdSlots,
	}

	daemon, err := vnom.CreateDaemon(*name, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to create channel")
	}
	defer daemon.Close()

	log.WithFields(logrus.Fields{
		"name":      *name,
		"data_size": daemon.Config().DataSize,
		"cmd_slots": daemon.Config().CmdSlots,
		"pid":       os.Getpid(),
	}).Info("channel created")

	state := initialState()
	stateBuf := make([]byte, audiostate.StateSize)
	cmdBuf := make([]byte, vnom.SlotPayloadSize)

	publish := func() {
		state.UpdateCounter++
		state.TimestampNs = uint64(time.Now().UnixNano())
		n, err := state.Encode(stateBuf)
		if err != nil {
			log.WithError(err).Fatal("state encode failed")
		}
		daemon.WriteData(stateBuf[:n])
	}
	publish()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	cmdCount := uint64(0)
	start := time.Now()

	for {
		select {
		case sig := <-sigCh:
			log.WithFields(logrus.Fields{
				"signal":   sig,
				"commands": cmdCount,
				"uptime":   time.Since(start).Round(time.Second),
			}).Info("shutting down")
			return

		case <-ticker.C:
			// Drain all pending commands, then publish once if anything
			// changed state.
			changed := false
			for {
				clientID, n, ok := daemon.TryRecvCommand(cmdBuf)
				if !ok {
					break
				}
				cmdCount++

				cmd, err := audiostate.DecodeCommand(cmdBuf[:n])
				if err != nil {
					log.WithError(err).WithField("client", clientID).Warn("dropping malformed command")
					continue
				}

				log.WithFields(logrus.Fields{
					"client": clientID,
					"op":     cmd.Op,
					"index":  cmd.Index,
					"value":  cmd.Value,
					"name":   cmd.Name,
				}).Debug("command")

				cmd.Apply(state)
				changed = true
			}
			if changed {
				publish()
			}
		}
	}
}

// initialState synthesizes a plausible host audio state.
func initialState() *audiostate.State {
	return &audiostate.State{
		Volume:        65,
		MicVolume:     80,
		MaxVolume:     100,
		DefaultSink:   "alsa_output.pci-0000_00_1f.3.analog-stereo",
		DefaultSource: "alsa_input.pci-0000_00_1f.3.analog-stereo",
		Sinks: []audiostate.Device{
			{
				Name:        "alsa_output.pci-0000_00_1f.3.analog-stereo",
				Description: "Built-in Audio Analog Stereo",
				Volume:      65,
				IsDefault:   true,
			},
			{
				Name:        "alsa_output.usb-0d8c_USB_Sound_Device-00.analog-stereo",
				Description: "USB Sound Device Analog Stereo",
				Volume:      100,
			},
		},
		Sources: []audiostate.Device{
			{
				Name:        "alsa_input.pci-0000_00_1f.3.analog-stereo",
				Description: "Built-in Audio Analog Stereo",
				Volume:      80,
				IsDefault:   true,
			},
		},
		Apps: []audiostate.AppStream{
			{Index: 1, Name: "Music Player", Icon: "audio-player", Volume: 70},
			{Index: 2, Name: "Browser", Icon: "web-browser", Volume: 100},
		},
	}
}
