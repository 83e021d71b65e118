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

// vnom-shell attaches to a running vnom-daemon channel. It can watch the
// published state, dump it once, or send a single command.
//
//	vnom-shell -name vnom_demo get
//	vnom-shell -name vnom_demo watch
//	vnom-shell -name vnom_demo set-volume 40
//	vnom-shell -name vnom_demo set-muted 1
//	vnom-shell -name vnom_demo set-default-sink <sink-name>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"

	"github.com/vnom-ipc/vnom"
	"github.com/vnom-ipc/vnom/internal/audiostate"
)

func main() {
	name := flag.String("name", "vnom_demo", "channel name")
	hz := flag.Int("hz", 20, "watch poll frequency")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vnom-shell [-name NAME] get|watch|<command> [args]")
		os.Exit(2)
	}

	shell, err := vnom.Connect(*name)
	if err != nil {
		log.WithError(err).Fatal("failed to connect")
	}
	defer shell.Close()

	log.WithFields(logrus.Fields{
		"name":      *name,
		"client_id": shell.ClientID(),
	}).Info("connected")

	switch args[0] {
	case "get":
		state := readState(log, shell)
		printState(log, state)

	case "watch":
		watch(log, shell, *hz)

	default:
		cmd, err := parseCommand(args)
		if err != nil {
			log.WithError(err).Fatal("bad command")
		}
		sendCommand(log, shell, cmd)
	}
}

func readState(log *logrus.Logger, shell *vnom.ShellChannel) *audiostate.State {
	buf := make([]byte, audiostate.StateSize)
	n := shell.ReadData(buf)
	if n == 0 {
		log.Fatal("channel has no published state yet")
	}
	state, err := audiostate.Decode(buf[:n])
	if err != nil {
		log.WithError(err).Fatal("failed to decode state")
	}
	return state
}

func printState(log *logrus.Logger, state *audiostate.State) {
	out, err := sonnet.MarshalIndent(state, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("failed to render state")
	}
	fmt.Println(string(out))
}

// watch polls the data region and prints the state whenever the daemon's
// update counter advances.
func watch(log *logrus.Logger, shell *vnom.ShellChannel, hz int) {
	if hz <= 0 {
		hz = 20
	}
	buf := make([]byte, audiostate.StateSize)
	var lastCounter uint64
	var lastSeq uint64

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for range ticker.C {
		// Cheap change detection before decoding the full blob.
		seq := shell.DataSequence()
		if seq == lastSeq {
			continue
		}
		lastSeq = seq

		n := shell.ReadData(buf)
		if n == 0 {
			continue
		}
		state, err := audiostate.Decode(buf[:n])
		if err != nil {
			log.WithError(err).Warn("skipping undecodable state")
			continue
		}
		if state.UpdateCounter == lastCounter {
			continue
		}
		lastCounter = state.UpdateCounter
		printState(log, state)
	}
}

func sendCommand(log *logrus.Logger, shell *vnom.ShellChannel, cmd audiostate.Command) {
	buf := make([]byte, audiostate.CommandSize)
	n, err := cmd.Encode(buf)
	if err != nil {
		log.WithError(err).Fatal("failed to encode command")
	}
	if !shell.TrySendCommand(buf[:n]) {
		log.Fatal("command ring is full")
	}
	log.WithField("op", cmd.Op).Info("command sent")
}

func parseCommand(args []string) (audiostate.Command, error) {
	ops := map[string]audiostate.Op{
		"set-volume":            audiostate.OpSetVolume,
		"set-muted":             audiostate.OpSetMuted,
		"set-mic-volume":        audiostate.OpSetMicVolume,
		"set-mic-muted":         audiostate.OpSetMicMuted,
		"set-default-sink":      audiostate.OpSetDefaultSink,
		"set-default-source":    audiostate.OpSetDefaultSource,
		"set-sink-volume":       audiostate.OpSetSinkVolume,
		"set-source-volume":     audiostate.OpSetSourceVolume,
		"set-app-volume":        audiostate.OpSetAppVolume,
		"set-app-muted":         audiostate.OpSetAppMuted,
		"set-overamplification": audiostate.OpSetOveramplification,
		"refresh":               audiostate.OpRefresh,
	}

	op, ok := ops[args[0]]
	if !ok {
		return audiostate.Command{}, fmt.Errorf("unknown command %q", args[0])
	}
	cmd := audiostate.Command{Op: op}

	switch op {
	case audiostate.OpSetVolume, audiostate.OpSetMicVolume,
		audiostate.OpSetMuted, audiostate.OpSetMicMuted,
		audiostate.OpSetOveramplification:
		if len(args) < 2 {
			return cmd, fmt.Errorf("%s needs a value", args[0])
		}
		v, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return cmd, fmt.Errorf("bad value %q: %w", args[1], err)
		}
		cmd.Value = int32(v)

	case audiostate.OpSetDefaultSink, audiostate.OpSetDefaultSource:
		if len(args) < 2 {
			return cmd, fmt.Errorf("%s needs a device name", args[0])
		}
		cmd.Name = args[1]

	case audiostate.OpSetSinkVolume, audiostate.OpSetSourceVolume:
		if len(args) < 3 {
			return cmd, fmt.Errorf("%s needs a device name and a volume", args[0])
		}
		cmd.Name = args[1]
		v, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return cmd, fmt.Errorf("bad volume %q: %w", args[2], err)
		}
		cmd.Value = int32(v)

	case audiostate.OpSetAppVolume, audiostate.OpSetAppMuted:
		if len(args) < 3 {
			return cmd, fmt.Errorf("%s needs a stream index and a value", args[0])
		}
		idx, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return cmd, fmt.Errorf("bad index %q: %w", args[1], err)
		}
		cmd.Index = uint32(idx)
		v, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return cmd, fmt.Errorf("bad value %q: %w", args[2], err)
		}
		cmd.Value = int32(v)

	case audiostate.OpRefresh:
		// No arguments.
	}

	return cmd, nil
}
