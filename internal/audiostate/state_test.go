package audiostate

import (
	"strings"
	"testing"
)

func sampleState() *State {
	return &State{
		Volume:            65,
		MicVolume:         80,
		Muted:             false,
		MicMuted:          true,
		Overamplification: false,
		MaxVolume:         100,
		DefaultSink:       "alsa_output.pci-0000_00_1f.3.analog-stereo",
		DefaultSource:     "alsa_input.pci-0000_00_1f.3.analog-stereo",
		Sinks: []Device{
			{Name: "alsa_output.pci-0000_00_1f.3.analog-stereo", Description: "Built-in Audio", Volume: 65, IsDefault: true},
			{Name: "usb-headset", Description: "USB Headset", Volume: 100, Muted: true},
		},
		Sources: []Device{
			{Name: "alsa_input.pci-0000_00_1f.3.analog-stereo", Description: "Built-in Mic", Volume: 80, IsDefault: true},
		},
		Apps: []AppStream{
			{Index: 7, Name: "Music Player", Icon: "audio-player", Volume: 70},
			{Index: 12, Name: "Browser", Icon: "web-browser", Volume: 100, Muted: true},
		},
		UpdateCounter: 42,
		TimestampNs:   1234567890,
	}
}

func TestStateEncodeDecode(t *testing.T) {
	state := sampleState()

	buf := make([]byte, StateSize)
	n, err := state.Encode(buf)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if n != StateSize {
		t.Fatalf("encoded %d bytes, expected %d", n, StateSize)
	}

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.Volume != 65 || got.MicVolume != 80 || !got.MicMuted || got.Muted {
		t.Fatalf("volume fields mismatch: %+v", got)
	}
	if got.DefaultSink != state.DefaultSink || got.DefaultSource != state.DefaultSource {
		t.Fatalf("default device mismatch: %+v", got)
	}
	if len(got.Sinks) != 2 || len(got.Sources) != 1 || len(got.Apps) != 2 {
		t.Fatalf("list lengths mismatch: %d sinks, %d sources, %d apps",
			len(got.Sinks), len(got.Sources), len(got.Apps))
	}
	if got.Sinks[1].Name != "usb-headset" || !got.Sinks[1].Muted {
		t.Fatalf("sink mismatch: %+v", got.Sinks[1])
	}
	if got.Apps[1].Index != 12 || got.Apps[1].Icon != "web-browser" || !got.Apps[1].Muted {
		t.Fatalf("app mismatch: %+v", got.Apps[1])
	}
	if got.UpdateCounter != 42 || got.TimestampNs != 1234567890 {
		t.Fatalf("counter mismatch: %+v", got)
	}
}

func TestDecodeRejectsBadBlob(t *testing.T) {
	if _, err := Decode(make([]byte, 16)); err == nil {
		t.Fatal("expected error for a short blob")
	}

	buf := make([]byte, StateSize)
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for zero magic")
	}
}

func TestCommandEncodeDecode(t *testing.T) {
	cmd := Command{Op: OpSetSinkVolume, Value: 40, Name: "usb-headset"}

	buf := make([]byte, CommandSize)
	n, err := cmd.Encode(buf)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if n != CommandSize {
		t.Fatalf("encoded %d bytes, expected %d", n, CommandSize)
	}

	got, err := DecodeCommand(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Op != OpSetSinkVolume || got.Value != 40 || got.Name != "usb-headset" {
		t.Fatalf("command mismatch: %+v", got)
	}
}

func TestCommandNameTruncation(t *testing.T) {
	long := strings.Repeat("x", 2*MaxCmdName)
	cmd := Command{Op: OpSetDefaultSink, Name: long}

	buf := make([]byte, CommandSize)
	if _, err := cmd.Encode(buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := DecodeCommand(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got.Name) != MaxCmdName {
		t.Fatalf("expected name truncated to %d chars, got %d", MaxCmdName, len(got.Name))
	}
}

func TestDecodeCommandRejectsUnknownOp(t *testing.T) {
	buf := make([]byte, CommandSize)
	buf[0] = 200
	if _, err := DecodeCommand(buf); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestCommandApply(t *testing.T) {
	state := sampleState()

	Command{Op: OpSetVolume, Value: 120}.Apply(state)
	if state.Volume != 100 {
		t.Fatalf("expected volume clamped to 100, got %d", state.Volume)
	}

	Command{Op: OpSetOveramplification, Value: 1}.Apply(state)
	if state.MaxVolume != 150 {
		t.Fatalf("expected max volume 150, got %d", state.MaxVolume)
	}
	Command{Op: OpSetVolume, Value: 120}.Apply(state)
	if state.Volume != 120 {
		t.Fatalf("expected 120 allowed under overamplification, got %d", state.Volume)
	}

	Command{Op: OpSetOveramplification, Value: 0}.Apply(state)
	if state.MaxVolume != 100 || state.Volume != 100 {
		t.Fatalf("expected volume reclamped to 100, got %d/%d", state.Volume, state.MaxVolume)
	}

	Command{Op: OpSetMuted, Value: 1}.Apply(state)
	if !state.Muted {
		t.Fatal("expected muted")
	}

	Command{Op: OpSetDefaultSink, Name: "usb-headset"}.Apply(state)
	if state.DefaultSink != "usb-headset" || !state.Sinks[1].IsDefault || state.Sinks[0].IsDefault {
		t.Fatalf("default sink switch failed: %+v", state)
	}

	Command{Op: OpSetAppVolume, Index: 7, Value: 55}.Apply(state)
	if state.Apps[0].Volume != 55 {
		t.Fatalf("expected app volume 55, got %d", state.Apps[0].Volume)
	}
}
