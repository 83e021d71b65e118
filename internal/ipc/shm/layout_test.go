package shm

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestLayoutCalculation(t *testing.T) {
	totalSize, seqlockOffset, cmdRingOffset, err := CalculateChannelLayout(64, 4)
	if err != nil {
		t.Fatalf("layout calculation failed: %v", err)
	}

	// Header struct is 80 bytes, so the seqlock region starts at the next
	// cache line boundary.
	if seqlockOffset != 128 {
		t.Fatalf("expected seqlock offset 128, got %d", seqlockOffset)
	}
	// Seqlock header (64) + 64 bytes of payload end exactly on a boundary.
	if cmdRingOffset != 256 {
		t.Fatalf("expected cmd ring offset 256, got %d", cmdRingOffset)
	}
	if want := cmdRingOffset + RingHeaderSize + 4*SlotSize; totalSize != want {
		t.Fatalf("expected total size %d, got %d", want, totalSize)
	}

	// Every region boundary is cache line aligned.
	for _, off := range []uint64{seqlockOffset, cmdRingOffset, totalSize} {
		if off%CacheLineSize != 0 {
			t.Fatalf("offset %d is not cache line aligned", off)
		}
	}
}

func TestLayoutRejectsBadGeometry(t *testing.T) {
	if _, _, _, err := CalculateChannelLayout(0, 4); err == nil {
		t.Fatal("expected error for zero data size")
	}
	if _, _, _, err := CalculateChannelLayout(64, 3); err == nil {
		t.Fatal("expected error for non-power-of-two slot count")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := []struct {
		in, want uint64
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{31, 32},
		{32, 32},
		{33, 64},
		{1000, 1024},
	}
	for _, c := range cases {
		if got := NextPowerOfTwo(c.in); got != c.want {
			t.Fatalf("NextPowerOfTwo(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestConfigNormalization(t *testing.T) {
	cfg := ChannelConfig{DataSize: 4096, CmdSlots: 5}.withDefaults()
	if cfg.CmdSlots != 8 {
		t.Fatalf("expected cmd slots rounded to 8, got %d", cfg.CmdSlots)
	}

	cfg = ChannelConfig{}.withDefaults()
	if cfg.DataSize != DefaultDataSize || cfg.CmdSlots != DefaultCmdSlots {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestAttachRejectsBadMagic(t *testing.T) {
	name := fmt.Sprintf("test-bad-magic-%d", time.Now().UnixNano())
	path := channelPath(name)

	// A foreign object at the channel's backing path: larger than the
	// header, wrong magic everywhere.
	junk := make([]byte, 4096)
	for i := range junk {
		junk[i] = 0xAA
	}
	if err := os.WriteFile(path, junk, 0644); err != nil {
		t.Fatalf("failed to plant junk object: %v", err)
	}
	defer os.Remove(path)

	_, err := Connect(name)
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestAttachRejectsTruncatedObject(t *testing.T) {
	name := fmt.Sprintf("test-truncated-%d", time.Now().UnixNano())
	path := channelPath(name)

	if err := os.WriteFile(path, make([]byte, 16), 0644); err != nil {
		t.Fatalf("failed to plant short object: %v", err)
	}
	defer os.Remove(path)

	_, err := Connect(name)
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestAttachMissingChannel(t *testing.T) {
	name := fmt.Sprintf("test-missing-%d", time.Now().UnixNano())

	_, err := Connect(name)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateRejectsTamperedHeader(t *testing.T) {
	name := fmt.Sprintf("test-tampered-%d", time.Now().UnixNano())
	daemon, err := CreateDaemon(name, ChannelConfig{DataSize: 4096, CmdSlots: 8})
	if err != nil {
		t.Fatalf("failed to create channel: %v", err)
	}
	defer daemon.Close()

	// Corrupt the recorded slot size; attach must refuse to reinterpret.
	hdr := (*channelHeader)(daemon.RawPtr())
	hdr.slotSize = 128

	_, err = Connect(name)
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}

	hdr.slotSize = SlotSize
	shell, err := Connect(name)
	if err != nil {
		t.Fatalf("attach failed after restoring header: %v", err)
	}
	shell.Close()
}
