package audio_test

import (
	"math"
	"testing"
	"time"

	"github.com/voxweave/voxweave/pkg/audio"
)

const testRate = 44100

func TestToneAndRMS(t *testing.T) {
	clip := audio.Tone(440, 100*time.Millisecond, testRate, 0.5)
	// RMS of a 0.5-amplitude sine is 0.5/sqrt(2).
	want := 0.5 / math.Sqrt2
	got := clip.RMS()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("sine RMS: got %v, want %v", got, want)
	}
}

func TestSilentClip(t *testing.T) {
	clip := audio.Silent(250*time.Millisecond, testRate)
	if got := clip.RMS(); got != 0 {
		t.Errorf("silent RMS: got %v, want 0", got)
	}
	if got := clip.Milliseconds(); got != 250 {
		t.Errorf("milliseconds: got %d, want 250", got)
	}
}

func TestApplyGain(t *testing.T) {
	clip := audio.Tone(440, 100*time.Millisecond, testRate, 0.25)
	before := clip.RMS()

	louder := clip.ApplyGain(6.0206) // +6 dB doubles amplitude
	if got, want := louder.RMS(), before*2; math.Abs(got-want) > 0.01 {
		t.Errorf("after +6dB: got RMS %v, want %v", got, want)
	}
	// The original clip must be untouched.
	if got := clip.RMS(); math.Abs(got-before) > 1e-9 {
		t.Errorf("source clip mutated: RMS %v, want %v", got, before)
	}
}

func TestApplyGainClamps(t *testing.T) {
	clip := audio.Tone(440, 10*time.Millisecond, testRate, 0.9)
	boosted := clip.ApplyGain(20)
	// A clamped full-scale square-ish wave cannot exceed RMS 1.
	if got := boosted.RMS(); got > 1 {
		t.Errorf("clamped RMS: got %v, want <= 1", got)
	}
}

func TestConcatDurations(t *testing.T) {
	a := audio.Silent(100*time.Millisecond, testRate)
	b := audio.Tone(440, 200*time.Millisecond, testRate, 0.5)
	merged, err := audio.Concat(a, b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := merged.Milliseconds(); got != 300 {
		t.Errorf("merged length: got %dms, want 300ms", got)
	}
}

func TestConcatResamplesToFirstRate(t *testing.T) {
	a := audio.Tone(440, 100*time.Millisecond, 44100, 0.5)
	b := audio.Tone(440, 100*time.Millisecond, 22050, 0.5)
	merged, err := audio.Concat(a, b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := merged.SampleRate(); got != 44100 {
		t.Errorf("merged rate: got %d, want 44100", got)
	}
	if got := merged.Milliseconds(); got < 195 || got > 205 {
		t.Errorf("merged length: got %dms, want ~200ms", got)
	}
}

func TestConcatEmpty(t *testing.T) {
	if _, err := audio.Concat(); err == nil {
		t.Fatal("concat of zero clips: expected error")
	}
}

func TestSlice(t *testing.T) {
	clip := audio.Tone(440, 300*time.Millisecond, testRate, 0.5)
	part := clip.Slice(100*time.Millisecond, 200*time.Millisecond)
	if got := part.Milliseconds(); got != 100 {
		t.Errorf("slice length: got %dms, want 100ms", got)
	}
	inverted := clip.Slice(200*time.Millisecond, 100*time.Millisecond)
	if got := inverted.Milliseconds(); got != 0 {
		t.Errorf("inverted slice length: got %dms, want 0", got)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	clip := audio.Tone(440, 120*time.Millisecond, testRate, 0.5)
	blob, err := clip.Bytes("wav")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := audio.DecodeBytes(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := decoded.Milliseconds(), clip.Milliseconds(); got != want {
		t.Errorf("round-trip length: got %dms, want %dms", got, want)
	}
	if got, want := decoded.RMS(), clip.RMS(); math.Abs(got-want) > 0.01 {
		t.Errorf("round-trip RMS: got %v, want %v", got, want)
	}
}

func TestBytesRejectsUnsupportedFormat(t *testing.T) {
	clip := audio.Tone(440, 10*time.Millisecond, testRate, 0.5)
	if _, err := clip.Bytes("mp3"); err == nil {
		t.Fatal("mp3 encode: expected error")
	}
}

func TestDecodeBytesUnknownFormat(t *testing.T) {
	if _, err := audio.DecodeBytes([]byte("definitely not audio")); err == nil {
		t.Fatal("expected error for unknown content")
	}
}
