// Package audio provides the in-memory audio clip primitive used by the
// merge engine: decoding (WAV and MP3 via beep), RMS loudness measurement,
// gain adjustment, sequential concatenation, silence-based splitting, and
// WAV export.
//
// A [Clip] holds decoded stereo float64 frames in the range [-1, 1] — the
// same sample representation beep streams — so all measurements and edits
// operate on raw samples without further conversion.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat is returned when a clip cannot be decoded from or
// encoded to the requested container format.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Clip is an immutable decoded audio clip. All mutating operations return a
// new Clip and leave the receiver untouched.
type Clip struct {
	rate    beep.SampleRate
	samples [][2]float64
}

// Load reads and decodes the audio file at path. The container format is
// sniffed from the file contents, not the extension; WAV and MP3 are
// supported.
func Load(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: load %q: %w", path, err)
	}
	c, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("audio: load %q: %w", path, err)
	}
	return c, nil
}

// DecodeBytes decodes an in-memory audio blob, sniffing WAV ("RIFF" magic)
// versus MP3 (anything else with an ID3 header or MPEG sync word).
func DecodeBytes(data []byte) (*Clip, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", ErrUnsupportedFormat, len(data))
	}
	rc := io.NopCloser(bytes.NewReader(data))

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		stream, format, err = wav.Decode(rc)
	case bytes.HasPrefix(data, []byte("ID3")) || data[0] == 0xFF:
		stream, format, err = mp3.Decode(rc)
	default:
		return nil, fmt.Errorf("%w: unrecognised container magic", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("audio: decode: %w", err)
	}
	defer stream.Close()

	samples := make([][2]float64, 0, 1024)
	buf := make([][2]float64, 512)
	for {
		n, ok := stream.Stream(buf)
		samples = append(samples, buf[:n]...)
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("audio: decode: %w", err)
	}
	return &Clip{rate: format.SampleRate, samples: samples}, nil
}

// SampleRate returns the clip's sample rate.
func (c *Clip) SampleRate() beep.SampleRate { return c.rate }

// Duration returns the clip's playing time.
func (c *Clip) Duration() time.Duration {
	return c.rate.D(len(c.samples))
}

// Milliseconds returns the clip length in whole milliseconds.
func (c *Clip) Milliseconds() int {
	return int(c.Duration() / time.Millisecond)
}

// RMS returns the root-mean-square amplitude over both channels, in the
// sample domain [0, 1]. An empty or fully silent clip has RMS 0.
func (c *Clip) RMS() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	var sum float64
	for _, frame := range c.samples {
		sum += frame[0]*frame[0] + frame[1]*frame[1]
	}
	return math.Sqrt(sum / float64(len(c.samples)*2))
}

// ApplyGain returns a copy of the clip with the given gain in dB applied.
// Samples are clamped to [-1, 1].
func (c *Clip) ApplyGain(db float64) *Clip {
	factor := math.Pow(10, db/20)
	out := make([][2]float64, len(c.samples))
	for i, frame := range c.samples {
		out[i][0] = clampSample(frame[0] * factor)
		out[i][1] = clampSample(frame[1] * factor)
	}
	return &Clip{rate: c.rate, samples: out}
}

// Slice returns the sub-clip covering [from, to). Bounds are clamped to the
// clip; an inverted range yields an empty clip.
func (c *Clip) Slice(from, to time.Duration) *Clip {
	lo := c.rate.N(from)
	hi := c.rate.N(to)
	if lo < 0 {
		lo = 0
	}
	if hi > len(c.samples) {
		hi = len(c.samples)
	}
	if lo >= hi {
		return &Clip{rate: c.rate}
	}
	out := make([][2]float64, hi-lo)
	copy(out, c.samples[lo:hi])
	return &Clip{rate: c.rate, samples: out}
}

// Concat concatenates clips sequentially, in order, with no cross-fade.
// Clips whose sample rate differs from the first clip's are resampled first.
// At least one clip is required.
func Concat(clips ...*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, errors.New("audio: concat of zero clips")
	}
	rate := clips[0].rate
	total := 0
	for _, c := range clips {
		total += len(c.samples)
	}
	out := make([][2]float64, 0, total)
	for _, c := range clips {
		samples := c.samples
		if c.rate != rate {
			samples = resampleFrames(samples, c.rate, rate)
		}
		out = append(out, samples...)
	}
	return &Clip{rate: rate, samples: out}, nil
}

// Silent returns a clip of silence with the given duration and sample rate.
func Silent(d time.Duration, rate beep.SampleRate) *Clip {
	return &Clip{rate: rate, samples: make([][2]float64, rate.N(d))}
}

// Tone returns a sine-wave clip, useful for deterministic non-silent test
// and mock audio. amplitude is in [0, 1].
func Tone(freq float64, d time.Duration, rate beep.SampleRate, amplitude float64) *Clip {
	n := rate.N(d)
	samples := make([][2]float64, n)
	step := 2 * math.Pi * freq / float64(rate)
	for i := range n {
		v := amplitude * math.Sin(step*float64(i))
		samples[i] = [2]float64{v, v}
	}
	return &Clip{rate: rate, samples: samples}
}

func clampSample(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
