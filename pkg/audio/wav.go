package audio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// exportPrecision is the bytes-per-sample used for WAV export (16-bit PCM).
const exportPrecision = 2

// Export encodes the clip to path in the given container format. WAV is the
// only supported export container; MP3 and other formats are decode-only.
func (c *Clip) Export(path, format string) error {
	if !strings.EqualFold(format, "wav") {
		return fmt.Errorf("%w: cannot encode %q (only wav export is supported)", ErrUnsupportedFormat, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: export %q: %w", path, err)
	}
	defer f.Close()

	if err := wav.Encode(f, c.streamer(), c.format()); err != nil {
		return fmt.Errorf("audio: export %q: %w", path, err)
	}
	return nil
}

// Bytes encodes the clip into an in-memory blob in the given container
// format. Like [Clip.Export], only WAV is supported.
func (c *Clip) Bytes(format string) ([]byte, error) {
	if !strings.EqualFold(format, "wav") {
		return nil, fmt.Errorf("%w: cannot encode %q (only wav export is supported)", ErrUnsupportedFormat, format)
	}
	w := &memWriteSeeker{}
	if err := wav.Encode(w, c.streamer(), c.format()); err != nil {
		return nil, fmt.Errorf("audio: encode wav: %w", err)
	}
	return w.buf, nil
}

func (c *Clip) format() beep.Format {
	return beep.Format{SampleRate: c.rate, NumChannels: 2, Precision: exportPrecision}
}

// streamer returns a one-shot beep.Streamer over the clip's samples.
func (c *Clip) streamer() beep.Streamer {
	return &sliceStreamer{samples: c.samples}
}

type sliceStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *sliceStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *sliceStreamer) Err() error { return nil }

// memWriteSeeker is a minimal in-memory io.WriteSeeker. beep's WAV encoder
// seeks back to patch the RIFF header after writing the sample data, which
// rules out a plain bytes.Buffer.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("audio: seek: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("audio: seek: negative position %d", pos)
	}
	m.pos = int(pos)
	return pos, nil
}
