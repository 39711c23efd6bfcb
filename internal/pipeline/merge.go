package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/voxweave/voxweave/pkg/audio"
	"github.com/voxweave/voxweave/pkg/transcript"
)

// emoteSilenceThresholdDB is the loudness below which audio counts as
// silence when locating the pause before a narrated emote cue.
const emoteSilenceThresholdDB = -40

// merge turns the assembled audio into one track. For per-segment output it
// trims emote narration, equalises loudness across segments, annotates each
// segment with its millisecond timing, and concatenates in transcript order.
// Joint output arrives already combined and passes through unchanged.
func (c *Converter) merge(a *assembled) (*audio.Clip, error) {
	if a.joint != nil {
		return a.joint, nil
	}

	clips := make([]*audio.Clip, len(a.segments))
	for i, seg := range a.segments {
		clip, err := audio.DecodeBytes(seg.Audio)
		if err != nil {
			return nil, fmt.Errorf("pipeline: decode segment %d: %w", i, err)
		}
		trimmed, err := trimEmoteTail(seg, clip)
		if err != nil {
			return nil, fmt.Errorf("pipeline: trim segment %d: %w", i, err)
		}
		clips[i] = trimmed
	}

	normalizeLoudness(clips)

	offset := 0
	for i, seg := range a.segments {
		seg.Clip = clips[i]
		length := clips[i].Milliseconds()
		start, end := offset, offset+length
		seg.AudioLength = &length
		seg.StartTime = &start
		seg.EndTime = &end
		offset = end
	}

	merged, err := audio.Concat(clips...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: concatenate segments: %w", err)
	}
	return merged, nil
}

// trimEmoteTail removes the narrated emote cue from the end of a segment.
// The generation stage separates the cue from the spoken text with a long
// break, so splitting on silence and dropping the final piece recovers the
// clean utterance. Segments without an emote, or where no long enough
// silence is found, pass through unchanged.
func trimEmoteTail(seg *transcript.Segment, clip *audio.Clip) (*audio.Clip, error) {
	if !seg.Voice.UseEmote {
		return clip, nil
	}
	if _, ok := seg.Parameters["emote"]; !ok {
		return clip, nil
	}

	minSilence := time.Duration(seg.Voice.EmotePause * float64(time.Second))
	if minSilence <= 0 {
		minSilence = 2 * time.Second
	}
	keep := time.Duration(seg.Voice.EmoteMergePause) * time.Millisecond
	if keep <= 0 {
		keep = 500 * time.Millisecond
	}
	pieces := clip.SplitOnSilence(minSilence, emoteSilenceThresholdDB, keep)
	if len(pieces) <= 1 {
		slog.Debug("no emote pause found in segment audio",
			"speaker", seg.SpeakerID,
			"emote", seg.Parameters["emote"],
		)
		return clip, nil
	}
	return audio.Concat(pieces[:len(pieces)-1]...)
}

// normalizeLoudness applies per-clip gain so every clip lands on the mean
// RMS loudness of the batch. Digital-silence clips are excluded from the
// mean and left untouched; a single clip is already at its own mean.
func normalizeLoudness(clips []*audio.Clip) {
	if len(clips) < 2 {
		return
	}

	var sum float64
	var n int
	for _, clip := range clips {
		if rms := clip.RMS(); rms > 0 {
			sum += rms
			n++
		}
	}
	if n == 0 {
		return
	}
	target := sum / float64(n)

	for i, clip := range clips {
		rms := clip.RMS()
		if rms <= 0 {
			continue
		}
		clips[i] = clip.ApplyGain(20 * math.Log10(target/rms))
	}
}
