// Package mock provides test doubles for the tts provider contracts.
//
// SegmentProvider and JointProvider record every call and synthesise
// deterministic tone audio, so pipeline tests can run the full
// generate/merge path without any network backend.
//
// Example:
//
//	p := &mock.SegmentProvider{SegmentDuration: 200 * time.Millisecond}
//	err := p.GenerateAudio(ctx, segments)
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/voxweave/voxweave/pkg/audio"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/transcript"
)

const (
	defaultDuration   = 150 * time.Millisecond
	defaultSampleRate = 44100
	baseToneHz        = 220
)

// Compile-time interface assertions.
var (
	_ tts.SegmentProvider = (*SegmentProvider)(nil)
	_ tts.JointProvider   = (*JointProvider)(nil)
)

// GenerateCall records a single invocation of GenerateAudio or
// GenerateJointAudio.
type GenerateCall struct {
	// Ctx is the context passed to the call.
	Ctx context.Context
	// Segments is the segment slice passed to the call.
	Segments []*transcript.Segment
}

// SegmentProvider is a mock implementation of tts.SegmentProvider. It fills
// each segment's Audio with a WAV-encoded sine tone whose pitch depends on
// the speaker id, so merged output is deterministic and audibly distinct per
// speaker.
type SegmentProvider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// SegmentDuration is the duration of each synthesised segment.
	// Zero means 150ms.
	SegmentDuration time.Duration

	// GenerateErr, if non-nil, is returned from GenerateAudio without
	// touching any segment.
	GenerateErr error

	// Tags overrides the supported tag list. Nil means the common SSML set.
	Tags []string

	// --- Recorded calls ---

	// GenerateCalls records every GenerateAudio invocation.
	GenerateCalls []GenerateCall
}

// SupportedTags implements tts.Provider.
func (p *SegmentProvider) SupportedTags() []string {
	if p.Tags != nil {
		return p.Tags
	}
	return tts.CommonSSMLTags()
}

// GenerateAudio implements tts.SegmentProvider.
func (p *SegmentProvider) GenerateAudio(ctx context.Context, segments []*transcript.Segment) error {
	p.mu.Lock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Segments: segments})
	err := p.GenerateErr
	d := p.SegmentDuration
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if d <= 0 {
		d = defaultDuration
	}
	for _, seg := range segments {
		blob, err := toneWAV(seg.SpeakerID, d)
		if err != nil {
			return err
		}
		seg.Audio = blob
	}
	return nil
}

// JointProvider is a mock implementation of tts.JointProvider. It returns a
// single WAV blob spanning all segments, one tone per segment.
type JointProvider struct {
	mu sync.Mutex

	// SegmentDuration is the per-segment duration within the joint blob.
	// Zero means 150ms.
	SegmentDuration time.Duration

	// GenerateErr, if non-nil, is returned from GenerateJointAudio.
	GenerateErr error

	// Tags overrides the supported tag list. Nil means the common SSML set.
	Tags []string

	// GenerateCalls records every GenerateJointAudio invocation.
	GenerateCalls []GenerateCall
}

// SupportedTags implements tts.Provider.
func (p *JointProvider) SupportedTags() []string {
	if p.Tags != nil {
		return p.Tags
	}
	return tts.CommonSSMLTags()
}

// GenerateJointAudio implements tts.JointProvider.
func (p *JointProvider) GenerateJointAudio(ctx context.Context, segments []*transcript.Segment) ([]byte, error) {
	p.mu.Lock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Segments: segments})
	err := p.GenerateErr
	d := p.SegmentDuration
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if d <= 0 {
		d = defaultDuration
	}
	clips := make([]*audio.Clip, len(segments))
	for i, seg := range segments {
		clips[i] = toneClip(seg.SpeakerID, d)
	}
	combined, err := audio.Concat(clips...)
	if err != nil {
		return nil, err
	}
	return combined.Bytes("wav")
}

func toneClip(speakerID int, d time.Duration) *audio.Clip {
	freq := float64(baseToneHz * (speakerID + 1))
	return audio.Tone(freq, d, defaultSampleRate, 0.5)
}

func toneWAV(speakerID int, d time.Duration) ([]byte, error) {
	return toneClip(speakerID, d).Bytes("wav")
}
