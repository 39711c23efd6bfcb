package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxweave/voxweave/pkg/audio"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/transcript"
)

// assembled carries the synthesis output into the merge stage. Exactly one
// of segments-with-audio or joint is populated, depending on the provider's
// capability shape.
type assembled struct {
	segments []*transcript.Segment

	// joint holds the full conversation when the provider rendered all
	// turns in a single pass.
	joint *audio.Clip
}

// assemble dispatches on the provider's capability shape. Per-segment
// providers fill each segment's Audio; joint providers return one blob for
// the whole conversation. Either way the raw audio is also written into the
// run's temp directory so failed runs leave something to inspect while they
// are still on disk.
func (c *Converter) assemble(ctx context.Context, runID, runDir string, segments []*transcript.Segment) (*assembled, error) {
	switch p := c.provider.(type) {
	case tts.SegmentProvider:
		if err := p.GenerateAudio(ctx, segments); err != nil {
			c.metrics.RecordProviderRequest(ctx, c.providerName, "error")
			c.metrics.RecordProviderError(ctx, c.providerName)
			return nil, fmt.Errorf("pipeline: generate audio: %w", err)
		}
		c.metrics.RecordProviderRequest(ctx, c.providerName, "ok")
		for i, seg := range segments {
			if len(seg.Audio) == 0 {
				return nil, fmt.Errorf("pipeline: segment %d (speaker %d) came back without audio", i, seg.SpeakerID)
			}
			name := fmt.Sprintf("%s_%d_speaker%d.%s", runID, i, seg.SpeakerID, c.format)
			path := filepath.Join(runDir, name)
			if err := os.WriteFile(path, seg.Audio, 0o644); err != nil {
				return nil, fmt.Errorf("pipeline: write segment file: %w", err)
			}
			seg.AudioFile = path
		}
		return &assembled{segments: segments}, nil

	case tts.JointProvider:
		blob, err := p.GenerateJointAudio(ctx, segments)
		if err != nil {
			c.metrics.RecordProviderRequest(ctx, c.providerName, "error")
			c.metrics.RecordProviderError(ctx, c.providerName)
			return nil, fmt.Errorf("pipeline: generate joint audio: %w", err)
		}
		c.metrics.RecordProviderRequest(ctx, c.providerName, "ok")
		path := filepath.Join(runDir, fmt.Sprintf("%s_full_audio.%s", runID, c.format))
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return nil, fmt.Errorf("pipeline: write joint file: %w", err)
		}
		clip, err := audio.DecodeBytes(blob)
		if err != nil {
			return nil, fmt.Errorf("pipeline: decode joint audio: %w", err)
		}
		return &assembled{segments: segments, joint: clip}, nil

	default:
		return nil, fmt.Errorf("pipeline: provider %T implements neither per-segment nor joint generation", c.provider)
	}
}
