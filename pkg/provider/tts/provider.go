// Package tts defines the uniform contract for text-to-speech provider
// adapters.
//
// A provider wraps one vendor's speech synthesis API (e.g. ElevenLabs,
// OpenAI, or Google's multi-speaker studio voices) behind one of two
// capability shapes. Per-segment providers ([SegmentProvider]) fill each
// segment's audio bytes individually, using neighbouring segments for
// prosodic context. Joint providers ([JointProvider]) synthesise the whole
// ordered turn sequence in a single call and return one combined blob.
// Callers select the shape at runtime by type assertion, never by inspecting
// a concrete vendor type.
package tts

import (
	"context"
	"errors"

	"github.com/voxweave/voxweave/pkg/transcript"
)

// ErrVoiceNotFound is returned when a configured human-readable voice name
// cannot be resolved to a vendor voice id.
var ErrVoiceNotFound = errors.New("tts: voice not found")

// CommonSSMLTags lists the SSML tags most vendors accept as pass-through
// markup. Providers extend or replace this set via SupportedTags.
func CommonSSMLTags() []string {
	return []string{"lang", "p", "phoneme", "s", "sub"}
}

// Provider is the capability-neutral part of the adapter contract. Every
// adapter implements it together with exactly one of [SegmentProvider] or
// [JointProvider].
type Provider interface {
	// SupportedTags returns the markup tag names this provider recognises as
	// pass-through SSML. The transcript parser strips everything else.
	SupportedTags() []string
}

// SegmentProvider generates audio for each segment of an ordered turn
// sequence. The whole list is passed in one call so implementations can use
// inter-segment context; they populate each segment's Audio field in place
// and must not reorder or drop segments.
//
// A segment whose generation fails after the adapter's internal retries is a
// fatal error for the whole conversion.
type SegmentProvider interface {
	Provider
	GenerateAudio(ctx context.Context, segments []*transcript.Segment) error
}

// JointProvider synthesises one audio blob covering all turns, using each
// segment's resolved voice identifier as the per-turn speaker label. Segment
// Audio fields stay empty; the returned blob spans the full sequence.
type JointProvider interface {
	Provider
	GenerateJointAudio(ctx context.Context, segments []*transcript.Segment) ([]byte, error)
}
