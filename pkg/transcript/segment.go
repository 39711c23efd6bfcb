package transcript

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/voxweave/voxweave/pkg/audio"
)

// Segment represents one contiguous speaker turn.
//
// A Segment is created by [Parse] with only the text fields populated. A
// provider adapter fills Audio (or leaves it empty in the joint multi-speaker
// case), the assembler records AudioFile, and the merge engine populates
// Clip, AudioLength, StartTime and EndTime. Timing values are milliseconds
// relative to the start of the final combined track.
type Segment struct {
	// SpeakerID is the positive integer identity from the person tag.
	SpeakerID int

	// Parameters holds the tag attributes that did not map onto a
	// [VoiceConfig] field, e.g. an "emote" description.
	Parameters map[string]string

	// Text is the raw turn text with surrounding whitespace trimmed.
	Text string

	// Voice is the resolved voice configuration for this turn.
	Voice VoiceConfig

	// Audio is the generated audio blob, when the provider returns bytes
	// per segment.
	Audio []byte

	// AudioFile is the path of the persisted temporary audio artifact.
	AudioFile string

	// Clip is the decoded (and possibly trimmed) audio clip.
	Clip *audio.Clip

	// AudioLength, StartTime and EndTime are set by the merge stage, in
	// milliseconds. Nil until computed.
	AudioLength *int
	StartTime   *int
	EndTime     *int
}

// ToTag serialises the segment back into its person-tag form, including its
// parameter map as attributes and, when available, the computed length, start
// and end attributes. Parameters are emitted in sorted key order so output is
// deterministic.
func (s *Segment) ToTag() string {
	keys := make([]string, 0, len(s.Parameters))
	for k := range s.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]string, 0, len(keys)+3)
	for _, k := range keys {
		attrs = append(attrs, fmt.Sprintf("%s=%q", k, s.Parameters[k]))
	}
	if s.AudioLength != nil {
		attrs = append(attrs, fmt.Sprintf("length=%q", strconv.Itoa(*s.AudioLength)))
	}
	if s.StartTime != nil {
		attrs = append(attrs, fmt.Sprintf("start=%q", strconv.Itoa(*s.StartTime)))
	}
	if s.EndTime != nil {
		attrs = append(attrs, fmt.Sprintf("end=%q", strconv.Itoa(*s.EndTime)))
	}

	open := fmt.Sprintf("<person%d", s.SpeakerID)
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}
	return fmt.Sprintf("%s>%s</person%d>", open, s.Text, s.SpeakerID)
}

// RenderTranscript joins the tag forms of all segments with newlines,
// producing the annotated transcript emitted alongside the merged audio.
func RenderTranscript(segments []*Segment) string {
	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = s.ToTag()
	}
	return strings.Join(lines, "\n")
}
