// Package transcript implements the speaker-tagged transcript markup used as
// input and output of the conversion pipeline.
//
// A transcript is plain text interleaved with <personN attr="value">...</personN>
// tags, one tag occurrence per speaker turn. [Parse] turns such text into an
// ordered list of [Segment] values with fully resolved [VoiceConfig]s;
// [Segment.ToTag] serialises a segment back into tag form, so a parsed and
// re-rendered transcript round-trips.
package transcript

import "strconv"

// VoiceConfig holds the resolved per-segment voice and delivery settings.
//
// Fields that only one vendor understands (e.g. Stability for ElevenLabs,
// SSMLGender for Google) are carried here regardless of the active provider;
// adapters pick what they need. Attribute keys that match no field end up in
// the segment's parameter map, and Extra carries vendor passthrough values
// configured per speaker.
type VoiceConfig struct {
	// Voice is the vendor voice identifier or human-readable voice name.
	Voice string `yaml:"voice"`

	// Language is the BCP-47 language code, e.g. "en-US".
	Language string `yaml:"language"`

	// Pitch of the speaker's voice. Vendor-interpreted; "default" leaves it alone.
	Pitch string `yaml:"pitch"`

	// SpeakingRate is the rate multiplier (1.0 = normal).
	SpeakingRate float64 `yaml:"speaking_rate"`

	// Stability of the speech generation (ElevenLabs).
	Stability float64 `yaml:"stability"`

	// SimilarityBoost in speech tone (ElevenLabs).
	SimilarityBoost float64 `yaml:"similarity_boost"`

	// Style of speech delivery (ElevenLabs).
	Style float64 `yaml:"style"`

	// UseSpeakerBoost toggles speaker boost (ElevenLabs).
	UseSpeakerBoost bool `yaml:"use_speaker_boost"`

	// SSMLGender is the SSML gender identifier (Google).
	SSMLGender string `yaml:"ssml_gender"`

	// UseEmote enables emotive delivery: an emote description from the tag is
	// narrated after the text and trimmed out of the final audio again.
	UseEmote bool `yaml:"use_emote"`

	// EmotePause is the pause, in seconds, inserted between the spoken text
	// and the narrated emote cue. The merge stage derives its silence-split
	// length from it.
	EmotePause float64 `yaml:"emote_pause"`

	// EmoteMergePause is the silence padding, in milliseconds, kept at split
	// boundaries when trimming the emote cue.
	EmoteMergePause int `yaml:"emote_merge_pause"`

	// Extra holds vendor-specific passthrough values that have no dedicated
	// field. Unknown keys are preserved, never rejected.
	Extra map[string]string `yaml:"extra"`
}

// DefaultVoiceConfig returns a fresh default configuration for the given
// speaker identity. Identities 1 and 2 have distinct default voices; any
// other identity falls back to the speaker-1 voice.
//
// Every call returns an independent value, so callers may mutate the result
// without affecting later calls.
func DefaultVoiceConfig(speakerID int) VoiceConfig {
	voice := "default_voice_1"
	if speakerID == 2 {
		voice = "default_voice_2"
	}
	return VoiceConfig{
		Voice:           voice,
		Language:        "en-US",
		Pitch:           "default",
		SpeakingRate:    1.0,
		Stability:       0.75,
		SimilarityBoost: 0.85,
		Style:           0,
		UseSpeakerBoost: true,
		SSMLGender:      "NEUTRAL",
		UseEmote:        true,
		EmotePause:      1.5,
		EmoteMergePause: 500,
	}
}

// applyAttribute overrides a single VoiceConfig field from a tag attribute.
// It reports whether key named a known field. Unparsable numeric or boolean
// values leave the field unchanged (attribute tolerance mirrors the parser's
// overall leniency) but still count as matched.
func (v *VoiceConfig) applyAttribute(key, value string) bool {
	switch key {
	case "voice":
		v.Voice = value
	case "language":
		v.Language = value
	case "pitch":
		v.Pitch = value
	case "speaking_rate":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v.SpeakingRate = f
		}
	case "stability":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v.Stability = f
		}
	case "similarity_boost":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v.SimilarityBoost = f
		}
	case "style":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v.Style = f
		}
	case "use_speaker_boost":
		if b, err := strconv.ParseBool(value); err == nil {
			v.UseSpeakerBoost = b
		}
	case "ssml_gender":
		v.SSMLGender = value
	case "use_emote":
		if b, err := strconv.ParseBool(value); err == nil {
			v.UseEmote = b
		}
	case "emote_pause":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			v.EmotePause = f
		}
	case "emote_merge_pause":
		if n, err := strconv.Atoi(value); err == nil {
			v.EmoteMergePause = n
		}
	default:
		return false
	}
	return true
}
