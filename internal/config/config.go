// Package config provides the configuration schema, loader, and provider
// registry for the voxweave transcript-to-audio converter.
package config

import "github.com/voxweave/voxweave/pkg/transcript"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for voxweave.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// Provider selects and configures the TTS backend used for synthesis.
	Provider ProviderEntry `yaml:"provider"`

	// Output controls where generated audio and transcripts are written.
	Output OutputConfig `yaml:"output"`

	// Speakers maps speaker ids (the N in <personN>) to voice overrides.
	// Speakers absent from the map fall back to built-in defaults.
	Speakers map[int]SpeakerConfig `yaml:"speakers"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address for the Prometheus metrics endpoint
	// (e.g., ":9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProviderEntry is the common configuration block shared by all TTS backends.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "elevenlabs", "openai", "geminimulti").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "eleven_multilingual_v2", "tts-1-hd").
	Model string `yaml:"model"`

	// Language is the synthesis language code for providers that take one
	// at the request level (e.g., "en-US").
	Language string `yaml:"language"`

	// Streaming enables the provider's websocket streaming path where one
	// exists. Streaming trades generation continuity for lower latency.
	Streaming bool `yaml:"streaming"`

	// Speed adjusts speaking rate in the range [0.5, 2.0] for providers
	// that support it. 0 means the provider default.
	Speed float64 `yaml:"speed"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// OutputConfig controls filesystem locations and the export format.
type OutputConfig struct {
	// Format is the output audio container. Only "wav" is supported.
	Format string `yaml:"format"`

	// AudioDir is the directory merged audio files are written to.
	AudioDir string `yaml:"audio_dir"`

	// TranscriptDir is the directory annotated transcripts are written to.
	// Empty means alongside the audio.
	TranscriptDir string `yaml:"transcript_dir"`

	// TempDir holds per-run intermediate segment files. Empty means the
	// system temp directory.
	TempDir string `yaml:"temp_dir"`
}

// SpeakerConfig holds per-speaker voice overrides. All fields are optional;
// nil fields keep the built-in default for that speaker. Inline markup
// attributes still override the resolved value per segment.
type SpeakerConfig struct {
	Voice           *string  `yaml:"voice"`
	Language        *string  `yaml:"language"`
	Pitch           *string  `yaml:"pitch"`
	SpeakingRate    *float64 `yaml:"speaking_rate"`
	Stability       *float64 `yaml:"stability"`
	SimilarityBoost *float64 `yaml:"similarity_boost"`
	Style           *float64 `yaml:"style"`
	UseSpeakerBoost *bool    `yaml:"use_speaker_boost"`
	SSMLGender      *string  `yaml:"ssml_gender"`
	UseEmote        *bool    `yaml:"use_emote"`
	EmotePause      *float64 `yaml:"emote_pause"`
	EmoteMergePause *int     `yaml:"emote_merge_pause"`
}

// Resolve merges s over base, returning the effective voice configuration.
func (s SpeakerConfig) Resolve(base transcript.VoiceConfig) transcript.VoiceConfig {
	if s.Voice != nil {
		base.Voice = *s.Voice
	}
	if s.Language != nil {
		base.Language = *s.Language
	}
	if s.Pitch != nil {
		base.Pitch = *s.Pitch
	}
	if s.SpeakingRate != nil {
		base.SpeakingRate = *s.SpeakingRate
	}
	if s.Stability != nil {
		base.Stability = *s.Stability
	}
	if s.SimilarityBoost != nil {
		base.SimilarityBoost = *s.SimilarityBoost
	}
	if s.Style != nil {
		base.Style = *s.Style
	}
	if s.UseSpeakerBoost != nil {
		base.UseSpeakerBoost = *s.UseSpeakerBoost
	}
	if s.SSMLGender != nil {
		base.SSMLGender = *s.SSMLGender
	}
	if s.UseEmote != nil {
		base.UseEmote = *s.UseEmote
	}
	if s.EmotePause != nil {
		base.EmotePause = *s.EmotePause
	}
	if s.EmoteMergePause != nil {
		base.EmoteMergePause = *s.EmoteMergePause
	}
	return base
}

// VoiceConfigs resolves every configured speaker against the built-in
// defaults for its id. Callers pass the result to the transcript parser.
func (c *Config) VoiceConfigs() map[int]transcript.VoiceConfig {
	configs := make(map[int]transcript.VoiceConfig, len(c.Speakers))
	for id, speaker := range c.Speakers {
		configs[id] = speaker.Resolve(transcript.DefaultVoiceConfig(id))
	}
	return configs
}
