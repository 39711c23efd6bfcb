package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists the built-in TTS provider names.
// Used by [Validate] to warn about unrecognised names.
var ValidProviderNames = []string{"elevenlabs", "openai", "geminimulti", "mock"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Provider.Name == "" {
		errs = append(errs, errors.New("provider.name is required"))
	} else if !slices.Contains(ValidProviderNames, cfg.Provider.Name) {
		slog.Warn("unknown provider name — may be a typo or third-party provider",
			"name", cfg.Provider.Name,
			"known", ValidProviderNames,
		)
	}

	if cfg.Provider.Name != "" && cfg.Provider.Name != "mock" && cfg.Provider.APIKey == "" {
		errs = append(errs, fmt.Errorf("provider.api_key is required for provider %q", cfg.Provider.Name))
	}

	if cfg.Provider.Speed != 0 {
		if cfg.Provider.Speed < 0.5 || cfg.Provider.Speed > 2.0 {
			errs = append(errs, fmt.Errorf("provider.speed %.2f is out of range [0.5, 2.0]", cfg.Provider.Speed))
		}
	}

	if cfg.Output.Format != "" && !strings.EqualFold(cfg.Output.Format, "wav") {
		errs = append(errs, fmt.Errorf("output.format %q is unsupported; only wav output is available", cfg.Output.Format))
	}

	for id, speaker := range cfg.Speakers {
		prefix := fmt.Sprintf("speakers[%d]", id)
		if id < 1 {
			errs = append(errs, fmt.Errorf("%s: speaker ids must be positive", prefix))
		}
		if speaker.SpeakingRate != nil && (*speaker.SpeakingRate < 0.25 || *speaker.SpeakingRate > 4.0) {
			errs = append(errs, fmt.Errorf("%s.speaking_rate %.2f is out of range [0.25, 4.0]", prefix, *speaker.SpeakingRate))
		}
		if speaker.Stability != nil && (*speaker.Stability < 0 || *speaker.Stability > 1) {
			errs = append(errs, fmt.Errorf("%s.stability %.2f is out of range [0, 1]", prefix, *speaker.Stability))
		}
		if speaker.SimilarityBoost != nil && (*speaker.SimilarityBoost < 0 || *speaker.SimilarityBoost > 1) {
			errs = append(errs, fmt.Errorf("%s.similarity_boost %.2f is out of range [0, 1]", prefix, *speaker.SimilarityBoost))
		}
		if speaker.EmotePause != nil && *speaker.EmotePause < 0 {
			errs = append(errs, fmt.Errorf("%s.emote_pause must not be negative", prefix))
		}
		if speaker.EmoteMergePause != nil && *speaker.EmoteMergePause < 0 {
			errs = append(errs, fmt.Errorf("%s.emote_merge_pause must not be negative", prefix))
		}
	}

	return errors.Join(errs...)
}
