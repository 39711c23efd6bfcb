package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/voxweave/voxweave/internal/config"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/provider/tts/mock"
)

const validYAML = `
provider:
  name: elevenlabs
  api_key: secret
  model: eleven_multilingual_v2
output:
  format: wav
  audio_dir: out/audio
speakers:
  1:
    voice: Rachel
    stability: 0.6
  2:
    voice: Adam
    use_emote: false
log_level: debug
`

func TestLoadFromReaderValid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Provider.Name != "elevenlabs" || cfg.Provider.APIKey != "secret" {
		t.Errorf("provider: got %+v", cfg.Provider)
	}
	if cfg.LogLevel != config.LogDebug {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
	if got := cfg.Speakers[1].Voice; got == nil || *got != "Rachel" {
		t.Errorf("speaker 1 voice: got %v", got)
	}
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	yaml := validYAML + "\nunknown_key: true\n"
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateMissingProviderName(t *testing.T) {
	yaml := `
provider:
  api_key: secret
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "provider.name") {
		t.Fatalf("error: got %v, want provider.name complaint", err)
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	yaml := `
provider:
  name: elevenlabs
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("error: got %v, want api_key complaint", err)
	}
}

func TestValidateMockNeedsNoKey(t *testing.T) {
	yaml := `
provider:
  name: mock
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("mock provider without key: %v", err)
	}
}

func TestValidateRejectsNonWavOutput(t *testing.T) {
	yaml := `
provider:
  name: mock
output:
  format: mp3
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "output.format") {
		t.Fatalf("error: got %v, want output.format complaint", err)
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	yaml := `
provider:
  name: elevenlabs
  speed: 9.0
log_level: loud
speakers:
  0:
    stability: 7.0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"api_key", "speed", "log_level", "speaker ids", "stability"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestSpeakerConfigResolve(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	voices := cfg.VoiceConfigs()

	v1, ok := voices[1]
	if !ok {
		t.Fatal("speaker 1 missing from resolved voices")
	}
	if v1.Voice != "Rachel" {
		t.Errorf("speaker 1 voice: got %q", v1.Voice)
	}
	if v1.Stability != 0.6 {
		t.Errorf("speaker 1 stability: got %v, want 0.6", v1.Stability)
	}
	// Fields without overrides keep the built-in defaults.
	if v1.SimilarityBoost != 0.85 {
		t.Errorf("speaker 1 similarity_boost: got %v, want default 0.85", v1.SimilarityBoost)
	}

	v2 := voices[2]
	if v2.UseEmote {
		t.Error("speaker 2 use_emote override not applied")
	}
}

func TestRegistry(t *testing.T) {
	reg := config.NewRegistry()
	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "nope"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("error: got %v, want ErrProviderNotRegistered", err)
	}

	reg.RegisterTTS("mock", func(entry config.ProviderEntry) (tts.Provider, error) {
		return &mock.SegmentProvider{}, nil
	})
	p, err := reg.CreateTTS(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateTTS: %v", err)
	}
	if p == nil {
		t.Fatal("nil provider from registered factory")
	}
}
