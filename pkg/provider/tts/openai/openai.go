// Package openai provides an OpenAI-backed per-segment TTS provider using
// the official Go SDK. It implements the tts.SegmentProvider contract.
//
// OpenAI's speech endpoint has no inter-segment context or voice-settings
// surface, so this adapter is the plain variant of the contract: one
// conversion call per segment with the configured model, format and speed.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/transcript"
)

const defaultModel = "tts-1-hd"

// validFormats are the response formats the speech endpoint accepts.
var validFormats = []string{"mp3", "opus", "aac", "flac", "wav", "pcm"}

// Compile-time interface assertion.
var _ tts.SegmentProvider = (*Provider)(nil)

// Provider implements tts.SegmentProvider using the OpenAI speech API.
type Provider struct {
	client oai.Client
	model  string
	format string
	speed  float64
}

// config holds optional construction settings.
type config struct {
	baseURL string
	model   string
	format  string
	speed   float64
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel sets the speech model (e.g. "tts-1-hd").
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithFormat sets the response audio format. Must be one of mp3, opus, aac,
// flac, wav or pcm.
func WithFormat(format string) Option {
	return func(c *config) {
		if format != "" {
			c.format = format
		}
	}
}

// WithSpeed sets the speaking speed multiplier. Must be within [0.5, 2.0].
func WithSpeed(speed float64) Option {
	return func(c *config) {
		if speed != 0 {
			c.speed = speed
		}
	}
}

// New constructs an OpenAI Provider. Configuration problems — a missing API
// key, an unknown response format, a speed outside [0.5, 2.0] — fail here,
// before any generation is attempted.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey must not be empty")
	}
	cfg := &config{model: defaultModel, format: "mp3", speed: 1.0}
	for _, o := range opts {
		o(cfg)
	}
	if !slices.Contains(validFormats, cfg.format) {
		return nil, fmt.Errorf("openai: invalid response format %q, must be one of %v", cfg.format, validFormats)
	}
	if cfg.speed < 0.5 || cfg.speed > 2.0 {
		return nil, fmt.Errorf("openai: invalid speed %v, must be within [0.5, 2.0]", cfg.speed)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	return &Provider{
		client: oai.NewClient(clientOpts...),
		model:  cfg.model,
		format: cfg.format,
		speed:  cfg.speed,
	}, nil
}

// SupportedTags returns the provider-specific SSML tags OpenAI accepts.
func (p *Provider) SupportedTags() []string {
	return []string{"break", "emphasis"}
}

// GenerateAudio synthesises every segment in order, filling Audio in place.
func (p *Provider) GenerateAudio(ctx context.Context, segments []*transcript.Segment) error {
	for i, seg := range segments {
		slog.Info("generating audio",
			"provider", "openai",
			"speaker", seg.SpeakerID,
			"chars", len(seg.Text),
		)

		resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
			Model:          oai.SpeechModel(p.model),
			Input:          seg.Text,
			Voice:          oai.AudioSpeechNewParamsVoice(seg.Voice.Voice),
			ResponseFormat: oai.AudioSpeechNewParamsResponseFormat(p.format),
			Speed:          oai.Float(p.speed),
		})
		if err != nil {
			return fmt.Errorf("openai: generate speaker %d segment %d: %w", seg.SpeakerID, i, err)
		}
		audio, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("openai: read audio for segment %d: %w", i, err)
		}
		seg.Audio = audio
	}
	return nil
}
