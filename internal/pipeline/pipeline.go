// Package pipeline wires the conversion stages together: parse a
// speaker-tagged transcript, synthesise audio through a TTS provider, merge
// the pieces into one track, and write the audio plus an annotated transcript.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxweave/voxweave/internal/config"
	"github.com/voxweave/voxweave/internal/observe"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/transcript"
)

// ErrEmptyTranscript is returned by Convert when the input contains no
// parseable speaker turns.
var ErrEmptyTranscript = errors.New("pipeline: transcript contains no speaker turns")

// Result describes a completed conversion run.
type Result struct {
	// AudioPath is the written audio file.
	AudioPath string

	// TranscriptPath is the written annotated transcript file.
	TranscriptPath string

	// Transcript is the annotated transcript content.
	Transcript string

	// Duration is the length of the merged audio.
	Duration time.Duration

	// Segments is the number of speaker turns synthesised.
	Segments int
}

// Converter runs transcript-to-audio conversions. Construct it once with
// [New]; Convert may then be called for any number of runs.
type Converter struct {
	provider      tts.Provider
	providerName  string
	format        string
	audioDir      string
	transcriptDir string
	tempDir       string
	metrics       *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Converter)

// WithProviderName sets the provider name used in metric attributes.
func WithProviderName(name string) Option {
	return func(c *Converter) {
		if name != "" {
			c.providerName = name
		}
	}
}

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Converter) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New builds a Converter writing into the directories named by out. Missing
// directories are created. An empty transcript_dir falls back to the audio
// directory, an empty temp_dir to the system temp directory.
func New(provider tts.Provider, out config.OutputConfig, opts ...Option) (*Converter, error) {
	if provider == nil {
		return nil, errors.New("pipeline: provider must not be nil")
	}
	c := &Converter{
		provider:      provider,
		providerName:  "tts",
		format:        strings.ToLower(out.Format),
		audioDir:      out.AudioDir,
		transcriptDir: out.TranscriptDir,
		tempDir:       out.TempDir,
		metrics:       observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.format == "" {
		c.format = "wav"
	}
	if c.audioDir == "" {
		c.audioDir = "."
	}
	if c.transcriptDir == "" {
		c.transcriptDir = c.audioDir
	}
	if c.tempDir == "" {
		c.tempDir = os.TempDir()
	}
	for _, dir := range []string{c.audioDir, c.transcriptDir, c.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pipeline: create %q: %w", dir, err)
		}
	}
	return c, nil
}

// Convert parses text, synthesises it through the configured provider, and
// writes <stem>.<format> plus <stem>_transcript.txt. Intermediate segment
// files live in a per-run temp directory that is removed when the run ends.
// Output files are only written once the whole run has succeeded.
func (c *Converter) Convert(ctx context.Context, text string, voices map[int]transcript.VoiceConfig, stem string) (*Result, error) {
	segments := transcript.Parse(text, c.provider.SupportedTags(), voices)
	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}

	runID := uuid.NewString()
	runDir := filepath.Join(c.tempDir, "voxweave_"+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: create run dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	slog.Info("starting conversion",
		"run_id", runID,
		"segments", len(segments),
		"stem", stem,
	)

	synthStart := time.Now()
	assembled, err := c.assemble(ctx, runID, runDir, segments)
	c.metrics.SynthesisDuration.Record(ctx, time.Since(synthStart).Seconds())
	if err != nil {
		c.metrics.RecordConversion(ctx, "error")
		return nil, err
	}
	c.metrics.SegmentsSynthesized.Add(ctx, int64(len(segments)))

	mergeStart := time.Now()
	merged, err := c.merge(assembled)
	c.metrics.MergeDuration.Record(ctx, time.Since(mergeStart).Seconds())
	if err != nil {
		c.metrics.RecordConversion(ctx, "error")
		return nil, err
	}

	audioPath := filepath.Join(c.audioDir, stem+"."+c.format)
	transcriptPath := filepath.Join(c.transcriptDir, stem+"_transcript.txt")
	rendered := transcript.RenderTranscript(segments)

	if err := merged.Export(audioPath, c.format); err != nil {
		c.metrics.RecordConversion(ctx, "error")
		return nil, fmt.Errorf("pipeline: write audio: %w", err)
	}
	if err := os.WriteFile(transcriptPath, []byte(rendered), 0o644); err != nil {
		// Keep outputs all-or-nothing.
		os.Remove(audioPath)
		c.metrics.RecordConversion(ctx, "error")
		return nil, fmt.Errorf("pipeline: write transcript: %w", err)
	}

	c.metrics.RecordConversion(ctx, "ok")
	slog.Info("conversion finished",
		"run_id", runID,
		"audio", audioPath,
		"transcript", transcriptPath,
		"duration", merged.Duration(),
	)
	return &Result{
		AudioPath:      audioPath,
		TranscriptPath: transcriptPath,
		Transcript:     rendered,
		Duration:       merged.Duration(),
		Segments:       len(segments),
	}, nil
}
