package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxweave/voxweave/internal/config"
	"github.com/voxweave/voxweave/internal/pipeline"
	"github.com/voxweave/voxweave/pkg/audio"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/provider/tts/mock"
	"github.com/voxweave/voxweave/pkg/transcript"
)

func outputConfig(t *testing.T) config.OutputConfig {
	t.Helper()
	dir := t.TempDir()
	return config.OutputConfig{
		Format:   "wav",
		AudioDir: filepath.Join(dir, "audio"),
		TempDir:  filepath.Join(dir, "tmp"),
	}
}

func TestConvertSegmentProvider(t *testing.T) {
	p := &mock.SegmentProvider{SegmentDuration: 200 * time.Millisecond}
	conv, err := pipeline.New(p, outputConfig(t), pipeline.WithProviderName("mock"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "<person1>Hello.</person1>\n<person2>Hi.</person2>"
	result, err := conv.Convert(context.Background(), text, nil, "greeting")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if result.Segments != 2 {
		t.Errorf("segments: got %d, want 2", result.Segments)
	}
	clip, err := audio.Load(result.AudioPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if got := clip.Milliseconds(); got != 400 {
		t.Errorf("merged length: got %dms, want 400ms", got)
	}

	content, err := os.ReadFile(result.TranscriptPath)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(content) != result.Transcript {
		t.Error("transcript file does not match result")
	}
}

func TestConvertTimingAnnotations(t *testing.T) {
	p := &mock.SegmentProvider{SegmentDuration: 1000 * time.Millisecond}
	conv, err := pipeline.New(p, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "<person1>One second.</person1>\n<person2>Another second.</person2>"
	result, err := conv.Convert(context.Background(), text, nil, "timing")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	segments := transcript.Parse(result.Transcript, nil, nil)
	if len(segments) != 2 {
		t.Fatalf("re-parsed segments: got %d, want 2", len(segments))
	}
	checks := []struct{ length, start, end string }{
		{"1000", "0", "1000"},
		{"1000", "1000", "2000"},
	}
	for i, want := range checks {
		params := segments[i].Parameters
		if params["length"] != want.length || params["start"] != want.start || params["end"] != want.end {
			t.Errorf("segment %d timing: got length=%q start=%q end=%q, want %+v",
				i, params["length"], params["start"], params["end"], want)
		}
	}
}

// emoteProvider synthesises speech followed by a long pause and a narrated
// cue, mimicking what emotive delivery produces upstream.
type emoteProvider struct {
	speech time.Duration
	pause  time.Duration
	cue    time.Duration
}

func (p *emoteProvider) SupportedTags() []string { return tts.CommonSSMLTags() }

func (p *emoteProvider) GenerateAudio(ctx context.Context, segments []*transcript.Segment) error {
	for _, seg := range segments {
		speech := audio.Tone(440, p.speech, 44100, 0.5)
		if _, ok := seg.Parameters["emote"]; !ok {
			blob, err := speech.Bytes("wav")
			if err != nil {
				return err
			}
			seg.Audio = blob
			continue
		}
		gap := audio.Silent(p.pause, 44100)
		cue := audio.Tone(220, p.cue, 44100, 0.5)
		clip, err := audio.Concat(speech, gap, cue)
		if err != nil {
			return err
		}
		blob, err := clip.Bytes("wav")
		if err != nil {
			return err
		}
		seg.Audio = blob
	}
	return nil
}

func TestConvertTrimsEmoteCue(t *testing.T) {
	p := &emoteProvider{speech: 600 * time.Millisecond, pause: 2 * time.Second, cue: 400 * time.Millisecond}
	conv, err := pipeline.New(p, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := `<person1 emote="sighs">So tired.</person1>`
	result, err := conv.Convert(context.Background(), text, nil, "emote")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	clip, err := audio.Load(result.AudioPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	// The narrated cue must be gone; the speech keeps up to the 500ms
	// merge-pause padding of the silence that preceded the cue.
	if got := clip.Milliseconds(); got < 1000 || got > 1200 {
		t.Errorf("trimmed length: got %dms, want ~1100ms", got)
	}
}

func TestConvertKeepsAudioWithoutEmotePause(t *testing.T) {
	// An emote-annotated segment whose audio contains no long silence must
	// pass through untrimmed.
	p := &emoteProvider{speech: 600 * time.Millisecond, pause: 100 * time.Millisecond, cue: 100 * time.Millisecond}
	conv, err := pipeline.New(p, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := `<person1 emote="shrugs">Whatever.</person1>`
	result, err := conv.Convert(context.Background(), text, nil, "noflat")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	clip, err := audio.Load(result.AudioPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if got := clip.Milliseconds(); got < 750 || got > 850 {
		t.Errorf("untrimmed length: got %dms, want ~800ms", got)
	}
}

// unevenProvider returns tones at very different amplitudes per speaker.
type unevenProvider struct{}

func (unevenProvider) SupportedTags() []string { return tts.CommonSSMLTags() }

func (unevenProvider) GenerateAudio(ctx context.Context, segments []*transcript.Segment) error {
	for _, seg := range segments {
		amp := 0.2
		if seg.SpeakerID == 2 {
			amp = 0.6
		}
		blob, err := audio.Tone(440, time.Second, 44100, amp).Bytes("wav")
		if err != nil {
			return err
		}
		seg.Audio = blob
	}
	return nil
}

func TestConvertNormalisesLoudness(t *testing.T) {
	conv, err := pipeline.New(unevenProvider{}, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "<person1>Quiet.</person1>\n<person2>Loud.</person2>"
	result, err := conv.Convert(context.Background(), text, nil, "leveled")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	clip, err := audio.Load(result.AudioPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	first := clip.Slice(0, time.Second).RMS()
	second := clip.Slice(time.Second, 2*time.Second).RMS()
	ratio := first / second
	if ratio < 0.95 || ratio > 1.05 {
		t.Errorf("loudness not equalised: RMS %v vs %v (ratio %v)", first, second, ratio)
	}
}

func TestConvertJointProvider(t *testing.T) {
	p := &mock.JointProvider{SegmentDuration: 150 * time.Millisecond}
	conv, err := pipeline.New(p, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := "<person1>A.</person1>\n<person2>B.</person2>\n<person1>C.</person1>"
	result, err := conv.Convert(context.Background(), text, nil, "joint")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	clip, err := audio.Load(result.AudioPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if got := clip.Milliseconds(); got != 450 {
		t.Errorf("joint length: got %dms, want 450ms", got)
	}
	// Joint output carries no per-segment timing.
	if strings.Contains(result.Transcript, "start=") {
		t.Errorf("joint transcript has timing attributes: %q", result.Transcript)
	}
}

func TestConvertEmptyTranscript(t *testing.T) {
	conv, err := pipeline.New(&mock.SegmentProvider{}, outputConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = conv.Convert(context.Background(), "plain prose, no tags", nil, "empty")
	if !errors.Is(err, pipeline.ErrEmptyTranscript) {
		t.Fatalf("error: got %v, want ErrEmptyTranscript", err)
	}
}

func TestConvertProviderErrorLeavesNoOutput(t *testing.T) {
	boom := errors.New("synthesis exploded")
	p := &mock.SegmentProvider{GenerateErr: boom}
	out := outputConfig(t)
	conv, err := pipeline.New(p, out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = conv.Convert(context.Background(), "<person1>Hi.</person1>", nil, "failed")
	if !errors.Is(err, boom) {
		t.Fatalf("error: got %v, want wrapped provider error", err)
	}
	entries, err := os.ReadDir(out.AudioDir)
	if err != nil {
		t.Fatalf("read audio dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("audio dir not empty after failure: %v", names)
	}
}

func TestConvertCleansTempDir(t *testing.T) {
	out := outputConfig(t)
	conv, err := pipeline.New(&mock.SegmentProvider{}, out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := conv.Convert(context.Background(), "<person1>Hi.</person1>", nil, "tidy"); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	entries, err := os.ReadDir(out.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned: %d entries", len(entries))
	}
}

func TestNewRejectsNilProvider(t *testing.T) {
	if _, err := pipeline.New(nil, config.OutputConfig{AudioDir: os.TempDir()}); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
