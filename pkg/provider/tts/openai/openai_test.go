package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxweave/voxweave/pkg/provider/tts/openai"
	"github.com/voxweave/voxweave/pkg/transcript"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := openai.New(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := openai.New("key", openai.WithFormat("ogg")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewRejectsOutOfRangeSpeed(t *testing.T) {
	if _, err := openai.New("key", openai.WithSpeed(3.0)); err == nil {
		t.Fatal("expected error for speed above 2.0")
	}
	if _, err := openai.New("key", openai.WithSpeed(0.1)); err == nil {
		t.Fatal("expected error for speed below 0.5")
	}
}

func TestGenerateAudio(t *testing.T) {
	var got struct {
		Model          string  `json:"model"`
		Input          string  `json:"input"`
		Voice          string  `json:"voice"`
		ResponseFormat string  `json:"response_format"`
		Speed          float64 `json:"speed"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write([]byte("FAKEAUDIO"))
	}))
	defer srv.Close()

	p, err := openai.New("key",
		openai.WithBaseURL(srv.URL),
		openai.WithModel("tts-1"),
		openai.WithFormat("wav"),
		openai.WithSpeed(1.25),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	voice := transcript.DefaultVoiceConfig(1)
	voice.Voice = "alloy"
	seg := &transcript.Segment{SpeakerID: 1, Text: "Hello there.", Voice: voice}
	if err := p.GenerateAudio(context.Background(), []*transcript.Segment{seg}); err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}

	if string(seg.Audio) != "FAKEAUDIO" {
		t.Errorf("audio: got %q", seg.Audio)
	}
	if got.Model != "tts-1" {
		t.Errorf("model: got %q", got.Model)
	}
	if got.Input != "Hello there." {
		t.Errorf("input: got %q", got.Input)
	}
	if got.Voice != "alloy" {
		t.Errorf("voice: got %q", got.Voice)
	}
	if got.ResponseFormat != "wav" {
		t.Errorf("response_format: got %q", got.ResponseFormat)
	}
	if got.Speed != 1.25 {
		t.Errorf("speed: got %v", got.Speed)
	}
}
