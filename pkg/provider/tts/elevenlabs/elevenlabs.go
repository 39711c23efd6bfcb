// Package elevenlabs provides the ElevenLabs-backed per-segment TTS
// provider. It implements the tts.SegmentProvider contract.
//
// Generation runs one HTTP conversion call per segment, enriched with
// neighbouring-turn context and a rolling window of previous request ids for
// cross-call prosodic continuity. When streaming mode is enabled, synthesis
// goes through the ElevenLabs stream-input WebSocket API instead; the
// continuity window is unavailable on that path.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/voxweave/voxweave/internal/retry"
	"github.com/voxweave/voxweave/pkg/provider/tts"
	"github.com/voxweave/voxweave/pkg/transcript"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"
	outputFormat   = "mp3_44100_128"

	// historyWindow caps how many previous request ids accompany a
	// conversion call.
	historyWindow = 3

	// historyPageSize is how many recent history items are fetched when
	// refreshing the continuity window.
	historyPageSize = 4
)

// voiceIDPattern matches a raw ElevenLabs voice id (20 alphanumerics).
// Anything else is treated as a human-readable voice name needing lookup.
var voiceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{20}$`)

// Compile-time interface assertion.
var _ tts.SegmentProvider = (*Provider)(nil)

// Option is a functional option for configuring the ElevenLabs Provider.
type Option func(*Provider)

// WithModel sets the ElevenLabs model id (e.g. "eleven_multilingual_v2").
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL overrides the API base URL. Used by tests to point the
// provider at a local server.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithStreaming toggles the stream-input WebSocket synthesis path.
func WithStreaming(streaming bool) Option {
	return func(p *Provider) {
		p.streaming = streaming
	}
}

// WithRetryPolicy replaces the retry policy used for both generation and
// history lookups. Tests inject a policy with a no-op sleep.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Provider) {
		p.genRetry = policy
		p.historyRetry = policy
	}
}

// Provider implements tts.SegmentProvider backed by the ElevenLabs API.
type Provider struct {
	apiKey       string
	baseURL      string
	model        string
	streaming    bool
	httpClient   *http.Client
	genRetry     retry.Policy
	historyRetry retry.Policy
}

// New creates an ElevenLabs Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		model:        defaultModel,
		httpClient:   &http.Client{},
		genRetry:     retry.New(),
		historyRetry: retry.New(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// SupportedTags returns the SSML tags passed through to ElevenLabs.
func (p *Provider) SupportedTags() []string {
	return tts.CommonSSMLTags()
}

// historyEntry is one previously generated request tracked for continuity.
type historyEntry struct {
	requestID string
	text      string
}

// GenerateAudio synthesises every segment in order, filling Audio in place.
// A segment that exhausts its generation retries fails the whole call; a
// history lookup that exhausts its retries only costs the continuity benefit.
func (p *Provider) GenerateAudio(ctx context.Context, segments []*transcript.Segment) error {
	var window []historyEntry

	for i, seg := range segments {
		slog.Info("generating audio",
			"provider", "elevenlabs",
			"speaker", seg.SpeakerID,
			"chars", len(seg.Text),
		)

		voiceID, err := p.resolveVoice(ctx, seg.Voice.Voice)
		if err != nil {
			return err
		}

		phrase := tts.NarrationFor(seg.Voice.Language)
		text := requestText(seg, phrase)
		prevText := previousContext(segments, i)
		nextText := nextContext(segments, i)

		audio, err := retry.DoValue(p.genRetry, func() ([]byte, error) {
			return p.convert(ctx, voiceID, text, seg, prevText, nextText, requestIDs(window))
		})
		if err != nil {
			return fmt.Errorf("elevenlabs: generate speaker %d segment %d: %w", seg.SpeakerID, i, err)
		}
		seg.Audio = audio

		if p.streaming {
			// The WebSocket path returns no request id to track.
			continue
		}
		entry, err := retry.DoValue(p.historyRetry, func() (historyEntry, error) {
			return p.findHistoryItem(ctx, text)
		})
		if err != nil {
			slog.Warn("history item not visible, continuing without continuity context",
				"provider", "elevenlabs", "segment", i, "err", err)
			continue
		}
		window = append(window, entry)
	}
	return nil
}

// requestText builds the text submitted for a segment. With emotive delivery
// active, the emote description is narrated after the spoken text, separated
// by an explicit pause directive so the merge stage can split it off again.
func requestText(seg *transcript.Segment, phrase tts.Narration) string {
	emote, ok := seg.Parameters["emote"]
	if !seg.Voice.UseEmote || !ok || seg.Voice.EmotePause <= 0 {
		return seg.Text
	}
	return phrase.Sep + seg.Text +
		fmt.Sprintf(`<break time="%gs" />`, seg.Voice.EmotePause) +
		phrase.Connector + emote
}

// previousContext returns the textual context preceding segment i. A
// same-speaker neighbour contributes its raw text; a different speaker's
// turn is closed off with its narration (its emote description when emotive
// delivery was active, the localized said-phrase otherwise).
func previousContext(segments []*transcript.Segment, i int) string {
	if i == 0 {
		return ""
	}
	prev := segments[i-1]
	if prev.SpeakerID == segments[i].SpeakerID {
		return prev.Text
	}
	phrase := tts.NarrationFor(prev.Voice.Language)
	return prev.Text + phrase.Connector + narrationOf(prev, phrase)
}

// nextContext returns the textual context following segment i. A
// same-speaker neighbour contributes its raw text; before a speaker change,
// the current turn's narration is injected ahead of the neighbour's text.
func nextContext(segments []*transcript.Segment, i int) string {
	if i >= len(segments)-1 {
		return ""
	}
	cur, next := segments[i], segments[i+1]
	if next.SpeakerID == cur.SpeakerID {
		return next.Text
	}
	phrase := tts.NarrationFor(cur.Voice.Language)
	return phrase.Connector + narrationOf(cur, phrase) + phrase.Sep + next.Text
}

// narrationOf returns a segment's emote description when emotive delivery is
// active, and the default said-phrase otherwise.
func narrationOf(seg *transcript.Segment, phrase tts.Narration) string {
	if emote, ok := seg.Parameters["emote"]; ok && seg.Voice.UseEmote {
		return emote
	}
	return phrase.Said
}

func requestIDs(window []historyEntry) []string {
	start := 0
	if len(window) > historyWindow {
		start = len(window) - historyWindow
	}
	ids := make([]string, 0, historyWindow)
	for _, e := range window[start:] {
		ids = append(ids, e.requestID)
	}
	return ids
}

// ---- voice resolution ----

// voicesResponse is the top-level response from GET /v1/voices.
type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Voice is a single voice entry from the ElevenLabs voice catalogue.
type Voice struct {
	VoiceID  string            `json:"voice_id"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Labels   map[string]string `json:"labels"`
}

// Voices returns the voice catalogue for the configured API key.
func (p *Provider) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/voices?show_legacy=true", nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: list voices: unexpected status %d", resp.StatusCode)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices decode: %w", err)
	}
	return vr.Voices, nil
}

// resolveVoice maps a configured voice value to a vendor voice id. Values
// already shaped like an id pass through; anything else is looked up by name
// in the voice catalogue. An unmatched name is a tts.ErrVoiceNotFound.
func (p *Provider) resolveVoice(ctx context.Context, voice string) (string, error) {
	voice = strings.TrimSpace(voice)
	if voiceIDPattern.MatchString(voice) {
		return voice, nil
	}
	voices, err := p.Voices(ctx)
	if err != nil {
		return "", err
	}
	for _, v := range voices {
		if v.Name == voice {
			return v.VoiceID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", tts.ErrVoiceNotFound, voice)
}

// ---- conversion ----

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// convertRequest is the JSON payload for POST /v1/text-to-speech/{voice_id}.
type convertRequest struct {
	Text               string        `json:"text"`
	ModelID            string        `json:"model_id"`
	VoiceSettings      voiceSettings `json:"voice_settings"`
	PreviousText       string        `json:"previous_text,omitempty"`
	NextText           string        `json:"next_text,omitempty"`
	PreviousRequestIDs []string      `json:"previous_request_ids,omitempty"`
}

func settingsFor(seg *transcript.Segment) voiceSettings {
	return voiceSettings{
		Stability:       seg.Voice.Stability,
		SimilarityBoost: seg.Voice.SimilarityBoost,
		Style:           seg.Voice.Style,
		UseSpeakerBoost: seg.Voice.UseSpeakerBoost,
	}
}

// convert performs one synthesis call and returns the audio bytes.
func (p *Provider) convert(ctx context.Context, voiceID, text string, seg *transcript.Segment, prevText, nextText string, prevIDs []string) ([]byte, error) {
	if p.streaming {
		return p.streamConvert(ctx, voiceID, text, seg)
	}

	body, err := json.Marshal(convertRequest{
		Text:               text,
		ModelID:            p.model,
		VoiceSettings:      settingsFor(seg),
		PreviousText:       prevText,
		NextText:           nextText,
		PreviousRequestIDs: prevIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", p.baseURL, voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: convert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("elevenlabs: convert: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs: convert returned empty audio")
	}
	return audio, nil
}

// ---- history ----

// historyResponse is the top-level response from GET /v1/history.
type historyResponse struct {
	History []historyItem `json:"history"`
}

type historyItem struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	DateUnix  int64  `json:"date_unix"`
}

// findHistoryItem looks up the most recent generation whose text matches
// exactly, newest first. Freshly generated items can lag behind the history
// endpoint, hence the caller's retry.
func (p *Provider) findHistoryItem(ctx context.Context, text string) (historyEntry, error) {
	url := fmt.Sprintf("%s/v1/history?page_size=%d", p.baseURL, historyPageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return historyEntry{}, fmt.Errorf("elevenlabs: history: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return historyEntry{}, fmt.Errorf("elevenlabs: history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return historyEntry{}, fmt.Errorf("elevenlabs: history: unexpected status %d", resp.StatusCode)
	}
	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return historyEntry{}, fmt.Errorf("elevenlabs: history decode: %w", err)
	}

	sort.Slice(hr.History, func(i, j int) bool {
		return hr.History[i].DateUnix > hr.History[j].DateUnix
	})
	for _, item := range hr.History {
		if item.RequestID != "" && item.Text == text {
			return historyEntry{requestID: item.RequestID, text: item.Text}, nil
		}
	}
	return historyEntry{}, fmt.Errorf("elevenlabs: history item for generated text not yet visible")
}
