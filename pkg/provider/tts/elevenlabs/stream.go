package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"

	"github.com/voxweave/voxweave/pkg/transcript"
)

// wsEndpoint builds the stream-input WebSocket URL for a voice and model.
func (p *Provider) wsEndpoint(voiceID string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(p.baseURL, "https://"), "http://")
	scheme := "wss"
	if strings.HasPrefix(p.baseURL, "http://") {
		scheme = "ws"
	}
	return fmt.Sprintf("%s://%s/v1/text-to-speech/%s/stream-input?model_id=%s&output_format=%s",
		scheme, host, voiceID, p.model, outputFormat)
}

// boiMessage is the initial "begin of input" handshake payload.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
}

// textMessage carries one text fragment; an empty Text flushes the stream.
type textMessage struct {
	Text string `json:"text"`
}

// audioResponse is one message received over the WebSocket.
type audioResponse struct {
	Audio   string `json:"audio"` // base64-encoded audio chunk
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
}

// streamConvert synthesises one segment's text over the stream-input
// WebSocket API, collecting all audio chunks into a single blob. Neighbour
// context and request-id continuity are not available on this path.
func (p *Provider) streamConvert(ctx context.Context, voiceID, text string, seg *transcript.Segment) ([]byte, error) {
	conn, _, err := websocket.Dial(ctx, p.wsEndpoint(voiceID), nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial stream: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	settings := settingsFor(seg)
	boi, err := json.Marshal(boiMessage{
		// ElevenLabs requires a non-empty first text value.
		Text:          " ",
		VoiceSettings: &settings,
		XiAPIKey:      p.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal BOI: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, boi); err != nil {
		return nil, fmt.Errorf("elevenlabs: send BOI: %w", err)
	}

	msg, err := json.Marshal(textMessage{Text: text})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal text: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return nil, fmt.Errorf("elevenlabs: send text: %w", err)
	}
	// Flush: an empty text value tells the server the input is complete.
	flush, _ := json.Marshal(textMessage{})
	if err := conn.Write(ctx, websocket.MessageText, flush); err != nil {
		return nil, fmt.Errorf("elevenlabs: send flush: %w", err)
	}

	var audio []byte
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if len(audio) > 0 {
				// Server closes the socket after the final chunk.
				return audio, nil
			}
			return nil, fmt.Errorf("elevenlabs: read stream: %w", err)
		}
		var resp audioResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				return nil, fmt.Errorf("elevenlabs: decode audio chunk: %w", err)
			}
			audio = append(audio, chunk...)
		}
		if resp.IsFinal {
			return audio, nil
		}
	}
}
