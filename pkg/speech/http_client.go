package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 10 << 20 // 10MB cap on provider responses

// HTTPTranscriber is a Transcriber backed by an HTTP ASR service.
type HTTPTranscriber struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPTranscriber(baseURL, apiKey string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Transcribe posts base64 audio to the provider's /transcribe endpoint.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}

	payload := map[string]string{
		"audio":    base64.StdEncoding.EncodeToString(audio),
		"language": language,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("transcription failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result Transcription
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription: %w", err)
	}
	return &result, nil
}

// HTTPSynthesizer is a Synthesizer backed by an HTTP TTS service.
type HTTPSynthesizer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPSynthesizer(baseURL, apiKey string, timeout time.Duration) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Synthesize posts text to the provider's /synthesize endpoint and returns
// the decoded audio payload.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, language, voice string) (*Audio, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	payload := map[string]string{
		"text":     text,
		"language": language,
		"voice":    voice,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("synthesis failed with status %d: %s", resp.StatusCode, string(body))
	}

	var wire struct {
		Audio  string `json:"audio"`
		Format string `json:"format"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode synthesis response: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(wire.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	format := wire.Format
	if format == "" {
		format = "mp3"
	}
	return &Audio{Data: data, Format: format}, nil
}
