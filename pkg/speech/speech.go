// Package speech provides the ASR and TTS provider clients behind the voice
// channel. Providers are plain HTTP services; both directions carry explicit
// timeouts so a stuck provider cannot wedge a call turn.
package speech

import (
	"context"
	"fmt"
	"time"
)

// Transcription is the outcome of speech-to-text on one audio payload.
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Audio is a synthesized speech payload.
type Audio struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*Transcription, error)
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language, voice string) (*Audio, error)
}

// ProviderHTTP is the generic JSON-over-HTTP provider: a whisper-style
// /transcribe endpoint for ASR, an ElevenLabs-style /synthesize endpoint for
// TTS. An empty provider name selects it.
const ProviderHTTP = "http"

// KnownProvider reports whether name selects a provider.
func KnownProvider(name string) bool {
	return name == "" || name == ProviderHTTP
}

// NewTranscriber constructs the ASR provider named in configuration.
func NewTranscriber(provider, baseURL, apiKey string, timeout time.Duration) (Transcriber, error) {
	switch provider {
	case "", ProviderHTTP:
		return NewHTTPTranscriber(baseURL, apiKey, timeout), nil
	}
	return nil, fmt.Errorf("unknown ASR provider %q", provider)
}

// NewSynthesizer constructs the TTS provider named in configuration.
func NewSynthesizer(provider, baseURL, apiKey string, timeout time.Duration) (Synthesizer, error) {
	switch provider {
	case "", ProviderHTTP:
		return NewHTTPSynthesizer(baseURL, apiKey, timeout), nil
	}
	return nil, fmt.Errorf("unknown TTS provider %q", provider)
}
