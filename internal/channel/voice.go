package channel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"
	"museumhub/pkg/speech"

	"github.com/sirupsen/logrus"
)

const maxAudioFetchBytes = 25 << 20

// VoiceChannel handles telephony turns: audio in, transcription, audio out.
// A provider failure yields an error and leaves the session untouched.
type VoiceChannel struct {
	base
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	fetcher     *http.Client
}

func NewVoiceChannel(store Store, transcriber speech.Transcriber, synthesizer speech.Synthesizer, fetchTimeout time.Duration, logger *logrus.Logger) *VoiceChannel {
	return &VoiceChannel{
		base:        newBase(NameVoice, models.ChannelTypeVoice, store, logger),
		transcriber: transcriber,
		synthesizer: synthesizer,
		fetcher:     &http.Client{Timeout: fetchTimeout},
	}
}

// Authenticate is a no-op for voice; caller identity is the phone number
// asserted by the telephony provider.
func (c *VoiceChannel) Authenticate(_ context.Context, _ Credentials) (*Identity, error) {
	return &Identity{}, nil
}

// SendMessage synthesizes the reply, then persists the outbound row. The
// synthesized audio is returned separately through SynthesizeReply for
// callers that need the payload.
func (c *VoiceChannel) SendMessage(ctx context.Context, session *models.Session, text string, opts SendOptions) (*models.Message, error) {
	_, msg, err := c.SynthesizeReply(ctx, session, text, opts)
	return msg, err
}

// SynthesizeReply converts text to audio and persists the outbound message.
// Nothing is persisted when synthesis fails.
func (c *VoiceChannel) SynthesizeReply(ctx context.Context, session *models.Session, text string, opts SendOptions) (*speech.Audio, *models.Message, error) {
	if session == nil {
		return nil, nil, fmt.Errorf("session is required")
	}

	audio, err := c.synthesizer.Synthesize(ctx, text, opts.Language, opts.Voice)
	if err != nil {
		c.logger.WithError(err).WithField("sessionId", session.SessionID).Error("Speech synthesis failed")
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeSpeechProvider, "speech synthesis failed")
	}

	metadata, _ := json.Marshal(map[string]string{"audioFormat": audio.Format})
	msg, err := c.SaveMessage(ctx, session, models.NewMessage{
		MessageType: models.MessageTypeAudio,
		Direction:   models.DirectionOutbound,
		Content:     text,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, nil, err
	}
	return audio, msg, nil
}

type voicePayload struct {
	AudioData   string `json:"audioData,omitempty"`
	AudioURL    string `json:"audioUrl,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
	Language    string `json:"language,omitempty"`
}

// ReceiveMessage transcribes one caller turn. Audio arrives inline as base64
// or as a URL to fetch. The persisted content is the transcription; the raw
// audio is never stored.
func (c *VoiceChannel) ReceiveMessage(ctx context.Context, raw []byte, opts ReceiveOptions) ([]Inbound, error) {
	var payload voicePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid voice payload: %w", err)
	}

	identity := payload.PhoneNumber
	if identity == "" {
		identity = opts.ChannelUserID
	}
	if identity == "" {
		return nil, apperrors.NewValidationError("phoneNumber", "", "caller identity is required")
	}

	audio, err := c.loadAudio(ctx, payload)
	if err != nil {
		return nil, err
	}

	language := payload.Language
	if language == "" {
		language = opts.Language
	}

	transcription, err := c.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		c.logger.WithError(err).Error("Speech transcription failed")
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSpeechProvider, "speech transcription failed")
	}

	session, err := c.resolveOrCreateSession(ctx, opts.UserID, identity)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"confidence": transcription.Confidence,
		"language":   transcription.Language,
	})
	msg, err := c.SaveMessage(ctx, session, models.NewMessage{
		MessageType: models.MessageTypeAudio,
		Direction:   models.DirectionInbound,
		Content:     transcription.Text,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	text := transcription.Text
	return []Inbound{{Session: session, Message: msg, Text: text, Transcription: &text}}, nil
}

// loadAudio returns the raw audio bytes, preferring inline data over a URL.
func (c *VoiceChannel) loadAudio(ctx context.Context, payload voicePayload) ([]byte, error) {
	if payload.AudioData != "" {
		data, err := base64.StdEncoding.DecodeString(payload.AudioData)
		if err != nil {
			return nil, apperrors.NewValidationError("audioData", "", "invalid base64 audio")
		}
		return data, nil
	}

	if payload.AudioURL == "" {
		return nil, apperrors.NewValidationError("audio", "", "audioData or audioUrl is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.AudioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio fetch request: %w", err)
	}
	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}
