package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"museumhub/internal/booking"
	"museumhub/internal/channel"
	"museumhub/internal/dialogue"
	apperrors "museumhub/internal/errors"
	"museumhub/internal/metrics"
	"museumhub/internal/middleware"
	"museumhub/internal/models"
	"museumhub/internal/responder"
	"museumhub/internal/session"
	"museumhub/pkg/wshub"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxRequestBody = 1 << 20 // 1MB for chat/webhook payloads

type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	cfg       *models.Config
	manager   *session.Manager
	engine    *dialogue.Engine
	inventory *booking.Service
	hub       *wshub.Hub
	website   *channel.WebsiteChannel
	instagram *channel.InstagramChannel
	voice     *channel.VoiceChannel
	server    *http.Server
}

func NewServer(cfg *models.Config, manager *session.Manager, engine *dialogue.Engine, inventory *booking.Service, hub *wshub.Hub, website *channel.WebsiteChannel, instagram *channel.InstagramChannel, voice *channel.VoiceChannel, logger *logrus.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		cfg:       cfg,
		manager:   manager,
		engine:    engine,
		inventory: inventory,
		hub:       hub,
		website:   website,
		instagram: instagram,
		voice:     voice,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat()).Methods(http.MethodPost)
	api.HandleFunc("/tokens", s.handleIssueToken()).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionID}/history", s.handleHistory()).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionID}/transfer", s.handleTransfer()).Methods(http.MethodPost)
	api.HandleFunc("/voice", s.handleVoice()).Methods(http.MethodPost)
	api.HandleFunc("/availability", s.handleAvailability()).Methods(http.MethodGet)

	s.router.HandleFunc("/ws/chat", s.handleWebSocket()).Methods(http.MethodGet)

	ig := s.router.PathPrefix("/webhook/instagram").Subrouter()
	ig.Use(middleware.WebhookObservability(s.logger, "instagram"))
	ig.HandleFunc("", s.handleInstagramVerify()).Methods(http.MethodGet)
	ig.HandleFunc("", s.handleInstagramWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.WithField("port", s.cfg.Server.Port).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLocalRequest(r) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, metrics.GetAllMetrics())
	}
}

// chatRequest is one website chat turn: free text plus optional wizard action
// fields and an optional session reference.
type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	dialogue.Request
}

type chatResponse struct {
	SessionID     string            `json:"session_id"`
	Response      string            `json:"response"`
	Step          dialogue.Step     `json:"step,omitempty"`
	Buttons       []dialogue.Button `json:"buttons,omitempty"`
	RequiresLogin bool              `json:"requires_login,omitempty"`
	Booking       *models.Booking   `json:"booking,omitempty"`
}

func (s *Server) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.authenticateWebsite(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
		if req.Message == "" && req.Action == "" {
			writeJSON(w, http.StatusOK, chatResponse{
				Response: "Please ask me a question! I can help with booking tickets, exhibits, and more.",
			})
			return
		}

		// An explicit session reference is subject to the same ownership
		// check as history and transfer; a user-bound session never accepts
		// turns from anyone but its owner.
		if req.SessionID != "" {
			sess, err := s.manager.GetSession(r.Context(), req.SessionID)
			if err != nil {
				http.Error(w, "Failed to load session", http.StatusInternalServerError)
				return
			}
			if sess == nil {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			if !ownsSession(identity, sess) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}

		var userID *int64
		if identity != nil {
			userID = identity.UserID
		}

		inbound, err := s.website.ReceiveMessage(r.Context(), body, channel.ReceiveOptions{
			UserID:    userID,
			SessionID: req.SessionID,
		})
		if err != nil || len(inbound) == 0 {
			s.logger.WithError(err).Error("Failed to process chat message")
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
			return
		}
		metrics.IncrementCounter(metrics.MetricMessagesReceived, map[string]string{"channel": channel.NameWebsite}, "Inbound messages")

		sess := inbound[0].Session
		resp, err := s.converse(r.Context(), sess, req.Request)
		if err != nil {
			s.logger.WithError(err).Error("Dialogue turn failed")
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
			return
		}
		resp.SessionID = sess.SessionID

		if _, err := s.website.SendMessage(r.Context(), sess, resp.Response, channel.SendOptions{}); err != nil {
			s.logger.WithError(err).Error("Failed to persist chat reply")
			http.Error(w, "Failed to send reply", http.StatusInternalServerError)
			return
		}
		metrics.IncrementCounter(metrics.MetricMessagesSent, map[string]string{"channel": channel.NameWebsite}, "Outbound messages")

		s.hub.Broadcast(r.Context(), sess.SessionID, resp)
		writeJSON(w, http.StatusOK, resp)
	}
}

// converse runs the dialogue engine for one turn, falling back to the
// pattern responder, and applies any resulting context merge.
func (s *Server) converse(ctx context.Context, sess *models.Session, req dialogue.Request) (*chatResponse, error) {
	reply, updates, err := s.engine.Advance(ctx, sess, req)
	if err != nil {
		return nil, err
	}

	if updates != nil {
		if _, err := s.manager.UpdateSessionContext(ctx, sess.SessionID, updates); err != nil {
			return nil, err
		}
	}

	if !reply.Handled {
		return &chatResponse{Response: responder.GenerateResponse(req.Message)}, nil
	}

	if reply.Step != "" {
		metrics.IncrementCounter(metrics.MetricDialogueSteps, map[string]string{"step": string(reply.Step)}, "Dialogue step transitions")
	}
	if reply.Booking != nil {
		metrics.IncrementCounter(metrics.MetricBookingsCreated, nil, "Bookings created through the dialogue")
	}

	return &chatResponse{
		Response:      reply.Text,
		Step:          reply.Step,
		Buttons:       reply.Buttons,
		RequiresLogin: reply.RequiresLogin,
		Booking:       reply.Booking,
	}, nil
}

type issueTokenRequest struct {
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

func (s *Server) handleIssueToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueTokenRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		var expiresAt *time.Time
		if req.ExpiresInDays > 0 {
			t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
			expiresAt = &t
		}

		token, err := s.website.GenerateToken(r.Context(), req.UserID, req.Name, expiresAt)
		if err != nil {
			s.logger.WithError(err).Error("Failed to issue token")
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"token":      token.Token,
			"user_id":    token.UserID,
			"expires_at": token.ExpiresAt,
		})
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.requireWebsiteAuth(w, r)
		if !ok {
			return
		}

		sessionID := mux.Vars(r)["sessionID"]
		sess, err := s.manager.GetSession(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}
		if sess == nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if !ownsSession(identity, sess) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		messages, err := s.manager.GetConversationHistory(r.Context(), sessionID, limit)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load history")
			http.Error(w, "Failed to load history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session_id": sessionID,
			"messages":   messages,
		})
	}
}

type transferRequest struct {
	TargetChannel       string `json:"target_channel"`
	TargetChannelUserID string `json:"target_channel_user_id,omitempty"`
}

func (s *Server) handleTransfer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.requireWebsiteAuth(w, r)
		if !ok {
			return
		}

		sessionID := mux.Vars(r)["sessionID"]
		sess, err := s.manager.GetSession(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}
		if sess == nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if !ownsSession(identity, sess) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var req transferRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
			return
		}
		if req.TargetChannel == "" {
			http.Error(w, "target_channel is required", http.StatusBadRequest)
			return
		}

		newSession, err := s.manager.TransferSession(r.Context(), sessionID, req.TargetChannel, req.TargetChannelUserID)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.ErrCodeValidationFailed {
				http.Error(w, apperrors.GetUserMessage(err), http.StatusBadRequest)
				return
			}
			if apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			s.logger.WithError(err).Error("Transfer failed")
			http.Error(w, "Transfer failed", http.StatusInternalServerError)
			return
		}

		metrics.IncrementCounter(metrics.MetricSessionsTransferred, map[string]string{"target": req.TargetChannel}, "Cross-channel transfers")
		writeJSON(w, http.StatusOK, newSession)
	}
}

func (s *Server) handleInstagramVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		identity, err := s.instagram.Authenticate(r.Context(), channel.Credentials{
			Mode:        q.Get("hub.mode"),
			VerifyToken: q.Get("hub.verify_token"),
			Challenge:   q.Get("hub.challenge"),
		})
		if err != nil || identity == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(identity.Challenge))
	}
}

func (s *Server) handleInstagramWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := verifyInstagramSignature(r, s.cfg.Instagram.AppSecret)
		if err != nil {
			s.logger.WithError(err).Warn("Instagram webhook signature rejected")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		inbound, err := s.instagram.ReceiveMessage(r.Context(), body, channel.ReceiveOptions{})
		if err != nil {
			s.logger.WithError(err).Error("Failed to process Instagram webhook")
			http.Error(w, "Failed to process webhook", http.StatusBadRequest)
			return
		}

		for _, in := range inbound {
			metrics.IncrementCounter(metrics.MetricMessagesReceived, map[string]string{"channel": channel.NameInstagram}, "Inbound messages")

			resp, err := s.converse(r.Context(), in.Session, dialogue.Request{Message: in.Text})
			if err != nil {
				s.logger.WithError(err).Error("Instagram dialogue turn failed")
				continue
			}
			if _, err := s.instagram.SendMessage(r.Context(), in.Session, resp.Response, channel.SendOptions{}); err != nil {
				s.logger.WithError(err).Error("Failed to send Instagram reply")
				continue
			}
			metrics.IncrementCounter(metrics.MetricMessagesSent, map[string]string{"channel": channel.NameInstagram}, "Outbound messages")
		}

		// Meta expects 200 regardless of per-event outcomes, else it retries
		// the whole batch.
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
	}
}

type voiceResponse struct {
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription"`
	Response      string `json:"response"`
	Audio         string `json:"audio,omitempty"`
	AudioFormat   string `json:"audio_format,omitempty"`
}

func (s *Server) handleVoice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		inbound, err := s.voice.ReceiveMessage(r.Context(), body, channel.ReceiveOptions{
			Language: s.cfg.Speech.DefaultLanguage,
		})
		if err != nil {
			code := http.StatusBadRequest
			if apperrors.GetCode(err) == apperrors.ErrCodeSpeechProvider {
				code = http.StatusBadGateway
			}
			s.logger.WithError(err).Error("Failed to process voice turn")
			http.Error(w, apperrors.GetUserMessage(err), code)
			return
		}
		metrics.IncrementCounter(metrics.MetricMessagesReceived, map[string]string{"channel": channel.NameVoice}, "Inbound messages")

		in := inbound[0]
		resp, err := s.converse(r.Context(), in.Session, dialogue.Request{Message: in.Text})
		if err != nil {
			s.logger.WithError(err).Error("Voice dialogue turn failed")
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
			return
		}

		audio, _, err := s.voice.SynthesizeReply(r.Context(), in.Session, resp.Response, channel.SendOptions{
			Language: s.cfg.Speech.DefaultLanguage,
			Voice:    s.cfg.Speech.DefaultVoice,
		})
		if err != nil {
			s.logger.WithError(err).Error("Failed to synthesize voice reply")
			http.Error(w, "Failed to synthesize reply", http.StatusBadGateway)
			return
		}
		metrics.IncrementCounter(metrics.MetricMessagesSent, map[string]string{"channel": channel.NameVoice}, "Outbound messages")

		writeJSON(w, http.StatusOK, voiceResponse{
			SessionID:     in.Session.SessionID,
			Transcription: in.Text,
			Response:      resp.Response,
			Audio:         base64.StdEncoding.EncodeToString(audio.Data),
			AudioFormat:   audio.Format,
		})
	}
}

func (s *Server) handleAvailability() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dateStr := r.URL.Query().Get("date")
		if dateStr == "" {
			http.Error(w, "date query parameter is required", http.StatusBadRequest)
			return
		}

		date, err := resolveDateParam(dateStr)
		if err != nil {
			http.Error(w, "Invalid date, use YYYY-MM-DD, today or tomorrow", http.StatusBadRequest)
			return
		}

		slots, err := s.inventory.Availability(r.Context(), date)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load availability")
			http.Error(w, "Failed to load availability", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":  date,
			"slots": slots,
		})
	}
}

func (s *Server) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.requireWebsiteAuth(w, r)
		if !ok {
			return
		}

		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}

		sess, err := s.manager.GetSession(r.Context(), sessionID)
		if err != nil || sess == nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		if !ownsSession(identity, sess) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			s.logger.WithError(err).Warn("WebSocket accept failed")
			return
		}

		s.hub.Join(sessionID, conn)
		defer func() {
			s.hub.Leave(sessionID, conn)
			_ = conn.CloseNow()
		}()

		// Push-only socket: hold it open until the client goes away.
		ctx := conn.CloseRead(r.Context())
		<-ctx.Done()
	}
}

func resolveDateParam(value string) (string, error) {
	switch value {
	case "today":
		return time.Now().UTC().Format("2006-01-02"), nil
	case "tomorrow":
		return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

func ownsSession(identity *channel.Identity, sess *models.Session) bool {
	if sess.UserID == nil {
		return true
	}
	return identity != nil && identity.UserID != nil && *identity.UserID == *sess.UserID
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
