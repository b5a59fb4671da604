// Package session owns conversation lifecycle above the channel layer:
// resolution, context merges, cross-channel transfer, history, cleanup.
package session

import (
	"context"
	"fmt"
	"sync"

	"museumhub/internal/analytics"
	"museumhub/internal/channel"
	"museumhub/internal/constants"
	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"

	"github.com/sirupsen/logrus"
)

// Store is the persistence surface the manager needs beyond what channels
// already expose.
type Store interface {
	GetSessionBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateSessionContext(ctx context.Context, sessionPK int64, sessionCtx models.SessionContext) error
	UpdateSessionStatus(ctx context.Context, sessionPK int64, status models.SessionStatus) error
	GetRecentMessages(ctx context.Context, sessionPK int64, limit int) ([]*models.Message, error)
	CleanupOldSessions(ctx context.Context, daysInactive int) (int64, error)
}

// Manager coordinates session lifecycle across the registered channels.
type Manager struct {
	store     Store
	registry  *channel.Registry
	publisher analytics.Publisher
	logger    *logrus.Logger

	// Per-session locks serialize context merges so concurrent turns on the
	// same session never clobber each other's writes.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewManager(store Store, registry *channel.Registry, publisher analytics.Publisher, logger *logrus.Logger) *Manager {
	return &Manager{
		store:     store,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

// GetOrCreateSession returns the identity's active session on the named
// channel, creating one when none is active. Sessions in closed, escalated
// or transferred state are never resumed.
func (m *Manager) GetOrCreateSession(ctx context.Context, channelName string, userID *int64, channelUserID string) (*models.Session, error) {
	ch, err := m.registry.Get(channelName)
	if err != nil {
		return nil, err
	}

	session, err := ch.GetSession(ctx, channel.SessionRef{ChannelUserID: channelUserID})
	if err != nil {
		return nil, err
	}
	if session != nil && session.IsActive() {
		return session, nil
	}

	session, err = ch.CreateSession(ctx, userID, channelUserID, nil)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, analytics.Event{
		Kind:      analytics.EventSessionCreated,
		SessionID: session.SessionID,
		Channel:   channelName,
	})
	return session, nil
}

// GetSession resolves a session by its public ID; nil when absent.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return m.store.GetSessionBySessionID(ctx, sessionID)
}

// UpdateSessionContext shallow-merges updates into the session's stored
// context under the session's lock. Keys in updates win; a nil value removes
// the key.
func (m *Manager) UpdateSessionContext(ctx context.Context, sessionID string, updates models.SessionContext) (*models.Session, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.store.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("session", sessionID)
	}

	merged := make(models.SessionContext, len(session.Context)+len(updates))
	for k, v := range session.Context {
		merged[k] = v
	}
	for k, v := range updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	if err := m.store.UpdateSessionContext(ctx, session.ID, merged); err != nil {
		return nil, err
	}
	session.Context = merged
	return session, nil
}

// TransferSession moves a conversation to another channel: a fresh session is
// created on the target carrying the source's context, the source is marked
// transferred, and the new session is returned. The source is left untouched
// when target creation fails.
func (m *Manager) TransferSession(ctx context.Context, sessionID, targetChannel, targetChannelUserID string) (*models.Session, error) {
	source, err := m.store.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, apperrors.NewNotFoundError("session", sessionID)
	}
	if !source.IsActive() {
		return nil, apperrors.NewValidationError("session", sessionID, "only active sessions can be transferred")
	}

	target, err := m.registry.Get(targetChannel)
	if err != nil {
		return nil, err
	}
	if target.Name() == source.ChannelName {
		return nil, apperrors.NewValidationError("channel", targetChannel, "target channel must differ from the source")
	}
	if targetChannelUserID == "" {
		targetChannelUserID = source.ChannelUserID
	}

	newSession, err := target.CreateSession(ctx, source.UserID, targetChannelUserID, source.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to create target session: %w", err)
	}

	if err := m.store.UpdateSessionStatus(ctx, source.ID, models.SessionStatusTransferred); err != nil {
		return nil, fmt.Errorf("failed to mark source session transferred: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"sourceSession": source.SessionID,
		"targetSession": newSession.SessionID,
		"targetChannel": targetChannel,
	}).Info("Session transferred")

	m.publish(ctx, analytics.Event{
		Kind:      analytics.EventSessionTransferred,
		SessionID: source.SessionID,
		Channel:   source.ChannelName,
		Data: map[string]interface{}{
			"targetSession": newSession.SessionID,
			"targetChannel": targetChannel,
		},
	})
	return newSession, nil
}

// GetConversationHistory returns the most recent limit messages in
// chronological order. The limit is clamped to the configured maximum; zero
// or negative means the default.
func (m *Manager) GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]*models.Message, error) {
	session, err := m.store.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.NewNotFoundError("session", sessionID)
	}

	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}
	return m.store.GetRecentMessages(ctx, session.ID, limit)
}

// CloseSession ends a session normally.
func (m *Manager) CloseSession(ctx context.Context, sessionID string) error {
	return m.transition(ctx, sessionID, models.SessionStatusClosed, analytics.EventSessionClosed)
}

// EscalateSession hands a session to a human operator.
func (m *Manager) EscalateSession(ctx context.Context, sessionID string) error {
	return m.transition(ctx, sessionID, models.SessionStatusEscalated, analytics.EventSessionEscalated)
}

func (m *Manager) transition(ctx context.Context, sessionID string, status models.SessionStatus, eventKind string) error {
	session, err := m.store.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.NewNotFoundError("session", sessionID)
	}

	if err := m.store.UpdateSessionStatus(ctx, session.ID, status); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"sessionId": sessionID,
		"status":    status,
	}).Info("Session status changed")

	m.publish(ctx, analytics.Event{
		Kind:      eventKind,
		SessionID: sessionID,
		Channel:   session.ChannelName,
	})
	return nil
}

// CleanupOldSessions removes closed sessions inactive beyond the retention
// window and returns the count removed.
func (m *Manager) CleanupOldSessions(ctx context.Context, daysInactive int) (int64, error) {
	if daysInactive <= 0 {
		daysInactive = constants.DefaultSessionCleanupDays
	}
	count, err := m.store.CleanupOldSessions(ctx, daysInactive)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.logger.WithField("count", count).Info("Old sessions cleaned up")
	}
	return count, nil
}

func (m *Manager) publish(ctx context.Context, event analytics.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.WithError(err).Warn("Failed to publish analytics event")
	}
}
