// Package channel defines the polymorphic contract every communication
// surface implements, plus the shared persistence behavior the variants embed.
// Variant-specific transports (Graph API, speech providers) live behind small
// client interfaces so tests can fake them.
package channel

import (
	"context"
	"fmt"
	"sync"

	"museumhub/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Channel names are stable identifiers; session rows reference channels by
// their persistent row, resolved from these names at startup.
const (
	NameWebsite   = "website"
	NameInstagram = "instagram"
	NameVoice     = "voice"
)

// Credentials carries the authentication material a channel variant consumes.
// Website uses Token; Instagram webhook verification uses Mode, VerifyToken
// and Challenge.
type Credentials struct {
	Token       string
	Mode        string
	VerifyToken string
	Challenge   string
}

// Identity is a successful authentication outcome. Website auth yields a
// UserID; Instagram handshake yields the Challenge to echo back.
type Identity struct {
	UserID    *int64
	Challenge string
}

// SessionRef locates an existing session either by its public session ID or
// by channel-scoped identity. Exactly one field must be set.
type SessionRef struct {
	SessionID     string
	ChannelUserID string
}

// Inbound is one normalized received message: the session it was routed to
// and the persisted inbound row.
type Inbound struct {
	Session       *models.Session
	Message       *models.Message
	Text          string
	Transcription *string
}

// SendOptions carries variant-specific delivery parameters.
type SendOptions struct {
	Language string
	Voice    string
}

// ReceiveOptions carries request-scoped identity hints that do not travel in
// the raw payload itself.
type ReceiveOptions struct {
	UserID        *int64
	SessionID     string
	ChannelUserID string
	Language      string
}

// Channel is the uniform surface the session manager and HTTP handlers
// program against.
type Channel interface {
	Name() string
	Type() models.ChannelType

	// Authenticate validates credentials for this channel. A failed
	// authentication returns (nil, nil); errors are reserved for faults.
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)

	// CreateSession opens a new active session for the given identity,
	// closing any prior active session for the same identity first.
	CreateSession(ctx context.Context, userID *int64, channelUserID string, sessionCtx models.SessionContext) (*models.Session, error)

	// GetSession resolves an existing session; nil when absent.
	GetSession(ctx context.Context, ref SessionRef) (*models.Session, error)

	// SaveMessage persists one message on a session.
	SaveMessage(ctx context.Context, session *models.Session, msg models.NewMessage) (*models.Message, error)

	// SendMessage delivers text to the session's user through the channel's
	// transport and persists the outbound row. Nothing is persisted when the
	// transport fails.
	SendMessage(ctx context.Context, session *models.Session, text string, opts SendOptions) (*models.Message, error)

	// ReceiveMessage normalizes a raw inbound payload into persisted
	// messages, resolving or creating sessions as needed. Batched payloads
	// yield multiple results.
	ReceiveMessage(ctx context.Context, raw []byte, opts ReceiveOptions) ([]Inbound, error)
}

// Store is the persistence surface channels need.
type Store interface {
	GetOrCreateChannel(ctx context.Context, name string, chType models.ChannelType) (*models.Channel, error)
	CreateSession(ctx context.Context, sessionID string, userID *int64, channelID int64, channelUserID string, sessionCtx models.SessionContext) (*models.Session, error)
	GetSessionBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	GetActiveSessionByIdentity(ctx context.Context, channelID int64, channelUserID string) (*models.Session, error)
	SaveMessage(ctx context.Context, sessionPK int64, msg models.NewMessage) (*models.Message, error)
	GetActiveToken(ctx context.Context, token string) (*models.AuthToken, error)
	TouchTokenLastUsed(ctx context.Context, tokenID int64) error
	InsertToken(ctx context.Context, token *models.AuthToken) error
}

// base carries the persistence behavior shared by all channel variants.
type base struct {
	name   string
	chType models.ChannelType
	store  Store
	logger *logrus.Logger

	mu  sync.Mutex
	row *models.Channel
}

func newBase(name string, chType models.ChannelType, store Store, logger *logrus.Logger) base {
	return base{name: name, chType: chType, store: store, logger: logger}
}

func (b *base) Name() string             { return b.name }
func (b *base) Type() models.ChannelType { return b.chType }

// channelRow resolves (and caches) this channel's persistent row, creating it
// on first use.
func (b *base) channelRow(ctx context.Context) (*models.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.row != nil {
		return b.row, nil
	}
	row, err := b.store.GetOrCreateChannel(ctx, b.name, b.chType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %s: %w", b.name, err)
	}
	b.row = row
	return row, nil
}

func (b *base) CreateSession(ctx context.Context, userID *int64, channelUserID string, sessionCtx models.SessionContext) (*models.Session, error) {
	row, err := b.channelRow(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	session, err := b.store.CreateSession(ctx, sessionID, userID, row.ID, channelUserID, sessionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"sessionId": session.SessionID,
		"channel":   b.name,
	}).Info("Session created")
	return session, nil
}

func (b *base) GetSession(ctx context.Context, ref SessionRef) (*models.Session, error) {
	switch {
	case ref.SessionID != "":
		return b.store.GetSessionBySessionID(ctx, ref.SessionID)
	case ref.ChannelUserID != "":
		row, err := b.channelRow(ctx)
		if err != nil {
			return nil, err
		}
		return b.store.GetActiveSessionByIdentity(ctx, row.ID, ref.ChannelUserID)
	default:
		return nil, fmt.Errorf("session reference requires a session ID or channel user ID")
	}
}

func (b *base) SaveMessage(ctx context.Context, session *models.Session, msg models.NewMessage) (*models.Message, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	return b.store.SaveMessage(ctx, session.ID, msg)
}

// resolveOrCreateSession returns the identity's active session, creating one
// when none exists. Sessions in any non-active state are never resumed.
func (b *base) resolveOrCreateSession(ctx context.Context, userID *int64, channelUserID string) (*models.Session, error) {
	row, err := b.channelRow(ctx)
	if err != nil {
		return nil, err
	}

	session, err := b.store.GetActiveSessionByIdentity(ctx, row.ID, channelUserID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	return b.CreateSession(ctx, userID, channelUserID, nil)
}

// Registry holds the configured channel variants, keyed by name.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel; a duplicate name is a configuration fault.
func (r *Registry) Register(ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[ch.Name()]; exists {
		return fmt.Errorf("channel %s is already registered", ch.Name())
	}
	r.channels[ch.Name()] = ch
	return nil
}

// Get returns the channel registered under name.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", name)
	}
	return ch, nil
}

// Names returns the registered channel names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}
