package channel

import (
	"context"
	"path/filepath"
	"testing"

	"museumhub/internal/database"
	"museumhub/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func setupTestStore(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestRegistry(t *testing.T) {
	db := setupTestStore(t)
	logger := newTestLogger()
	registry := NewRegistry()

	website := NewWebsiteChannel(db, logger)
	require.NoError(t, registry.Register(website))

	// Duplicate registration is a configuration fault.
	assert.Error(t, registry.Register(NewWebsiteChannel(db, logger)))

	got, err := registry.Get(NameWebsite)
	require.NoError(t, err)
	assert.Equal(t, NameWebsite, got.Name())

	_, err = registry.Get("carrier-pigeon")
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{NameWebsite}, registry.Names())
}

func TestBaseCreateSessionClosesPriorActive(t *testing.T) {
	db := setupTestStore(t)
	ch := NewWebsiteChannel(db, newTestLogger())
	ctx := context.Background()

	first, err := ch.CreateSession(ctx, nil, "user:1", nil)
	require.NoError(t, err)

	second, err := ch.CreateSession(ctx, nil, "user:1", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	reloaded, err := ch.GetSession(ctx, SessionRef{SessionID: first.SessionID})
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, models.SessionStatusClosed, reloaded.Status)

	active, err := ch.GetSession(ctx, SessionRef{ChannelUserID: "user:1"})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.SessionID, active.SessionID)
}

func TestBaseGetSessionRequiresRef(t *testing.T) {
	db := setupTestStore(t)
	ch := NewWebsiteChannel(db, newTestLogger())

	_, err := ch.GetSession(context.Background(), SessionRef{})
	assert.Error(t, err)
}

func TestBaseGetSessionMissing(t *testing.T) {
	db := setupTestStore(t)
	ch := NewWebsiteChannel(db, newTestLogger())
	ctx := context.Background()

	session, err := ch.GetSession(ctx, SessionRef{SessionID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, session)

	session, err = ch.GetSession(ctx, SessionRef{ChannelUserID: "stranger"})
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestChannelTypes(t *testing.T) {
	db := setupTestStore(t)
	logger := newTestLogger()

	website := NewWebsiteChannel(db, logger)
	assert.Equal(t, NameWebsite, website.Name())
	assert.Equal(t, models.ChannelTypeChat, website.Type())

	ig := NewInstagramChannel(db, &fakeGraphClient{}, "verify-me", logger)
	assert.Equal(t, NameInstagram, ig.Name())
	assert.Equal(t, models.ChannelTypeSocial, ig.Type())

	voice := NewVoiceChannel(db, &fakeTranscriber{}, &fakeSynthesizer{}, 0, logger)
	assert.Equal(t, NameVoice, voice.Name())
	assert.Equal(t, models.ChannelTypeVoice, voice.Type())
}
