package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExpirer struct{}

func (failingExpirer) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestCleanupScheduler_RunOnce(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	require.NoError(t, testDB.Create(&[]model.OAuthState{
		{State: "old", Provider: "google", CodeVerifier: "v", ExpiresAt: past},
		{State: "fresh", Provider: "google", CodeVerifier: "v", ExpiresAt: future},
	}).Error)
	require.NoError(t, testDB.Create(&[]model.AuthToken{
		{IdentityID: "u1", Email: "a@example.com", Kind: model.AuthTokenRecovery, TokenHash: "h1", ExpiresAt: past},
		{IdentityID: "u1", Email: "a@example.com", Kind: model.AuthTokenRecovery, TokenHash: "h2", ExpiresAt: future},
	}).Error)

	s := NewCleanupScheduler("@every 1h", map[string]Expirer{
		"oauth_states": repository.NewOAuthStateRepository(testDB),
		"auth_tokens":  repository.NewAuthTokenRepository(testDB),
		"broken":       failingExpirer{},
	})
	s.now = func() time.Time { return now }

	removed := s.RunOnce(context.Background())
	assert.Equal(t, int64(1), removed["oauth_states"])
	assert.Equal(t, int64(1), removed["auth_tokens"])
	_, ok := removed["broken"]
	assert.False(t, ok)

	var states int64
	require.NoError(t, testDB.Model(&model.OAuthState{}).Count(&states).Error)
	assert.Equal(t, int64(1), states)
}

func TestCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewCleanupScheduler("every hour please", nil)
	assert.Error(t, s.Start())
}
