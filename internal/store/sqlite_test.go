package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/safespeak/backend/internal/model/stats"
	"github.com/zhouzirui/safespeak/backend/internal/model/user"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "safespeak.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndLookupUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byName, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	byID, err := s.UserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestCreateUserDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, user.ErrUserExists)
}

func TestUserNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.UserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestStatsOrderingAndRecentToxic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	severities := []string{"low", "high", "medium", "low", "high"}
	for i, sev := range severities {
		_, err := s.SaveStat(ctx, stats.MsgStat{
			UserID:    u.ID,
			Msg:       "msg",
			Label:     "insult",
			Severity:  sev,
			Score:     float64(i) / 10,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	all, err := s.StatsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, len(severities))
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].Timestamp.Before(all[i].Timestamp), "stats should be oldest first")
	}

	recent, err := s.RecentToxic(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(4*time.Second), recent[0].Timestamp)
	assert.Equal(t, "medium", recent[1].Severity)
}

func TestStatsAreScopedToUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateUser(ctx, "a", "hash")
	require.NoError(t, err)
	b, err := s.CreateUser(ctx, "b", "hash")
	require.NoError(t, err)

	_, err = s.SaveStat(ctx, stats.MsgStat{UserID: a.ID, Msg: "x", Label: "toxic", Severity: "high", Score: 0.9, Timestamp: time.Now()})
	require.NoError(t, err)

	got, err := s.StatsForUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
