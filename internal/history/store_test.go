package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/neuroterm/assets"
	"github.com/robalobadob/neuroterm/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db, assets.Migrations()))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, assets.Migrations()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestStoreRecordAndRecent(t *testing.T) {
	st := NewStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	recs := []Record{
		{SessionID: "a", Mode: game.ModeNumberGuess, Outcome: game.OutcomeWon, Attempts: 7, FinishedAt: base},
		{SessionID: "a", Mode: game.ModeRiddleGuess, Outcome: game.OutcomeGaveUp, Attempts: 2, FinishedAt: base.Add(time.Minute)},
		{SessionID: "b", Mode: game.ModeNumberGuess, Outcome: game.OutcomeAborted, Attempts: 1, FinishedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range recs {
		require.NoError(t, st.Record(ctx, r))
	}

	got, err := st.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[2], got[0])
	assert.Equal(t, recs[1], got[1])

	all, err := st.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStoreSummary(t *testing.T) {
	st := NewStore(openTestDB(t))
	ctx := context.Background()
	now := time.Now()

	for _, r := range []Record{
		{SessionID: "a", Mode: game.ModeNumberGuess, Outcome: game.OutcomeWon, Attempts: 3, FinishedAt: now},
		{SessionID: "a", Mode: game.ModeNumberGuess, Outcome: game.OutcomeAborted, Attempts: 1, FinishedAt: now},
		{SessionID: "b", Mode: game.ModeRiddleGuess, Outcome: game.OutcomeWon, Attempts: 2, FinishedAt: now},
	} {
		require.NoError(t, st.Record(ctx, r))
	}

	sum, err := st.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ModeSummary{
		{Mode: game.ModeNumberGuess, Played: 2, Wins: 1},
		{Mode: game.ModeRiddleGuess, Played: 1, Wins: 1},
	}, sum)
}

func TestStoreEmpty(t *testing.T) {
	st := NewStore(openTestDB(t))
	got, err := st.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	sum, err := st.Summary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum)
}
