package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureSessionGeneratesID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.EnsureSession(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// same id is reused on subsequent contact
	again, err := s.EnsureSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAppendAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.EnsureSession(ctx, "sess-1")
	require.NoError(t, err)

	require.NoError(t, s.AppendTurn(ctx, id, "user", "hello"))
	require.NoError(t, s.AppendTurn(ctx, id, "assistant", "hi"))
	require.NoError(t, s.AppendTurn(ctx, id, "user", "bye"))

	turns, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "bye", turns[2].Content)
}

func TestRecentContextChronological(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.EnsureSession(ctx, "sess-2")
	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, s.AppendTurn(ctx, id, "user", content))
	}

	turns, err := s.RecentContext(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
}

func TestSummaryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.EnsureSession(ctx, "sess-3")

	// empty summary before any checkpoint
	summary, err := s.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, summary.RollingSummary)

	progress := map[string]interface{}{"topic": "gardens"}
	require.NoError(t, s.SaveSummary(ctx, id, "talked about gardens", progress))

	summary, err = s.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "talked about gardens", summary.RollingSummary)
	assert.Equal(t, "gardens", summary.Progress["topic"])
	assert.False(t, summary.LastCheckpoint.IsZero())

	// upsert replaces
	require.NoError(t, s.SaveSummary(ctx, id, "now about kites", nil))
	summary, err = s.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "now about kites", summary.RollingSummary)
}

func TestWipeSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.EnsureSession(ctx, "sess-4")
	require.NoError(t, s.AppendTurn(ctx, id, "user", "secret"))
	require.NoError(t, s.SaveSummary(ctx, id, "summary", nil))

	require.NoError(t, s.WipeSession(ctx, id))

	turns, err := s.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, turns)

	summary, err := s.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, summary.RollingSummary)

	// session row survives
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _ := s.EnsureSession(ctx, "sess-5")
	require.NoError(t, s.AppendTurn(ctx, id, "user", "q"))
	require.NoError(t, s.AppendTurn(ctx, id, "assistant", "a"))

	sessions, turns, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 2, turns)
}
