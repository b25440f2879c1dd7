package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaahaka/vaahaka-credits/src/data"
)

// testClock advances one second per reading so insertion order is always
// reflected in timestamps.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	db, err := data.OpenSQLite(":memory:")
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewWithClock(db, clock.Now)
	require.NoError(t, l.Init(context.Background()))
	return l
}

func TestInitIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.Init(context.Background()))
}

func TestRecordUploadDedup(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	accepted, err := l.RecordUpload(ctx, "alice", "hash-1", "go.pdf", 120)
	require.NoError(t, err)
	assert.True(t, accepted)

	// Same hash again, even a different owner, is a duplicate.
	accepted, err = l.RecordUpload(ctx, "bob", "hash-1", "renamed.pdf", 120)
	require.NoError(t, err)
	assert.False(t, accepted)

	stats, err := l.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.Points)

	_, err = l.UserStats(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPointsMatchUploadedPages(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	uploads := map[string][]int64{
		"alice": {100, 20, 3},
		"bob":   {55},
	}

	i := 0
	for user, pages := range uploads {
		for _, p := range pages {
			accepted, err := l.RecordUpload(ctx, user, fmt.Sprintf("hash-%d", i), fmt.Sprintf("book-%d.pdf", i), p)
			require.NoError(t, err)
			require.True(t, accepted)
			i++
		}
	}

	stats, err := l.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(123), stats.Points)
	assert.Len(t, stats.Books, 3)

	stats, err = l.UserStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(55), stats.Points)
}

func TestBooksOrderedMostRecentFirst(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for i, name := range []string{"first.pdf", "second.pdf", "third.pdf"} {
		accepted, err := l.RecordUpload(ctx, "alice", fmt.Sprintf("hash-%d", i), name, 10)
		require.NoError(t, err)
		require.True(t, accepted)
	}

	stats, err := l.UserStats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stats.Books, 3)
	assert.Equal(t, "third.pdf", stats.Books[0].FileName)
	assert.Equal(t, "second.pdf", stats.Books[1].FileName)
	assert.Equal(t, "first.pdf", stats.Books[2].FileName)
}

func TestRankWithTies(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	points := map[string]int64{"u1": 100, "u2": 100, "u3": 50, "u4": 10}
	i := 0
	for user, p := range points {
		accepted, err := l.RecordUpload(ctx, user, fmt.Sprintf("hash-%d", i), "b.pdf", p)
		require.NoError(t, err)
		require.True(t, accepted)
		i++
	}

	expected := map[string]int64{"u1": 1, "u2": 1, "u3": 3, "u4": 4}
	for user, rank := range expected {
		stats, err := l.UserStats(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, rank, stats.Rank, "rank of %s", user)
	}
}

func TestConcurrentSameHashAcceptsOnce(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	const workers = 8
	type outcome struct {
		accepted bool
		err      error
	}
	results := make(chan outcome, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted, err := l.RecordUpload(ctx, "alice", "contended-hash", "race.pdf", 42)
			results <- outcome{accepted: accepted, err: err}
		}()
	}
	wg.Wait()
	close(results)

	acceptedCount := 0
	for r := range results {
		require.NoError(t, r.err)
		if r.accepted {
			acceptedCount++
		}
	}
	assert.Equal(t, 1, acceptedCount)

	stats, err := l.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Points)
}

func TestLeaderboardOrdering(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for i, tc := range []struct {
		user   string
		points int64
	}{
		{"low", 30}, {"high", 90}, {"mid", 60},
	} {
		accepted, err := l.RecordUpload(ctx, tc.user, fmt.Sprintf("hash-%d", i), "b.pdf", tc.points)
		require.NoError(t, err)
		require.True(t, accepted)
	}

	top, err := l.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, Entry{UserID: "high", Points: 90}, top[0])
	assert.Equal(t, Entry{UserID: "mid", Points: 60}, top[1])

	all, err := l.AllRanked(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "low", all[2].UserID)

	ids, err := l.AllUserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"low", "mid", "high"}, ids)
}

func TestLeaderboardChannelLastWriteWins(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.LeaderboardChannel(ctx)
	assert.ErrorIs(t, err, ErrNotSet)

	require.NoError(t, l.SetLeaderboardChannel(ctx, "111"))
	require.NoError(t, l.SetLeaderboardChannel(ctx, "222"))

	channelID, err := l.LeaderboardChannel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "222", channelID)
}

func TestWatchedChannelSetSemantics(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.WatchChannel(ctx, "g1", "c1"))
	require.NoError(t, l.WatchChannel(ctx, "g1", "c1")) // no-op
	require.NoError(t, l.WatchChannel(ctx, "g1", "c2"))
	require.NoError(t, l.WatchChannel(ctx, "g2", "c9"))

	channels, err := l.WatchedChannels(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, channels)

	watched, err := l.IsWatched(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.True(t, watched)

	watched, err = l.IsWatched(ctx, "g1", "c9")
	require.NoError(t, err)
	assert.False(t, watched)

	// Removing a non-member is a no-op.
	require.NoError(t, l.UnwatchChannel(ctx, "g1", "c9"))
	require.NoError(t, l.UnwatchChannel(ctx, "g1", "c1"))

	channels, err = l.WatchedChannels(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, channels)

	require.NoError(t, l.ClearWatched(ctx, "g1"))
	channels, err = l.WatchedChannels(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, channels)

	// Other guilds are untouched.
	channels, err = l.WatchedChannels(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c9"}, channels)
}
