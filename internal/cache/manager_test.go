package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/discord"
	"github.com/parsascontentcorner/guildproxy/internal/gallery"
	"github.com/parsascontentcorner/guildproxy/internal/models"
	"github.com/parsascontentcorner/guildproxy/internal/testutil"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingSource returns a new pointer on every fetch
type countingSource struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingSource() *countingSource {
	return &countingSource{calls: make(map[string]int)}
}

func (s *countingSource) inc(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	return s.calls[name]
}

func (s *countingSource) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *countingSource) FetchGuildSummary(_ context.Context) *models.InviteStats {
	n := s.inc("guild")
	return &models.InviteStats{Guild: models.GuildSummary{MemberCount: n}}
}

func (s *countingSource) FetchChannels(_ context.Context) *models.ChannelList {
	s.inc("channels")
	return &models.ChannelList{}
}

func (s *countingSource) FetchModerators(_ context.Context) *models.ModeratorList {
	s.inc("moderators")
	return &models.ModeratorList{}
}

func newTestCache(clock *fakeClock) (*Manager, *countingSource) {
	src := newCountingSource()
	demo := gallery.NewSeededGenerator(1, clock.Now)
	return NewSiteCache(src, demo, zap.NewNop(), nil, clock.Now), src
}

func TestGet_SameReferenceBeforeTTL(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestCache(clock)
	ctx := context.Background()

	for _, key := range models.AllCacheKeys {
		t.Run(string(key), func(t *testing.T) {
			first, err := m.Get(ctx, key)
			require.NoError(t, err)

			clock.Advance(DefaultTTLs[key] - time.Second)
			second, err := m.Get(ctx, key)
			require.NoError(t, err)

			assert.Same(t, first, second)
		})
	}
}

func TestGet_RefreshAfterTTL(t *testing.T) {
	ctx := context.Background()

	for _, key := range models.AllCacheKeys {
		t.Run(string(key), func(t *testing.T) {
			clock := newFakeClock()
			m, _ := newTestCache(clock)

			first, err := m.Get(ctx, key)
			require.NoError(t, err)
			firstEntry, ok := m.Entry(key)
			require.True(t, ok)

			clock.Advance(DefaultTTLs[key])
			second, err := m.Get(ctx, key)
			require.NoError(t, err)
			secondEntry, _ := m.Entry(key)

			assert.NotSame(t, first, second)
			assert.Greater(t, secondEntry.ExpiresAt, firstEntry.ExpiresAt)
		})
	}
}

func TestGet_ExpiresAtIsNowPlusTTL(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestCache(clock)

	_, err := m.Get(context.Background(), models.CacheKeyModerators)
	require.NoError(t, err)

	entry, ok := m.Entry(models.CacheKeyModerators)
	require.True(t, ok)
	assert.Equal(t, clock.Now().Unix()+600, entry.ExpiresAt)
}

func TestGet_RefreshCounts(t *testing.T) {
	clock := newFakeClock()
	m, src := newTestCache(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := m.Get(ctx, models.CacheKeyInviteStats)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.count("guild"))

	clock.Advance(61 * time.Second)
	v, err := m.Get(ctx, models.CacheKeyInviteStats)
	require.NoError(t, err)
	assert.Equal(t, 2, src.count("guild"))
	assert.Equal(t, 2, v.(*models.InviteStats).Guild.MemberCount)
}

func TestGet_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	m, src := newTestCache(clock)
	ctx := context.Background()

	_, _ = m.Get(ctx, models.CacheKeyInviteStats)
	_, _ = m.Get(ctx, models.CacheKeyChannels)

	clock.Advance(90 * time.Second)
	_, _ = m.Get(ctx, models.CacheKeyInviteStats)
	_, _ = m.Get(ctx, models.CacheKeyChannels)

	assert.Equal(t, 2, src.count("guild"))
	assert.Equal(t, 1, src.count("channels"))
}

func TestGet_UnknownKey(t *testing.T) {
	m := NewManager(zap.NewNop(), nil, nil)

	v, err := m.Get(context.Background(), models.CacheKey("nope"))

	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestEntry_Missing(t *testing.T) {
	m := NewManager(zap.NewNop(), nil, nil)

	_, ok := m.Entry(models.CacheKeyJenna)

	assert.False(t, ok)
}

func TestGet_ConcurrentMisses(t *testing.T) {
	clock := newFakeClock()
	m, src := newTestCache(clock)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(ctx, models.CacheKeyInviteStats)
			assert.NoError(t, err)
			assert.NotNil(t, v)
		}()
	}
	wg.Wait()

	// Redundant refreshes are allowed, but there is still only one entry.
	assert.GreaterOrEqual(t, src.count("guild"), 1)
	_, ok := m.Entry(models.CacheKeyInviteStats)
	assert.True(t, ok)
}

func TestGet_GeneratedShapes(t *testing.T) {
	clock := newFakeClock()
	m, _ := newTestCache(clock)
	ctx := context.Background()

	g, err := m.Get(ctx, models.CacheKeyGallery)
	require.NoError(t, err)
	assert.Len(t, g.(*models.GalleryList).Images, gallery.GallerySize)

	j, err := m.Get(ctx, models.CacheKeyJenna)
	require.NoError(t, err)
	assert.Len(t, j.(*models.JennaList).Images, gallery.JennaSize)
}

func TestGet_CallerTimeoutDoesNotStoreFallback(t *testing.T) {
	mockServer := testutil.NewMockDiscordServer()
	defer mockServer.Close()
	mockServer.SetDelay(testutil.ResourceGuild, 100*time.Millisecond)

	cfg := testutil.GenerateTestConfig(mockServer.URL(), t.TempDir(), t.TempDir())
	clock := newFakeClock()
	client := discord.NewClient(&cfg.Discord, zap.NewNop())
	m := NewSiteCache(client, gallery.NewSeededGenerator(1, clock.Now), zap.NewNop(), nil, clock.Now)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	first, err := m.Get(ctx, models.CacheKeyInviteStats)
	require.NoError(t, err)
	stats := first.(*models.InviteStats)
	assert.False(t, stats.Cached, "refresh should finish against Discord")
	assert.Equal(t, "Mock Guild", stats.Guild.Name)
	assert.Equal(t, 4321, stats.Guild.MemberCount)

	second, err := m.Get(context.Background(), models.CacheKeyInviteStats)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, mockServer.Calls(testutil.ResourceGuild))
}

// ctxSource reports whether the refresh saw a cancelled context
type ctxSource struct {
	*countingSource
	sawErr error
}

func (s *ctxSource) FetchChannels(ctx context.Context) *models.ChannelList {
	s.sawErr = ctx.Err()
	return &models.ChannelList{}
}

func TestGet_RefreshIgnoresCallerCancellation(t *testing.T) {
	clock := newFakeClock()
	src := &ctxSource{countingSource: newCountingSource()}
	m := NewSiteCache(src, gallery.NewSeededGenerator(1, clock.Now), zap.NewNop(), nil, clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, models.CacheKeyChannels)

	require.NoError(t, err)
	assert.NoError(t, src.sawErr)
}
