// Package integration runs the fully wired server over a real listener
// against the mock Discord API.
package integration

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/cache"
	"github.com/parsascontentcorner/guildproxy/internal/config"
	"github.com/parsascontentcorner/guildproxy/internal/discord"
	"github.com/parsascontentcorner/guildproxy/internal/gallery"
	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/ratelimit"
	"github.com/parsascontentcorner/guildproxy/internal/server"
	"github.com/parsascontentcorner/guildproxy/internal/siteconfig"
	"github.com/parsascontentcorner/guildproxy/internal/testutil"
	"github.com/parsascontentcorner/guildproxy/internal/uploads"
)

// testClock is a settable clock shared by the cache and the Discord client
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestSuite holds a running server and its collaborators
type TestSuite struct {
	server    *httptest.Server
	discord   *testutil.MockDiscordServer
	clock     *testClock
	cfg       *config.Config
	metrics   *metrics.Metrics
	staticDir string
}

// setupTestSuite wires the server the same way cmd/server does.
// mutate may adjust the config before anything is built.
func setupTestSuite(t *testing.T, mutate func(cfg *config.Config)) *TestSuite {
	t.Helper()

	mock := testutil.NewMockDiscordServer()
	t.Cleanup(mock.Close)

	staticDir := t.TempDir()
	cfg := testutil.GenerateTestConfig(mock.URL(), filepath.Join(staticDir, "uploads"), staticDir)
	if mutate != nil {
		mutate(cfg)
	}

	logger := zap.NewNop()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := metrics.New()

	client := discord.NewClient(&cfg.Discord, logger)
	client.SetRateLimiter(ratelimit.NewLimiter(logger))
	client.SetMetrics(m)
	client.SetClock(clock.Now)

	siteCache := cache.NewSiteCache(client, gallery.NewSeededGenerator(1, clock.Now), logger, m, clock.Now)

	store, err := uploads.NewFSStore(cfg.Storage.UploadDir, logger)
	require.NoError(t, err)
	store.SetMetrics(m)
	store.SetClock(clock.Now)

	handlers := server.NewHandlers(siteCache, store, siteconfig.NewNoopStore(cfg.Server.CollectDelay, logger), logger)
	router := server.NewRouter(handlers, server.RouterConfig{
		StaticDir:      cfg.Storage.StaticDir,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	}, logger)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &TestSuite{
		server:    ts,
		discord:   mock,
		clock:     clock,
		cfg:       cfg,
		metrics:   m,
		staticDir: staticDir,
	}
}

func (ts *TestSuite) url(path string) string {
	return ts.server.URL + path
}

func (ts *TestSuite) client() *http.Client {
	return ts.server.Client()
}
