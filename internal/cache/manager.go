// Package cache implements the read-through TTL cache in front of the
// Discord client and the demo image generators.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/models"
)

// ErrUnknownKey is returned by Get for keys without a registered refresher
var ErrUnknownKey = errors.New("unknown cache key")

// DefaultTTLs are the per-key lifetimes used by NewSiteCache
var DefaultTTLs = map[models.CacheKey]time.Duration{
	models.CacheKeyInviteStats: 60 * time.Second,
	models.CacheKeyChannels:    300 * time.Second,
	models.CacheKeyModerators:  600 * time.Second,
	models.CacheKeyGallery:     120 * time.Second,
	models.CacheKeyJenna:       300 * time.Second,
}

// RefreshFunc produces a new value for a key. It cannot fail; sources are
// expected to substitute their own fallback data.
type RefreshFunc func(ctx context.Context) any

type slot struct {
	ttl     time.Duration
	refresh RefreshFunc
}

// Manager maps each key to at most one entry.
//
// The mutex only protects the map. It is released while a refresh runs, so
// concurrent misses on one key may refresh more than once; the last write wins.
type Manager struct {
	mu      sync.Mutex
	entries map[models.CacheKey]*models.CacheEntry
	slots   map[models.CacheKey]slot

	now     func() time.Time
	metrics metrics.Recorder
	logger  *zap.Logger
}

// NewManager creates an empty manager. now may be nil for time.Now.
func NewManager(logger *zap.Logger, rec metrics.Recorder, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Manager{
		entries: make(map[models.CacheKey]*models.CacheEntry),
		slots:   make(map[models.CacheKey]slot),
		now:     now,
		metrics: rec,
		logger:  logger,
	}
}

// Register binds key to a refresh function and TTL
func (m *Manager) Register(key models.CacheKey, ttl time.Duration, refresh RefreshFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[key] = slot{ttl: ttl, refresh: refresh}
}

// Get returns the stored value while now < expiresAt. Otherwise it refreshes,
// stores {value, now+TTL} and returns the new value.
func (m *Manager) Get(ctx context.Context, key models.CacheKey) (any, error) {
	now := m.now()

	m.mu.Lock()
	s, ok := m.slots[key]
	entry := m.entries[key]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if entry != nil && entry.IsValid(now) {
		m.metrics.IncCacheHit(string(key))
		m.logger.Debug("cache hit", zap.String("key", string(key)))
		return entry.Value, nil
	}

	m.metrics.IncCacheMiss(string(key))
	m.logger.Debug("cache miss", zap.String("key", string(key)))

	// The refresh outlives the caller: an aborted request must not leave
	// fallback data in the entry for a full TTL.
	value := s.refresh(context.WithoutCancel(ctx))
	expiresAt := now.Add(s.ttl).Unix()

	m.mu.Lock()
	m.entries[key] = &models.CacheEntry{Value: value, ExpiresAt: expiresAt}
	m.mu.Unlock()

	m.logger.Debug("cache set",
		zap.String("key", string(key)),
		zap.Int64("expires_at", expiresAt),
	)
	return value, nil
}

// Entry returns a copy of the current entry for key, if any
func (m *Manager) Entry(key models.CacheKey) (models.CacheEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return models.CacheEntry{}, false
	}
	return *entry, true
}

// GuildSource is satisfied by *discord.Client
type GuildSource interface {
	FetchGuildSummary(ctx context.Context) *models.InviteStats
	FetchChannels(ctx context.Context) *models.ChannelList
	FetchModerators(ctx context.Context) *models.ModeratorList
}

// DemoSource is satisfied by *gallery.Generator
type DemoSource interface {
	Gallery() *models.GalleryList
	Jenna() *models.JennaList
}

// NewSiteCache wires every key of models.AllCacheKeys to its source with DefaultTTLs
func NewSiteCache(guild GuildSource, demo DemoSource, logger *zap.Logger, rec metrics.Recorder, now func() time.Time) *Manager {
	m := NewManager(logger, rec, now)

	m.Register(models.CacheKeyInviteStats, DefaultTTLs[models.CacheKeyInviteStats], func(ctx context.Context) any {
		return guild.FetchGuildSummary(ctx)
	})
	m.Register(models.CacheKeyChannels, DefaultTTLs[models.CacheKeyChannels], func(ctx context.Context) any {
		return guild.FetchChannels(ctx)
	})
	m.Register(models.CacheKeyModerators, DefaultTTLs[models.CacheKeyModerators], func(ctx context.Context) any {
		return guild.FetchModerators(ctx)
	})
	m.Register(models.CacheKeyGallery, DefaultTTLs[models.CacheKeyGallery], func(_ context.Context) any {
		return demo.Gallery()
	})
	m.Register(models.CacheKeyJenna, DefaultTTLs[models.CacheKeyJenna], func(_ context.Context) any {
		return demo.Jenna()
	})

	return m
}
