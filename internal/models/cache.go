package models

import "time"

// CacheKey names one of the fixed cache slots
type CacheKey string

const (
	CacheKeyInviteStats CacheKey = "invite_stats"
	CacheKeyChannels    CacheKey = "channels"
	CacheKeyModerators  CacheKey = "moderators"
	CacheKeyGallery     CacheKey = "gallery"
	CacheKeyJenna       CacheKey = "jenna"
)

// AllCacheKeys lists every cache slot in a stable order
var AllCacheKeys = []CacheKey{
	CacheKeyInviteStats,
	CacheKeyChannels,
	CacheKeyModerators,
	CacheKeyGallery,
	CacheKeyJenna,
}

// CacheEntry is a cached value and the epoch second it expires at
type CacheEntry struct {
	Value     any
	ExpiresAt int64
}

// IsValid reports whether the entry may still be served at now
func (c *CacheEntry) IsValid(now time.Time) bool {
	return now.Unix() < c.ExpiresAt
}

// IsExpired checks if the cache entry has expired
func (c *CacheEntry) IsExpired(now time.Time) bool {
	return !c.IsValid(now)
}
