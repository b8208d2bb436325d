// Package siteconfig holds the admin operations that edit site content:
// hero assets, the Jenna image set and the channel directory.
//
// Nothing is persisted yet. NoopStore records the intent in the log so the
// admin panel can be exercised end to end.
package siteconfig

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// JennaURLPrefix is where approved uploads are served from
const JennaURLPrefix = "/uploads/approved/"

// CollectedImageCount is what CollectJennaImages reports
const CollectedImageCount = 5

// ChannelEntry is a channel submitted through the admin panel
type ChannelEntry struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji,omitempty"`
	URL   string `json:"url,omitempty"`
	Desc  string `json:"desc,omitempty"`
}

// Store applies admin edits
type Store interface {
	SetAsset(ctx context.Context, assetType, url string) error
	AddJennaImage(ctx context.Context, filename string) (string, error)
	CollectJennaImages(ctx context.Context) (int, error)
	AddChannel(ctx context.Context, channel ChannelEntry) error
	DeleteChannel(ctx context.Context, name string) error
}

// NoopStore logs each request and persists nothing
type NoopStore struct {
	collectDelay time.Duration
	logger       *zap.Logger
}

// NewNoopStore creates a store whose CollectJennaImages waits collectDelay
func NewNoopStore(collectDelay time.Duration, logger *zap.Logger) *NoopStore {
	return &NoopStore{
		collectDelay: collectDelay,
		logger:       logger,
	}
}

// SetAsset logs the asset update
func (s *NoopStore) SetAsset(_ context.Context, assetType, url string) error {
	s.logger.Info("asset update requested",
		zap.String("type", assetType),
		zap.String("url", url),
	)
	return nil
}

// AddJennaImage returns the public URL the image would be listed under
func (s *NoopStore) AddJennaImage(_ context.Context, filename string) (string, error) {
	url := JennaURLPrefix + filename
	s.logger.Info("jenna image add requested",
		zap.String("filename", filename),
		zap.String("url", url),
	)
	return url, nil
}

// CollectJennaImages simulates a collection run. It honours ctx.
func (s *NoopStore) CollectJennaImages(ctx context.Context) (int, error) {
	s.logger.Info("jenna image collection started")

	if s.collectDelay > 0 {
		timer := time.NewTimer(s.collectDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, fmt.Errorf("image collection interrupted: %w", ctx.Err())
		}
	}

	s.logger.Info("jenna image collection finished", zap.Int("count", CollectedImageCount))
	return CollectedImageCount, nil
}

// AddChannel logs the channel that would be added
func (s *NoopStore) AddChannel(_ context.Context, channel ChannelEntry) error {
	s.logger.Info("channel add requested",
		zap.String("name", channel.Name),
		zap.String("url", channel.URL),
	)
	return nil
}

// DeleteChannel logs the channel that would be removed
func (s *NoopStore) DeleteChannel(_ context.Context, name string) error {
	s.logger.Info("channel delete requested", zap.String("name", name))
	return nil
}
