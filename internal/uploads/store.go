// Package uploads manages the two-directory approval workflow for fan
// uploaded images. Files land in pending/, an admin moves them to approved/
// or deletes them. The filesystem is the only record.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/models"
)

const (
	PendingDir  = "pending"
	ApprovedDir = "approved"
)

// Upload actions reported to metrics
const (
	ActionSave    = "save"
	ActionApprove = "approve"
	ActionReject  = "reject"
)

var (
	// ErrNotFound is returned when the named file is not in pending/
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for empty names and names that are not a
	// bare file name
	ErrInvalidName = errors.New("invalid file name")
)

// imageExtensions are matched case-sensitively
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Store is the upload workflow used by the HTTP handlers
type Store interface {
	ListPending(ctx context.Context) ([]models.UploadRecord, error)
	ListApproved(ctx context.Context) ([]models.UploadRecord, error)
	Save(ctx context.Context, uploader, filename string, r io.Reader) (*models.StoredUpload, error)
	Approve(ctx context.Context, filename string) error
	Reject(ctx context.Context, filename string) error
}

// FSStore keeps uploads under root/pending and root/approved
type FSStore struct {
	root    string
	now     func() time.Time
	metrics metrics.Recorder
	logger  *zap.Logger
}

// NewFSStore creates both directories if they are missing
func NewFSStore(root string, logger *zap.Logger) (*FSStore, error) {
	for _, dir := range []string{PendingDir, ApprovedDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}

	return &FSStore{
		root:    root,
		now:     time.Now,
		metrics: metrics.Noop{},
		logger:  logger,
	}, nil
}

// SetClock overrides the listing timestamp source
func (s *FSStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetMetrics sets the recorder for upload actions
func (s *FSStore) SetMetrics(m metrics.Recorder) {
	s.metrics = m
}

// ListPending lists images awaiting review
func (s *FSStore) ListPending(_ context.Context) ([]models.UploadRecord, error) {
	return s.list(PendingDir, models.PendingUploader)
}

// ListApproved lists approved images
func (s *FSStore) ListApproved(_ context.Context) ([]models.UploadRecord, error) {
	return s.list(ApprovedDir, models.ApprovedUploader)
}

func (s *FSStore) list(dir, uploader string) ([]models.UploadRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s uploads: %w", dir, err)
	}

	now := s.now()
	records := make([]models.UploadRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		records = append(records, models.UploadRecord{
			ID:         entry.Name(),
			Filename:   entry.Name(),
			Uploader:   uploader,
			UploadedAt: now,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Filename < records[j].Filename
	})
	return records, nil
}

// Save streams r into pending/filename, replacing any existing file.
// Neither size nor content type is checked.
func (s *FSStore) Save(_ context.Context, uploader, filename string, r io.Reader) (*models.StoredUpload, error) {
	if err := checkName(filename); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, PendingDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filename, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", filename, err)
	}

	s.metrics.IncUploadAction(ActionSave)
	s.logger.Info("upload saved",
		zap.String("filename", filename),
		zap.String("uploader", uploader),
	)

	return &models.StoredUpload{Filename: filename, Uploader: uploader}, nil
}

// Approve moves pending/filename to approved/filename
func (s *FSStore) Approve(_ context.Context, filename string) error {
	src, err := s.pendingPath(filename)
	if err != nil {
		return err
	}

	dst := filepath.Join(s.root, ApprovedDir, filename)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to approve %s: %w", filename, err)
	}

	s.metrics.IncUploadAction(ActionApprove)
	s.logger.Info("upload approved", zap.String("filename", filename))
	return nil
}

// Reject deletes pending/filename
func (s *FSStore) Reject(_ context.Context, filename string) error {
	path, err := s.pendingPath(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to reject %s: %w", filename, err)
	}

	s.metrics.IncUploadAction(ActionReject)
	s.logger.Info("upload rejected", zap.String("filename", filename))
	return nil
}

// pendingPath resolves filename inside pending/ and checks that it exists
func (s *FSStore) pendingPath(filename string) (string, error) {
	if err := checkName(filename); err != nil {
		// Anything that is not a plain name cannot be in pending/.
		return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
	}

	path := filepath.Join(s.root, PendingDir, filename)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return path, nil
}

func checkName(filename string) error {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || filepath.Base(filename) != filename {
		return fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return nil
}

func isImage(name string) bool {
	for _, ext := range imageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
