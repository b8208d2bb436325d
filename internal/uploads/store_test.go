package uploads

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/guildproxy/internal/models"
	"github.com/parsascontentcorner/guildproxy/internal/testutil"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewFSStore(root, zap.NewNop())
	require.NoError(t, err)
	store.SetClock(func() time.Time { return fixedNow })
	return store, root
}

// countingRecorder records upload actions
type countingRecorder struct {
	actions []string
}

func (c *countingRecorder) IncRequestsTotal(string, int)                 {}
func (c *countingRecorder) ObserveRequestDuration(string, time.Duration) {}
func (c *countingRecorder) IncCacheHit(string)                           {}
func (c *countingRecorder) IncCacheMiss(string)                          {}
func (c *countingRecorder) IncDiscordFallback(string)                    {}
func (c *countingRecorder) IncUploadAction(action string) {
	c.actions = append(c.actions, action)
}

func TestNewFSStore_CreatesDirectories(t *testing.T) {
	_, root := newTestStore(t)

	assert.DirExists(t, filepath.Join(root, PendingDir))
	assert.DirExists(t, filepath.Join(root, ApprovedDir))
}

func TestList_FiltersAndStamps(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()

	pending := filepath.Join(root, PendingDir)
	for _, name := range []string{"b.png", "a.jpg", "c.jpeg", "d.webp", "notes.txt", "UPPER.JPG"} {
		testutil.WriteFile(t, pending, name, "x")
	}
	testutil.WriteFile(t, filepath.Join(root, ApprovedDir), "ok.png", "x")

	records, err := store.ListPending(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Filename)
		assert.Equal(t, r.Filename, r.ID)
		assert.Equal(t, models.PendingUploader, r.Uploader)
		assert.Equal(t, fixedNow, r.UploadedAt)
	}
	// Extension matching is case-sensitive.
	assert.Equal(t, []string{"a.jpg", "b.png", "c.jpeg", "d.webp"}, names)

	approved, err := store.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, models.ApprovedUploader, approved[0].Uploader)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.ListApproved(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSave(t *testing.T) {
	store, root := newTestStore(t)
	rec := &countingRecorder{}
	store.SetMetrics(rec)

	saved, err := store.Save(context.Background(), "fan_42", "pic.png", strings.NewReader("image-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "pic.png", saved.Filename)
	assert.Equal(t, "fan_42", saved.Uploader)
	testutil.AssertFileExists(t, filepath.Join(root, PendingDir, "pic.png"))
	assert.Equal(t, []string{ActionSave}, rec.actions)
}

func TestSave_OverwritesSilently(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "a", "pic.png", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "b", "pic.png", strings.NewReader("second"))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, PendingDir, "pic.png"))
	records, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSave_InvalidNames(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"", ".", "..", "../escape.png", "dir/pic.png", `dir\pic.png`} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Save(context.Background(), "a", name, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestApprove(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()
	_, err := store.Save(ctx, "a", "pic.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Approve(ctx, "pic.png"))

	testutil.AssertNoFile(t, filepath.Join(root, PendingDir, "pic.png"))
	testutil.AssertFileExists(t, filepath.Join(root, ApprovedDir, "pic.png"))

	approved, err := store.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "pic.png", approved[0].ID)
}

func TestReject(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()
	_, err := store.Save(ctx, "a", "pic.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Reject(ctx, "pic.png"))

	testutil.AssertNoFile(t, filepath.Join(root, PendingDir, "pic.png"))
	testutil.AssertNoFile(t, filepath.Join(root, ApprovedDir, "pic.png"))
}

func TestApproveReject_NotFound(t *testing.T) {
	store, root := newTestStore(t)
	ctx := context.Background()
	testutil.WriteFile(t, filepath.Join(root, ApprovedDir), "already.png", "x")

	tests := []struct {
		name     string
		filename string
	}{
		{"missing", "missing.png"},
		{"already approved", "already.png"},
		{"traversal", "../approved/already.png"},
		{"dot dot", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Approve(ctx, tt.filename)
			assert.True(t, errors.Is(err, ErrNotFound), "approve: %v", err)

			err = store.Reject(ctx, tt.filename)
			assert.True(t, errors.Is(err, ErrNotFound), "reject: %v", err)
		})
	}

	testutil.AssertFileExists(t, filepath.Join(root, ApprovedDir, "already.png"))
}
