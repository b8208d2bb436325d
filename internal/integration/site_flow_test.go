package integration

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsascontentcorner/guildproxy/internal/config"
	"github.com/parsascontentcorner/guildproxy/internal/models"
	"github.com/parsascontentcorner/guildproxy/internal/testutil"
)

func getJSON(t *testing.T, ts *TestSuite, path string, out any) int {
	t.Helper()

	resp, err := ts.client().Get(ts.url(path))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, ts *TestSuite, path, body string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.client().Post(ts.url(path), "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// ============================================================================
// Cache behaviour over HTTP
// ============================================================================

func TestFlow_InviteCacheExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)

	var first, second, third models.InviteStats
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", &first))

	ts.clock.Advance(59 * time.Second)
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", &second))
	assert.Equal(t, 1, ts.discord.Calls(testutil.ResourceGuild), "within TTL should not hit Discord")
	assert.Equal(t, first, second)

	ts.clock.Advance(time.Second)
	ts.discord.SetPayload(testutil.ResourceGuild, map[string]any{
		"name":                       "Renamed Guild",
		"approximate_member_count":   5000,
		"approximate_presence_count": 600,
	})
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", &third))
	assert.Equal(t, 2, ts.discord.Calls(testutil.ResourceGuild), "expired entry should refresh")
	assert.Equal(t, "Renamed Guild", third.Guild.Name)
	assert.Greater(t, third.FetchedAt, first.FetchedAt)
}

func TestFlow_ModeratorsUseLongerTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)

	var list models.ModeratorList
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/moderators", &list))
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", nil))

	ts.clock.Advance(5 * time.Minute)
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/moderators", &list))
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", nil))

	assert.Equal(t, 1, ts.discord.Calls(testutil.ResourceMembers))
	assert.Equal(t, 2, ts.discord.Calls(testutil.ResourceGuild))
}

// ============================================================================
// Fallbacks
// ============================================================================

func TestFlow_DiscordOutageServesFallbacks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)
	ts.discord.SetStatus(testutil.ResourceGuild, http.StatusInternalServerError)
	ts.discord.SetStatus(testutil.ResourceChannels, http.StatusBadGateway)
	ts.discord.SetStatus(testutil.ResourceMembers, http.StatusForbidden)

	var stats models.InviteStats
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", &stats))
	assert.True(t, stats.Cached)
	assert.Equal(t, 1000, stats.Guild.MemberCount)
	assert.Equal(t, 200, stats.Guild.PresenceCount)

	var channels models.ChannelList
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/channels", &channels))
	assert.Len(t, channels.Channels, len(models.DefaultChannels(testutil.MockGuildID)))

	var mods models.ModeratorList
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/moderators", &mods))
	assert.Equal(t, models.DefaultModerators(), mods.Moderators)
}

func TestFlow_PlaceholderCredentialsNeverCallDiscord(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, func(cfg *config.Config) {
		cfg.Discord.BotToken = config.PlaceholderBotToken
		cfg.Discord.GuildID = config.PlaceholderGuildID
	})

	for _, path := range []string{"/api/invite", "/api/channels", "/api/moderators"} {
		require.Equal(t, http.StatusOK, getJSON(t, ts, path, nil), path)
	}

	for _, resource := range []string{
		testutil.ResourceGuild,
		testutil.ResourceChannels,
		testutil.ResourceMembers,
		testutil.ResourceRoles,
	} {
		assert.Zero(t, ts.discord.Calls(resource), resource)
	}
}

// ============================================================================
// Upload workflow
// ============================================================================

func TestFlow_UploadApproveAndServe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("uploader", "fan_777"))
	fw, err := mw.CreateFormFile("image", "red-carpet.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg-data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := ts.client().Post(ts.url("/api/upload"), mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing models.UploadListing
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/admin/uploads", &listing))
	require.Len(t, listing.Pending, 1)
	assert.True(t, ts.clock.Now().Equal(listing.Pending[0].UploadedAt))

	status, body := postJSON(t, ts, "/api/admin/approve", `{"id":"red-carpet.jpg"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Image approved", body["message"])

	status, body = postJSON(t, ts, "/api/admin/approve", `{"id":"red-carpet.jpg"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "File not found", body["error"])

	status, body = postJSON(t, ts, "/api/admin/add_jenna", `{"filename":"red-carpet.jpg"}`)
	require.Equal(t, http.StatusOK, status)
	jennaURL, _ := body["url"].(string)
	assert.Equal(t, "/uploads/approved/red-carpet.jpg", jennaURL)

	img, err := ts.client().Get(ts.url(jennaURL))
	require.NoError(t, err)
	defer func() {
		_ = img.Body.Close()
	}()
	data, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/*", img.Header.Get("Content-Type"))
	assert.Equal(t, "jpeg-data", string(data))
}

func TestFlow_MetricsReflectTraffic(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)
	ts.discord.SetStatus(testutil.ResourceGuild, http.StatusInternalServerError)

	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", nil))
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", nil))

	resp, err := ts.client().Get(ts.url("/metrics"))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `guildproxy_cache_hits_total{key="invite_stats"} 1`)
	assert.Contains(t, body, `guildproxy_cache_misses_total{key="invite_stats"} 1`)
	assert.Contains(t, body, `guildproxy_discord_fallbacks_total{resource="guild"} 1`)
}

func TestFlow_AbortedRequestKeepsLiveData(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := setupTestSuite(t, nil)
	ts.discord.SetDelay(testutil.ResourceGuild, 150*time.Millisecond)

	impatient := &http.Client{Timeout: 20 * time.Millisecond}
	_, err := impatient.Get(ts.url("/api/invite"))
	require.Error(t, err)

	// The aborted handler's refresh keeps running; give it time to land.
	time.Sleep(300 * time.Millisecond)
	ts.discord.SetDelay(testutil.ResourceGuild, 0)

	var stats models.InviteStats
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/api/invite", &stats))
	assert.False(t, stats.Cached)
	assert.Equal(t, "Mock Guild", stats.Guild.Name)
	assert.Equal(t, 1, ts.discord.Calls(testutil.ResourceGuild))
}
