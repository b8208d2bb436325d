package testutil

import (
	"fmt"
	"time"

	"github.com/parsascontentcorner/guildproxy/internal/config"
)

// Role IDs used by the default fixtures.
const (
	RoleOwnerID     = "900000000000000001"
	RoleAdminID     = "900000000000000002"
	RoleModeratorID = "900000000000000003"
	RoleStaffID     = "900000000000000004"
	RoleMemberID    = "900000000000000005"
)

// GenerateTestConfig returns a config pointing at baseURL with the mock credentials
func GenerateTestConfig(baseURL, uploadDir, staticDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:     "127.0.0.1",
			HTTPPort: "0",
			Env:      "test",
		},
		Discord: config.DiscordConfig{
			BotToken:       MockBotToken,
			GuildID:        MockGuildID,
			APIBaseURL:     baseURL,
			RequestTimeout: 5 * time.Second,
		},
		Storage: config.StorageConfig{
			UploadDir: uploadDir,
			StaticDir: staticDir,
		},
		Logging: config.LoggingConfig{Level: "debug", Format: "console"},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

// DefaultGuildPayload is a GET /guilds/{id}?with_counts=true body
func DefaultGuildPayload() map[string]any {
	return map[string]any{
		"id":                         MockGuildID,
		"name":                       "Mock Guild",
		"icon":                       "a_icon_hash",
		"approximate_member_count":   4321,
		"approximate_presence_count": 321,
	}
}

// DefaultChannelsPayload mixes listed and unlisted channel types
func DefaultChannelsPayload() []map[string]any {
	return []map[string]any{
		{"id": "100", "type": 4, "name": "Text Channels"},
		{"id": "101", "type": 0, "name": "general", "topic": "Say hi"},
		{"id": "102", "type": 0, "name": "jenna-media", "topic": nil},
		{"id": "103", "type": 2, "name": "Voice"},
		{"id": "104", "type": 5, "name": "announcements", "topic": "News"},
		{"id": "105", "type": 0, "name": "bot-spam"},
	}
}

// DefaultRolesPayload returns the guild roles referenced by the default members
func DefaultRolesPayload() []map[string]any {
	return []map[string]any{
		{"id": RoleOwnerID, "name": "Owner"},
		{"id": RoleAdminID, "name": "Admin"},
		{"id": RoleModeratorID, "name": "Moderator"},
		{"id": RoleStaffID, "name": "Staff"},
		{"id": RoleMemberID, "name": "Member"},
	}
}

// GenerateMember builds a guild member object. bot is omitted when nil.
func GenerateMember(userID, username string, bot *bool, roles ...string) map[string]any {
	user := map[string]any{
		"id":       userID,
		"username": username,
		"avatar":   "hash_" + userID,
	}
	if bot != nil {
		user["bot"] = *bot
	}
	if roles == nil {
		roles = []string{}
	}
	return map[string]any{
		"user":      user,
		"roles":     roles,
		"joined_at": "2024-02-03T04:05:06.000000+00:00",
	}
}

// DefaultMembersPayload has staff, a plain human with bot=false, a bot and a
// member whose bot flag is absent.
func DefaultMembersPayload() []map[string]any {
	no, yes := false, true
	return []map[string]any{
		GenerateMember("1", "owner_person", nil, RoleOwnerID, RoleAdminID),
		GenerateMember("2", "admin_person", nil, RoleAdminID, RoleModeratorID),
		GenerateMember("3", "mod_person", nil, RoleModeratorID),
		GenerateMember("4", "staff_person", nil, RoleStaffID),
		GenerateMember("5", "human_member", &no, RoleMemberID),
		GenerateMember("6", "some_bot", &yes),
		GenerateMember("7", "lurker", nil, RoleMemberID),
	}
}

// GenerateHumanMembers returns n members with bot explicitly false
func GenerateHumanMembers(n int) []map[string]any {
	no := false
	members := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, GenerateMember(fmt.Sprintf("%d", 1000+i), fmt.Sprintf("human_%d", i), &no))
	}
	return members
}
