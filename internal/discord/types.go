package discord

import "github.com/parsascontentcorner/guildproxy/internal/models"

// The Discord API omits or nulls many fields, so optional ones are pointers.

// apiGuild is the GET /guilds/{id}?with_counts=true body
type apiGuild struct {
	ID                       string  `json:"id"`
	Name                     *string `json:"name"`
	Icon                     *string `json:"icon"`
	ApproximateMemberCount   *int    `json:"approximate_member_count"`
	ApproximatePresenceCount *int    `json:"approximate_presence_count"`
}

// apiChannel is one element of GET /guilds/{id}/channels
type apiChannel struct {
	ID    string             `json:"id"`
	Type  models.ChannelType `json:"type"`
	Name  string             `json:"name"`
	Topic *string            `json:"topic"`
}

// apiUser is the user object nested in a guild member
type apiUser struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
	Bot      *bool   `json:"bot"`
}

// apiMember is one element of GET /guilds/{id}/members
type apiMember struct {
	User     *apiUser `json:"user"`
	Roles    []string `json:"roles"`
	JoinedAt *string  `json:"joined_at"`
}

// apiRole is one element of GET /guilds/{id}/roles
type apiRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
