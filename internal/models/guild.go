package models

// DefaultGuildName is used when the API omits a name and for fallback data
const DefaultGuildName = "Jenna Ortega Fan Server"

// GuildSummary is the simplified view of a guild served by /api/invite
type GuildSummary struct {
	Name          string  `json:"name"`
	Icon          *string `json:"icon"`
	MemberCount   int     `json:"member_count"`
	PresenceCount int     `json:"presence_count"`
}

// InviteStats wraps a GuildSummary with fetch metadata.
// Cached is true when the summary is fallback data rather than a live fetch.
type InviteStats struct {
	Guild     GuildSummary `json:"guild"`
	FetchedAt int64        `json:"fetched_at"`
	Cached    bool         `json:"cached"`
}

// FallbackInviteStats returns the static summary served when Discord is unavailable
func FallbackInviteStats(fetchedAt int64) *InviteStats {
	return &InviteStats{
		Guild: GuildSummary{
			Name:          DefaultGuildName,
			Icon:          nil,
			MemberCount:   1000,
			PresenceCount: 200,
		},
		FetchedAt: fetchedAt,
		Cached:    true,
	}
}
