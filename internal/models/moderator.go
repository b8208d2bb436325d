package models

import "strings"

// ModeratorRole is the label shown next to a staff member
type ModeratorRole string

const (
	RoleOwner     ModeratorRole = "Owner"
	RoleAdmin     ModeratorRole = "Admin"
	RoleModerator ModeratorRole = "Moderator"
)

// MaxModerators caps the roster returned by /api/moderators
const MaxModerators = 10

// DefaultAvatarURL is Discord's stock avatar
const DefaultAvatarURL = "https://cdn.discordapp.com/embed/avatars/0.png"

// DefaultJoinDate is used for members without a joined_at timestamp
const DefaultJoinDate = "2023-01-01T00:00:00.000Z"

var staffRoleNames = map[string]bool{
	"owner":     true,
	"admin":     true,
	"moderator": true,
	"staff":     true,
}

// IsStaffRoleName reports whether a guild role name marks its holders as staff
func IsStaffRoleName(name string) bool {
	return staffRoleNames[strings.ToLower(name)]
}

// RoleForNames resolves the label for a member holding roles with the given
// names. Owner beats Admin; everything else is Moderator.
func RoleForNames(roleNames []string) ModeratorRole {
	hasAdmin := false
	for _, name := range roleNames {
		switch strings.ToLower(name) {
		case "owner":
			return RoleOwner
		case "admin":
			hasAdmin = true
		}
	}
	if hasAdmin {
		return RoleAdmin
	}
	return RoleModerator
}

// Moderator is one staff roster entry
type Moderator struct {
	Name      string        `json:"name"`
	Role      ModeratorRole `json:"role"`
	AvatarURL string        `json:"avatar"`
	JoinDate  string        `json:"join_date"`
}

// ModeratorList is the /api/moderators payload
type ModeratorList struct {
	Moderators []Moderator `json:"moderators"`
	FetchedAt  int64       `json:"fetched_at"`
}

// DefaultModerators returns the static 5-entry roster served when Discord is unavailable
func DefaultModerators() []Moderator {
	return []Moderator{
		{Name: "Server Owner", Role: RoleOwner, AvatarURL: "https://cdn.discordapp.com/embed/avatars/0.png", JoinDate: "2023-01-01"},
		{Name: "Lead Moderator", Role: RoleAdmin, AvatarURL: "https://cdn.discordapp.com/embed/avatars/1.png", JoinDate: "2023-02-15"},
		{Name: "Moderator 1", Role: RoleModerator, AvatarURL: "https://cdn.discordapp.com/embed/avatars/2.png", JoinDate: "2023-03-10"},
		{Name: "Moderator 2", Role: RoleModerator, AvatarURL: "https://cdn.discordapp.com/embed/avatars/3.png", JoinDate: "2023-04-05"},
		{Name: "Moderator 3", Role: RoleModerator, AvatarURL: "https://cdn.discordapp.com/embed/avatars/4.png", JoinDate: "2023-05-20"},
	}
}
