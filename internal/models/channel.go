package models

import (
	"fmt"
	"strings"
)

// ChannelType represents Discord channel types
type ChannelType int

// Discord channel type constants
const (
	ChannelTypeGuildText          ChannelType = 0
	ChannelTypeDM                 ChannelType = 1
	ChannelTypeGuildVoice         ChannelType = 2
	ChannelTypeGroupDM            ChannelType = 3
	ChannelTypeGuildCategory      ChannelType = 4
	ChannelTypeGuildNews          ChannelType = 5
	ChannelTypeGuildNewsThread    ChannelType = 10
	ChannelTypeGuildPublicThread  ChannelType = 11
	ChannelTypeGuildPrivateThread ChannelType = 12
	ChannelTypeGuildStageVoice    ChannelType = 13
	ChannelTypeGuildForum         ChannelType = 15
)

// IsListed reports whether channels of this type appear on the site
// (text and announcement channels only).
func (t ChannelType) IsListed() bool {
	return t == ChannelTypeGuildText || t == ChannelTypeGuildNews
}

// DefaultChannelEmoji is used when no keyword rule matches
const DefaultChannelEmoji = "💬"

type emojiRule struct {
	keywords []string
	emoji    string
}

// Order matters: the first rule with a matching keyword wins.
var emojiRules = []emojiRule{
	{[]string{"jenna"}, "⭐"},
	{[]string{"media"}, "🖼️"},
	{[]string{"event"}, "🎉"},
	{[]string{"spam"}, "😂"},
	{[]string{"bot"}, "🤖"},
	{[]string{"selfie"}, "🤳"},
	{[]string{"starboard"}, "🏆"},
	{[]string{"count"}, "🔢"},
	{[]string{"birthday"}, "🎂"},
	{[]string{"booster"}, "🎁"},
	{[]string{"promo"}, "📣"},
	{[]string{"wear", "tear"}, "👗"},
	{[]string{"fact", "qotd"}, "🧠"},
}

// EmojiForChannel picks the display emoji for a channel name
func EmojiForChannel(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range emojiRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.emoji
			}
		}
	}
	return DefaultChannelEmoji
}

// Channel is a channel entry as shown on the site
type Channel struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	URL         string `json:"url"`
	Description string `json:"desc"`
}

// ChannelList is the /api/channels payload
type ChannelList struct {
	Channels  []Channel `json:"channels"`
	FetchedAt int64     `json:"fetched_at"`
}

// ChannelURL builds the deep link into the Discord client
func ChannelURL(guildID, channelRef string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s", guildID, channelRef)
}

type defaultChannel struct {
	slug, emoji, desc string
}

var defaultChannels = []defaultChannel{
	{"chat", "💬", "General conversation, introductions, and daily chat."},
	{"media", "🖼️", "Share photos, videos, and fan edits."},
	{"jenna-ortega", "⭐", "Dedicated space for Jenna-related news, posts, and discussion."},
	{"fun-facts", "🧠", "Share interesting facts and trivia."},
	{"qotd", "❓", "Daily questions to spark conversation."},
	{"events", "🎉", "Event announcements and discussions."},
	{"contests", "🏆", "Monthly contests and giveaways."},
	{"spam", "😂", "A designated area for memes and random posts."},
	{"selfie", "🤳", "Share selfies and profile pics, be respectful!"},
	{"starboard", "🏆", "Highlight top posts and community favourites."},
	{"bot-commands", "🤖", "Run bots and fun commands; keep it tidy."},
	{"wear-or-tear", "👗", "Rate looks and outfits (kindness required)."},
	{"counting", "🔢", "A relaxed counting channel for quick interactions."},
	{"birthdays", "🎂", "Celebrate birthdays and milestones."},
	{"boosters", "🎁", "Special booster-only perks and channels."},
	{"self-promo", "📣", "Promote your work and social links (follow the rules)."},
}

// DefaultChannels returns the static 16-entry list served when Discord is unavailable.
// Emojis are fixed per entry and do not go through EmojiForChannel.
func DefaultChannels(guildID string) []Channel {
	channels := make([]Channel, 0, len(defaultChannels))
	for _, dc := range defaultChannels {
		channels = append(channels, Channel{
			Name:        "#" + dc.slug,
			Emoji:       dc.emoji,
			URL:         ChannelURL(guildID, dc.slug),
			Description: dc.desc,
		})
	}
	return channels
}
