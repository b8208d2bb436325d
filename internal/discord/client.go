// Package discord fetches guild data from the Discord REST API with a bot
// token and maps it to the simplified records served by the site. Every
// failure is absorbed here: callers always get a usable record, falling back
// to static defaults.
package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/parsascontentcorner/guildproxy/internal/config"
	"github.com/parsascontentcorner/guildproxy/internal/metrics"
	"github.com/parsascontentcorner/guildproxy/internal/models"
	"github.com/parsascontentcorner/guildproxy/internal/ratelimit"
)

const (
	memberPageLimit = 1000
	cdnBaseURL      = "https://cdn.discordapp.com"
)

// Resource names used in logs and fallback metrics
const (
	ResourceGuild      = "guild"
	ResourceChannels   = "channels"
	ResourceModerators = "moderators"
)

// StatusError is returned for any non-200 answer from Discord
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord API returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the guild endpoints of the Discord API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	guildID     string
	configured  bool
	rateLimiter *ratelimit.Limiter
	metrics     metrics.Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient creates a client for cfg's guild. The bot token is attached to
// every request by an oauth2 transport using the "Bot" token type.
func NewClient(cfg *config.DiscordConfig, logger *zap.Logger) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.BotToken,
		TokenType:   "Bot",
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &oauth2.Transport{
				Source: source,
				Base:   http.DefaultTransport,
			},
		},
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		guildID:    cfg.GuildID,
		configured: cfg.HasCredentials(),
		metrics:    metrics.Noop{},
		logger:     logger,
		now:        time.Now,
	}
}

// SetRateLimiter sets the rate limiter for the Discord client
func (c *Client) SetRateLimiter(rl *ratelimit.Limiter) {
	c.rateLimiter = rl
}

// SetMetrics sets where fallbacks are counted
func (c *Client) SetMetrics(m metrics.Recorder) {
	c.metrics = m
}

// SetClock overrides the time source used for fetched_at stamps
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// GuildID returns the guild this client reads from
func (c *Client) GuildID() string {
	return c.guildID
}

// FetchGuildSummary returns live member/presence counts, or the fallback
// summary (Cached=true) when Discord cannot be reached.
func (c *Client) FetchGuildSummary(ctx context.Context) *models.InviteStats {
	if !c.configured {
		return c.guildFallback(nil)
	}

	var guild apiGuild
	query := url.Values{"with_counts": []string{"true"}}
	if err := c.getJSON(ctx, c.guildRoute(""), query, &guild); err != nil {
		return c.guildFallback(err)
	}

	summary := models.GuildSummary{
		Name: models.DefaultGuildName,
		Icon: guild.Icon,
	}
	if guild.Name != nil {
		summary.Name = *guild.Name
	}
	if guild.ApproximateMemberCount != nil {
		summary.MemberCount = *guild.ApproximateMemberCount
	}
	if guild.ApproximatePresenceCount != nil {
		summary.PresenceCount = *guild.ApproximatePresenceCount
	}

	c.logger.Debug("fetched guild summary",
		zap.String("guild_id", c.guildID),
		zap.Int("member_count", summary.MemberCount),
		zap.Int("presence_count", summary.PresenceCount),
	)

	return &models.InviteStats{
		Guild:     summary,
		FetchedAt: c.now().Unix(),
		Cached:    false,
	}
}

// FetchChannels returns the guild's text and announcement channels, or the
// static default list on failure.
func (c *Client) FetchChannels(ctx context.Context) *models.ChannelList {
	if !c.configured {
		return c.channelsFallback(nil)
	}

	var raw []apiChannel
	if err := c.getJSON(ctx, c.guildRoute("/channels"), nil, &raw); err != nil {
		return c.channelsFallback(err)
	}

	channels := make([]models.Channel, 0, len(raw))
	for _, ch := range raw {
		if !ch.Type.IsListed() {
			continue
		}

		desc := fmt.Sprintf("#%s channel", ch.Name)
		if ch.Topic != nil && *ch.Topic != "" {
			desc = *ch.Topic
		}

		channels = append(channels, models.Channel{
			Name:        "#" + ch.Name,
			Emoji:       models.EmojiForChannel(ch.Name),
			URL:         models.ChannelURL(c.guildID, ch.ID),
			Description: desc,
		})
	}

	c.logger.Debug("fetched guild channels",
		zap.String("guild_id", c.guildID),
		zap.Int("total", len(raw)),
		zap.Int("listed", len(channels)),
	)

	return &models.ChannelList{Channels: channels, FetchedAt: c.now().Unix()}
}

// FetchModerators builds the staff roster from the member list and the guild
// roles. A member is listed if it holds a staff role, or if its user object
// carries bot=false explicitly. Only members are required; a failed roles
// request just leaves every member without known roles.
func (c *Client) FetchModerators(ctx context.Context) *models.ModeratorList {
	if !c.configured {
		return c.moderatorsFallback(nil)
	}

	var members []apiMember
	query := url.Values{"limit": []string{fmt.Sprintf("%d", memberPageLimit)}}
	if err := c.getJSON(ctx, c.guildRoute("/members"), query, &members); err != nil {
		return c.moderatorsFallback(err)
	}

	var roles []apiRole
	if err := c.getJSON(ctx, c.guildRoute("/roles"), nil, &roles); err != nil {
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			return c.moderatorsFallback(err)
		}
		c.logger.Warn("failed to fetch guild roles, continuing without them",
			zap.Int("status", statusErr.StatusCode),
		)
		roles = nil
	}

	return &models.ModeratorList{
		Moderators: buildRoster(members, roles),
		FetchedAt:  c.now().Unix(),
	}
}

func buildRoster(members []apiMember, roles []apiRole) []models.Moderator {
	roleNames := make(map[string]string, len(roles))
	staffRoles := make(map[string]bool)
	for _, r := range roles {
		roleNames[r.ID] = r.Name
		if models.IsStaffRoleName(r.Name) {
			staffRoles[r.ID] = true
		}
	}

	roster := make([]models.Moderator, 0, models.MaxModerators)
	for _, m := range members {
		isStaff := false
		held := make([]string, 0, len(m.Roles))
		for _, id := range m.Roles {
			if staffRoles[id] {
				isStaff = true
			}
			if name, ok := roleNames[id]; ok {
				held = append(held, name)
			}
		}

		// TODO: confirm with site owners whether plain humans (bot=false) should
		// really be listed; they currently show up labelled Moderator.
		explicitHuman := m.User != nil && m.User.Bot != nil && !*m.User.Bot
		if !isStaff && !explicitHuman {
			continue
		}

		roster = append(roster, models.Moderator{
			Name:      memberName(m, len(roster)+1),
			Role:      models.RoleForNames(held),
			AvatarURL: avatarURL(m.User),
			JoinDate:  joinDate(m),
		})
		if len(roster) >= models.MaxModerators {
			break
		}
	}
	return roster
}

func memberName(m apiMember, position int) string {
	if m.User == nil {
		return fmt.Sprintf("Moderator %d", position)
	}
	return m.User.Username
}

func avatarURL(u *apiUser) string {
	if u == nil || u.Avatar == nil || *u.Avatar == "" {
		return models.DefaultAvatarURL
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBaseURL, u.ID, *u.Avatar)
}

func joinDate(m apiMember) string {
	if m.JoinedAt == nil || *m.JoinedAt == "" {
		return models.DefaultJoinDate
	}
	return *m.JoinedAt
}

func (c *Client) guildRoute(suffix string) string {
	return "/guilds/" + c.guildID + suffix
}

// getJSON performs one rate-limited GET and decodes a 200 body into out.
// There are no retries: a 429 only updates the limiter.
func (c *Client) getJSON(ctx context.Context, route string, query url.Values, out any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, route); err != nil {
			return err
		}
	}

	endpoint := c.baseURL + route
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if c.rateLimiter != nil {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.rateLimiter.HandleTooManyRequests(route, resp.Header)
		} else {
			c.rateLimiter.Update(route, resp.Header)
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", route, err)
	}
	return nil
}

// logFailure logs at warn for HTTP status failures and at error for
// everything else (transport, decoding).
func (c *Client) logFailure(resource string, err error) {
	c.metrics.IncDiscordFallback(resource)

	if err == nil {
		c.logger.Debug("discord credentials not configured, serving fallback data",
			zap.String("resource", resource),
		)
		return
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.logger.Warn("discord request failed, serving fallback data",
			zap.String("resource", resource),
			zap.Int("status", statusErr.StatusCode),
		)
		return
	}
	c.logger.Error("error fetching from discord, serving fallback data",
		zap.String("resource", resource),
		zap.Error(err),
	)
}

func (c *Client) guildFallback(err error) *models.InviteStats {
	c.logFailure(ResourceGuild, err)
	return models.FallbackInviteStats(c.now().Unix())
}

func (c *Client) channelsFallback(err error) *models.ChannelList {
	c.logFailure(ResourceChannels, err)
	return &models.ChannelList{
		Channels:  models.DefaultChannels(c.guildID),
		FetchedAt: c.now().Unix(),
	}
}

func (c *Client) moderatorsFallback(err error) *models.ModeratorList {
	c.logFailure(ResourceModerators, err)
	return &models.ModeratorList{
		Moderators: models.DefaultModerators(),
		FetchedAt:  c.now().Unix(),
	}
}
