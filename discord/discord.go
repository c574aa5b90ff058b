// Package discord implements the chat platform on Discord.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/platform"
)

// api is the subset of the Discord REST API used by Client.
// *discordgo.Session implements it.
type api interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Client is a [platform.Platform] backed by the Discord REST API.
type Client struct {
	s    api
	rate *rate.Limiter
}

// New creates a Client using a Discord session.
// Sent messages wait on lim, which may be nil to send without limit.
func New(s *discordgo.Session, lim *rate.Limiter) *Client {
	return newClient(s, lim)
}

func newClient(s api, lim *rate.Limiter) *Client {
	if lim == nil {
		lim = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{s: s, rate: lim}
}

// Classify converts an error from the Discord API into a [platform.Error]
// for the named operation. It returns nil if err is nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return platform.Fail(platform.Other, op, err)
	}
	if re.Message != nil {
		switch re.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return platform.Fail(platform.Forbidden, op, err)
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownBan:
			return platform.Fail(platform.NotFound, op, err)
		}
	}
	if re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusForbidden:
			return platform.Fail(platform.Forbidden, op, err)
		case http.StatusNotFound:
			return platform.Fail(platform.NotFound, op, err)
		}
	}
	return platform.Fail(platform.Other, op, err)
}

// MemberRoles returns the names of the roles a user holds.
func (c *Client) MemberRoles(ctx context.Context, community, user string) ([]string, error) {
	m, err := c.s.GuildMember(community, user, discordgo.WithContext(ctx))
	if err != nil {
		return nil, Classify("member roles", err)
	}
	roles, err := c.s.GuildRoles(community, discordgo.WithContext(ctx))
	if err != nil {
		return nil, Classify("member roles", err)
	}
	names := make(map[string]string, len(roles))
	for _, r := range roles {
		names[r.ID] = r.Name
	}
	r := make([]string, 0, len(m.Roles))
	for _, id := range m.Roles {
		if n, ok := names[id]; ok {
			r = append(r, n)
		}
	}
	return r, nil
}

// IsOwner reports whether user owns the guild.
func (c *Client) IsOwner(ctx context.Context, community, user string) (bool, error) {
	g, err := c.s.Guild(community, discordgo.WithContext(ctx))
	if err != nil {
		return false, Classify("owner", err)
	}
	return g.OwnerID == user, nil
}

func (c *Client) Kick(ctx context.Context, community, user, reason string) error {
	return Classify("kick", c.s.GuildMemberDeleteWithReason(community, user, reason, discordgo.WithContext(ctx)))
}

func (c *Client) Ban(ctx context.Context, community, user, reason string) error {
	return Classify("ban", c.s.GuildBanCreateWithReason(community, user, reason, 0, discordgo.WithContext(ctx)))
}

func (c *Client) Unban(ctx context.Context, community, user string) error {
	return Classify("unban", c.s.GuildBanDelete(community, user, discordgo.WithContext(ctx)))
}

// Timeout times out a member. A zero until clears the timeout.
func (c *Client) Timeout(ctx context.Context, community, user string, until time.Time, reason string) error {
	var t *time.Time
	if !until.IsZero() {
		t = &until
	}
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return Classify("timeout", c.s.GuildMemberTimeout(community, user, t, opts...))
}

func (c *Client) AddRole(ctx context.Context, community, user, role string) error {
	id, err := c.role(ctx, community, role)
	if err != nil {
		return Classify("add role", err)
	}
	return Classify("add role", c.s.GuildMemberRoleAdd(community, user, id, discordgo.WithContext(ctx)))
}

func (c *Client) RemoveRole(ctx context.Context, community, user, role string) error {
	id, err := c.role(ctx, community, role)
	if err != nil {
		return Classify("remove role", err)
	}
	return Classify("remove role", c.s.GuildMemberRoleRemove(community, user, id, discordgo.WithContext(ctx)))
}

// role resolves a role name to its ID, ignoring case.
func (c *Client) role(ctx context.Context, community, name string) (string, error) {
	roles, err := c.s.GuildRoles(community, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, name) {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("no role named %q", name)
}

// Send sends a message, waiting for the rate limit.
// Only the users mentioned in the text are pinged.
func (c *Client) Send(ctx context.Context, msg message.Sent) error {
	if err := c.rate.Wait(ctx); err != nil {
		return platform.Fail(platform.Other, "send", err)
	}
	m := discordgo.MessageSend{
		Content: msg.Text,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if msg.Reply != "" {
		m.Reference = &discordgo.MessageReference{MessageID: msg.Reply, ChannelID: msg.To}
	}
	_, err := c.s.ChannelMessageSendComplex(msg.To, &m, discordgo.WithContext(ctx))
	return Classify("send", err)
}

var _ platform.Platform = (*Client)(nil)
