package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/platform"
	"github.com/zephyrtronium/warden/rank"
)

// Fixed denial messages.
const (
	DenyAccess  = "Commands aren't enabled in this server."
	DenyRank    = "You don't have permission to use this command."
	DenySuper   = "Only the bot owner can use this command."
	DenyUnknown = "I don't know that command."
)

// Do gates and runs a command invocation. The allow-list is checked before
// rank. The super-user passes every gate.
func Do(ctx context.Context, robo *Robot, call *Invocation) Result {
	start := time.Now()
	log := robo.Log.With(
		slog.String("trace", call.ID),
		slog.String("command", call.Name),
		slog.String("in", call.Community),
		slog.String("channel", call.Channel),
		slog.String("sender", call.Sender),
	)
	c := Find(robo.Commands, call.Name)
	if c == nil {
		log.WarnContext(ctx, "unknown command")
		call.Reply(ctx, DenyUnknown)
		robo.Metrics.CommandCount.Observe(1, call.Name, Unknown.String())
		return Unknown
	}
	r := gate(ctx, log, robo, c, call)
	if r == Done {
		log.InfoContext(ctx, "command", slog.Any("args", call.Args))
		r = c.Fn(ctx, robo, call)
	}
	log.DebugContext(ctx, "command result", slog.String("result", r.String()))
	robo.Metrics.CommandCount.Observe(1, c.Name, r.String())
	robo.Metrics.CommandLatency.Observe(time.Since(start).Seconds(), c.Name)
	return r
}

// gate applies a command's policy to an invocation and replies with the
// denial if it fails. The result is Done if the command may run.
func gate(ctx context.Context, log *slog.Logger, robo *Robot, c *Command, call *Invocation) Result {
	p := c.Policy
	if p.Open {
		return Done
	}
	super := robo.Access.IsOwner(call.Sender)
	if p.Super {
		if !super {
			log.InfoContext(ctx, "denied", slog.String("why", "owner only"))
			call.Reply(ctx, DenySuper)
			return Denied
		}
		return Done
	}
	if p.Community && !robo.Access.Usable(call.Sender, call.Community) {
		log.InfoContext(ctx, "denied", slog.String("why", "community not allowed"))
		call.Reply(ctx, DenyAccess)
		return Denied
	}
	if super {
		return Done
	}
	if p.Channel && robo.Access.ChannelAllowed(call.Sender, call.Channel) {
		return Done
	}
	m, err := member(ctx, robo.Platform, call.Community, call.Sender)
	if err != nil {
		return failed(ctx, log, robo, call, "check your roles", err)
	}
	ok, err := robo.Ranks.Check(m, p.Rank)
	if err != nil {
		misconfigured(ctx, log, robo, c, err)
	}
	if ok {
		return Done
	}
	log.InfoContext(ctx, "denied", slog.String("why", "rank"), slog.String("need", p.Rank))
	call.Reply(ctx, DenyRank)
	if err != nil {
		return Misconfigured
	}
	return Denied
}

// member builds the rank view of a user from the platform.
func member(ctx context.Context, p platform.Platform, community, user string) (*rank.Member, error) {
	roles, err := p.MemberRoles(ctx, community, user)
	if err != nil {
		return nil, err
	}
	owner, err := p.IsOwner(ctx, community, user)
	if err != nil {
		return nil, err
	}
	return &rank.Member{ID: user, Roles: roles, Owner: owner}, nil
}

// misconfigured reports a command that requires a rank not in the hierarchy.
// The caller only ever sees an ordinary denial.
func misconfigured(ctx context.Context, log *slog.Logger, robo *Robot, c *Command, err error) {
	log.ErrorContext(ctx, "command requires unknown rank", slog.Any("err", err), slog.String("rank", c.Policy.Rank))
	if robo.Operator == "" {
		return
	}
	msg := message.Format(robo.Operator, "Configuration error: command %q requires rank %q, which is not in the hierarchy %q. Nobody can use it.", c.Name, c.Policy.Rank, robo.Ranks.Names())
	if err := robo.Platform.Send(ctx, msg); err != nil {
		log.ErrorContext(ctx, "couldn't notify operator", slog.Any("err", err))
	}
}

// failed reports a platform failure to the caller. The action is not retried.
func failed(ctx context.Context, log *slog.Logger, robo *Robot, call *Invocation, what string, err error) Result {
	k := platform.KindOf(err)
	log.ErrorContext(ctx, "platform action failed", slog.Any("err", err), slog.String("kind", k.String()), slog.String("action", what))
	robo.Metrics.AdapterFailures.Observe(1, k.String())
	switch k {
	case platform.Forbidden:
		call.Reply(ctx, "I don't have permission to "+what+".")
	case platform.NotFound:
		call.Reply(ctx, "I couldn't find that member.")
	default:
		call.Reply(ctx, "Something went wrong while trying to "+what+". Try again.")
	}
	return Failed
}

// logger returns the logger for a command body.
func logger(robo *Robot, call *Invocation) *slog.Logger {
	return robo.Log.With(
		slog.String("trace", call.ID),
		slog.String("command", call.Name),
		slog.String("in", call.Community),
	)
}
