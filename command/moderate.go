package command

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zephyrtronium/warden/message"
)

// maxMute is the longest timeout the platform accepts.
const maxMute = 28 * 24 * 60

// Kick removes a member from the community.
//   - user: Member to kick.
//   - reason: Optional audit log reason.
func Kick(ctx context.Context, robo *Robot, call *Invocation) Result {
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to kick.")
		return Invalid
	}
	log := logger(robo, call)
	if err := robo.Platform.Kick(ctx, call.Community, u, call.Args["reason"]); err != nil {
		return failed(ctx, log, robo, call, "kick that member", err)
	}
	call.Reply(ctx, withReason(fmt.Sprintf("Kicked %s.", message.Mention(u)), call.Args["reason"]))
	return Done
}

// Ban bans a member from the community.
//   - user: Member to ban.
//   - reason: Optional audit log reason.
func Ban(ctx context.Context, robo *Robot, call *Invocation) Result {
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to ban.")
		return Invalid
	}
	log := logger(robo, call)
	if err := robo.Platform.Ban(ctx, call.Community, u, call.Args["reason"]); err != nil {
		return failed(ctx, log, robo, call, "ban that member", err)
	}
	call.Reply(ctx, withReason(fmt.Sprintf("Banned %s.", message.Mention(u)), call.Args["reason"]))
	return Done
}

// Unban lifts a ban.
//   - user: User to unban.
func Unban(ctx context.Context, robo *Robot, call *Invocation) Result {
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to unban.")
		return Invalid
	}
	log := logger(robo, call)
	if err := robo.Platform.Unban(ctx, call.Community, u); err != nil {
		return failed(ctx, log, robo, call, "unban that user", err)
	}
	call.Reply(ctx, fmt.Sprintf("Unbanned %s.", message.Mention(u)))
	return Done
}

// Mute times out a member.
//   - user: Member to mute.
//   - minutes: Duration of the mute in minutes.
//   - reason: Optional audit log reason.
func Mute(ctx context.Context, robo *Robot, call *Invocation) Result {
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to mute.")
		return Invalid
	}
	n, err := strconv.Atoi(call.Args["minutes"])
	if err != nil || n <= 0 || n > maxMute {
		call.Reply(ctx, fmt.Sprintf("Mute duration must be a whole number of minutes from 1 to %d.", maxMute))
		return Invalid
	}
	log := logger(robo, call)
	until := call.Time.Add(time.Duration(n) * time.Minute)
	if err := robo.Platform.Timeout(ctx, call.Community, u, until, call.Args["reason"]); err != nil {
		return failed(ctx, log, robo, call, "mute that member", err)
	}
	log.InfoContext(ctx, "muted", slog.String("user", u), slog.Time("until", until))
	call.Reply(ctx, withReason(fmt.Sprintf("Muted %s for %s.", message.Mention(u), minutes(n)), call.Args["reason"]))
	return Done
}

// Unmute removes a member's timeout.
//   - user: Member to unmute.
func Unmute(ctx context.Context, robo *Robot, call *Invocation) Result {
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to unmute.")
		return Invalid
	}
	log := logger(robo, call)
	if err := robo.Platform.Timeout(ctx, call.Community, u, time.Time{}, ""); err != nil {
		return failed(ctx, log, robo, call, "unmute that member", err)
	}
	call.Reply(ctx, fmt.Sprintf("Unmuted %s.", message.Mention(u)))
	return Done
}

// Promote moves a member one rank up the hierarchy.
//   - user: Member to promote.
func Promote(ctx context.Context, robo *Robot, call *Invocation) Result {
	return step(ctx, robo, call, true)
}

// Demote moves a member one rank down the hierarchy.
//   - user: Member to demote.
func Demote(ctx context.Context, robo *Robot, call *Invocation) Result {
	return step(ctx, robo, call, false)
}

func step(ctx context.Context, robo *Robot, call *Invocation, up bool) Result {
	verb := "demote"
	if up {
		verb = "promote"
	}
	u := call.Args["user"]
	if u == "" {
		call.Reply(ctx, "Tell me who to "+verb+".")
		return Invalid
	}
	log := logger(robo, call)
	roles, err := robo.Platform.MemberRoles(ctx, call.Community, u)
	if err != nil {
		return failed(ctx, log, robo, call, verb+" that member", err)
	}
	var from, to string
	var ok bool
	if up {
		from, to, ok = robo.Ranks.Promote(roles)
	} else {
		from, to, ok = robo.Ranks.Demote(roles)
	}
	if !ok {
		call.Reply(ctx, fmt.Sprintf("%s cannot be %sd further.", message.Mention(u), verb))
		return Done
	}
	// Add first so that a failure leaves the member exactly as they were.
	// A role the member already holds is neither added nor undone.
	held := slices.ContainsFunc(roles, func(r string) bool { return strings.EqualFold(r, to) })
	if !held {
		if err := robo.Platform.AddRole(ctx, call.Community, u, to); err != nil {
			return failed(ctx, log, robo, call, verb+" that member", err)
		}
	}
	if err := robo.Platform.RemoveRole(ctx, call.Community, u, from); err != nil {
		if held {
			return failed(ctx, log, robo, call, verb+" that member", err)
		}
		if err := robo.Platform.RemoveRole(ctx, call.Community, u, to); err != nil {
			log.ErrorContext(ctx, "couldn't undo role change", slog.Any("err", err), slog.String("user", u), slog.String("role", to))
		}
		return failed(ctx, log, robo, call, verb+" that member", err)
	}
	log.InfoContext(ctx, verb, slog.String("user", u), slog.String("from", from), slog.String("to", to))
	call.Reply(ctx, fmt.Sprintf("%s is now %s (was %s).", message.Mention(u), to, from))
	return Done
}

func withReason(s, reason string) string {
	if reason == "" {
		return s
	}
	return s + " Reason: " + reason
}

func minutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return strconv.Itoa(n) + " minutes"
}
