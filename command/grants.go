package command

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/zephyrtronium/warden/access"
)

// AllowCommunity adds a server to the allow-list.
//   - id: Server ID.
func AllowCommunity(ctx context.Context, robo *Robot, call *Invocation) Result {
	id, ok := snowflake(call.Args["id"])
	if !ok {
		call.Reply(ctx, "That isn't a valid server ID.")
		return Invalid
	}
	return change(ctx, robo, call, "server", id, robo.Access.GrantCommunity)
}

// AllowChannel grants a channel the per-channel allowance.
//   - id: Channel ID. Defaults to the invoking channel.
func AllowChannel(ctx context.Context, robo *Robot, call *Invocation) Result {
	id, ok := channelArg(call)
	if !ok {
		call.Reply(ctx, "That isn't a valid channel ID.")
		return Invalid
	}
	return change(ctx, robo, call, "channel", id, robo.Access.GrantChannel)
}

// RevokeCommunity removes a server from the allow-list.
//   - id: Server ID.
func RevokeCommunity(ctx context.Context, robo *Robot, call *Invocation) Result {
	id, ok := snowflake(call.Args["id"])
	if !ok {
		call.Reply(ctx, "That isn't a valid server ID.")
		return Invalid
	}
	return change(ctx, robo, call, "server", id, robo.Access.RevokeCommunity)
}

// RevokeChannel removes a channel's per-channel allowance.
//   - id: Channel ID. Defaults to the invoking channel.
func RevokeChannel(ctx context.Context, robo *Robot, call *Invocation) Result {
	id, ok := channelArg(call)
	if !ok {
		call.Reply(ctx, "That isn't a valid channel ID.")
		return Invalid
	}
	return change(ctx, robo, call, "channel", id, robo.Access.RevokeChannel)
}

// Allowed lists the allowed servers and channels.
// No arguments.
func Allowed(ctx context.Context, robo *Robot, call *Invocation) Result {
	s := robo.Access.Communities()
	c := robo.Access.Channels()
	call.Reply(ctx, fmt.Sprintf("Servers: %s. Channels: %s.", list(s), list(c)))
	return Done
}

func change(ctx context.Context, robo *Robot, call *Invocation, what, id string, op func(actor, id string) (access.Result, error)) Result {
	r, err := op(call.Sender, id)
	if err != nil {
		// Only reachable if the table's policy for this command was loosened.
		logger(robo, call).WarnContext(ctx, "access change rejected", slog.Any("err", err))
		call.Reply(ctx, DenySuper)
		return Denied
	}
	logger(robo, call).InfoContext(ctx, "access", slog.String(what, id), slog.String("result", r.String()))
	switch r {
	case access.Granted:
		call.Reply(ctx, fmt.Sprintf("Allowed %s %s.", what, id))
	case access.AlreadyGranted:
		call.Reply(ctx, fmt.Sprintf("The %s %s is already allowed.", what, id))
	case access.Revoked:
		call.Reply(ctx, fmt.Sprintf("Revoked %s %s.", what, id))
	case access.NotGranted:
		call.Reply(ctx, fmt.Sprintf("The %s %s wasn't allowed.", what, id))
	}
	return Done
}

// snowflake validates a platform ID.
func snowflake(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return "", false
	}
	return s, true
}

func channelArg(call *Invocation) (string, bool) {
	s := strings.TrimSpace(call.Args["id"])
	if s == "" {
		return call.Channel, true
	}
	// Accept channel mentions as well as bare IDs.
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<#"), ">")
	return snowflake(s)
}

func list(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}
