package command

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"gitlab.com/zephyrtronium/pick"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/platform"
	"github.com/zephyrtronium/warden/session"
)

var goodnights = pick.New([]pick.Case[string]{
	{E: "Good night", W: 20},
	{E: "Sleep well", W: 10},
	{E: "Sweet dreams", W: 10},
	{E: "Nighty night", W: 3},
})

var mornings = pick.New([]pick.Case[string]{
	{E: "Welcome back", W: 20},
	{E: "Good morning", W: 10},
	{E: "Rise and shine", W: 5},
	{E: "Look who's awake", W: 3},
})

// Sleep starts a sleep session for the caller. The session ends at their
// next message.
// No arguments.
func Sleep(ctx context.Context, robo *Robot, call *Invocation) Result {
	robo.Session.StartSleep(call.Sender, call.Time)
	logger(robo, call).InfoContext(ctx, "sleep", slog.String("user", call.Sender), slog.Time("at", call.Time))
	g := goodnights.Pick(rand.Uint32())
	call.Reply(ctx, g+", "+message.Mention(call.Sender)+"! I'll tell you how long you slept when you're back.")
	return Done
}

// Hear handles a message that is not a command invocation. It repeats the
// saved record in the repeat channel and announces the end of the sender's
// sleep session. Messages from bots are ignored.
func Hear(ctx context.Context, robo *Robot, msg *message.Received) {
	if msg.IsBot {
		return
	}
	robo.Metrics.MessagesCount.Observe(1)
	log := robo.Log.With(slog.String("trace", msg.ID), slog.String("in", msg.Community), slog.String("channel", msg.To))
	for _, a := range robo.Session.OnMessage(msg.Sender, msg.To, msg.Time()) {
		var out message.Sent
		switch a.Kind {
		case session.Repeat:
			robo.Metrics.RepeatCount.Observe(1)
			out = message.Format(a.Channel, "%s", a.Text)
		case session.Wake:
			robo.Metrics.WakeCount.Observe(1)
			g := mornings.Pick(rand.Uint32())
			d := session.FormatElapsed(a.Elapsed, robo.Seconds)
			log.InfoContext(ctx, "wake", slog.String("user", a.User), slog.Duration("slept", a.Elapsed))
			out = message.Format(a.Channel, "%s, %s! You slept for %s.", g, message.Mention(a.User), d).AsReply(msg.ID)
		}
		if err := robo.Platform.Send(ctx, out); err != nil {
			k := platform.KindOf(err)
			robo.Metrics.AdapterFailures.Observe(1, k.String())
			log.ErrorContext(ctx, "couldn't send", slog.Any("err", err), slog.String("action", a.Kind.String()))
		}
	}
}
