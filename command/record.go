package command

import (
	"context"
	"log/slog"
)

// Record saves a message for repeating, replacing any saved one.
//   - text: Message to save.
func Record(ctx context.Context, robo *Robot, call *Invocation) Result {
	t := call.Args["text"]
	if t == "" {
		call.Reply(ctx, "Give me something to record.")
		return Invalid
	}
	prev := robo.Session.SaveRecord(t)
	logger(robo, call).InfoContext(ctx, "record", slog.String("text", t), slog.String("previous", prev))
	call.Reply(ctx, "Recorded.")
	return Done
}

// Repeat toggles repeating the saved message into the invoking channel.
// No arguments.
func Repeat(ctx context.Context, robo *Robot, call *Invocation) Result {
	if robo.Session.ToggleRepeat(call.Channel) {
		if robo.Session.Record() == "" {
			call.Reply(ctx, "Repeat is on in this channel, but nothing is recorded yet.")
			return Done
		}
		call.Reply(ctx, "Repeat is on in this channel.")
		return Done
	}
	call.Reply(ctx, "Repeat is off.")
	return Done
}

// StopRepeat turns repeat off.
// No arguments.
func StopRepeat(ctx context.Context, robo *Robot, call *Invocation) Result {
	robo.Session.StopRepeat()
	call.Reply(ctx, "Repeat is off.")
	return Done
}

// Refresh clears the saved message, which also turns repeat off.
// No arguments.
func Refresh(ctx context.Context, robo *Robot, call *Invocation) Result {
	robo.Session.ClearRecord()
	call.Reply(ctx, "Cleared the recording. Repeat is off.")
	return Done
}
