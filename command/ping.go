package command

import "context"

// Ping replies to show the bot is alive.
// No arguments.
func Ping(ctx context.Context, robo *Robot, call *Invocation) Result {
	call.Reply(ctx, "Pong!")
	return Done
}
