package command

import (
	"context"
	"time"
)

// Invocation is a command invocation. An Invocation and its fields must not
// be modified or retained by any command.
type Invocation struct {
	// Name is the name of the invoked command.
	Name string
	// ID identifies the invocation for tracing and replies.
	ID string
	// Community is the community where the invocation occurred.
	Community string
	// Channel is the channel where the invocation occurred.
	Channel string
	// Sender is the user ID of the caller.
	Sender string
	// Args is the parsed arguments to the command.
	Args map[string]string
	// Time is the time of the invocation.
	Time time.Time
	// Reply responds to the caller.
	Reply func(ctx context.Context, text string)
}

// Func executes a command. Gating has already passed when it is called.
type Func func(ctx context.Context, robo *Robot, call *Invocation) Result

// Result is the outcome of an invocation.
type Result int

const (
	// Done means the command ran and reported its effect.
	Done Result = iota
	// Unknown means no command has the invoked name.
	Unknown
	// Denied means the caller failed the allow-list or rank check.
	Denied
	// Misconfigured means the command requires a rank that isn't in the
	// hierarchy, so no one qualifies.
	Misconfigured
	// Invalid means an argument was malformed.
	Invalid
	// Failed means the platform rejected or errored on an action.
	Failed
)

func (r Result) String() string {
	switch r {
	case Done:
		return "done"
	case Unknown:
		return "unknown"
	case Denied:
		return "denied"
	case Misconfigured:
		return "misconfigured"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	default:
		return "Result(?)"
	}
}
