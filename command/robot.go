package command

import (
	"log/slog"

	"github.com/zephyrtronium/warden/access"
	"github.com/zephyrtronium/warden/metrics"
	"github.com/zephyrtronium/warden/platform"
	"github.com/zephyrtronium/warden/rank"
	"github.com/zephyrtronium/warden/session"
)

// Robot is the bot state as is visible to commands.
type Robot struct {
	Log      *slog.Logger
	Ranks    *rank.Hierarchy
	Access   *access.Registry
	Session  *session.Store
	Platform platform.Platform
	Metrics  *metrics.Metrics
	// Commands is the command table.
	Commands []*Command
	// Operator is the channel where configuration errors are reported.
	// If empty, they are only logged.
	Operator string
	// Seconds includes seconds in reported sleep durations.
	Seconds bool
}
