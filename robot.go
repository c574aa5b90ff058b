package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/warden/access"
	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/metrics"
	"github.com/zephyrtronium/warden/session"
)

// Robot is the overall bot state, including the Discord connection.
type Robot struct {
	// core is the state visible to commands.
	core *command.Robot
	// discord is the Discord gateway session.
	discord *discordgo.Session
	// home is the always-allowed community. Slash commands are registered
	// there if it is set.
	home string
	// owner is the owner's name for status reports.
	owner string
	// started is the time the robot was created.
	started time.Time
}

// New creates a new robot instance from configuration.
// Use InitDiscord to connect it to Discord.
func New(ctx context.Context, cfg *Config) (*Robot, error) {
	h, err := cfg.hierarchy()
	if err != nil {
		return nil, err
	}
	table, err := cfg.commands()
	if err != nil {
		return nil, err
	}
	// Commands requiring unknown ranks still load. Using them reports the
	// misconfiguration to the operator channel.
	for _, err := range command.Validate(table, h) {
		slog.ErrorContext(ctx, "misconfigured command", slog.Any("err", err))
	}
	if cfg.Owner.ID == "" {
		slog.WarnContext(ctx, "no owner ID; continuing with owner commands disabled")
	}
	robo := &Robot{
		core: &command.Robot{
			Log:      slog.Default(),
			Ranks:    h,
			Access:   access.New(cfg.Owner.ID, cfg.Discord.Home),
			Session:  session.New(),
			Metrics:  metrics.New(),
			Commands: table,
			Operator: cfg.Discord.Operator,
			Seconds:  cfg.Sleep.Seconds,
		},
		home:    cfg.Discord.Home,
		owner:   cfg.Owner.Name,
		started: time.Now(),
	}
	return robo, nil
}

// Run runs the bot and its HTTP server until ctx is canceled.
func (robo *Robot) Run(ctx context.Context, listen string) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return robo.api(ctx, listenAddr(listen), new(http.ServeMux), robo.core.Metrics.Collectors())
	})
	if robo.discord != nil {
		group.Go(func() error {
			if err := robo.discord.Open(); err != nil {
				return fmt.Errorf("couldn't connect to Discord: %w", err)
			}
			slog.InfoContext(ctx, "connected to Discord")
			<-ctx.Done()
			return robo.discord.Close()
		})
	}
	err := group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// listenAddr applies the default port to an HTTP listen address.
func listenAddr(listen string) string {
	switch listen {
	case "", ":":
		return ":8080"
	default:
		return listen
	}
}
