package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/discord"
	"github.com/zephyrtronium/warden/message"
)

// InitDiscord creates the Discord session and registers event handlers.
// The session connects when the robot runs.
func (robo *Robot) InitDiscord(ctx context.Context, cfg DiscordCfg) error {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return fmt.Errorf("couldn't create Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	var lim *rate.Limiter
	if cfg.Rate.Num > 0 {
		lim = rate.NewLimiter(rate.Every(fseconds(cfg.Rate.Every)), cfg.Rate.Num)
	}
	robo.discord = s
	robo.core.Platform = discord.New(s, lim)

	s.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		robo.register(ctx, s, event)
	})
	s.AddHandler(func(s *discordgo.Session, event *discordgo.InteractionCreate) {
		robo.onInteraction(ctx, s, event)
	})
	s.AddHandler(func(s *discordgo.Session, event *discordgo.MessageCreate) {
		robo.onMessage(ctx, event)
	})
	return nil
}

// register replaces the application's slash commands with the command table.
func (robo *Robot) register(ctx context.Context, s *discordgo.Session, event *discordgo.Ready) {
	cmds := appCommands(robo.core.Commands)
	_, err := s.ApplicationCommandBulkOverwrite(event.Application.ID, robo.home, cmds, discordgo.WithContext(ctx))
	if err != nil {
		slog.ErrorContext(ctx, "couldn't update slash commands", slog.Any("err", err))
		return
	}
	slog.InfoContext(ctx, "registered slash commands", slog.Int("count", len(cmds)), slog.String("guild", robo.home))
}

// appCommands converts a command table to slash command definitions.
func appCommands(table []*command.Command) []*discordgo.ApplicationCommand {
	no := false
	r := make([]*discordgo.ApplicationCommand, 0, len(table))
	for _, c := range table {
		ac := &discordgo.ApplicationCommand{
			Name:         c.Name,
			Description:  c.Usage,
			DMPermission: &no,
		}
		for _, a := range c.Args {
			ac.Options = append(ac.Options, &discordgo.ApplicationCommandOption{
				Type:        optionType(a.Kind),
				Name:        a.Name,
				Description: a.Usage,
				Required:    a.Required,
			})
		}
		r = append(r, ac)
	}
	return r
}

func optionType(k command.ArgKind) discordgo.ApplicationCommandOptionType {
	switch k {
	case command.User:
		return discordgo.ApplicationCommandOptionUser
	case command.Integer:
		return discordgo.ApplicationCommandOptionInteger
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// invocationArgs converts slash command options to command arguments.
func invocationArgs(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	args := make(map[string]string, len(opts))
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			args[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			args[o.Name] = strconv.FormatInt(o.IntValue(), 10)
		case discordgo.ApplicationCommandOptionUser:
			args[o.Name] = o.UserValue(nil).ID
		default:
			args[o.Name] = fmt.Sprint(o.Value)
		}
	}
	return args
}

func (robo *Robot) onInteraction(ctx context.Context, s *discordgo.Session, event *discordgo.InteractionCreate) {
	if event.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := event.ApplicationCommandData()
	var sender string
	switch {
	case event.Member != nil && event.Member.User != nil:
		sender = event.Member.User.ID
	case event.User != nil:
		sender = event.User.ID
	}
	log := slog.With(slog.String("interaction", event.ID), slog.String("in", event.GuildID))
	r := &interactionReply{s: s, i: event.Interaction, log: log}
	if event.GuildID == "" {
		r.reply(ctx, "Commands only work in servers.")
		return
	}
	// Commands can take several requests, so acknowledge before running.
	r.deferReply(ctx)
	call := command.Invocation{
		Name:      data.Name,
		ID:        uuid.NewString(),
		Community: event.GuildID,
		Channel:   event.ChannelID,
		Sender:    sender,
		Args:      invocationArgs(data.Options),
		Time:      interactionTime(event.ID),
		Reply:     r.reply,
	}
	command.Do(ctx, robo.core, &call)
	r.finish(ctx)
}

// interactionTime is the creation time of an interaction according to
// Discord, so that it is on the same clock as message timestamps.
func interactionTime(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Now()
	}
	return t
}

// responder is the part of a Discord session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// interactionReply sends a command's replies to an interaction.
// The first reply becomes the interaction response and later ones are
// followups.
type interactionReply struct {
	s   responder
	i   *discordgo.Interaction
	log *slog.Logger

	mu       sync.Mutex
	deferred bool
	replied  bool
}

var replyMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}}

// deferReply acknowledges the interaction with a pending response.
func (r *interactionReply) deferReply(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		r.log.ErrorContext(ctx, "couldn't defer reply", slog.Any("err", discord.Classify("defer", err)))
		return
	}
	r.deferred = true
}

func (r *interactionReply) reply(ctx context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	switch {
	case r.replied:
		_, err = r.s.FollowupMessageCreate(r.i, false, &discordgo.WebhookParams{
			Content:         text,
			AllowedMentions: replyMentions,
		}, discordgo.WithContext(ctx))
	case r.deferred:
		_, err = r.s.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
			Content:         &text,
			AllowedMentions: replyMentions,
		}, discordgo.WithContext(ctx))
	default:
		err = r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:         text,
				AllowedMentions: replyMentions,
			},
		}, discordgo.WithContext(ctx))
	}
	r.replied = true
	if err != nil {
		r.log.ErrorContext(ctx, "couldn't reply", slog.Any("err", discord.Classify("reply", err)))
	}
}

// finish removes a pending response that no reply ever filled.
func (r *interactionReply) finish(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.deferred || r.replied {
		return
	}
	if err := r.s.InteractionResponseDelete(r.i, discordgo.WithContext(ctx)); err != nil {
		r.log.ErrorContext(ctx, "couldn't clear pending reply", slog.Any("err", discord.Classify("reply", err)))
	}
}

func (robo *Robot) onMessage(ctx context.Context, event *discordgo.MessageCreate) {
	if event.GuildID == "" || event.Author == nil {
		return
	}
	msg := message.Received{
		ID:        event.ID,
		Community: event.GuildID,
		To:        event.ChannelID,
		Sender:    event.Author.ID,
		Name:      event.Author.Username,
		Text:      event.Content,
		Timestamp: event.Timestamp.UnixMilli(),
		IsBot:     event.Author.Bot,
	}
	command.Hear(ctx, robo.core, &msg)
}
