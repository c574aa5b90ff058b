package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zephyrtronium/warden/rank"
)

// Policy describes who may use a command and where.
type Policy struct {
	// Open disables the rank check entirely.
	Open bool
	// Super restricts the command to the super-user.
	Super bool
	// Community requires the invoking community to be on the allow-list.
	Community bool
	// Rank is the minimum rank required when neither Open nor Super is set.
	Rank string
	// Channel allows callers who fail the rank check to use the command in
	// channels granted the per-channel allowance.
	Channel bool
}

func (p Policy) String() string {
	var s string
	switch {
	case p.Open:
		s = "anyone"
	case p.Super:
		s = "owner only"
	default:
		s = p.Rank
		if p.Channel {
			s += " or allowed channel"
		}
	}
	if p.Community {
		s += ", allowed servers"
	}
	return s
}

// ArgKind is the type of a command argument.
type ArgKind int

const (
	// String is free text.
	String ArgKind = iota
	// User is a user ID.
	User
	// Integer is a whole number.
	Integer
)

// Arg describes a command argument.
type Arg struct {
	Name     string
	Kind     ArgKind
	Required bool
	Usage    string
}

// Command is an entry in the command table.
type Command struct {
	Name   string
	Usage  string
	Policy Policy
	Args   []Arg
	Fn     Func
}

// Find returns the command with the given name, ignoring case, or nil.
func Find(table []*Command, name string) *Command {
	for _, c := range table {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

var target = Arg{Name: "user", Kind: User, Required: true, Usage: "Member to act on"}

var reason = Arg{Name: "reason", Kind: String, Usage: "Reason for the audit log"}

// Defaults returns a new copy of the default command table.
func Defaults() []*Command {
	return []*Command{
		{
			Name:   "ping",
			Usage:  "Check that I'm alive",
			Policy: Policy{Open: true},
			Fn:     Ping,
		},
		{
			Name:   "kick",
			Usage:  "Kick a member",
			Policy: Policy{Community: true, Rank: "mod"},
			Args:   []Arg{target, reason},
			Fn:     Kick,
		},
		{
			Name:   "ban",
			Usage:  "Ban a member",
			Policy: Policy{Community: true, Rank: "admin"},
			Args:   []Arg{target, reason},
			Fn:     Ban,
		},
		{
			Name:   "unban",
			Usage:  "Lift a ban",
			Policy: Policy{Community: true, Rank: "admin"},
			Args:   []Arg{target},
			Fn:     Unban,
		},
		{
			Name:   "mute",
			Usage:  "Time out a member",
			Policy: Policy{Community: true, Rank: "moderator"},
			Args: []Arg{
				target,
				{Name: "minutes", Kind: Integer, Required: true, Usage: "How long to mute for, in minutes"},
				reason,
			},
			Fn: Mute,
		},
		{
			Name:   "unmute",
			Usage:  "Remove a member's timeout",
			Policy: Policy{Community: true, Rank: "moderator"},
			Args:   []Arg{target},
			Fn:     Unmute,
		},
		{
			Name:   "promote",
			Usage:  "Move a member one rank up",
			Policy: Policy{Community: true, Rank: "head-admin"},
			Args:   []Arg{target},
			Fn:     Promote,
		},
		{
			Name:   "demote",
			Usage:  "Move a member one rank down",
			Policy: Policy{Community: true, Rank: "head-admin"},
			Args:   []Arg{target},
			Fn:     Demote,
		},
		{
			Name:   "record",
			Usage:  "Save a message for repeating",
			Policy: Policy{Community: true, Rank: "mod"},
			Args:   []Arg{{Name: "text", Kind: String, Required: true, Usage: "Message to save"}},
			Fn:     Record,
		},
		{
			Name:   "repeat",
			Usage:  "Toggle repeating the saved message in this channel",
			Policy: Policy{Community: true, Rank: "mod"},
			Fn:     Repeat,
		},
		{
			Name:   "stoprepeat",
			Usage:  "Stop repeating the saved message",
			Policy: Policy{Community: true, Rank: "mod"},
			Fn:     StopRepeat,
		},
		{
			Name:   "refresh",
			Usage:  "Clear the saved message",
			Policy: Policy{Community: true, Rank: "mod"},
			Fn:     Refresh,
		},
		{
			Name:   "sleep",
			Usage:  "Start tracking your sleep",
			Policy: Policy{Community: true, Rank: "moderator", Channel: true},
			Fn:     Sleep,
		},
		{
			Name:   "allow",
			Usage:  "Allow a server to use commands",
			Policy: Policy{Super: true},
			Args:   []Arg{{Name: "id", Kind: String, Required: true, Usage: "Server ID"}},
			Fn:     AllowCommunity,
		},
		{
			Name:   "allowchannel",
			Usage:  "Allow sleep tracking in a channel",
			Policy: Policy{Super: true},
			Args:   []Arg{{Name: "id", Kind: String, Usage: "Channel ID; defaults to this channel"}},
			Fn:     AllowChannel,
		},
		{
			Name:   "revoke",
			Usage:  "Stop a server from using commands",
			Policy: Policy{Super: true},
			Args:   []Arg{{Name: "id", Kind: String, Required: true, Usage: "Server ID"}},
			Fn:     RevokeCommunity,
		},
		{
			Name:   "revokechannel",
			Usage:  "Stop sleep tracking in a channel",
			Policy: Policy{Super: true},
			Args:   []Arg{{Name: "id", Kind: String, Usage: "Channel ID; defaults to this channel"}},
			Fn:     RevokeChannel,
		},
		{
			Name:   "allowed",
			Usage:  "List allowed servers and channels",
			Policy: Policy{Super: true},
			Fn:     Allowed,
		},
	}
}

// ErrNoCommand is returned when configuring a command that doesn't exist.
var ErrNoCommand = errors.New("no such command")

// Configure applies rank overrides to a command table in place.
// Ranks are not checked against any hierarchy; use [Validate] for that.
// Overriding an open or owner-only command is an error.
func Configure(table []*Command, ranks map[string]string) error {
	for name, r := range ranks {
		c := Find(table, name)
		if c == nil {
			return fmt.Errorf("couldn't configure %q: %w", name, ErrNoCommand)
		}
		if c.Policy.Open || c.Policy.Super {
			return fmt.Errorf("couldn't configure %q: command has no rank requirement", name)
		}
		c.Policy.Rank = r
	}
	return nil
}

// Validate checks that every ranked command refers to a rank in h.
// It returns one error per misconfigured command.
func Validate(table []*Command, h *rank.Hierarchy) []error {
	var errs []error
	for _, c := range table {
		if c.Policy.Open || c.Policy.Super {
			continue
		}
		if _, ok := h.Index(c.Policy.Rank); !ok {
			errs = append(errs, fmt.Errorf("command %q: %w %q", c.Name, rank.ErrUnknownRank, c.Policy.Rank))
		}
	}
	return errs
}

// Names returns the sorted names of the commands in a table.
func Names(table []*Command) []string {
	r := make([]string, 0, len(table))
	for _, c := range table {
		r = append(r, c.Name)
	}
	slices.Sort(r)
	return r
}
