// Package platform defines the narrow set of chat platform capabilities used
// by commands, and the tagged errors adapters return.
package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zephyrtronium/warden/message"
)

// Platform is the external chat platform as seen by commands.
// Every method that fails returns an error for which [KindOf] reports the
// failure kind.
type Platform interface {
	// MemberRoles returns the names of the roles a user holds in a community.
	MemberRoles(ctx context.Context, community, user string) ([]string, error)
	// IsOwner reports whether a user is the community's built-in owner.
	IsOwner(ctx context.Context, community, user string) (bool, error)
	// Kick removes a member from a community.
	Kick(ctx context.Context, community, user, reason string) error
	// Ban bans a member from a community.
	Ban(ctx context.Context, community, user, reason string) error
	// Unban lifts a ban.
	Unban(ctx context.Context, community, user string) error
	// Timeout prevents a member from speaking until the given time.
	// A zero until removes an existing timeout.
	Timeout(ctx context.Context, community, user string, until time.Time, reason string) error
	// AddRole gives a member a role by name.
	AddRole(ctx context.Context, community, user, role string) error
	// RemoveRole takes a role from a member by name.
	RemoveRole(ctx context.Context, community, user, role string) error
	// Send sends a message.
	Send(ctx context.Context, msg message.Sent) error
}

// Kind is a category of adapter failure.
type Kind int

const (
	// Other is any failure that is not one of the specific kinds.
	Other Kind = iota
	// Forbidden means the bot lacks permission for the action.
	Forbidden
	// NotFound means the target of the action does not exist.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	default:
		return "Kind(?)"
	}
}

// Error is an adapter failure.
type Error struct {
	// Kind is the failure category.
	Kind Kind
	// Op names the attempted action.
	Op string
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail creates an adapter error.
func Fail(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of an adapter error.
// Errors that are not adapter errors are Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
