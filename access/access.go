// Package access implements the allow-lists of communities and channels in
// which gated commands may be used.
package access

import (
	"errors"

	"github.com/zephyrtronium/warden/syncmap"
)

// Registry holds the communities and channels authorized to use gated
// commands, along with the super-user who administers them.
// A Registry is safe for concurrent use.
//
// Entries live only as long as the process.
type Registry struct {
	owner       string
	communities *syncmap.Map[string, struct{}]
	channels    *syncmap.Map[string, struct{}]
}

// Result describes the effect of a grant or revoke.
type Result int

const (
	// Granted means the id was added.
	Granted Result = iota
	// AlreadyGranted means the id was already present and nothing changed.
	AlreadyGranted
	// Revoked means the id was removed.
	Revoked
	// NotGranted means the id was not present and nothing changed.
	NotGranted
)

func (r Result) String() string {
	switch r {
	case Granted:
		return "granted"
	case AlreadyGranted:
		return "already granted"
	case Revoked:
		return "revoked"
	case NotGranted:
		return "not granted"
	default:
		return "Result(?)"
	}
}

// ErrNotOwner is returned when anyone but the super-user tries to modify the
// registry.
var ErrNotOwner = errors.New("only the owner may change access")

// New creates a registry administered by owner. Each non-empty home id is
// granted immediately.
func New(owner string, home ...string) *Registry {
	r := Registry{
		owner:       owner,
		communities: syncmap.New[string, struct{}](),
		channels:    syncmap.New[string, struct{}](),
	}
	for _, id := range home {
		if id != "" {
			r.communities.Store(id, struct{}{})
		}
	}
	return &r
}

// Owner returns the super-user id.
func (r *Registry) Owner() string {
	return r.owner
}

// IsOwner reports whether actor is the super-user.
// An empty owner matches no one.
func (r *Registry) IsOwner(actor string) bool {
	return r.owner != "" && actor == r.owner
}

// Usable reports whether actor may use gated commands in community.
func (r *Registry) Usable(actor, community string) bool {
	if r.IsOwner(actor) {
		return true
	}
	_, ok := r.communities.Load(community)
	return ok
}

// ChannelAllowed reports whether channel has been granted the narrower
// per-channel allowance, or actor is the super-user.
func (r *Registry) ChannelAllowed(actor, channel string) bool {
	if r.IsOwner(actor) {
		return true
	}
	_, ok := r.channels.Load(channel)
	return ok
}

// GrantCommunity allows a community to use gated commands.
func (r *Registry) GrantCommunity(actor, id string) (Result, error) {
	return grant(r, r.communities, actor, id)
}

// GrantChannel allows a channel to use channel-gated commands.
func (r *Registry) GrantChannel(actor, id string) (Result, error) {
	return grant(r, r.channels, actor, id)
}

// RevokeCommunity removes a community's access.
func (r *Registry) RevokeCommunity(actor, id string) (Result, error) {
	return revoke(r, r.communities, actor, id)
}

// RevokeChannel removes a channel's access.
func (r *Registry) RevokeChannel(actor, id string) (Result, error) {
	return revoke(r, r.channels, actor, id)
}

// Communities returns the granted communities in sorted order.
func (r *Registry) Communities() []string {
	return r.communities.Keys()
}

// Channels returns the granted channels in sorted order.
func (r *Registry) Channels() []string {
	return r.channels.Keys()
}

func grant(r *Registry, m *syncmap.Map[string, struct{}], actor, id string) (Result, error) {
	if !r.IsOwner(actor) {
		return 0, ErrNotOwner
	}
	if _, loaded := m.LoadOrStore(id, struct{}{}); loaded {
		return AlreadyGranted, nil
	}
	return Granted, nil
}

func revoke(r *Registry, m *syncmap.Map[string, struct{}], actor, id string) (Result, error) {
	if !r.IsOwner(actor) {
		return 0, ErrNotOwner
	}
	if _, ok := m.LoadAndDelete(id); !ok {
		return NotGranted, nil
	}
	return Revoked, nil
}
