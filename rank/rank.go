// Package rank implements ordered role hierarchies and the permission checks
// built on them.
package rank

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
)

// Hierarchy is an ordered list of role names, highest authority first.
// A Hierarchy is immutable once created and safe for concurrent use.
type Hierarchy struct {
	names []string
	index map[string]int
}

var (
	// ErrEmpty is returned when creating a hierarchy with no names or with an
	// empty name.
	ErrEmpty = errors.New("empty rank name")
	// ErrDuplicate is returned when creating a hierarchy that contains the
	// same name more than once, ignoring case.
	ErrDuplicate = errors.New("duplicate rank name")
	// ErrUnknownRank is returned by [Hierarchy.Check] when the required rank
	// is not part of the hierarchy.
	ErrUnknownRank = errors.New("unknown rank")
)

// New creates a hierarchy from names ordered highest authority first.
func New(names ...string) (*Hierarchy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("couldn't create hierarchy: %w", ErrEmpty)
	}
	h := Hierarchy{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("couldn't create hierarchy: rank %d: %w", i, ErrEmpty)
		}
		k := fold(n)
		if j, ok := h.index[k]; ok {
			return nil, fmt.Errorf("couldn't create hierarchy: %q at %d and %d: %w", n, j, i, ErrDuplicate)
		}
		h.index[k] = i
		h.names = append(h.names, n)
	}
	return &h, nil
}

// fold returns the case-folded form of a role name.
// Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Len returns the number of ranks in the hierarchy.
func (h *Hierarchy) Len() int {
	return len(h.names)
}

// Names returns a copy of the rank names, highest authority first.
func (h *Hierarchy) Names() []string {
	return append([]string(nil), h.names...)
}

// Name returns the name of the rank at index i.
func (h *Hierarchy) Name(i int) string {
	return h.names[i]
}

// Index returns the position of a rank name, ignoring case.
func (h *Hierarchy) Index(name string) (int, bool) {
	i, ok := h.index[fold(name)]
	return i, ok
}

// Below returns the rank value for members who hold no rank in the hierarchy.
// It is strictly greater than every real rank index.
func (h *Hierarchy) Below() int {
	return len(h.names) + 1
}

// Member is a read-only view of a community member for permission checks.
type Member struct {
	// ID is the member's user ID.
	ID string
	// Roles is the names of the roles the member holds.
	Roles []string
	// Owner indicates the member is the community's built-in owner.
	Owner bool
	// Super indicates the member is the bot's fixed super-user.
	Super bool
}

// Rank computes the member's rank. Lower values mean higher authority.
// Super-users and community owners are always rank 0. Members holding no
// role in the hierarchy get [Hierarchy.Below].
func (h *Hierarchy) Rank(m *Member) int {
	if m.Super || m.Owner {
		return 0
	}
	r := h.Below()
	for _, role := range m.Roles {
		if i, ok := h.Index(role); ok && i < r {
			r = i
		}
	}
	return r
}

// Check reports whether the member's rank is at least the required rank.
// If the required rank is not in the hierarchy, the result is false with an
// error wrapping [ErrUnknownRank].
func (h *Hierarchy) Check(m *Member, required string) (bool, error) {
	i, ok := h.Index(required)
	if !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownRank, required)
	}
	return h.Rank(m) <= i, nil
}

// Meets is like [Hierarchy.Check] but treats an unknown required rank as
// nobody qualifying. The configuration error is logged rather than returned.
func (h *Hierarchy) Meets(m *Member, required string) bool {
	ok, err := h.Check(m, required)
	if err != nil {
		slog.Error("rank check against unknown rank", slog.Any("err", err), slog.String("rank", required))
		return false
	}
	return ok
}

// held returns the index of the highest-authority hierarchy role in roles,
// or -1 if none.
func (h *Hierarchy) held(roles []string) int {
	r := -1
	for _, role := range roles {
		if i, ok := h.Index(role); ok && (r < 0 || i < r) {
			r = i
		}
	}
	return r
}

// Promote finds the role one step above the highest hierarchy role among
// roles. from is the held role name as written in roles. ok is false if no
// hierarchy role is held or the held role is already the top.
func (h *Hierarchy) Promote(roles []string) (from, to string, ok bool) {
	return h.step(roles, -1)
}

// Demote finds the role one step below the highest hierarchy role among
// roles. ok is false if no hierarchy role is held or the held role is
// already the bottom.
func (h *Hierarchy) Demote(roles []string) (from, to string, ok bool) {
	return h.step(roles, 1)
}

func (h *Hierarchy) step(roles []string, d int) (from, to string, ok bool) {
	i := h.held(roles)
	if i < 0 {
		return "", "", false
	}
	j := i + d
	if j < 0 || j >= len(h.names) {
		return "", "", false
	}
	for _, role := range roles {
		if k, found := h.Index(role); found && k == i {
			from = role
			break
		}
	}
	return from, h.names[j], true
}
