// Package platformtest provides an in-memory chat platform for testing
// commands.
package platformtest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/platform"
)

// Call is a recorded moderation action.
type Call struct {
	Op        string
	Community string
	User      string
	Arg       string
	Until     time.Time
}

// Platform is a fake chat platform. Members and owners are keyed by
// community then user. The zero value is an empty platform ready to use.
type Platform struct {
	mu sync.Mutex
	// roles maps community and user to held role names.
	roles map[[2]string][]string
	// owners maps community to the owner's user ID.
	owners map[string]string
	// fail maps operation names to the error that operation returns.
	fail map[string]error
	// once maps operation names to an error returned only by the next call.
	once map[string]error

	calls []Call
	sent  []message.Sent
}

// SetRoles sets the roles a member holds. The member exists afterward even
// with no roles.
func (p *Platform) SetRoles(community, user string, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roles == nil {
		p.roles = make(map[[2]string][]string)
	}
	p.roles[[2]string{community, user}] = append([]string{}, roles...)
}

// Roles returns the roles a member holds.
func (p *Platform) Roles(community, user string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.roles[[2]string{community, user}])
}

// SetOwner sets a community's owner.
func (p *Platform) SetOwner(community, user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owners == nil {
		p.owners = make(map[string]string)
	}
	p.owners[community] = user
}

// FailOn causes the named operation to return err until cleared with a nil
// err. Operation names are the method names in lower case.
func (p *Platform) FailOn(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail == nil {
		p.fail = make(map[string]error)
	}
	if err == nil {
		delete(p.fail, op)
		return
	}
	p.fail[op] = err
}

// FailOnce causes only the next call of the named operation to return err.
func (p *Platform) FailOnce(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.once == nil {
		p.once = make(map[string]error)
	}
	p.once[op] = err
}

// failure returns the error the named operation should return, if any.
// p.mu must be held.
func (p *Platform) failure(op string) error {
	if err := p.once[op]; err != nil {
		delete(p.once, op)
		return err
	}
	return p.fail[op]
}

// Calls returns the successful moderation actions in order.
func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// Sent returns the messages sent in order.
func (p *Platform) Sent() []message.Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sent)
}

// Reset clears recorded calls and messages.
func (p *Platform) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.sent = nil
}

// member checks that a member exists. p.mu must be held.
func (p *Platform) member(op, community, user string) error {
	if err := p.failure(op); err != nil {
		return err
	}
	if _, ok := p.roles[[2]string{community, user}]; !ok {
		return platform.Fail(platform.NotFound, op, nil)
	}
	return nil
}

func (p *Platform) MemberRoles(ctx context.Context, community, user string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("memberroles", community, user); err != nil {
		return nil, err
	}
	return slices.Clone(p.roles[[2]string{community, user}]), nil
}

func (p *Platform) IsOwner(ctx context.Context, community, user string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("isowner"); err != nil {
		return false, err
	}
	return p.owners[community] == user, nil
}

func (p *Platform) Kick(ctx context.Context, community, user, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("kick", community, user); err != nil {
		return err
	}
	delete(p.roles, [2]string{community, user})
	p.calls = append(p.calls, Call{Op: "kick", Community: community, User: user, Arg: reason})
	return nil
}

func (p *Platform) Ban(ctx context.Context, community, user, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("ban", community, user); err != nil {
		return err
	}
	delete(p.roles, [2]string{community, user})
	p.calls = append(p.calls, Call{Op: "ban", Community: community, User: user, Arg: reason})
	return nil
}

func (p *Platform) Unban(ctx context.Context, community, user string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("unban"); err != nil {
		return err
	}
	p.calls = append(p.calls, Call{Op: "unban", Community: community, User: user})
	return nil
}

func (p *Platform) Timeout(ctx context.Context, community, user string, until time.Time, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("timeout", community, user); err != nil {
		return err
	}
	p.calls = append(p.calls, Call{Op: "timeout", Community: community, User: user, Arg: reason, Until: until})
	return nil
}

func (p *Platform) AddRole(ctx context.Context, community, user, role string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("addrole", community, user); err != nil {
		return err
	}
	k := [2]string{community, user}
	p.roles[k] = append(p.roles[k], role)
	p.calls = append(p.calls, Call{Op: "addrole", Community: community, User: user, Arg: role})
	return nil
}

func (p *Platform) RemoveRole(ctx context.Context, community, user, role string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.member("removerole", community, user); err != nil {
		return err
	}
	k := [2]string{community, user}
	p.roles[k] = slices.DeleteFunc(p.roles[k], func(r string) bool { return strings.EqualFold(r, role) })
	p.calls = append(p.calls, Call{Op: "removerole", Community: community, User: user, Arg: role})
	return nil
}

func (p *Platform) Send(ctx context.Context, msg message.Sent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failure("send"); err != nil {
		return err
	}
	p.sent = append(p.sent, msg)
	return nil
}

var _ platform.Platform = (*Platform)(nil)
