// Package session holds the process-wide state mutated by commands: the saved
// record, its repeat target, and open sleep sessions.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zephyrtronium/warden/syncmap"
)

// Store is the session state. The zero value is not ready for use; create
// one with [New]. A Store is safe for concurrent use.
type Store struct {
	// mu guards record and repeat together so that toggling and clearing
	// never interleave.
	mu sync.Mutex
	// record is the last saved record.
	record string
	// repeat is the channel the record is repeated into.
	// It is non-empty exactly when repeat mode is on.
	repeat string

	// sleep maps user IDs to the start of their sleep sessions.
	sleep *syncmap.Map[string, time.Time]
}

// New creates an empty session store with repeat mode off.
func New() *Store {
	return &Store{sleep: syncmap.New[string, time.Time]()}
}

// SaveRecord replaces the saved record and returns the discarded one.
func (s *Store) SaveRecord(text string) (prev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, s.record = s.record, text
	return prev
}

// Record returns the saved record.
func (s *Store) Record() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// ToggleRepeat flips repeat mode and returns whether it is now on.
// Turning it on captures channel as the repeat target. An empty channel
// can only turn it off.
func (s *Store) ToggleRepeat(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repeat != "" || channel == "" {
		s.repeat = ""
		return false
	}
	s.repeat = channel
	return true
}

// StopRepeat turns repeat mode off. It is a no-op if already off.
func (s *Store) StopRepeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = ""
}

// Repeating returns the repeat channel, if repeat mode is on.
func (s *Store) Repeating() (channel string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat, s.repeat != ""
}

// ClearRecord empties the saved record and turns repeat mode off.
func (s *Store) ClearRecord() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = ""
	s.repeat = ""
}

// StartSleep opens a sleep session for user, replacing any open one.
func (s *Store) StartSleep(user string, now time.Time) {
	s.sleep.Store(user, now)
}

// Sleeping returns the start of the user's open sleep session, if any.
func (s *Store) Sleeping(user string) (time.Time, bool) {
	return s.sleep.Load(user)
}

// Sleepers returns the number of open sleep sessions.
func (s *Store) Sleepers() int {
	return s.sleep.Len()
}

// ActionKind is the kind of response to an inbound message.
type ActionKind int

const (
	// Repeat means the record should be broadcast to Channel.
	Repeat ActionKind = iota
	// Wake means User's sleep session ended after Elapsed.
	Wake
)

func (k ActionKind) String() string {
	switch k {
	case Repeat:
		return "repeat"
	case Wake:
		return "wake"
	default:
		return "ActionKind(?)"
	}
}

// Action is a response the host should perform for an inbound message.
type Action struct {
	Kind ActionKind
	// Channel is the channel to respond in.
	Channel string
	// Text is the record to broadcast for Repeat actions.
	Text string
	// User is the user who woke up for Wake actions.
	User string
	// Elapsed is the sleep duration for Wake actions.
	Elapsed time.Duration
}

// OnMessage processes an inbound message from a non-bot author and returns the
// responses it triggers. A waking user's sleep session is closed as part of
// producing its Wake action, so each session wakes at most once.
func (s *Store) OnMessage(author, channel string, now time.Time) []Action {
	var r []Action
	s.mu.Lock()
	if s.repeat != "" && s.repeat == channel && s.record != "" {
		r = append(r, Action{Kind: Repeat, Channel: channel, Text: s.record})
	}
	s.mu.Unlock()
	if start, ok := s.sleep.LoadAndDelete(author); ok {
		r = append(r, Action{Kind: Wake, Channel: channel, User: author, Elapsed: now.Sub(start)})
	}
	return r
}

// FormatElapsed renders a duration as whole hours and minutes, omitting hours
// when zero. If seconds is true, whole seconds are included as well.
// Negative durations format as zero.
func FormatElapsed(d time.Duration, seconds bool) string {
	d = max(d, 0)
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	sec := int64(d % time.Minute / time.Second)
	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	parts = append(parts, plural(m, "minute"))
	if seconds {
		parts = append(parts, plural(sec, "second"))
	}
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
