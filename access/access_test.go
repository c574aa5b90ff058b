package access_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/zephyrtronium/warden/access"
)

const owner = "620819429139415040"

func TestNewHome(t *testing.T) {
	r := access.New(owner, "1116737021470314597", "")
	if got := r.Communities(); !slices.Equal(got, []string{"1116737021470314597"}) {
		t.Errorf("wrong seeded communities: %v", got)
	}
	if got := access.New(owner).Communities(); len(got) != 0 {
		t.Errorf("unseeded registry has communities: %v", got)
	}
}

func TestUsable(t *testing.T) {
	r := access.New(owner, "home")
	cases := []struct {
		name      string
		actor     string
		community string
		want      bool
	}{
		{"home", "bocchi", "home", true},
		{"elsewhere", "bocchi", "away", false},
		// The super-user bypasses the allow-list entirely.
		{"owner-home", owner, "home", true},
		{"owner-elsewhere", owner, "away", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := r.Usable(c.actor, c.community); got != c.want {
				t.Errorf("wrong usability: want %t, got %t", c.want, got)
			}
		})
	}
}

func TestEmptyOwner(t *testing.T) {
	r := access.New("")
	if r.IsOwner("") {
		t.Errorf("empty actor matched empty owner")
	}
	if _, err := r.GrantCommunity("", "x"); !errors.Is(err, access.ErrNotOwner) {
		t.Errorf("wrong error granting with no owner: %v", err)
	}
}

func TestGrantCommunity(t *testing.T) {
	r := access.New(owner)
	if _, err := r.GrantCommunity("bocchi", "away"); !errors.Is(err, access.ErrNotOwner) {
		t.Errorf("non-owner grant: want ErrNotOwner, got %v", err)
	}
	if r.Usable("bocchi", "away") {
		t.Errorf("community usable after rejected grant")
	}
	res, err := r.GrantCommunity(owner, "away")
	if err != nil || res != access.Granted {
		t.Errorf("first grant: want granted, got %v %v", res, err)
	}
	res, err = r.GrantCommunity(owner, "away")
	if err != nil || res != access.AlreadyGranted {
		t.Errorf("second grant: want already granted, got %v %v", res, err)
	}
	if got := r.Communities(); len(got) != 1 {
		t.Errorf("idempotent grant changed size: %v", got)
	}
	if !r.Usable("bocchi", "away") {
		t.Errorf("community not usable after grant")
	}
}

func TestGrantChannel(t *testing.T) {
	r := access.New(owner)
	if r.ChannelAllowed("bocchi", "sleepy") {
		t.Errorf("channel allowed before grant")
	}
	if !r.ChannelAllowed(owner, "sleepy") {
		t.Errorf("owner not allowed in channel")
	}
	if _, err := r.GrantChannel("bocchi", "sleepy"); !errors.Is(err, access.ErrNotOwner) {
		t.Errorf("non-owner grant: want ErrNotOwner, got %v", err)
	}
	res, err := r.GrantChannel(owner, "sleepy")
	if err != nil || res != access.Granted {
		t.Errorf("grant: want granted, got %v %v", res, err)
	}
	res, _ = r.GrantChannel(owner, "sleepy")
	if res != access.AlreadyGranted {
		t.Errorf("regrant: want already granted, got %v", res)
	}
	if !r.ChannelAllowed("bocchi", "sleepy") {
		t.Errorf("channel not allowed after grant")
	}
	if r.Usable("bocchi", "sleepy") {
		t.Errorf("channel grant leaked into communities")
	}
}

func TestRevoke(t *testing.T) {
	r := access.New(owner, "home")
	if _, err := r.RevokeCommunity("bocchi", "home"); !errors.Is(err, access.ErrNotOwner) {
		t.Errorf("non-owner revoke: want ErrNotOwner, got %v", err)
	}
	res, err := r.RevokeCommunity(owner, "home")
	if err != nil || res != access.Revoked {
		t.Errorf("revoke: want revoked, got %v %v", res, err)
	}
	res, _ = r.RevokeCommunity(owner, "home")
	if res != access.NotGranted {
		t.Errorf("re-revoke: want not granted, got %v", res)
	}
	if r.Usable("bocchi", "home") {
		t.Errorf("community usable after revoke")
	}
	r.GrantChannel(owner, "sleepy")
	res, _ = r.RevokeChannel(owner, "sleepy")
	if res != access.Revoked {
		t.Errorf("channel revoke: want revoked, got %v", res)
	}
}

func TestGrantConcurrent(t *testing.T) {
	r := access.New(owner)
	const goroutines = 32
	results := make([]access.Result, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			results[i], _ = r.GrantCommunity(owner, "away")
		}()
	}
	wg.Wait()
	n := 0
	for _, res := range results {
		if res == access.Granted {
			n++
		}
	}
	if n != 1 {
		t.Errorf("want exactly one grant, got %d", n)
	}
}
