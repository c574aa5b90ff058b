package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
)

func testRobot(t *testing.T) *Robot {
	t.Helper()
	cfg, _, err := Load(context.Background(), strings.NewReader("[owner]\nid = '1'\nname = 'bocchi'\n[discord]\nhome = '100'\n"))
	if err != nil {
		t.Fatal(err)
	}
	robo, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return robo
}

func TestAPIAlive(t *testing.T) {
	robo := testRobot(t)
	mux := http.NewServeMux()
	robo.routes(mux, robo.core.Metrics.Collectors())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "Bot is alive!" {
		t.Errorf("wrong liveness response: %d %q", resp.StatusCode, b)
	}

	resp, err = http.Get(srv.URL + "/nothing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("wrong status for missing route: %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(b), "warden_discord_messages") {
		t.Errorf("metrics missing message count:\n%s", b)
	}
}

func TestAPIStatus(t *testing.T) {
	robo := testRobot(t)
	robo.core.Access.GrantChannel("1", "300")
	robo.core.Session.SaveRecord("hi")
	robo.core.Session.ToggleRepeat("200")
	robo.core.Session.StartSleep("5", time.Now())
	mux := http.NewServeMux()
	robo.routes(mux, robo.core.Metrics.Collectors())

	r := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("wrong status: %d", w.Code)
	}
	var got apiStatus
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("couldn't decode status: %v", err)
	}
	got.Uptime = ""
	want := apiStatus{
		Owner:       "bocchi",
		Ranks:       DefaultHierarchy,
		Communities: []string{"100"},
		Channels:    []string{"300"},
		Recorded:    true,
		Repeat:      "200",
		Sleepers:    1,
		Status:      http.StatusOK,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong status (+got/-want):\n%s", diff)
	}
}

func TestListenAddr(t *testing.T) {
	cases := map[string]string{
		"":           ":8080",
		":":          ":8080",
		":4959":      ":4959",
		"[::1]:8000": "[::1]:8000",
	}
	for in, want := range cases {
		if got := listenAddr(in); got != want {
			t.Errorf("listenAddr(%q): want %q, got %q", in, want, got)
		}
	}
}
