package player

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mmcdole/gamedeck/internal/domain"
)

type invocation struct {
	name string
	args []string
}

// fakeExec records started commands; commands listed in missing are not in PATH
// and commands listed in failing fail to start.
type fakeExec struct {
	started []invocation
	missing map[string]bool
	failing map[string]bool
}

func (f *fakeExec) install(l *Launcher, goos string) {
	l.goos = goos
	l.lookPath = func(name string) (string, error) {
		if f.missing[name] {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	l.start = func(name string, args ...string) error {
		f.started = append(f.started, invocation{name: name, args: args})
		if f.failing[name] {
			return errors.New("exit status 1")
		}
		return nil
	}
}

const gameURL = "https://games.test/play/5"

func TestLaunchSystemDefault(t *testing.T) {
	tests := []struct {
		goos string
		want invocation
	}{
		{"linux", invocation{"xdg-open", []string{gameURL}}},
		{"darwin", invocation{"open", []string{gameURL}}},
		{"windows", invocation{"cmd", []string{"/c", "start", "", gameURL}}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			f := &fakeExec{}
			l := NewLauncher("", nil, nil)
			f.install(l, tt.goos)

			if err := l.Launch(gameURL); err != nil {
				t.Fatalf("launch: %v", err)
			}
			if len(f.started) != 1 || !reflect.DeepEqual(f.started[0], tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, f.started)
			}
		})
	}
}

func TestLaunchConfiguredCommand(t *testing.T) {
	f := &fakeExec{}
	l := NewLauncher("firefox", []string{"--kiosk"}, nil)
	f.install(l, "linux")

	if err := l.Launch(gameURL); err != nil {
		t.Fatalf("launch: %v", err)
	}
	want := invocation{"firefox", []string{"--kiosk", gameURL}}
	if !reflect.DeepEqual(f.started, []invocation{want}) {
		t.Fatalf("expected %+v, got %+v", want, f.started)
	}
}

func TestLaunchConfiguredMacAppUsesOpen(t *testing.T) {
	f := &fakeExec{missing: map[string]bool{"Arc": true}}
	l := NewLauncher("Arc", []string{"--incognito"}, nil)
	f.install(l, "darwin")

	if err := l.Launch(gameURL); err != nil {
		t.Fatalf("launch: %v", err)
	}
	want := invocation{"open", []string{"-a", "Arc", "--args", "--incognito", gameURL}}
	if !reflect.DeepEqual(f.started, []invocation{want}) {
		t.Fatalf("expected %+v, got %+v", want, f.started)
	}
}

func TestLaunchFallsBackToCandidates(t *testing.T) {
	f := &fakeExec{
		missing: map[string]bool{"xdg-open": true, "firefox": true},
	}
	l := NewLauncher("", nil, nil)
	f.install(l, "linux")

	if err := l.Launch(gameURL); err != nil {
		t.Fatalf("launch: %v", err)
	}
	want := invocation{"chromium", []string{"--new-window", gameURL}}
	if !reflect.DeepEqual(f.started, []invocation{want}) {
		t.Fatalf("expected %+v, got %+v", want, f.started)
	}
}

func TestLaunchFailsWithoutBrowser(t *testing.T) {
	f := &fakeExec{failing: map[string]bool{
		"xdg-open": true, "firefox": true, "chromium": true, "google-chrome": true, "sensible-browser": true,
	}}
	l := NewLauncher("", nil, nil)
	f.install(l, "linux")

	if err := l.Launch(gameURL); err == nil {
		t.Fatalf("expected error when nothing can open the url")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"https://games.test/x", false},
		{" http://games.test/x?y=1 ", false},
		{"", true},
		{"javascript:alert(1)", true},
		{"file:///etc/passwd", true},
		{"/relative/path", true},
		{"https://", true},
	}
	for _, tt := range tests {
		_, err := ValidateURL(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ValidateURL(%q): unexpected error state %v", tt.raw, err)
		}
	}

	if _, err := ValidateURL("  "); !errors.Is(err, domain.ErrNoEmbedURL) {
		t.Fatalf("expected ErrNoEmbedURL, got %v", err)
	}
}

type fakeGames map[domain.ItemID]*domain.Item

func (g fakeGames) GetGame(ctx context.Context, id domain.ItemID) (*domain.Item, error) {
	if game, ok := g[id]; ok {
		return game, nil
	}
	return nil, domain.ErrGameNotFound
}

func TestPlay(t *testing.T) {
	games := fakeGames{
		"5": {ID: "5", Title: "Tetro", Extra: map[string]json.RawMessage{"embed": json.RawMessage(`"` + gameURL + `"`)}},
		"6": {ID: "6", Title: "No embed"},
	}

	f := &fakeExec{}
	l := NewLauncher("", nil, nil)
	f.install(l, "linux")
	ctx := context.Background()

	game, err := l.Play(ctx, games, "5")
	if err != nil || game.Title != "Tetro" {
		t.Fatalf("expected to play Tetro, got %+v, %v", game, err)
	}
	if len(f.started) != 1 || f.started[0].args[0] != gameURL {
		t.Fatalf("expected embed url to be opened, got %+v", f.started)
	}

	if _, err := l.Play(ctx, games, "6"); !errors.Is(err, domain.ErrNoEmbedURL) {
		t.Fatalf("expected ErrNoEmbedURL, got %v", err)
	}
	if _, err := l.Play(ctx, games, "7"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if len(f.started) != 1 {
		t.Fatalf("expected no further launches, got %+v", f.started)
	}
}
