package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmcdole/gamedeck/internal/domain"
)

// Launcher opens game embed URLs in an external browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments for the browser
	goos    string
	logger  *slog.Logger

	// exec hooks, replaced in tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// launchPath defines a single way to open a URL
type launchPath struct {
	path string   // command name, or "open-a:AppName" on macOS
	args []string // arguments placed before the URL
}

// candidateBrowsers are tried in order when the system default opener fails
var candidateBrowsers = map[string][]launchPath{
	"darwin": {
		{path: "open-a:Safari"},
		{path: "open-a:Google Chrome"},
		{path: "open-a:Firefox"},
	},
	"linux": {
		{path: "firefox", args: []string{"--new-window"}},
		{path: "chromium", args: []string{"--new-window"}},
		{path: "google-chrome", args: []string{"--new-window"}},
		{path: "sensible-browser"},
	},
	"windows": {
		{path: "msedge"},
		{path: "chrome"},
		{path: "firefox"},
	},
}

// NewLauncher creates a Launcher. An empty command uses the system default.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		goos:     runtime.GOOS,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// ValidateURL accepts absolute http(s) URLs only, so nothing else is handed
// to a shell opener
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrNoEmbedURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid game url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("unsupported game url %q", raw)
	}
	return u.String(), nil
}

// Launch opens url in the configured browser or the system default
func (l *Launcher) Launch(rawURL string) error {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return err
	}

	// Tier 1: user configured a specific browser
	if l.command != "" {
		name, args := l.configuredCommand(target)
		l.logger.Info("launching configured browser", "command", name, "args", args)
		return l.start(name, args...)
	}

	// Tier 2: system default handler (open/xdg-open/start)
	name, args := defaultCommand(l.goos, target)
	if _, err := l.lookPath(name); err == nil {
		l.logger.Info("launching with system default", "os", l.goos, "url", target)
		if err := l.start(name, args...); err == nil {
			return nil
		}
	}

	// Tier 3: candidate browsers
	if err := l.launchCandidate(target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

// configuredCommand builds the invocation for the configured browser.
// On macOS a command that is not in PATH is treated as an app name.
func (l *Launcher) configuredCommand(target string) (string, []string) {
	args := append([]string{}, l.args...)

	if l.goos == "darwin" {
		if _, err := l.lookPath(l.command); err != nil {
			cmdArgs := []string{"-a", l.command}
			if len(args) > 0 {
				cmdArgs = append(cmdArgs, "--args")
				cmdArgs = append(cmdArgs, args...)
			}
			return "open", append(cmdArgs, target)
		}
	}

	return l.command, append(args, target)
}

// defaultCommand returns the system opener invocation for goos
func defaultCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "cmd", []string{"/c", "start", "", target}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{target}
	}
}

func (l *Launcher) launchCandidate(target string) error {
	candidates, ok := candidateBrowsers[l.goos]
	if !ok {
		candidates = candidateBrowsers["linux"]
	}

	for _, lp := range candidates {
		var err error
		if strings.HasPrefix(lp.path, "open-a:") {
			app := strings.TrimPrefix(lp.path, "open-a:")
			err = l.start("open", "-a", app, target)
		} else if _, err = l.lookPath(lp.path); err == nil {
			err = l.start(lp.path, append(append([]string{}, lp.args...), target)...)
		}

		if err == nil {
			l.logger.Info("launched with detected browser", "browser", filepath.Base(lp.path))
			return nil
		}
		l.logger.Debug("browser not available", "path", lp.path, "error", err)
	}
	return errors.New("no browser found")
}

// GameSource resolves a game's detail record
type GameSource interface {
	GetGame(ctx context.Context, id domain.ItemID) (*domain.Item, error)
}

// Play fetches the game record and opens its embed URL.
// Returns the resolved record.
func (l *Launcher) Play(ctx context.Context, games GameSource, id domain.ItemID) (*domain.Item, error) {
	game, err := games.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.EmbedURL() == "" {
		return game, fmt.Errorf("game %s: %w", id, domain.ErrNoEmbedURL)
	}
	if err := l.Launch(game.EmbedURL()); err != nil {
		return game, err
	}
	return game, nil
}
