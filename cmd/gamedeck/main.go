package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gamedeck/internal/catalog"
	"github.com/mmcdole/gamedeck/internal/config"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/favorites"
	"github.com/mmcdole/gamedeck/internal/listing"
	"github.com/mmcdole/gamedeck/internal/log"
	"github.com/mmcdole/gamedeck/internal/player"
	"github.com/mmcdole/gamedeck/internal/store"
	"github.com/mmcdole/gamedeck/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// Handle version flag
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("gamedeck %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: gamedeck [flags] [command]

Commands:
  (none)               browse the catalog
  favorites [-yaml] [-q query] [-clear]
                       print or clear saved favorites
  play <game-id>       open a game in the browser
  cache clear          drop cached categories

Flags:
`)
	flag.PrintDefaults()
}

// app holds the wired services shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *store.DB
	client   *catalog.Client
	favs     *favorites.Store
	launcher *player.Launcher
}

func setup() (*app, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting gamedeck", "version", Version)

	// First run: persist a client id so the API sees a stable install
	if cfg.EnsureClientID() {
		if err := config.SaveConfig(cfg); err != nil {
			logger.Warn("failed to save client id", "error", err)
		}
	}

	db, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	client := catalog.NewClient(catalog.Config{
		BaseURL:   cfg.API.URL,
		Source:    cfg.API.Source,
		ClientID:  cfg.API.ClientID,
		UserAgent: "gamedeck/" + Version,
		Timeout:   cfg.HTTP.Timeout,
		Retries:   cfg.HTTP.Retries,
	}, db.CategoryCache(cfg.API.URL, cfg.API.Source), logger)

	favs := favorites.New(db.Namespace(store.BucketFavorites), logger)
	favs.Initialize()

	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		client:   client,
		favs:     favs,
		launcher: launcher,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}

func run(args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		return runTUI(a)
	}

	switch args[0] {
	case "favorites":
		return runFavorites(a, args[1:], os.Stdout)
	case "play":
		return runPlay(a, args[1:])
	case "cache":
		return runCache(a, args[1:], os.Stdout)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runTUI(a *app) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("gamedeck needs an interactive terminal (try `gamedeck favorites`)")
	}

	stores := map[tui.ViewID]*listing.Store{
		tui.ViewHome:     listing.New(a.client, a.logger.With("list", "home")),
		tui.ViewCategory: listing.New(a.client, a.logger.With("list", "category")),
		tui.ViewSearch:   listing.New(a.client, a.logger.With("list", "search")),
	}

	model := tui.NewModel(tui.Deps{
		Client:    a.client,
		Home:      stores[tui.ViewHome],
		Category:  stores[tui.ViewCategory],
		Search:    stores[tui.ViewSearch],
		Favorites: a.favs,
		Player:    a.launcher,
		SubscribeList: func(view tui.ViewID, fn func(listing.State)) func() {
			return stores[view].Subscribe(fn)
		},
		SubscribeFavorites: a.favs.Subscribe,
		SearchConfig:       a.cfg.Search,
		DefaultTab:         a.cfg.UI.DefaultTab,
		ShowCategoryBadge:  a.cfg.UI.ShowCategoryBadge,
		Logger:             a.logger,
	})
	defer model.Close()

	// Run the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	a.logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}

func runPlay(a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gamedeck play <game-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	game, err := a.launcher.Play(ctx, a.client, domain.ItemID(args[0]))
	if err != nil {
		return fmt.Errorf("failed to play game %s: %w", args[0], err)
	}
	fmt.Printf("Opened %s\n", game.Title)
	return nil
}

func runCache(a *app, args []string, w io.Writer) error {
	if len(args) != 1 || args[0] != "clear" {
		return fmt.Errorf("usage: gamedeck cache clear")
	}
	if err := a.db.InvalidateCaches(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	a.logger.Info("cache cleared")
	_, err := fmt.Fprintln(w, "Cache cleared.")
	return err
}
