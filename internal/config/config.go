package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Tab names accepted by ui.default_tab
const (
	TabHome       = "home"
	TabCategories = "categories"
	TabSearch     = "search"
	TabFavorites  = "favorites"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Player  PlayerConfig  `mapstructure:"player"`
	Search  SearchConfig  `mapstructure:"search"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the catalog API location
type APIConfig struct {
	URL      string `mapstructure:"url"`       // API base, e.g. https://host/mobile_game/public/api
	Source   string `mapstructure:"source"`    // Catalog source slug, e.g. "html5games"
	ClientID string `mapstructure:"client_id"` // Per-install id sent as X-Client-ID
}

// HTTPConfig holds transport settings for the catalog client
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"` // Retries on 5xx responses
}

// StorageConfig holds the local database location
type StorageConfig struct {
	Path string `mapstructure:"path"` // bbolt file; empty keeps everything in memory
}

// PlayerConfig holds the command used to open game URLs
type PlayerConfig struct {
	Command string   `mapstructure:"command"` // empty for the system default browser
	Args    []string `mapstructure:"args"`
}

// SearchConfig holds search box behavior
type SearchConfig struct {
	MinQueryLength int           `mapstructure:"min_query_length"`
	Debounce       time.Duration `mapstructure:"debounce"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultTab        string `mapstructure:"default_tab"`
	ShowCategoryBadge bool   `mapstructure:"show_category_badge"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:    "https://erenceylan.com/mobile_game/public/api",
			Source: "html5games",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Retries: 3,
		},
		Storage: StorageConfig{
			Path: filepath.Join(defaultDataPath(), "gamedeck.db"),
		},
		Player: PlayerConfig{
			Args: []string{},
		},
		Search: SearchConfig{
			MinQueryLength: 3,
			Debounce:       500 * time.Millisecond,
		},
		UI: UIConfig{
			DefaultTab:        TabHome,
			ShowCategoryBadge: true,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "gamedeck.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the per-user data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "gamedeck")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "gamedeck")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "gamedeck")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gamedeck")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return load(viper.GetViper(), defaultConfigPath(), ".")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides (GAMEDECK_API_URL, GAMEDECK_STORAGE_PATH, ...)
	v.SetEnvPrefix("GAMEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// bindEnvKeys registers nested keys so AutomaticEnv can see them during Unmarshal
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"api.url", "api.source", "api.client_id",
		"http.timeout", "http.retries",
		"storage.path",
		"player.command",
		"search.min_query_length", "search.debounce",
		"ui.default_tab", "ui.show_category_badge",
		"logging.file", "logging.level",
	} {
		_ = v.BindEnv(key)
	}
}

// normalize repairs values a hand-edited file may leave invalid
func (c *Config) normalize() {
	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")
	c.API.Source = strings.Trim(strings.TrimSpace(c.API.Source), "/")
	c.Storage.Path = expandHome(c.Storage.Path)
	c.Logging.File = expandHome(c.Logging.File)

	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.HTTP.Retries < 0 {
		c.HTTP.Retries = 0
	}
	if c.Search.MinQueryLength < 1 {
		c.Search.MinQueryLength = 1
	}
	if c.Search.Debounce < 0 {
		c.Search.Debounce = 0
	}

	switch strings.ToLower(c.UI.DefaultTab) {
	case TabHome, TabCategories, TabSearch, TabFavorites:
		c.UI.DefaultTab = strings.ToLower(c.UI.DefaultTab)
	default:
		c.UI.DefaultTab = TabHome
	}
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// EnsureClientID generates the per-install client id on first run.
// Returns true when a new id was generated and the config should be saved.
func (c *Config) EnsureClientID() bool {
	if c.API.ClientID != "" {
		return false
	}
	c.API.ClientID = uuid.NewString()
	return true
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return save(viper.GetViper(), defaultConfigPath(), cfg)
}

func save(v *viper.Viper, configPath string, cfg *Config) error {
	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("api.url", cfg.API.URL)
	v.Set("api.source", cfg.API.Source)
	v.Set("api.client_id", cfg.API.ClientID)

	v.Set("http.timeout", cfg.HTTP.Timeout.String())
	v.Set("http.retries", cfg.HTTP.Retries)

	v.Set("storage.path", cfg.Storage.Path)

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)

	v.Set("search.min_query_length", cfg.Search.MinQueryLength)
	v.Set("search.debounce", cfg.Search.Debounce.String())

	v.Set("ui.default_tab", cfg.UI.DefaultTab)
	v.Set("ui.show_category_badge", cfg.UI.ShowCategoryBadge)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the API location is set
func (c *Config) IsConfigured() bool {
	return c.API.URL != "" && c.API.Source != ""
}
