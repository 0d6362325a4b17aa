// Package config loads runtime configuration from defaults, an optional .env
// file, the process environment and an optional YAML deck catalog.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultDeck         = "deck"
	defaultDeckName     = "Flashcards"
	defaultMarkdownPath = "static/md"
	defaultImagePath    = "static/img"
	defaultEnvironment  = "local"
	defaultLogLevel     = "info"
	defaultSessionTTL   = 24 * time.Hour
	defaultTaxonomyTTL  = 5 * time.Minute

	// SessionStoreMemory keeps sessions in process memory.
	SessionStoreMemory = "memory"
	// SessionStoreRedis keeps sessions in redis.
	SessionStoreRedis = "redis"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Deck    DeckConfig
	Session SessionConfig
	Log     LogConfig
	// Environment is "local", "staging" or "production". Anything other than
	// local enables secure cookies.
	Environment string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address for the configured port.
func (c ServerConfig) Address() string {
	return ":" + c.Port
}

// DeckConfig selects the deck and where its content lives.
type DeckConfig struct {
	ID           string
	DisplayName  string
	DatabasePath string
	MarkdownPath string
	ImagePath    string
	CatalogFile  string
	TaxonomyTTL  time.Duration
}

// SessionConfig controls the practice session store.
type SessionConfig struct {
	Store      string
	RedisURL   string
	TTL        time.Duration
	SigningKey string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.Environment != defaultEnvironment
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// DatabasePathFor returns the default database file for a deck id.
func DatabasePathFor(deck string) string {
	return "./" + deck + ".db"
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	deck         string
	deckName     string
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithDeck overrides the deck id, as the --deck flag does.
func WithDeck(id string) Option {
	return func(o *loaderOptions) {
		o.deck = strings.TrimSpace(id)
	}
}

// WithDeckName overrides the deck display name, as the --deck-name flag does.
func WithDeckName(name string) Option {
	return func(o *loaderOptions) {
		o.deckName = strings.TrimSpace(name)
	}
}

// Load assembles the application configuration. Precedence, lowest first:
// defaults, deck catalog, .env, OS environment, explicit env map, options.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	port := stringWithDefault(lookup, "FLASHCARDS_PORT", "")
	if port == "" {
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "FLASHCARDS_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "FLASHCARDS_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "FLASHCARDS_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Deck: DeckConfig{
			ID:          stringWithDefault(lookup, "FLASHCARDS_DECK", defaultDeck),
			CatalogFile: stringWithDefault(lookup, "FLASHCARDS_DECKS_FILE", ""),
			TaxonomyTTL: durationWithDefault(lookup, "FLASHCARDS_TAXONOMY_TTL", defaultTaxonomyTTL),
		},
		Session: SessionConfig{
			Store:      strings.ToLower(stringWithDefault(lookup, "FLASHCARDS_SESSION_STORE", SessionStoreMemory)),
			RedisURL:   stringWithDefault(lookup, "FLASHCARDS_REDIS_URL", ""),
			TTL:        durationWithDefault(lookup, "FLASHCARDS_SESSION_TTL", defaultSessionTTL),
			SigningKey: stringWithDefault(lookup, "FLASHCARDS_SESSION_SIGNING_KEY", ""),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "FLASHCARDS_ENV", defaultEnvironment)),
	}
	if options.deck != "" {
		cfg.Deck.ID = options.deck
	}

	var entry DeckEntry
	if cfg.Deck.CatalogFile != "" {
		catalog, err := LoadCatalog(cfg.Deck.CatalogFile)
		if err != nil {
			return Config{}, err
		}
		entry = catalog.Decks[cfg.Deck.ID]
	}

	cfg.Deck.DisplayName = firstNonEmpty(options.deckName, lookupValue(lookup, "FLASHCARDS_DECK_NAME"), entry.Name, defaultDeckName)
	cfg.Deck.DatabasePath = firstNonEmpty(lookupValue(lookup, "FLASHCARDS_DATABASE_PATH"), entry.Database, DatabasePathFor(cfg.Deck.ID))
	cfg.Deck.MarkdownPath = firstNonEmpty(lookupValue(lookup, "FLASHCARDS_MD_PATH"), entry.Markdown, defaultMarkdownPath)
	cfg.Deck.ImagePath = firstNonEmpty(lookupValue(lookup, "FLASHCARDS_IMG_PATH"), entry.Images, defaultImagePath)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Catalog maps deck ids to their content locations.
type Catalog struct {
	Decks map[string]DeckEntry `yaml:"decks"`
}

// DeckEntry describes one deck in the catalog. Empty fields fall back to the
// environment and then to defaults.
type DeckEntry struct {
	Name     string `yaml:"name"`
	Database string `yaml:"database"`
	Markdown string `yaml:"markdown"`
	Images   string `yaml:"images"`
}

// LoadCatalog reads a YAML deck catalog.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("config: read deck catalog %s: %w", path, err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("config: parse deck catalog %s: %w", path, err)
	}
	return catalog, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Deck.ID == "" || strings.ContainsAny(cfg.Deck.ID, `/\`) {
		missing = append(missing, "Deck.ID")
	}
	switch cfg.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.Session.RedisURL == "" {
			missing = append(missing, "Session.RedisURL")
		}
	default:
		missing = append(missing, "Session.Store")
	}
	if cfg.Session.TTL <= 0 {
		missing = append(missing, "Session.TTL")
	}
	if cfg.SecureCookies() && cfg.Session.SigningKey == "" {
		missing = append(missing, "Session.SigningKey")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func lookupValue(lookup func(string) (string, bool), key string) string {
	value, _ := lookup(key)
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
