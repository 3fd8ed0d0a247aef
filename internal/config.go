package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Vault       VaultConfig       `yaml:"vault"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
	Lookup      LookupConfig      `yaml:"lookup"`
	TMDB        TMDBConfig        `yaml:"tmdb"`
	GoogleBooks GoogleBooksConfig `yaml:"google_books"`
	OMDB        OMDBConfig        `yaml:"omdb"`
	Translator  TranslatorConfig  `yaml:"translator"`
	HTTPClient  HTTPClientConfig  `yaml:"http_client"`
	Import      ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Vault, &c.SQLite, &c.Auth, &c.Lookup, &c.TMDB,
		&c.GoogleBooks, &c.OMDB, &c.Translator, &c.HTTPClient, &c.Import,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides secrets and the vault path from well-known environment
// variables. Values already expanded from ${VAR} in the file are kept when
// the variable is unset.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.TMDB.APIKey, "TMDB_API_KEY")
	set(&c.GoogleBooks.APIKey, "GOOGLE_BOOKS_API_KEY")
	set(&c.OMDB.APIKey, "OMDB_API_KEY")
	set(&c.Translator.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.Vault.Path, "SHELFMARK_VAULT_PATH")
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"` // json or text; empty picks per command
	LogFile   string     `yaml:"log_file"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes the Markdown vault notes are written into.
type VaultConfig struct {
	Path string    `yaml:"path"`
	Dirs VaultDirs `yaml:"dirs"`
	// Footer links closing each note, written as [[wikilinks]].
	BookFooter   []string `yaml:"book_footer"`
	ScreenFooter []string `yaml:"screen_footer"`
}

// VaultDirs are vault-relative directories per kind. They must exist.
type VaultDirs struct {
	Books  string `yaml:"books"`
	Movies string `yaml:"movies"`
	Series string `yaml:"series"`
}

// Validate validates the vault configuration.
func (c VaultConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	return nil
}

// KindDirs maps each kind to its directory.
func (c *VaultConfig) KindDirs() map[metadata.Kind]string {
	return map[metadata.Kind]string{
		metadata.KindBook:   c.Dirs.Books,
		metadata.KindMovie:  c.Dirs.Movies,
		metadata.KindSeries: c.Dirs.Series,
	}
}

// RenderOptions returns the footers as render options. Nil footers fall
// back to the defaults; an explicit empty list disables the footer.
func (c *VaultConfig) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	if c.BookFooter != nil {
		opts.BookFooter = c.BookFooter
	}
	if c.ScreenFooter != nil {
		opts.ScreenFooter = c.ScreenFooter
	}
	return opts
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c SQLiteConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// LookupConfig holds lookup defaults.
type LookupConfig struct {
	// ScreenBackend serves movies and series unless a request names another.
	ScreenBackend string `yaml:"screen_backend"`
}

// Validate validates the lookup configuration.
func (c LookupConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.ScreenBackend, validation.Required, validation.In("tmdb", "omdb")),
	); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	return nil
}

// TMDBConfig holds The Movie Database settings.
type TMDBConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	ImageBaseURL string        `yaml:"image_base_url"`
	Language     string        `yaml:"language"`
	MinInterval  time.Duration `yaml:"min_interval"`
}

// Validate validates the TMDb configuration. The key is checked when the
// client is built, so that book lookups work without one.
func (c TMDBConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.MinInterval, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("tmdb: %w", err)
	}
	return nil
}

// GoogleBooksConfig holds Google Books settings. The API key is optional.
type GoogleBooksConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// Validate validates the Google Books configuration.
func (c GoogleBooksConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.MinInterval, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("google_books: %w", err)
	}
	return nil
}

// OMDBConfig holds OMDb settings.
type OMDBConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MinInterval time.Duration `yaml:"min_interval"`
}

// Validate validates the OMDb configuration.
func (c OMDBConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.MinInterval, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("omdb: %w", err)
	}
	return nil
}

// TranslatorConfig selects the translation backend.
type TranslatorConfig struct {
	Backend string       `yaml:"backend"` // google, openai or none
	BaseURL string       `yaml:"base_url"`
	OpenAI  OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds the chat completion settings of the openai backend.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Validate validates the translator configuration.
func (c TranslatorConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.In("google", "openai", "none")),
	); err != nil {
		return fmt.Errorf("translator: %w", err)
	}
	return nil
}

// HTTPClientConfig holds outbound HTTP settings shared by all backends.
type HTTPClientConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the HTTP client configuration.
func (c HTTPClientConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	); err != nil {
		return fmt.Errorf("http_client: %w", err)
	}
	return nil
}

// ImportConfig holds batch import settings.
type ImportConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Validate validates the import configuration.
func (c ImportConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(16)),
	); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
			Dirs: VaultDirs{Books: "Books", Movies: "Movies", Series: "Series"},
		},
		SQLite: SQLiteConfig{
			Path: "./shelfmark.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Lookup: LookupConfig{
			ScreenBackend: "tmdb",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Language:     "en-US",
			MinInterval:  250 * time.Millisecond,
		},
		GoogleBooks: GoogleBooksConfig{
			BaseURL:     "https://www.googleapis.com/books/v1",
			MinInterval: 250 * time.Millisecond,
		},
		OMDB: OMDBConfig{
			BaseURL:     "https://www.omdbapi.com/",
			MinInterval: 250 * time.Millisecond,
		},
		Translator: TranslatorConfig{
			Backend: "google",
		},
		HTTPClient: HTTPClientConfig{
			Timeout: 10 * time.Second,
		},
		Import: ImportConfig{
			Concurrency: 2,
		},
	}
}
