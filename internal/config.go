package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jarvis/internal/desktop"
	"github.com/starford/jarvis/internal/logger"
	"github.com/starford/jarvis/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Paths     PathsConfig       `yaml:"paths"`
	Limits    LimitsConfig      `yaml:"limits"`
	Brain     BrainConfig       `yaml:"brain"`
	STT       STTConfig         `yaml:"stt"`
	Browser   BrowserConfig     `yaml:"browser"`
	Input     InputConfig       `yaml:"input"`
	Office    OfficeConfig      `yaml:"office"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Paths, &c.Limits, &c.Brain, &c.STT, &c.Browser,
		&c.Input, &c.SQLite, &c.Auth, &c.RateLimit,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Expand resolves "~" in every configured path.
func (c *Config) Expand() {
	for _, p := range []*string{
		&c.Paths.Desktop, &c.Paths.Trash, &c.Paths.Logs, &c.Paths.Restore,
		&c.Office.PPTXTemplate, &c.SQLite.Path,
	} {
		if *p != "" {
			*p = storage.ExpandHome(*p)
		}
	}
	if c.Paths.Restore == "" {
		c.Paths.Restore = c.Paths.Desktop
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logger.FormatJSON, logger.FormatText, logger.FormatPretty)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// PathsConfig holds the directories the actions work with.
type PathsConfig struct {
	Desktop string `yaml:"desktop"`
	Trash   string `yaml:"trash"`
	Logs    string `yaml:"logs"`
	// Restore is where restored objects go when no destination is named.
	// Defaults to Desktop.
	Restore string `yaml:"restore"`
}

// Validate validates the paths configuration.
func (c *PathsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Desktop, validation.Required),
		validation.Field(&c.Trash, validation.Required),
		validation.Field(&c.Logs, validation.Required),
	)
}

// LimitsConfig holds size limits.
type LimitsConfig struct {
	ReadMB float64 `yaml:"read_mb"`
}

// Validate validates the limits configuration.
func (c *LimitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ReadMB, validation.Required, validation.Min(0.001)),
	)
}

// BrainConfig configures the language model that interprets requests. Any
// OpenAI compatible endpoint works; the default points at a local LM Studio.
type BrainConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	Temperature  float64       `yaml:"temperature"`
	HistoryTurns int           `yaml:"history_turns"`
}

// Validate validates the brain configuration.
func (c *BrainConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.HistoryTurns, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("brain: %w", err)
	}
	return nil
}

// STTConfig configures speech-to-text. Transcription is disabled without an
// API key.
type STTConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the STT configuration.
func (c *STTConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.When(c.APIKey != "", validation.Required)),
	); err != nil {
		return fmt.Errorf("stt: %w", err)
	}
	return nil
}

// BrowserConfig configures browser selection and page automation.
type BrowserConfig struct {
	Preferred string `yaml:"preferred"`
	// DebuggerURL is a DevTools websocket used by the rod input backend.
	DebuggerURL string        `yaml:"debugger_url"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// Validate validates the browser configuration.
func (c *BrowserConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SettleDelay, validation.Min(time.Duration(0))),
	)
}

// InputConfig selects the keyboard and mouse backend.
type InputConfig struct {
	Backend string `yaml:"backend"`
}

// Validate validates the input configuration.
func (c *InputConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = desktop.InputAuto
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(desktop.InputAuto, desktop.InputXdotool, desktop.InputRod, desktop.InputNone)),
	)
}

// OfficeConfig holds document generation settings.
type OfficeConfig struct {
	PPTXTemplate string `yaml:"pptx_template"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
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
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
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

// RateLimitConfig throttles the routes that reach the model or the
// transcription service. PerMinute 0 disables it.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PerMinute, validation.Min(0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	const home = "~/.jarvis"
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logger.FormatJSON,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8000,
			},
		},
		Paths: PathsConfig{
			Desktop: "~/Desktop",
			Trash:   filepath.Join(home, "trash"),
			Logs:    filepath.Join(home, "logs"),
		},
		Limits: LimitsConfig{
			ReadMB: 5,
		},
		Brain: BrainConfig{
			BaseURL:      "http://localhost:1234/v1",
			Model:        "local-model",
			Timeout:      60 * time.Second,
			Temperature:  0.1,
			HistoryTurns: 5,
		},
		STT: STTConfig{
			BaseURL:  "https://api.groq.com/openai/v1",
			Language: "es",
			Timeout:  60 * time.Second,
		},
		Browser: BrowserConfig{
			Preferred:   "chrome",
			SettleDelay: 2 * time.Second,
		},
		Input: InputConfig{
			Backend: desktop.InputAuto,
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(home, "jarvis.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 30,
			Burst:     10,
		},
	}
}
