package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/articlegen/internal/generation"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Storage    StorageConfig     `yaml:"storage"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
	Generation GenerationConfig  `yaml:"generation"`
	Publish    PublishConfig     `yaml:"publish"`
	Wizard     WizardConfig      `yaml:"wizard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Generation.Validate(); err != nil {
		return err
	}
	if err := c.Publish.Validate(); err != nil {
		return err
	}
	return c.Wizard.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
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
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig holds the directories for article files and uploaded images.
type StorageConfig struct {
	Path       string `yaml:"path"`
	ImagesPath string `yaml:"images_path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ImagesPath, validation.Required),
	)
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

// AuthConfig holds session token and password hashing settings.
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	RememberTTL time.Duration `yaml:"remember_ttl"`
	BcryptCost  int           `yaml:"bcrypt_cost"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.JWTSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.TokenTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.BcryptCost, validation.Min(4), validation.Max(31)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.RememberTTL != 0 && c.RememberTTL < c.TokenTTL {
		return fmt.Errorf("auth: remember_ttl (%s) is shorter than token_ttl (%s)", c.RememberTTL, c.TokenTTL)
	}
	return nil
}

// GenerationConfig selects the content generator.
//
// Provider is "mock" (static templates after MockDelay) or "openai" (any
// OpenAI-compatible chat completions endpoint; APIKey is then required).
type GenerationConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MockDelay time.Duration `yaml:"mock_delay"`
}

// Validate validates the generation configuration.
func (c *GenerationConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = generation.ProviderMock
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(generation.ProviderMock, generation.ProviderOpenAI)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MockDelay, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if c.Provider == generation.ProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("generation: provider is %q but api_key is empty", generation.ProviderOpenAI)
	}
	return nil
}

// Settings converts the section to generator settings.
func (c *GenerationConfig) Settings() generation.Settings {
	return generation.Settings{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		MockDelay: c.MockDelay,
	}
}

// PublishConfig holds the public address of published articles and the
// deadline for storing one.
type PublishConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the publish configuration.
func (c *PublishConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// WizardConfig controls in-memory wizard sessions. Sessions idle for longer
// than SessionTTL are dropped; zero keeps them until deleted.
type WizardConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the wizard configuration.
func (c *WizardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SessionTTL, validation.Min(time.Duration(0))),
	)
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
		Storage: StorageConfig{
			Path:       "./data/articles",
			ImagesPath: "./data/images",
		},
		SQLite: SQLiteConfig{
			Path: "./data/articlegen.db",
		},
		Auth: AuthConfig{
			TokenTTL:    24 * time.Hour,
			RememberTTL: 30 * 24 * time.Hour,
			BcryptCost:  12,
		},
		Generation: GenerationConfig{
			Provider:  generation.ProviderMock,
			Model:     "gpt-4o-mini",
			Timeout:   60 * time.Second,
			MockDelay: 2 * time.Second,
		},
		Publish: PublishConfig{
			BaseURL: "http://localhost:8080/articles",
			Timeout: 15 * time.Second,
		},
		Wizard: WizardConfig{
			SessionTTL: 2 * time.Hour,
		},
	}
}
