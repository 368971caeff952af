package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAuthURL         = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL        = "https://oauth2.googleapis.com/token"
	DefaultCalendarScope   = "https://www.googleapis.com/auth/calendar"
	DefaultCalendarAPIURL  = "https://www.googleapis.com/calendar/v3"
	DefaultCallbackHost    = "127.0.0.1"
	DefaultCallbackPort    = 8080
	DefaultCallbackTimeout = 5 * time.Minute
	DefaultUser            = "default_user"
)

// Config represents the application configuration
type Config struct {
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Calendar CalendarConfig `yaml:"calendar,omitempty"`
	UI       UIConfig       `yaml:"ui,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// AuthConfig contains the OAuth client and callback listener settings
type AuthConfig struct {
	ClientID     string   `yaml:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty"`
	AuthURL      string   `yaml:"auth_url,omitempty"`
	TokenURL     string   `yaml:"token_url,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
	// RedirectURL overrides the redirect URI derived from the callback port
	RedirectURL  string `yaml:"redirect_url,omitempty"`
	CallbackHost string `yaml:"callback_host,omitempty"`
	CallbackPort int    `yaml:"callback_port,omitempty"`
	// CallbackTimeout bounds the wait for the browser redirect.  Negative waits indefinitely.
	CallbackTimeout time.Duration `yaml:"callback_timeout,omitempty"`
	// RefreshThreshold is the remaining lifetime below which a stored token is refreshed
	RefreshThreshold time.Duration `yaml:"refresh_threshold,omitempty"`
	// User is the key tokens are stored under
	User string `yaml:"user,omitempty"`
}

// StoreConfig contains token store settings
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// CalendarConfig contains Google Calendar API settings
type CalendarConfig struct {
	APIURL     string `yaml:"api_url,omitempty"`
	CalendarID string `yaml:"calendar_id,omitempty"`
	TimeZone   string `yaml:"time_zone,omitempty"`
}

// UIConfig contains terminal output preferences
type UIConfig struct {
	// Plain disables the interactive spinner while waiting for the browser
	Plain bool `yaml:"plain,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
	Format   string `yaml:"format,omitempty"`
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Load a .env file from the working directory into the environment, if there is one
// 6. Apply environment variable overrides
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. .env values never replace variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	// 6. Apply the environment variable overrides which take precedence
	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateAuth checks the settings needed to talk to the OAuth provider
func (c *Config) ValidateAuth() error {
	var errs []error
	if c.Auth.ClientID == "" {
		errs = append(errs, errors.New("auth.client_id is required (or set GOOGLE_CLIENT_ID)"))
	}
	if c.Auth.ClientSecret == "" {
		errs = append(errs, errors.New("auth.client_secret is required (or set GOOGLE_CLIENT_SECRET)"))
	}
	if c.Auth.AuthURL == "" || c.Auth.TokenURL == "" {
		errs = append(errs, errors.New("auth.auth_url and auth.token_url are required"))
	}
	if c.Auth.CallbackPort < 1 || c.Auth.CallbackPort > 65535 {
		errs = append(errs, fmt.Errorf("auth.callback_port %d is out of range", c.Auth.CallbackPort))
	}
	return errors.Join(errs...)
}

// RedirectURL returns the OAuth redirect URI the callback listener answers on
func (c *Config) RedirectURL() string {
	if c.Auth.RedirectURL != "" {
		return c.Auth.RedirectURL
	}
	return fmt.Sprintf("http://localhost:%d/oauth/callback", c.Auth.CallbackPort)
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	// Apply the updates
	updateFn(cfg)

	return save(cfg, configPath)
}

// Path returns the config file location Load reads from
func Path() (string, error) {
	return getConfigPath()
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("GCAL_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "gcal", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			AuthURL:          DefaultAuthURL,
			TokenURL:         DefaultTokenURL,
			Scopes:           []string{DefaultCalendarScope},
			CallbackHost:     DefaultCallbackHost,
			CallbackPort:     DefaultCallbackPort,
			CallbackTimeout:  DefaultCallbackTimeout,
			RefreshThreshold: 300 * time.Second,
			User:             DefaultUser,
		},
		Store: StoreConfig{
			Path: "token_store",
		},
		Calendar: CalendarConfig{
			APIURL:     DefaultCalendarAPIURL,
			CalendarID: "primary",
			TimeZone:   "UTC",
		},
		UI: UIConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "gcal.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\gcal\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "gcal", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "gcal", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/gcal
		basePath = filepath.Join(homedir, "Library", "Logs", "gcal")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "gcal", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "gcal", "logs")
		}
	}

	return filepath.Join(basePath, "gcal.log")
}
