package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envPrefixes = []string{"GCAL_CONFIG", "GOOGLE_CLIENT_", "OAUTH_CALLBACK_PORT"}

func setupTestConfig(t *testing.T) string {
	t.Helper()

	cleanupEnvVars(t)
	tmpConfigPath := filepath.Join(t.TempDir(), "config.yaml")
	setEnv(t, "GCAL_CONFIG_PATH", tmpConfigPath)

	t.Cleanup(func() {
		cleanupEnvVars(t)
	})

	return tmpConfigPath
}

// TestConfigIntegration tests the config package with actual file operations
// This test uses a temporary directory to avoid interfering with real user configs
func TestConfigIntegration(t *testing.T) {
	// Test loading when no config exists (should create default)
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		config := loadConfig(t)

		// Verify default values
		assert.Equal(t, DefaultAuthURL, config.Auth.AuthURL)
		assert.Equal(t, DefaultTokenURL, config.Auth.TokenURL)
		assert.Equal(t, []string{DefaultCalendarScope}, config.Auth.Scopes)
		assert.Equal(t, "127.0.0.1", config.Auth.CallbackHost)
		assert.Equal(t, 8080, config.Auth.CallbackPort)
		assert.Equal(t, 5*time.Minute, config.Auth.CallbackTimeout)
		assert.Equal(t, 300*time.Second, config.Auth.RefreshThreshold)
		assert.Equal(t, "default_user", config.Auth.User)
		assert.Equal(t, "token_store", config.Store.Path)
		assert.Equal(t, "primary", config.Calendar.CalendarID)
		assert.Equal(t, "info", config.Logging.Level)
		assert.NotEmpty(t, config.Logging.FilePath)
		assert.Equal(t, "http://localhost:8080/oauth/callback", config.RedirectURL())

		// Verify file was created
		_, err := os.Stat(tmpConfigPath)
		assert.NoError(t, err, "config file should be created at %s", tmpConfigPath)

		// Load the file from disk to assert that the 'dynamic' configurations were not saved when the default config was written
		savedConfig, _ := loadFromDisk(tmpConfigPath)
		assert.Empty(t, savedConfig.Logging.FilePath)
		assert.Equal(t, 5*time.Minute, savedConfig.Auth.CallbackTimeout, "durations survive a yaml round trip")
	})

	// Test saving and loading custom values
	t.Run("SaveAndLoadConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		customConfig := &Config{
			Auth: AuthConfig{
				ClientID:         "client-id",
				ClientSecret:     "client-secret",
				Scopes:           []string{"openid", "email"},
				CallbackPort:     9090,
				CallbackTimeout:  30 * time.Second,
				RefreshThreshold: time.Minute,
				User:             "alice",
			},
			Store: StoreConfig{
				Path: "/var/lib/gcal/tokens",
			},
			Calendar: CalendarConfig{
				CalendarID: "team@example.com",
				TimeZone:   "Europe/Berlin",
			},
			UI: UIConfig{Plain: true},
			Logging: LoggingConfig{
				Level:    "error",
				FilePath: "/var/log/gcal.log",
			},
		}

		saveConfig(t, customConfig, tmpConfigPath)
		loadedConfig := loadConfig(t)

		assert.Equal(t, "client-id", loadedConfig.Auth.ClientID)
		assert.Equal(t, "client-secret", loadedConfig.Auth.ClientSecret)
		assert.Equal(t, []string{"openid", "email"}, loadedConfig.Auth.Scopes)
		assert.Equal(t, 9090, loadedConfig.Auth.CallbackPort)
		assert.Equal(t, 30*time.Second, loadedConfig.Auth.CallbackTimeout)
		assert.Equal(t, time.Minute, loadedConfig.Auth.RefreshThreshold)
		assert.Equal(t, "alice", loadedConfig.Auth.User)
		assert.Equal(t, "/var/lib/gcal/tokens", loadedConfig.Store.Path)
		assert.Equal(t, "team@example.com", loadedConfig.Calendar.CalendarID)
		assert.Equal(t, "Europe/Berlin", loadedConfig.Calendar.TimeZone)
		assert.True(t, loadedConfig.UI.Plain)
		assert.Equal(t, "error", loadedConfig.Logging.Level)
		assert.Equal(t, "/var/log/gcal.log", loadedConfig.Logging.FilePath)

		// Values not in the file keep their defaults
		assert.Equal(t, DefaultTokenURL, loadedConfig.Auth.TokenURL)
		assert.Equal(t, "http://localhost:9090/oauth/callback", loadedConfig.RedirectURL())
	})

	// Test invalid YAML handling
	t.Run("InvalidConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		require.NoError(t, os.WriteFile(tmpConfigPath, []byte("invalid: yaml: ["), 0600))

		_, err := Load()
		assert.Error(t, err, "expected error when loading invalid YAML")
	})

	t.Run("EnvironmentVariableOverrides", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "GCAL_CONFIG_AUTH_CLIENT_ID", "env-client")
		setEnv(t, "GCAL_CONFIG_AUTH_CLIENT_SECRET", "env-secret")
		setEnv(t, "GCAL_CONFIG_AUTH_SCOPES", "openid, email ,")
		setEnv(t, "GCAL_CONFIG_AUTH_CALLBACK_PORT", "9999")
		setEnv(t, "GCAL_CONFIG_AUTH_CALLBACK_TIMEOUT", "-1s")
		setEnv(t, "GCAL_CONFIG_AUTH_REFRESH_THRESHOLD", "10m")
		setEnv(t, "GCAL_CONFIG_STORE_PATH", "/tmp/tokens")
		setEnv(t, "GCAL_CONFIG_UI_PLAIN", "true")
		setEnv(t, "GCAL_CONFIG_LOGGING_LEVEL", "warn")
		setEnv(t, "GCAL_CONFIG_LOGGING_FILE_PATH", "-")

		config := loadConfig(t)

		assert.Equal(t, "env-client", config.Auth.ClientID)
		assert.Equal(t, "env-secret", config.Auth.ClientSecret)
		assert.Equal(t, []string{"openid", "email"}, config.Auth.Scopes)
		assert.Equal(t, 9999, config.Auth.CallbackPort)
		assert.Equal(t, -time.Second, config.Auth.CallbackTimeout)
		assert.Equal(t, 10*time.Minute, config.Auth.RefreshThreshold)
		assert.Equal(t, "/tmp/tokens", config.Store.Path)
		assert.True(t, config.UI.Plain)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "-", config.Logging.FilePath)

		// Remove the logging level env var, then reload the config.
		// This ensures that the env var overrides were not persisted to disk.
		unsetEnv(t, "GCAL_CONFIG_LOGGING_LEVEL")

		config = loadConfig(t)

		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("LegacyEnvironmentVariables", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "GOOGLE_CLIENT_ID", "legacy-client")
		setEnv(t, "GOOGLE_CLIENT_SECRET", "legacy-secret")
		setEnv(t, "OAUTH_CALLBACK_PORT", "8181")

		config := loadConfig(t)
		assert.Equal(t, "legacy-client", config.Auth.ClientID)
		assert.Equal(t, "legacy-secret", config.Auth.ClientSecret)
		assert.Equal(t, 8181, config.Auth.CallbackPort)

		// The namespaced variable wins
		setEnv(t, "GCAL_CONFIG_AUTH_CLIENT_ID", "namespaced-client")
		config = loadConfig(t)
		assert.Equal(t, "namespaced-client", config.Auth.ClientID)
	})

	t.Run("InvalidEnvironmentValue", func(t *testing.T) {
		setupTestConfig(t)
		setEnv(t, "OAUTH_CALLBACK_PORT", "not-a-port")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OAUTH_CALLBACK_PORT")
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		setupTestConfig(t)

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("GOOGLE_CLIENT_ID=from-dotenv\nGOOGLE_CLIENT_SECRET=dotenv-secret\n"), 0600))
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		config := loadConfig(t)
		assert.Equal(t, "from-dotenv", config.Auth.ClientID)
		assert.Equal(t, "dotenv-secret", config.Auth.ClientSecret)
	})

	t.Run("ModifyConfig", func(t *testing.T) {
		setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, "default_user", config.Auth.User)

		err := UpdateConfig(func(config *Config) {
			config.Auth.User = "bob"
		})
		require.NoError(t, err)

		// Reload the config and ensure it has the new value
		config = loadConfig(t)
		assert.Equal(t, "bob", config.Auth.User)
	})
}

func TestValidateAuth(t *testing.T) {
	cfg := createBaseDefaultConfig()

	err := cfg.ValidateAuth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id")
	assert.Contains(t, err.Error(), "client_secret")

	cfg.Auth.ClientID = "id"
	cfg.Auth.ClientSecret = "secret"
	assert.NoError(t, cfg.ValidateAuth())

	cfg.Auth.CallbackPort = 70000
	assert.ErrorContains(t, cfg.ValidateAuth(), "callback_port")
}

func TestEnvVarHelp(t *testing.T) {
	help := EnvVarHelp()
	for _, envVar := range supportedEnvVars {
		assert.Contains(t, help, envVar.name)
	}
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	err := os.Setenv(key, value)
	if err != nil {
		t.Fatalf("Failed to set environment variable: %v", err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	err := os.Unsetenv(key)
	if err != nil {
		t.Fatalf("Failed to unset environment variable: %v", err)
	}
}

func saveConfig(t *testing.T, config *Config, configPath string) {
	t.Helper()
	if err := save(config, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
}

func loadConfig(t *testing.T) *Config {
	t.Helper()
	config, err := Load()
	if err != nil {
		t.Fatalf("Loading of config failed: %v", err)
	}
	return config
}

// Removes any env vars read by this package to ensure test isolation
func cleanupEnvVars(t *testing.T) {
	t.Helper()

	for _, envVar := range os.Environ() {
		key := strings.Split(envVar, "=")[0]
		for _, prefix := range envPrefixes {
			if strings.HasPrefix(key, prefix) {
				unsetEnv(t, key)
			}
		}
	}
}
