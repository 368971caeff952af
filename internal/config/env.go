package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "GCAL_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil },
	},
	{
		name:  "GOOGLE_CLIENT_ID",
		desc:  "OAuth client id.  Same as GCAL_CONFIG_AUTH_CLIENT_ID, which wins if both are set",
		apply: setString(func(c *Config) *string { return &c.Auth.ClientID }),
	},
	{
		name:  "GOOGLE_CLIENT_SECRET",
		desc:  "OAuth client secret.  Same as GCAL_CONFIG_AUTH_CLIENT_SECRET, which wins if both are set",
		apply: setString(func(c *Config) *string { return &c.Auth.ClientSecret }),
	},
	{
		name:  "OAUTH_CALLBACK_PORT",
		desc:  "Port of the local OAuth callback listener.  Same as GCAL_CONFIG_AUTH_CALLBACK_PORT, which wins if both are set",
		apply: setPort(func(c *Config) *int { return &c.Auth.CallbackPort }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_CLIENT_ID",
		desc:  "Sets the OAuth client id.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.ClientID }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_CLIENT_SECRET",
		desc:  "Sets the OAuth client secret.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Auth.ClientSecret }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_AUTH_URL",
		desc:  "Sets the OAuth authorization endpoint.  Default: Google",
		apply: setString(func(c *Config) *string { return &c.Auth.AuthURL }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_TOKEN_URL",
		desc:  "Sets the OAuth token endpoint.  Default: Google",
		apply: setString(func(c *Config) *string { return &c.Auth.TokenURL }),
	},
	{
		name: "GCAL_CONFIG_AUTH_SCOPES",
		desc: "Comma separated OAuth scopes.  Default: the Google Calendar scope",
		apply: func(c *Config, s string) error {
			var scopes []string
			for _, scope := range strings.Split(s, ",") {
				if scope = strings.TrimSpace(scope); scope != "" {
					scopes = append(scopes, scope)
				}
			}
			c.Auth.Scopes = scopes
			return nil
		},
	},
	{
		name:  "GCAL_CONFIG_AUTH_REDIRECT_URL",
		desc:  "Overrides the OAuth redirect URI.  Default: http://localhost:<callback port>/oauth/callback",
		apply: setString(func(c *Config) *string { return &c.Auth.RedirectURL }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_CALLBACK_HOST",
		desc:  "Sets the address the callback listener binds to.  Default: 127.0.0.1",
		apply: setString(func(c *Config) *string { return &c.Auth.CallbackHost }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_CALLBACK_PORT",
		desc:  "Sets the port the callback listener binds to.  Default: 8080",
		apply: setPort(func(c *Config) *int { return &c.Auth.CallbackPort }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_CALLBACK_TIMEOUT",
		desc:  "How long to wait for the browser redirect, e.g. 90s.  Negative waits indefinitely.  Default: 5m",
		apply: setDuration(func(c *Config) *time.Duration { return &c.Auth.CallbackTimeout }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_REFRESH_THRESHOLD",
		desc:  "Remaining token lifetime below which the token is refreshed.  Default: 5m",
		apply: setDuration(func(c *Config) *time.Duration { return &c.Auth.RefreshThreshold }),
	},
	{
		name:  "GCAL_CONFIG_AUTH_USER",
		desc:  "Sets the user id tokens are stored under.  Default: default_user",
		apply: setString(func(c *Config) *string { return &c.Auth.User }),
	},
	{
		name:  "GCAL_CONFIG_STORE_PATH",
		desc:  "Sets the token store directory.  Default: token_store in the working directory",
		apply: setString(func(c *Config) *string { return &c.Store.Path }),
	},
	{
		name:  "GCAL_CONFIG_CALENDAR_API_URL",
		desc:  "Sets the Google Calendar API base URL.  Default: https://www.googleapis.com/calendar/v3",
		apply: setString(func(c *Config) *string { return &c.Calendar.APIURL }),
	},
	{
		name:  "GCAL_CONFIG_CALENDAR_ID",
		desc:  "Sets the calendar events are created in.  Default: primary",
		apply: setString(func(c *Config) *string { return &c.Calendar.CalendarID }),
	},
	{
		name:  "GCAL_CONFIG_CALENDAR_TIME_ZONE",
		desc:  "Sets the time zone of created events.  Default: UTC",
		apply: setString(func(c *Config) *string { return &c.Calendar.TimeZone }),
	},
	{
		name: "GCAL_CONFIG_UI_PLAIN",
		desc: "Disables the interactive spinner when set to true.  Default: false",
		apply: func(c *Config, s string) error {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			c.UI.Plain = v
			return nil
		},
	},
	{
		name:  "GCAL_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: setString(func(c *Config) *string { return &c.Logging.Level }),
	},
	{
		name:  "GCAL_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path, or - for stderr.  Default: OS-specific",
		apply: setString(func(c *Config) *string { return &c.Logging.FilePath }),
	},
	{
		name:  "GCAL_CONFIG_LOGGING_FORMAT",
		desc:  "Sets the log format.  One of: json, text.  Default: json",
		apply: setString(func(c *Config) *string { return &c.Logging.Format }),
	},
}

// EnvVarHelp returns a name/description listing of every supported environment variable
func EnvVarHelp() string {
	var b strings.Builder
	for _, envVar := range supportedEnvVars {
		fmt.Fprintf(&b, "  %-36s %s\n", envVar.name, envVar.desc)
	}
	return b.String()
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, s string) error {
		*field(c) = s
		return nil
	}
}

func setPort(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, s string) error {
		port, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("port %d out of range", port)
		}
		*field(c) = port
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}
