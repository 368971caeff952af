package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PizzaHomicide/gcal/internal/config"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/PizzaHomicide/gcal/internal/oauth"
	"github.com/PizzaHomicide/gcal/internal/repository/gcalendar"
	"github.com/PizzaHomicide/gcal/internal/service"
	"github.com/PizzaHomicide/gcal/internal/store"
	"github.com/PizzaHomicide/gcal/internal/ui/tui"
	"github.com/PizzaHomicide/gcal/internal/version"
)

// application holds what the commands share once configuration has been loaded
type application struct {
	cfg    *config.Config
	logger *log.Logger
	tokens *store.TokenStore

	// flags shared by every command
	user  string
	noTUI bool
}

// init loads configuration and starts logging
func (a *application) init() error {
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
		Format:   cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	a.logger = logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up gcal", "version", version.GetVersion(), "build_time", version.GetBuildTime())
	return nil
}

func (a *application) close() {
	if a.logger != nil {
		log.Info("gcal shutting down")
		log.SetDefaultLogger(nil)
		a.logger.Close()
	}
}

// userID is the --user flag, falling back to the configured user
func (a *application) userID() string {
	if a.user != "" {
		return a.user
	}
	return a.cfg.Auth.User
}

func (a *application) tokenStore() (*store.TokenStore, error) {
	if a.tokens != nil {
		return a.tokens, nil
	}
	tokens, err := store.Open(store.Config{
		Path:             a.cfg.Store.Path,
		RefreshThreshold: a.cfg.Auth.RefreshThreshold,
	})
	if err != nil {
		return nil, err
	}
	a.tokens = tokens
	return tokens, nil
}

func (a *application) oauthClient() *oauth.Client {
	return oauth.NewClient(oauth.Config{
		ClientID:     a.cfg.Auth.ClientID,
		ClientSecret: a.cfg.Auth.ClientSecret,
		AuthURL:      a.cfg.Auth.AuthURL,
		TokenURL:     a.cfg.Auth.TokenURL,
		RedirectURL:  a.cfg.RedirectURL(),
		Scopes:       a.cfg.Auth.Scopes,
	})
}

func (a *application) eventService() (*service.EventService, error) {
	if err := a.cfg.ValidateAuth(); err != nil {
		return nil, err
	}
	tokens, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	repo := gcalendar.NewEventRepository(gcalendar.NewClient(a.cfg.Calendar.APIURL))
	return service.NewEventService(tokens, a.oauthClient(), repo, service.EventServiceConfig{
		UserID:     a.userID(),
		CalendarID: a.cfg.Calendar.CalendarID,
		TimeZone:   a.cfg.Calendar.TimeZone,
	}), nil
}

// interactive reports whether the spinner view may be used on out
func (a *application) interactive(out io.Writer) bool {
	if a.noTUI || a.cfg.UI.Plain {
		return false
	}
	f, ok := out.(*os.File)
	return ok && tui.IsInteractive(f) && tui.IsInteractive(os.Stdin)
}

// callbackTimeout is the configured wait, where a negative value means no limit
func (a *application) callbackTimeout() time.Duration {
	if a.cfg.Auth.CallbackTimeout < 0 {
		return 0
	}
	return a.cfg.Auth.CallbackTimeout
}
