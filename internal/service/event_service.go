package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/PizzaHomicide/gcal/internal/store"
	"github.com/jonboulle/clockwork"
)

const (
	// eventLeadTime is how far from now a created event starts
	eventLeadTime = time.Hour
	// eventDuration is how long a created event lasts
	eventDuration = time.Hour

	descriptionPrefix = "Created by CLI tool: "
)

// TokenSource hands out a usable access token for a user, refreshing it when needed
type TokenSource interface {
	EnsureValid(ctx context.Context, userID string, refresher domain.TokenRefresher) (*store.StoredToken, error)
}

// EventServiceConfig selects where events go
type EventServiceConfig struct {
	UserID     string
	CalendarID string
	TimeZone   string
	// Clock defaults to the real clock
	Clock clockwork.Clock
}

type EventService struct {
	tokens    TokenSource
	refresher domain.TokenRefresher
	repo      domain.EventRepository
	config    EventServiceConfig
}

func NewEventService(tokens TokenSource, refresher domain.TokenRefresher, repo domain.EventRepository, config EventServiceConfig) *EventService {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.CalendarID == "" {
		config.CalendarID = "primary"
	}
	if config.TimeZone == "" {
		config.TimeZone = "UTC"
	}
	return &EventService{
		tokens:    tokens,
		refresher: refresher,
		repo:      repo,
		config:    config,
	}
}

// BuildEvent returns the event CreateEvent would insert for description
func (s *EventService) BuildEvent(description string) *domain.Event {
	start := s.config.Clock.Now().UTC().Add(eventLeadTime)
	return &domain.Event{
		Summary:     description,
		Description: descriptionPrefix + description,
		Start:       start,
		End:         start.Add(eventDuration),
		TimeZone:    s.config.TimeZone,
	}
}

// CreateEvent creates a one hour event starting an hour from now, titled description
func (s *EventService) CreateEvent(ctx context.Context, description string) (*domain.CreatedEvent, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errors.New("event description is required")
	}

	token, err := s.tokens.EnsureValid(ctx, s.config.UserID, s.refresher)
	if err != nil {
		return nil, err
	}

	event := s.BuildEvent(description)
	log.Debug("Creating calendar event", "calendar", s.config.CalendarID, "start", event.Start)

	return s.repo.CreateEvent(ctx, token.AccessToken, s.config.CalendarID, event)
}
