package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	gotToken    string
	gotCalendar string
	gotEvent    *domain.Event
	err         error
}

func (r *fakeRepository) CreateEvent(_ context.Context, accessToken, calendarID string, event *domain.Event) (*domain.CreatedEvent, error) {
	r.gotToken = accessToken
	r.gotCalendar = calendarID
	r.gotEvent = event
	if r.err != nil {
		return nil, r.err
	}
	return &domain.CreatedEvent{ID: "evt", HTMLLink: "https://calendar.example/evt"}, nil
}

type fakeRefresher struct {
	calls int
}

func (f *fakeRefresher) Refresh(context.Context, string) (*domain.AuthToken, error) {
	f.calls++
	return &domain.AuthToken{AccessToken: "refreshed", RefreshToken: "r", ExpiresIn: time.Hour}, nil
}

func newTestService(t *testing.T, repo domain.EventRepository) (*EventService, *store.TokenStore, clockwork.FakeClock, *fakeRefresher) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	tokens, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "token_store"), Clock: clock})
	require.NoError(t, err)

	refresher := &fakeRefresher{}
	svc := NewEventService(tokens, refresher, repo, EventServiceConfig{UserID: "default_user", Clock: clock})
	return svc, tokens, clock, refresher
}

func TestBuildEvent(t *testing.T) {
	svc, _, _, _ := newTestService(t, &fakeRepository{})

	event := svc.BuildEvent("Dentist")
	assert.Equal(t, "Dentist", event.Summary)
	assert.Equal(t, "Created by CLI tool: Dentist", event.Description)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), event.Start)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), event.End)
	assert.Equal(t, "UTC", event.TimeZone)
}

func TestCreateEvent(t *testing.T) {
	t.Run("UsesStoredToken", func(t *testing.T) {
		repo := &fakeRepository{}
		svc, tokens, _, refresher := newTestService(t, repo)
		require.NoError(t, tokens.Save("default_user", &domain.AuthToken{AccessToken: "stored", RefreshToken: "r", ExpiresIn: time.Hour}))

		created, err := svc.CreateEvent(context.Background(), "  Dentist ")
		require.NoError(t, err)
		assert.Equal(t, "evt", created.ID)
		assert.Equal(t, "stored", repo.gotToken)
		assert.Equal(t, "primary", repo.gotCalendar)
		assert.Equal(t, "Dentist", repo.gotEvent.Summary)
		assert.Equal(t, 0, refresher.calls)
	})

	t.Run("RefreshesNearExpiryToken", func(t *testing.T) {
		repo := &fakeRepository{}
		svc, tokens, _, refresher := newTestService(t, repo)
		require.NoError(t, tokens.Save("default_user", &domain.AuthToken{AccessToken: "stale", RefreshToken: "r", ExpiresIn: time.Minute}))

		_, err := svc.CreateEvent(context.Background(), "Dentist")
		require.NoError(t, err)
		assert.Equal(t, 1, refresher.calls)
		assert.Equal(t, "refreshed", repo.gotToken)
	})

	t.Run("NoTokenNeedsReauthorization", func(t *testing.T) {
		repo := &fakeRepository{}
		svc, _, _, _ := newTestService(t, repo)

		_, err := svc.CreateEvent(context.Background(), "Dentist")
		require.Error(t, err)
		assert.True(t, domain.NeedsReauthorization(err))
		assert.Nil(t, repo.gotEvent, "the API is not called without a token")
	})

	t.Run("EmptyDescription", func(t *testing.T) {
		repo := &fakeRepository{}
		svc, _, _, _ := newTestService(t, repo)

		_, err := svc.CreateEvent(context.Background(), "   ")
		require.Error(t, err)
		assert.Nil(t, repo.gotEvent)
	})

	t.Run("RepositoryErrorPropagates", func(t *testing.T) {
		apiErr := errors.New("quota exceeded")
		svc, tokens, _, _ := newTestService(t, &fakeRepository{err: apiErr})
		require.NoError(t, tokens.Save("default_user", &domain.AuthToken{AccessToken: "stored", ExpiresIn: time.Hour}))

		_, err := svc.CreateEvent(context.Background(), "Dentist")
		assert.ErrorIs(t, err, apiErr)
	})
}
