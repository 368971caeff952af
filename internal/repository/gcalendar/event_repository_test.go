package gcalendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *domain.Event {
	start := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	return &domain.Event{
		Summary:     "Team sync",
		Description: "Created by CLI tool: Team sync",
		Start:       start,
		End:         start.Add(time.Hour),
		TimeZone:    "UTC",
	}
}

func TestCreateEvent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"evt123","htmlLink":"https://calendar.example/event?eid=evt123","status":"confirmed"}`))
		}))
		defer server.Close()

		repo := NewEventRepository(NewClient(server.URL))
		created, err := repo.CreateEvent(context.Background(), "ya29.token", "primary", testEvent())
		require.NoError(t, err)

		assert.Equal(t, "evt123", created.ID)
		assert.Equal(t, "https://calendar.example/event?eid=evt123", created.HTMLLink)
		assert.Equal(t, "confirmed", created.Status)

		assert.Equal(t, "/calendars/primary/events", gotPath)
		assert.Equal(t, "Bearer ya29.token", gotAuth)
		assert.Equal(t, "Team sync", gotBody["summary"])
		assert.Equal(t, "Created by CLI tool: Team sync", gotBody["description"])
		assert.Equal(t, map[string]any{"dateTime": "2024-05-01T13:00:00Z", "timeZone": "UTC"}, gotBody["start"])
		assert.Equal(t, map[string]any{"dateTime": "2024-05-01T14:00:00Z", "timeZone": "UTC"}, gotBody["end"])
	})

	t.Run("CalendarIDIsEscaped", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"e"}`))
		}))
		defer server.Close()

		repo := NewEventRepository(NewClient(server.URL))
		_, err := repo.CreateEvent(context.Background(), "t", "team/room#1", testEvent())
		require.NoError(t, err)
		assert.Equal(t, "/calendars/team%2Froom%231/events", gotPath)
	})

	t.Run("UnauthorizedNeedsReauthorization", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials","status":"UNAUTHENTICATED"}}`))
		}))
		defer server.Close()

		_, err := NewEventRepository(NewClient(server.URL)).CreateEvent(context.Background(), "expired", "primary", testEvent())
		require.Error(t, err)
		assert.True(t, domain.NeedsReauthorization(err))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "UNAUTHENTICATED", apiErr.Status)
	})

	t.Run("OtherErrorsAreAPIErrors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Calendar usage limits exceeded.","status":"PERMISSION_DENIED"}}`))
		}))
		defer server.Close()

		_, err := NewEventRepository(NewClient(server.URL)).CreateEvent(context.Background(), "t", "primary", testEvent())
		require.Error(t, err)
		assert.False(t, domain.NeedsReauthorization(err))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "usage limits")
	})

	t.Run("UnreachableIsNetworkError", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		baseURL := server.URL
		server.Close()

		_, err := NewEventRepository(NewClient(baseURL)).CreateEvent(context.Background(), "t", "primary", testEvent())
		require.Error(t, err)

		var netErr NetworkError
		assert.True(t, errors.As(err, &netErr))
	})
}
