package gcalendar

import (
	"context"
	"net/http"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
)

type EventRepository struct {
	client *Client
}

func NewEventRepository(client *Client) domain.EventRepository {
	return &EventRepository{
		client: client,
	}
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventRequest struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
	Status   string `json:"status"`
}

func (r *EventRepository) CreateEvent(ctx context.Context, accessToken, calendarID string, event *domain.Event) (*domain.CreatedEvent, error) {
	body := eventRequest{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       eventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.TimeZone},
		End:         eventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.TimeZone},
	}

	var response eventResponse
	err := r.client.Do(ctx, http.MethodPost, "/calendars/{calendarId}/events", accessToken,
		map[string]string{"calendarId": calendarID}, body, &response)
	if err != nil {
		return nil, err
	}

	log.Info("Created calendar event", "id", response.ID, "calendar", calendarID)

	return &domain.CreatedEvent{
		ID:       response.ID,
		HTMLLink: response.HTMLLink,
		Status:   response.Status,
	}, nil
}
