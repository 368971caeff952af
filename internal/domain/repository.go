package domain

import "context"

// EventRepository defines the interface for calendar event access
type EventRepository interface {
	// CreateEvent inserts event into calendarID, authenticating with accessToken
	CreateEvent(ctx context.Context, accessToken, calendarID string, event *Event) (*CreatedEvent, error)
}
