package domain

import "time"

// Event is a calendar event to be created
type Event struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// CreatedEvent is what the calendar API returns once an event exists
type CreatedEvent struct {
	ID       string
	HTMLLink string
	Status   string
}
