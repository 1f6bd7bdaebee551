package events

import (
	"time"
)

// DomainEvent is something that already happened to an aggregate.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	EventTypeIdeaCreated = "idea.created"
	EventTypeIdeaUpdated = "idea.updated"
)

// IdeaSaved is raised after an idea record was written.
type IdeaSaved struct {
	BaseEvent
	IdeaID  string `json:"idea_id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Created bool   `json:"created"`
}

// NewIdeaSaved creates an IdeaSaved event. created distinguishes the first
// save of an idea from an overwrite.
func NewIdeaSaved(userID, ideaID, title string, created bool, timestamp time.Time) IdeaSaved {
	eventType := EventTypeIdeaUpdated
	if created {
		eventType = EventTypeIdeaCreated
	}
	return IdeaSaved{
		BaseEvent: BaseEvent{
			AggregateID: ideaID,
			EventType:   eventType,
			Timestamp:   timestamp,
			Version:     1,
		},
		IdeaID:  ideaID,
		UserID:  userID,
		Title:   title,
		Created: created,
	}
}
