package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventWrite  EventType = "WRITE"
	EventRemove EventType = "REMOVE"
)

type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Trigger is one coalesced burst of matching events.
type Trigger struct {
	Paths   []string
	Events  int
	FiredAt time.Time
	Manual  bool
}
