// Package models holds the persisted entities of the server.
package models

import "time"

// DrivingEvent is an immutable telemetry fact owned by one user. Timestamp
// is when the event happened; CreatedAt is when it was recorded.
type DrivingEvent struct {
	ID           int64
	UserID       int64
	EventType    string
	Severity     float64
	Latitude     *float64
	Longitude    *float64
	Speed        *float64
	Acceleration *float64
	Notes        *string
	Timestamp    time.Time
	CreatedAt    time.Time
}

// DrivingEventInput is what a caller supplies when recording an event.
// Severity is conventionally in [0, 1] but is stored as given.
type DrivingEventInput struct {
	EventType    string
	Severity     float64
	Latitude     *float64
	Longitude    *float64
	Speed        *float64
	Acceleration *float64
	Notes        *string
}
