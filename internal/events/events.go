package events

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Event names as seen by subscribers.
const (
	NameMatchProximityUpdated = "MatchProximityUpdated"
	NameNotificationCreated   = "NotificationCreated"
)

// Event is anything emitted to the messaging boundary.
type Event interface {
	EventName() string
	// Channels lists the private channels the event is delivered on.
	Channels() []string
}

// UserChannel is the private per-user channel name.
func UserChannel(userID uint64) string {
	return fmt.Sprintf("private-user.%d", userID)
}

// MatchProximityUpdated carries the live distance between a user and their proximity partner.
// Nil pointers mean the value could not be evaluated.
type MatchProximityUpdated struct {
	UserID              uint64 `json:"user_id"`
	MatchUserID         uint64 `json:"match_user_id"`
	DistanceMeters      *int   `json:"distance_m"`
	ProximityPercentage *int   `json:"proximity_percentage"`
	IsNearby10m         bool   `json:"is_nearby_10m"`
}

func (MatchProximityUpdated) EventName() string { return NameMatchProximityUpdated }

func (e MatchProximityUpdated) Channels() []string {
	return []string{UserChannel(e.UserID), UserChannel(e.MatchUserID)}
}

// NotificationCreated mirrors a persisted notification row to its recipient.
type NotificationCreated struct {
	ID         uint64         `json:"id"`
	Recipient  uint64         `json:"recipient_id"`
	Type       string         `json:"type"`
	FromUserID uint64         `json:"from_user_id"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (NotificationCreated) EventName() string { return NameNotificationCreated }

func (e NotificationCreated) Channels() []string {
	return []string{UserChannel(e.Recipient)}
}

// Publisher delivers events to the messaging boundary.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named filters recorded events by name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
