package notifications

import (
	"encoding/json"

	"skillswap/internal/engine"
	"skillswap/internal/models"
	"skillswap/internal/store"
)

// EventType names a message on the event stream.
type EventType string

const (
	EventStateChanged   EventType = "state_changed"
	EventSessionCleared EventType = "session_cleared"
	EventAdminMessage   EventType = "admin_message"
)

// Event is one message on the event stream.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// Encode returns the wire form of e.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// StateChanged tells clients which intent changed the state so they refetch.
type StateChanged struct {
	Intent string `json:"intent"`
}

// SessionCleared tells clients the session ended without a logout.
type SessionCleared struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// EventsFor maps a store transition to stream events.
func EventsFor(change store.Change) []Event {
	events := []Event{{Type: EventStateChanged, Payload: StateChanged{Intent: change.Intent}}}

	if change.SessionCleared && change.Previous.Session != nil {
		reason := "forced_logout"
		if u, ok := change.Current.FindUser(change.Previous.Session.ID); ok && u.IsBanned {
			reason = "banned"
		}
		events = append(events, Event{
			Type:    EventSessionCleared,
			Payload: SessionCleared{UserID: change.Previous.Session.ID, Reason: reason},
		})
	}

	if change.Intent == (engine.AddAdminMessage{}).Name() {
		if msg, ok := lastMessage(change.Current); ok {
			events = append(events, Event{Type: EventAdminMessage, Payload: msg})
		}
	}
	return events
}

func lastMessage(s engine.State) (models.AdminMessage, bool) {
	if len(s.AdminMessages) == 0 {
		return models.AdminMessage{}, false
	}
	return s.AdminMessages[len(s.AdminMessages)-1], true
}
