package persistence

import (
	"encoding/json"
	"fmt"

	"skillswap/internal/engine"
	"skillswap/internal/models"
)

// document is the persisted record. Timestamps are encoded by time.Time as
// RFC 3339 strings with nanosecond precision.
type document struct {
	Users         []models.User         `json:"users"`
	SwapRequests  []models.SwapRequest  `json:"swapRequests"`
	Feedback      []models.Feedback     `json:"feedback"`
	AdminMessages []models.AdminMessage `json:"adminMessages"`
	CurrentUser   *models.User          `json:"currentUser"`
}

// Encode serializes the full snapshot.
func Encode(s engine.State) ([]byte, error) {
	doc := document{
		Users:         orEmpty(s.Users),
		SwapRequests:  orEmpty(s.SwapRequests),
		Feedback:      orEmpty(s.Feedback),
		AdminMessages: orEmpty(s.AdminMessages),
		CurrentUser:   s.Session,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted record and runs it through the schema sanitizer.
// The returned issues describe every record that was dropped or repaired.
func Decode(data []byte) (engine.State, []string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return engine.Initial(), nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	s, issues := sanitize(doc)
	return s, issues, nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
