package models

import (
	"strings"
	"time"
)

// AdminMessage is a platform-wide announcement.
type AdminMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	AdminID   string    `json:"adminId"`
}

// NewAdminMessage validates the announcement fields.
func NewAdminMessage(adminID, title, content string) (*AdminMessage, error) {
	if adminID == "" {
		return nil, NewValidationError("Admin is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("Title is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("Content is required")
	}

	return &AdminMessage{
		ID:        NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: Now(),
		AdminID:   adminID,
	}, nil
}
