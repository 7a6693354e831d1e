package chat

import "time"

// Session captures a transient anonymous visitor conversation.
type Session struct {
	ID        string    `json:"id"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"createdAt"`
}
