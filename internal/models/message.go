package models

import "time"

// ChatMessage is one line of a profile's chat transcript.
type ChatMessage struct {
	ID     int64     `json:"id,omitempty"`
	Text   string    `json:"text"`
	IsBot  bool      `json:"is_bot"`
	SentAt time.Time `json:"sent_at"`
}
