// Package chat implements the in-memory chat session core: the append-only
// message log, the submit/resolve state machine, and the orchestration of
// sanitization and the completion client.
package chat

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single entry in a session's log. Messages are immutable once
// created; IDs increase monotonically in creation order within a session.
type Message struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}
