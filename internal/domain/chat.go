package domain

import "time"

const ChatTypeText = "text"

// ChatMessage is relayed to a room and never stored.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   UserID    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}
