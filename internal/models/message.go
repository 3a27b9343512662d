package models

import "time"

// Message is a single chat message scoped to one delivery. Messages are
// immutable once created and ordered by creation time.
type Message struct {
	ID             int64     `json:"id"`
	DeliveryID     int64     `json:"delivery_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Body           string    `json:"message"`
	AttachmentPath *string   `json:"attachment_path"`
	AttachmentType *string   `json:"attachment_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageSender is the minimal sender projection attached to broadcast
// and history payloads.
type MessageSender struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// MessageWithSender is a message hydrated with its sender projection.
type MessageWithSender struct {
	Message
	Sender *MessageSender `json:"sender"`
}
