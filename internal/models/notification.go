package models

import "time"

// DeviceToken registers a client device for push notifications. Tokens are
// upserted by value so a device changing hands re-binds to its new user.
type DeviceToken struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Token      string    `json:"token"`
	DeviceInfo *string   `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaveTokenRequest is the body for POST /notifications/token.
type SaveTokenRequest struct {
	Token      string  `json:"token" validate:"required"`
	DeviceInfo *string `json:"device_info"`
}

// Notification is the payload handed to the notification sink. Delivery is
// best-effort; a failed send never fails the operation that triggered it.
type Notification struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}
