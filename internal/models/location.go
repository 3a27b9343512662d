package models

import "time"

// DeliveryLocation is one GPS ping on a delivery's append-only location
// timeline. Coordinates are stored as the client sends them.
type DeliveryLocation struct {
	ID         int64     `json:"id"`
	DeliveryID int64     `json:"delivery_id"`
	Latitude   string    `json:"latitude"`
	Longitude  string    `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReportLocationRequest is the body for POST /deliveries/:id/location.
type ReportLocationRequest struct {
	Latitude  string `json:"latitude" validate:"required,latitude"`
	Longitude string `json:"longitude" validate:"required,longitude"`
}
