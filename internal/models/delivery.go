package models

import "time"

// DeliveryStatus is the delivery lifecycle state.
type DeliveryStatus string

const (
	StatusRequested DeliveryStatus = "requested"
	StatusAccepted  DeliveryStatus = "accepted"
	StatusPicked    DeliveryStatus = "picked"
	StatusInTransit DeliveryStatus = "in-transit"
	StatusDelivered DeliveryStatus = "delivered"
	StatusCancelled DeliveryStatus = "cancelled"
)

// ParseDeliveryStatus validates a raw status string.
func ParseDeliveryStatus(raw string) (DeliveryStatus, bool) {
	switch s := DeliveryStatus(raw); s {
	case StatusRequested, StatusAccepted, StatusPicked, StatusInTransit, StatusDelivered, StatusCancelled:
		return s, true
	}
	return "", false
}

// Terminal reports whether no further transition is defined from s.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the single forward successor of s, if any. Cancellation is
// handled separately since it is reachable from several states.
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	switch s {
	case StatusRequested:
		return StatusAccepted, true
	case StatusAccepted:
		return StatusPicked, true
	case StatusPicked:
		return StatusInTransit, true
	case StatusInTransit:
		return StatusDelivered, true
	}
	return "", false
}

// CanCancel reports whether a delivery in state s may still be cancelled.
// In-transit and delivered deliveries are past the point of no return.
func (s DeliveryStatus) CanCancel() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusPicked:
		return true
	}
	return false
}

// PackageSize buckets a package for carrier planning.
type PackageSize string

const (
	SizeSmall  PackageSize = "small"
	SizeMedium PackageSize = "medium"
	SizeLarge  PackageSize = "large"
)

// OTPType distinguishes the two handoff confirmations of a delivery.
type OTPType string

const (
	OTPPickup   OTPType = "pickup"
	OTPDelivery OTPType = "delivery"
)

// Delivery is the central entity of the marketplace. CarrierID is nil
// exactly while the status is "requested"; both OTPs are issued together
// when a carrier accepts.
type Delivery struct {
	ID                    int64          `json:"id"`
	SenderID              int64          `json:"sender_id"`
	CarrierID             *int64         `json:"carrier_id"`
	PickupLocation        string         `json:"pickup_location"`
	DropLocation          string         `json:"drop_location"`
	PackageSize           PackageSize    `json:"package_size"`
	PackageWeight         int            `json:"package_weight"` // grams
	Description           *string        `json:"description"`
	SpecialInstructions   *string        `json:"special_instructions"`
	PreferredDeliveryDate string         `json:"preferred_delivery_date"`
	PreferredDeliveryTime string         `json:"preferred_delivery_time"`
	Status                DeliveryStatus `json:"status"`
	DeliveryFee           int            `json:"delivery_fee"` // cents
	PickupOTP             *string        `json:"pickup_otp"`
	DeliveryOTP           *string        `json:"delivery_otp"`
	CancellationReason    *string        `json:"cancellation_reason"`
	CancelledAt           *time.Time     `json:"cancelled_at"`
	CreatedAt             time.Time      `json:"created_at"`
}

// IsParticipant reports whether userID is the sender or the assigned carrier.
func (d *Delivery) IsParticipant(userID int64) bool {
	if d.SenderID == userID {
		return true
	}
	return d.CarrierID != nil && *d.CarrierID == userID
}

// OtherParticipant returns the counterpart of userID on this delivery.
// The second return value is false when there is no counterpart yet.
func (d *Delivery) OtherParticipant(userID int64) (int64, bool) {
	if d.SenderID == userID {
		if d.CarrierID == nil {
			return 0, false
		}
		return *d.CarrierID, true
	}
	return d.SenderID, true
}

// DeliveryWithUsers is the canonically hydrated delivery view returned by
// every successful transition: the delivery plus safe sender and carrier
// projections.
type DeliveryWithUsers struct {
	Delivery
	Sender  *UserProfile `json:"sender"`
	Carrier *UserProfile `json:"carrier,omitempty"`
}

// Redacted returns a copy with the OTPs cleared unless the viewer is the
// sender. The codes are meant to be read by the sender and typed by the
// carrier, so no other party ever sees them.
func (d *DeliveryWithUsers) Redacted(viewerID int64) *DeliveryWithUsers {
	if d.SenderID == viewerID {
		return d
	}
	out := *d
	out.PickupOTP = nil
	out.DeliveryOTP = nil
	return &out
}

// CreateDeliveryRequest is the body for POST /deliveries.
type CreateDeliveryRequest struct {
	PickupLocation        string  `json:"pickup_location" validate:"required"`
	DropLocation          string  `json:"drop_location" validate:"required"`
	PackageSize           string  `json:"package_size" validate:"required,oneof=small medium large"`
	PackageWeight         int     `json:"package_weight" validate:"required,min=1"`
	Description           *string `json:"description"`
	SpecialInstructions   *string `json:"special_instructions"`
	PreferredDeliveryDate string  `json:"preferred_delivery_date" validate:"required"`
	PreferredDeliveryTime string  `json:"preferred_delivery_time" validate:"required"`
	DeliveryFee           int     `json:"delivery_fee" validate:"required,min=1"`
}

// TransitionRequest is the body for PATCH /deliveries/:id/status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
	OTP    string `json:"otp" validate:"omitempty,len=6,numeric"`
}

// CancelRequest is the body for POST /deliveries/:id/cancel.
type CancelRequest struct {
	CancellationReason string `json:"cancellation_reason" validate:"required"`
}

// ValidateOTPRequest is the body for POST /deliveries/:id/validate-otp.
type ValidateOTPRequest struct {
	OTP  string `json:"otp" validate:"required,len=6,numeric"`
	Type string `json:"type" validate:"omitempty,oneof=pickup delivery"`
}

// DeliveryFilters narrows the delivery marketplace listing.
type DeliveryFilters struct {
	Status         *DeliveryStatus
	PickupLocation *string
	DropLocation   *string
	PackageSize    *PackageSize
	MinWeight      *int
	MaxWeight      *int
	MinFee         *int
	MaxFee         *int
	StartDate      *string
	EndDate        *string
}
