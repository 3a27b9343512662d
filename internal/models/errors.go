package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a write collides with existing state,
	// e.g. a taken username or a second review for the same delivery.
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPermissionDenied is returned when the actor is not a participant
	// of the delivery, or not the role the operation requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyAccepted is returned when a carrier tries to accept a
	// delivery that another carrier has already won.
	ErrAlreadyAccepted = errors.New("delivery has already been accepted by someone else")

	// ErrInvalidTransition is returned when the requested status change is
	// not defined from the delivery's current status.
	ErrInvalidTransition = errors.New("status transition not allowed from current state")

	// ErrInvalidOTP is returned on an OTP mismatch. The expected code is
	// never included in the message.
	ErrInvalidOTP = errors.New("invalid OTP")

	// ErrOTPRequired is returned when a transition needs an OTP and none
	// was supplied.
	ErrOTPRequired = errors.New("OTP is required")

	// ErrCannotCancel is returned when the delivery's status no longer
	// permits cancellation.
	ErrCannotCancel = errors.New("delivery can no longer be cancelled")

	// ErrReasonTooShort is returned when a cancellation reason is shorter
	// than 10 characters after trimming.
	ErrReasonTooShort = errors.New("cancellation reason must be at least 10 characters")

	// ErrChatUnavailable is returned when chat is requested for a delivery
	// that has no assigned carrier yet, or that was cancelled.
	ErrChatUnavailable = errors.New("chat is only available after delivery is accepted")

	// ErrEmptyMessage is returned when a chat message has neither text nor
	// an attachment.
	ErrEmptyMessage = errors.New("message or attachment is required")

	// ErrNotDelivered is returned when a review targets a delivery that has
	// not reached the delivered state.
	ErrNotDelivered = errors.New("can only review completed deliveries")

	// ErrAlreadyReviewed is returned when the reviewer already reviewed
	// this delivery.
	ErrAlreadyReviewed = errors.New("you have already reviewed this delivery")

	// ErrInvalidReviewee is returned when the reviewee is not the other
	// participant of the delivery.
	ErrInvalidReviewee = errors.New("invalid reviewee")
)

// ErrorResponse is the JSON error envelope returned by every handler.
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError carries field-level validation detail.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
