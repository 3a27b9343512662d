package models

import "time"

// Review rates the other participant of a completed delivery. The overall
// rating is derived as round(mean) of the three sub-ratings.
type Review struct {
	ID              int64     `json:"id"`
	DeliveryID      int64     `json:"delivery_id"`
	ReviewerID      int64     `json:"reviewer_id"`
	RevieweeID      int64     `json:"reviewee_id"`
	Rating          int       `json:"rating"`
	Punctuality     int       `json:"punctuality"`
	Communication   int       `json:"communication"`
	PackageHandling int       `json:"package_handling"`
	Comment         *string   `json:"comment"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReviewWithReviewer is a review hydrated with the reviewer projection,
// used on public profile pages.
type ReviewWithReviewer struct {
	Review
	Reviewer *MessageSender `json:"reviewer"`
}

// CreateReviewRequest is the body for POST /reviews.
type CreateReviewRequest struct {
	DeliveryID      int64   `json:"delivery_id" validate:"required"`
	RevieweeID      int64   `json:"reviewee_id" validate:"required"`
	Punctuality     int     `json:"punctuality" validate:"required,min=1,max=5"`
	Communication   int     `json:"communication" validate:"required,min=1,max=5"`
	PackageHandling int     `json:"package_handling" validate:"required,min=1,max=5"`
	Comment         *string `json:"comment"`
}

// OverallRating computes the derived overall rating.
func (r *CreateReviewRequest) OverallRating() int {
	sum := r.Punctuality + r.Communication + r.PackageHandling
	return int(float64(sum)/3.0 + 0.5)
}
