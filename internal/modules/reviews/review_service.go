package reviews

import (
	"context"
	"errors"

	"carryconnect/internal/models"
	"carryconnect/internal/modules/deliveries"
)

// ServiceInterface defines the review business logic.
type ServiceInterface interface {
	// CreateReview accepts exactly one review per participant per delivered
	// delivery, aimed at the other participant.
	CreateReview(ctx context.Context, reviewerID int64, req models.CreateReviewRequest) (*models.Review, error)
	ListUserReviews(ctx context.Context, userID int64, page, limit int) ([]*models.ReviewWithReviewer, error)
}

// Service implements ServiceInterface.
type Service struct {
	repo       RepositoryInterface
	deliveries deliveries.RepositoryInterface
}

func NewService(repo RepositoryInterface, deliveryRepo deliveries.RepositoryInterface) *Service {
	return &Service{repo: repo, deliveries: deliveryRepo}
}

func (s *Service) CreateReview(ctx context.Context, reviewerID int64, req models.CreateReviewRequest) (*models.Review, error) {
	delivery, err := s.deliveries.FindByID(ctx, req.DeliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.IsParticipant(reviewerID) {
		return nil, models.ErrPermissionDenied
	}
	if delivery.Status != models.StatusDelivered {
		return nil, models.ErrNotDelivered
	}

	// The reviewee is always the counterpart; a client-supplied id that
	// points anywhere else is rejected.
	other, ok := delivery.OtherParticipant(reviewerID)
	if !ok || req.RevieweeID != other {
		return nil, models.ErrInvalidReviewee
	}

	if _, err := s.repo.FindByDeliveryAndReviewer(ctx, req.DeliveryID, reviewerID); err == nil {
		return nil, models.ErrAlreadyReviewed
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		DeliveryID:      req.DeliveryID,
		ReviewerID:      reviewerID,
		RevieweeID:      req.RevieweeID,
		Rating:          req.OverallRating(),
		Punctuality:     req.Punctuality,
		Communication:   req.Communication,
		PackageHandling: req.PackageHandling,
		Comment:         req.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) ListUserReviews(ctx context.Context, userID int64, page, limit int) ([]*models.ReviewWithReviewer, error) {
	return s.repo.ListByReviewee(ctx, userID, page, limit)
}
