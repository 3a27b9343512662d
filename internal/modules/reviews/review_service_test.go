package reviews_test

import (
	"context"
	"testing"

	"carryconnect/internal/models"
	"carryconnect/internal/modules/reviews"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReviewRepository struct{ mock.Mock }

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) FindByDeliveryAndReviewer(ctx context.Context, deliveryID, reviewerID int64) (*models.Review, error) {
	args := m.Called(ctx, deliveryID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByReviewee(ctx context.Context, revieweeID int64, page, limit int) ([]*models.ReviewWithReviewer, error) {
	args := m.Called(ctx, revieweeID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReviewWithReviewer), args.Error(1)
}

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Create(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	args := m.Called(ctx, senderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, deliveryID int64) (*models.Delivery, error) {
	args := m.Called(ctx, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindWithUsers(ctx context.Context, deliveryID int64) (*models.DeliveryWithUsers, error) {
	args := m.Called(ctx, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeliveryWithUsers), args.Error(1)
}

func (m *MockDeliveryRepository) List(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeliveryWithUsers), args.Error(1)
}

func (m *MockDeliveryRepository) ListBySender(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeliveryWithUsers), args.Error(1)
}

func (m *MockDeliveryRepository) ListByCarrier(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeliveryWithUsers), args.Error(1)
}

func (m *MockDeliveryRepository) Accept(ctx context.Context, deliveryID, carrierID int64, pickupOTP, deliveryOTP string) error {
	args := m.Called(ctx, deliveryID, carrierID, pickupOTP, deliveryOTP)
	return args.Error(0)
}

func (m *MockDeliveryRepository) AdvanceStatus(ctx context.Context, deliveryID int64, from, to models.DeliveryStatus) error {
	args := m.Called(ctx, deliveryID, from, to)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Cancel(ctx context.Context, deliveryID int64, reason string) error {
	args := m.Called(ctx, deliveryID, reason)
	return args.Error(0)
}

const (
	reviewerID = int64(1)
	revieweeID = int64(2)
	strangerID = int64(9)
)

func deliveredDelivery() *models.Delivery {
	carrier := revieweeID
	return &models.Delivery{
		ID:        5,
		SenderID:  reviewerID,
		CarrierID: &carrier,
		Status:    models.StatusDelivered,
	}
}

func validRequest() models.CreateReviewRequest {
	return models.CreateReviewRequest{
		DeliveryID:      5,
		RevieweeID:      revieweeID,
		Punctuality:     5,
		Communication:   4,
		PackageHandling: 4,
	}
}

func TestCreateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("sender reviews the carrier once", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		deliveryRepo.On("FindByID", ctx, int64(5)).Return(deliveredDelivery(), nil)
		reviewRepo.On("FindByDeliveryAndReviewer", ctx, int64(5), reviewerID).Return(nil, models.ErrNotFound)
		reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

		review, err := svc.CreateReview(ctx, reviewerID, validRequest())
		require.NoError(t, err)

		// round(mean(5, 4, 4)) = round(4.33) = 4
		assert.Equal(t, 4, review.Rating)
		assert.Equal(t, reviewerID, review.ReviewerID)
		assert.Equal(t, revieweeID, review.RevieweeID)
		reviewRepo.AssertExpectations(t)
	})

	t.Run("overall rating rounds half up", func(t *testing.T) {
		req := validRequest()
		req.Punctuality, req.Communication, req.PackageHandling = 4, 4, 5
		// mean 4.33 -> 4
		assert.Equal(t, 4, req.OverallRating())

		req.Punctuality, req.Communication, req.PackageHandling = 4, 5, 5
		// mean 4.67 -> 5
		assert.Equal(t, 5, req.OverallRating())

		req.Punctuality, req.Communication, req.PackageHandling = 3, 4, 4
		// mean 3.67 -> 4
		assert.Equal(t, 4, req.OverallRating())
	})

	t.Run("undelivered delivery cannot be reviewed", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		d := deliveredDelivery()
		d.Status = models.StatusInTransit
		deliveryRepo.On("FindByID", ctx, int64(5)).Return(d, nil)

		_, err := svc.CreateReview(ctx, reviewerID, validRequest())
		assert.ErrorIs(t, err, models.ErrNotDelivered)
		reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-participant cannot review", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		deliveryRepo.On("FindByID", ctx, int64(5)).Return(deliveredDelivery(), nil)

		_, err := svc.CreateReview(ctx, strangerID, validRequest())
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("reviewee must be the counterpart", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		deliveryRepo.On("FindByID", ctx, int64(5)).Return(deliveredDelivery(), nil)

		req := validRequest()
		req.RevieweeID = strangerID
		_, err := svc.CreateReview(ctx, reviewerID, req)
		assert.ErrorIs(t, err, models.ErrInvalidReviewee)

		// Reviewing yourself is just as invalid.
		req.RevieweeID = reviewerID
		_, err = svc.CreateReview(ctx, reviewerID, req)
		assert.ErrorIs(t, err, models.ErrInvalidReviewee)
	})

	t.Run("second review of the same delivery is rejected", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		deliveryRepo.On("FindByID", ctx, int64(5)).Return(deliveredDelivery(), nil)
		reviewRepo.On("FindByDeliveryAndReviewer", ctx, int64(5), reviewerID).
			Return(&models.Review{ID: 1}, nil)

		_, err := svc.CreateReview(ctx, reviewerID, validRequest())
		assert.ErrorIs(t, err, models.ErrAlreadyReviewed)
		reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("carrier reviews the sender", func(t *testing.T) {
		reviewRepo := new(MockReviewRepository)
		deliveryRepo := new(MockDeliveryRepository)
		svc := reviews.NewService(reviewRepo, deliveryRepo)

		deliveryRepo.On("FindByID", ctx, int64(5)).Return(deliveredDelivery(), nil)
		reviewRepo.On("FindByDeliveryAndReviewer", ctx, int64(5), revieweeID).Return(nil, models.ErrNotFound)
		reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

		req := validRequest()
		req.RevieweeID = reviewerID
		review, err := svc.CreateReview(ctx, revieweeID, req)
		require.NoError(t, err)
		assert.Equal(t, reviewerID, review.RevieweeID)
	})
}
