package deliveries

import (
	"context"
	"fmt"
	"strings"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"
)

// Notifier is the best-effort notification sink. Implementations must
// never block the caller on delivery and must swallow send failures.
type Notifier interface {
	Send(userID int64, n models.Notification)
}

// ServiceInterface is the command surface of the delivery state machine.
type ServiceInterface interface {
	CreateDelivery(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.DeliveryWithUsers, error)
	GetDelivery(ctx context.Context, deliveryID, viewerID int64) (*models.DeliveryWithUsers, error)
	ListDeliveries(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error)
	ListSenderDeliveries(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error)
	ListCarrierDeliveries(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error)

	// TransitionStatus validates and applies one lifecycle step. Every
	// successful call returns the hydrated delivery, with OTPs redacted
	// for any viewer other than the sender.
	TransitionStatus(ctx context.Context, deliveryID, actorID int64, target models.DeliveryStatus, otp string) (*models.DeliveryWithUsers, error)

	CancelDelivery(ctx context.Context, deliveryID, actorID int64, reason string) (*models.DeliveryWithUsers, error)

	// ValidateOTP is a read-only, carrier-only equality check; it never
	// mutates state and never reveals the expected code.
	ValidateOTP(ctx context.Context, deliveryID, actorID int64, otp string, otpType models.OTPType) (bool, error)
}

// Service implements the delivery state machine. It holds no delivery
// state of its own: every mutation re-reads the persisted record and
// relies on the repository's conditional updates for serialization.
type Service struct {
	repo     RepositoryInterface
	notifier Notifier
}

func NewService(repo RepositoryInterface, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) CreateDelivery(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.DeliveryWithUsers, error) {
	created, err := s.repo.Create(ctx, senderID, req)
	if err != nil {
		return nil, fmt.Errorf("service.CreateDelivery: %w", err)
	}
	return s.hydrated(ctx, created.ID, senderID)
}

func (s *Service) GetDelivery(ctx context.Context, deliveryID, viewerID int64) (*models.DeliveryWithUsers, error) {
	return s.hydrated(ctx, deliveryID, viewerID)
}

func (s *Service) ListDeliveries(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error) {
	out, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("service.ListDeliveries: %w", err)
	}
	// Marketplace listings are visible to any carrier; OTPs are for
	// participants only, so redact unconditionally.
	for i, d := range out {
		out[i] = d.Redacted(0)
	}
	return out, nil
}

func (s *Service) ListSenderDeliveries(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	out, err := s.repo.ListBySender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ListSenderDeliveries: %w", err)
	}
	return out, nil
}

func (s *Service) ListCarrierDeliveries(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	out, err := s.repo.ListByCarrier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ListCarrierDeliveries: %w", err)
	}
	for i, d := range out {
		out[i] = d.Redacted(userID)
	}
	return out, nil
}

func (s *Service) TransitionStatus(ctx context.Context, deliveryID, actorID int64, target models.DeliveryStatus, otp string) (*models.DeliveryWithUsers, error) {
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	switch target {
	case models.StatusAccepted:
		if err := s.accept(ctx, delivery, actorID); err != nil {
			return nil, err
		}
	case models.StatusPicked, models.StatusInTransit, models.StatusDelivered:
		if err := s.advance(ctx, delivery, actorID, target, otp); err != nil {
			return nil, err
		}
	default:
		// "requested" is never a target; "cancelled" goes through
		// CancelDelivery where the reason is mandatory.
		return nil, models.ErrInvalidTransition
	}

	return s.hydrated(ctx, deliveryID, actorID)
}

// accept runs the acceptance race. The repository's check-and-set is the
// authority; the checks here only produce friendlier errors for requests
// that were already stale when they arrived.
func (s *Service) accept(ctx context.Context, delivery *models.Delivery, actorID int64) error {
	if delivery.SenderID == actorID {
		return models.ErrPermissionDenied
	}
	if delivery.CarrierID != nil {
		return models.ErrAlreadyAccepted
	}
	if delivery.Status != models.StatusRequested {
		return models.ErrInvalidTransition
	}

	pickupOTP, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("service.accept: %w", err)
	}
	deliveryOTP, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("service.accept: %w", err)
	}

	if err := s.repo.Accept(ctx, delivery.ID, actorID, pickupOTP, deliveryOTP); err != nil {
		return err
	}

	s.notify(delivery.SenderID, models.Notification{
		Title: "Delivery Accepted",
		Body:  "A carrier has accepted your delivery request.",
		Data:  map[string]any{"deliveryId": delivery.ID, "type": "delivery_accepted"},
	})
	return nil
}

func (s *Service) advance(ctx context.Context, delivery *models.Delivery, actorID int64, target models.DeliveryStatus, otp string) error {
	if delivery.CarrierID == nil || *delivery.CarrierID != actorID {
		return models.ErrPermissionDenied
	}

	next, ok := delivery.Status.Next()
	if !ok || next != target {
		return models.ErrInvalidTransition
	}

	// Pickup and final handoff are OTP-gated; the in-transit step is not.
	var expected *string
	switch target {
	case models.StatusPicked:
		expected = delivery.PickupOTP
	case models.StatusDelivered:
		expected = delivery.DeliveryOTP
	}
	if target == models.StatusPicked || target == models.StatusDelivered {
		if otp == "" {
			return models.ErrOTPRequired
		}
		if expected == nil || *expected != otp {
			return models.ErrInvalidOTP
		}
	}

	return s.repo.AdvanceStatus(ctx, delivery.ID, delivery.Status, target)
}

func (s *Service) CancelDelivery(ctx context.Context, deliveryID, actorID int64, reason string) (*models.DeliveryWithUsers, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < 10 {
		return nil, models.ErrReasonTooShort
	}

	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.IsParticipant(actorID) {
		return nil, models.ErrPermissionDenied
	}
	if !delivery.Status.CanCancel() {
		return nil, models.ErrCannotCancel
	}

	if err := s.repo.Cancel(ctx, deliveryID, reason); err != nil {
		return nil, err
	}

	byWhom := "sender"
	if delivery.CarrierID != nil && *delivery.CarrierID == actorID {
		byWhom = "carrier"
	}
	if other, ok := delivery.OtherParticipant(actorID); ok {
		s.notify(other, models.Notification{
			Title: "Delivery Cancelled",
			Body:  fmt.Sprintf("The delivery has been cancelled by the %s. Reason: %s", byWhom, reason),
			Data:  map[string]any{"deliveryId": deliveryID, "type": "delivery_cancelled"},
		})
	}

	return s.hydrated(ctx, deliveryID, actorID)
}

func (s *Service) ValidateOTP(ctx context.Context, deliveryID, actorID int64, otp string, otpType models.OTPType) (bool, error) {
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return false, err
	}
	if delivery.CarrierID == nil || *delivery.CarrierID != actorID {
		return false, models.ErrPermissionDenied
	}

	expected := delivery.PickupOTP
	if otpType == models.OTPDelivery {
		expected = delivery.DeliveryOTP
	}
	return expected != nil && *expected == otp, nil
}

func (s *Service) hydrated(ctx context.Context, deliveryID, viewerID int64) (*models.DeliveryWithUsers, error) {
	d, err := s.repo.FindWithUsers(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	return d.Redacted(viewerID), nil
}

func (s *Service) notify(userID int64, n models.Notification) {
	if s.notifier != nil {
		s.notifier.Send(userID, n)
	}
}
