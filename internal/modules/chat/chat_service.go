package chat

import (
	"context"
	"strings"

	"carryconnect/internal/models"
	"carryconnect/internal/modules/deliveries"
)

const historyPageSize = 20

// ServiceInterface defines the chat business logic. Chat availability is
// derived from the delivery on every call, never cached: a room is open
// to the two participants from acceptance onward, stays open after
// completion, and closes on cancellation.
type ServiceInterface interface {
	// Authorize checks that the user may join the delivery's chat room.
	Authorize(ctx context.Context, userID, deliveryID int64) error
	// SendMessage validates, persists and then broadcasts one message.
	SendMessage(ctx context.Context, senderID, deliveryID int64, in inboundMessage) (*models.MessageWithSender, error)
	// GetHistory returns one ascending page of messages, at most
	// historyPageSize long, ending before beforeID when it is non-zero.
	GetHistory(ctx context.Context, userID, deliveryID, beforeID int64) ([]*models.MessageWithSender, error)
}

// Service implements ServiceInterface.
type Service struct {
	repo       RepositoryInterface
	deliveries deliveries.RepositoryInterface
	hub        *Hub
}

func NewService(repo RepositoryInterface, deliveryRepo deliveries.RepositoryInterface, hub *Hub) *Service {
	return &Service{repo: repo, deliveries: deliveryRepo, hub: hub}
}

func (s *Service) Authorize(ctx context.Context, userID, deliveryID int64) error {
	_, err := s.chattableDelivery(ctx, userID, deliveryID)
	return err
}

func (s *Service) SendMessage(ctx context.Context, senderID, deliveryID int64, in inboundMessage) (*models.MessageWithSender, error) {
	delivery, err := s.chattableDelivery(ctx, senderID, deliveryID)
	if err != nil {
		return nil, err
	}

	body := strings.TrimSpace(in.Message)
	if body == "" && in.AttachmentPath == nil {
		return nil, models.ErrEmptyMessage
	}

	receiverID, ok := delivery.OtherParticipant(senderID)
	if !ok {
		return nil, models.ErrChatUnavailable
	}

	msg := &models.Message{
		DeliveryID:     deliveryID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		AttachmentPath: in.AttachmentPath,
		AttachmentType: in.AttachmentType,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	// Hydrate after the insert so the broadcast carries the persisted id
	// and timestamp. Every room member, sender included, receives the
	// message through the hub.
	hydrated, err := s.repo.FindMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	s.hub.Broadcast(deliveryID, Event{Type: EventMessage, Payload: hydrated})
	return hydrated, nil
}

func (s *Service) GetHistory(ctx context.Context, userID, deliveryID, beforeID int64) ([]*models.MessageWithSender, error) {
	if _, err := s.chattableDelivery(ctx, userID, deliveryID); err != nil {
		return nil, err
	}
	return s.repo.ListByDelivery(ctx, deliveryID, beforeID, historyPageSize)
}

// chattableDelivery loads the delivery and enforces the chat gate: the
// user must be a participant, a carrier must have been assigned, and the
// delivery must not be cancelled. The gate is re-evaluated on every send,
// so a room member holding a stale connection loses the room the moment
// the delivery is cancelled.
func (s *Service) chattableDelivery(ctx context.Context, userID, deliveryID int64) (*models.Delivery, error) {
	delivery, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !delivery.IsParticipant(userID) {
		return nil, models.ErrPermissionDenied
	}
	if delivery.Status == models.StatusRequested ||
		delivery.Status == models.StatusCancelled ||
		delivery.CarrierID == nil {
		return nil, models.ErrChatUnavailable
	}
	return delivery, nil
}
