package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"carryconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessageRepo stores messages in memory with monotonically increasing
// ids and timestamps, mirroring the database ordering guarantees.
type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	messages []*models.MessageWithSender
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = f.nextID
	f.nextID++
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, &models.MessageWithSender{
		Message: *msg,
		Sender:  &models.MessageSender{ID: msg.SenderID},
	})
	return nil
}

func (f *fakeMessageRepo) FindMessage(ctx context.Context, messageID int64) (*models.MessageWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeMessageRepo) ListByDelivery(ctx context.Context, deliveryID, beforeID int64, limit int) ([]*models.MessageWithSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var page []*models.MessageWithSender
	for i := len(f.messages) - 1; i >= 0 && len(page) < limit; i-- {
		m := f.messages[i]
		if m.DeliveryID != deliveryID {
			continue
		}
		if beforeID != 0 && m.ID >= beforeID {
			continue
		}
		page = append(page, m)
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// fakeDeliveryStore serves a single fixed delivery to the chat gate.
type fakeDeliveryStore struct {
	delivery *models.Delivery
}

func (f *fakeDeliveryStore) FindByID(ctx context.Context, deliveryID int64) (*models.Delivery, error) {
	if f.delivery == nil || f.delivery.ID != deliveryID {
		return nil, models.ErrNotFound
	}
	d := *f.delivery
	return &d, nil
}

func (f *fakeDeliveryStore) Create(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	return nil, models.ErrNotFound
}
func (f *fakeDeliveryStore) FindWithUsers(ctx context.Context, deliveryID int64) (*models.DeliveryWithUsers, error) {
	return nil, models.ErrNotFound
}
func (f *fakeDeliveryStore) List(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error) {
	return nil, nil
}
func (f *fakeDeliveryStore) ListBySender(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	return nil, nil
}
func (f *fakeDeliveryStore) ListByCarrier(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	return nil, nil
}
func (f *fakeDeliveryStore) Accept(ctx context.Context, deliveryID, carrierID int64, pickupOTP, deliveryOTP string) error {
	return nil
}
func (f *fakeDeliveryStore) AdvanceStatus(ctx context.Context, deliveryID int64, from, to models.DeliveryStatus) error {
	return nil
}
func (f *fakeDeliveryStore) Cancel(ctx context.Context, deliveryID int64, reason string) error {
	return nil
}

const (
	testSenderID  = int64(10)
	testCarrierID = int64(20)
	testOtherID   = int64(30)
)

func acceptedDelivery() *models.Delivery {
	carrier := testCarrierID
	return &models.Delivery{
		ID:        1,
		SenderID:  testSenderID,
		CarrierID: &carrier,
		Status:    models.StatusAccepted,
	}
}

func newChatService(delivery *models.Delivery) (*Service, *fakeMessageRepo, *Hub) {
	repo := newFakeMessageRepo()
	hub := NewHub()
	go hub.Run()
	return NewService(repo, &fakeDeliveryStore{delivery: delivery}, hub), repo, hub
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("participants may join from acceptance onward", func(t *testing.T) {
		svc, _, _ := newChatService(acceptedDelivery())
		assert.NoError(t, svc.Authorize(ctx, testSenderID, 1))
		assert.NoError(t, svc.Authorize(ctx, testCarrierID, 1))
	})

	t.Run("requested delivery has no room", func(t *testing.T) {
		d := &models.Delivery{ID: 1, SenderID: testSenderID, Status: models.StatusRequested}
		svc, _, _ := newChatService(d)
		assert.ErrorIs(t, svc.Authorize(ctx, testSenderID, 1), models.ErrChatUnavailable)
	})

	t.Run("third user is rejected", func(t *testing.T) {
		svc, _, _ := newChatService(acceptedDelivery())
		assert.ErrorIs(t, svc.Authorize(ctx, testOtherID, 1), models.ErrPermissionDenied)
	})

	t.Run("room survives delivery completion", func(t *testing.T) {
		d := acceptedDelivery()
		d.Status = models.StatusDelivered
		svc, _, _ := newChatService(d)
		assert.NoError(t, svc.Authorize(ctx, testSenderID, 1))
	})

	t.Run("cancelled delivery closes the room", func(t *testing.T) {
		d := acceptedDelivery()
		d.Status = models.StatusCancelled
		svc, _, _ := newChatService(d)
		assert.ErrorIs(t, svc.Authorize(ctx, testSenderID, 1), models.ErrChatUnavailable)
	})

	t.Run("missing delivery", func(t *testing.T) {
		svc, _, _ := newChatService(acceptedDelivery())
		assert.ErrorIs(t, svc.Authorize(ctx, testSenderID, 99), models.ErrNotFound)
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("message is persisted and addressed to the counterpart", func(t *testing.T) {
		svc, repo, _ := newChatService(acceptedDelivery())

		msg, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: "  on my way  "})
		require.NoError(t, err)
		assert.Equal(t, "on my way", msg.Body)
		assert.Equal(t, testSenderID, msg.SenderID)
		assert.Equal(t, testCarrierID, msg.ReceiverID)
		assert.NotZero(t, msg.ID)

		reply, err := svc.SendMessage(ctx, testCarrierID, 1, inboundMessage{Message: "see you soon"})
		require.NoError(t, err)
		assert.Equal(t, testSenderID, reply.ReceiverID)

		assert.Len(t, repo.messages, 2)
	})

	t.Run("blank message without attachment is rejected", func(t *testing.T) {
		svc, repo, _ := newChatService(acceptedDelivery())

		_, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: "   "})
		assert.ErrorIs(t, err, models.ErrEmptyMessage)
		assert.Empty(t, repo.messages)
	})

	t.Run("attachment-only message is allowed", func(t *testing.T) {
		svc, _, _ := newChatService(acceptedDelivery())

		path := "/uploads/photo.jpg"
		msg, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{AttachmentPath: &path})
		require.NoError(t, err)
		require.NotNil(t, msg.AttachmentPath)
		assert.Equal(t, path, *msg.AttachmentPath)
	})

	t.Run("gate is re-checked on every send", func(t *testing.T) {
		d := &models.Delivery{ID: 1, SenderID: testSenderID, Status: models.StatusRequested}
		svc, _, _ := newChatService(d)

		_, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: "hello"})
		assert.ErrorIs(t, err, models.ErrChatUnavailable)
	})

	t.Run("sent message reaches the room", func(t *testing.T) {
		svc, _, hub := newChatService(acceptedDelivery())

		client := newClient(hub, nil, svc, testCarrierID, 1)
		hub.Join(1, client)

		_, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: "ping"})
		require.NoError(t, err)

		select {
		case event := <-client.send:
			assert.Equal(t, EventMessage, event.Type)
			payload, ok := event.Payload.(*models.MessageWithSender)
			require.True(t, ok)
			assert.Equal(t, "ping", payload.Body)
		case <-time.After(time.Second):
			t.Fatal("broadcast never arrived")
		}
	})
}

func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newChatService(acceptedDelivery())

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		_, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: b})
		require.NoError(t, err)
	}

	t.Run("history keeps send order with non-decreasing timestamps", func(t *testing.T) {
		history, err := svc.GetHistory(ctx, testCarrierID, 1, 0)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i, m := range history {
			assert.Equal(t, bodies[i], m.Body)
			if i > 0 {
				assert.False(t, m.CreatedAt.Before(history[i-1].CreatedAt))
			}
		}
	})

	t.Run("before cursor pages backwards", func(t *testing.T) {
		full, err := svc.GetHistory(ctx, testCarrierID, 1, 0)
		require.NoError(t, err)

		older, err := svc.GetHistory(ctx, testCarrierID, 1, full[2].ID)
		require.NoError(t, err)
		require.Len(t, older, 2)
		assert.Equal(t, "first", older[0].Body)
		assert.Equal(t, "second", older[1].Body)
	})

	t.Run("non-participant gets no history", func(t *testing.T) {
		_, err := svc.GetHistory(ctx, testOtherID, 1, 0)
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("page size is capped", func(t *testing.T) {
		svc, _, _ := newChatService(acceptedDelivery())
		for i := 0; i < historyPageSize+5; i++ {
			_, err := svc.SendMessage(ctx, testSenderID, 1, inboundMessage{Message: "msg"})
			require.NoError(t, err)
		}
		history, err := svc.GetHistory(ctx, testCarrierID, 1, 0)
		require.NoError(t, err)
		assert.Len(t, history, historyPageSize)
	})
}
