package chat

import (
	"context"
	"errors"
	"fmt"

	"carryconnect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for message storage.
type RepositoryInterface interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	FindMessage(ctx context.Context, messageID int64) (*models.MessageWithSender, error)
	// ListByDelivery returns up to limit messages in ascending creation
	// order. A non-zero beforeID restricts the page to messages older than
	// that id, which is how clients walk backwards through history.
	ListByDelivery(ctx context.Context, deliveryID, beforeID int64, limit int) ([]*models.MessageWithSender, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
        INSERT INTO messages (delivery_id, sender_id, receiver_id, message, attachment_path, attachment_type)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		msg.DeliveryID, msg.SenderID, msg.ReceiverID, msg.Body, msg.AttachmentPath, msg.AttachmentType,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateMessage: %w", err)
	}
	return nil
}

const messageWithSenderQuery = `
	SELECT m.id, m.delivery_id, m.sender_id, m.receiver_id, m.message,
	       m.attachment_path, m.attachment_type, m.created_at,
	       u.id, u.username, u.full_name
	FROM messages m
	JOIN users u ON u.id = m.sender_id`

func scanMessageWithSender(row pgx.Row) (*models.MessageWithSender, error) {
	msg := &models.MessageWithSender{Sender: &models.MessageSender{}}
	err := row.Scan(
		&msg.ID, &msg.DeliveryID, &msg.SenderID, &msg.ReceiverID, &msg.Body,
		&msg.AttachmentPath, &msg.AttachmentType, &msg.CreatedAt,
		&msg.Sender.ID, &msg.Sender.Username, &msg.Sender.FullName,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *Repository) FindMessage(ctx context.Context, messageID int64) (*models.MessageWithSender, error) {
	query := messageWithSenderQuery + ` WHERE m.id = $1`
	msg, err := scanMessageWithSender(r.db.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindMessage: %w", err)
	}
	return msg, nil
}

func (r *Repository) ListByDelivery(ctx context.Context, deliveryID, beforeID int64, limit int) ([]*models.MessageWithSender, error) {
	// The page is selected newest-first so LIMIT trims the oldest rows,
	// then flipped back to ascending for the client.
	query := messageWithSenderQuery + `
	WHERE m.delivery_id = $1 AND ($2 = 0 OR m.id < $2)
	ORDER BY m.id DESC
	LIMIT $3`
	rows, err := r.db.Query(ctx, query, deliveryID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByDelivery: %w", err)
	}
	defer rows.Close()

	var page []*models.MessageWithSender
	for rows.Next() {
		msg, err := scanMessageWithSender(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByDelivery scan: %w", err)
		}
		page = append(page, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListByDelivery rows: %w", err)
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}
