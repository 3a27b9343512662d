package notifications

import (
	"context"
	"fmt"

	"carryconnect/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines storage for device tokens.
type RepositoryInterface interface {
	// SaveToken registers a device token for push delivery. A token that
	// already exists is reassigned to the given user.
	SaveToken(ctx context.Context, userID int64, token string, deviceInfo *string) error
	ListTokens(ctx context.Context, userID int64) ([]*models.DeviceToken, error)
	DeleteToken(ctx context.Context, userID int64, token string) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) SaveToken(ctx context.Context, userID int64, token string, deviceInfo *string) error {
	query := `
        INSERT INTO device_tokens (user_id, token, device_info)
        VALUES ($1, $2, $3)
        ON CONFLICT (token)
        DO UPDATE SET user_id = EXCLUDED.user_id, device_info = EXCLUDED.device_info, updated_at = NOW()`
	if _, err := r.db.Exec(ctx, query, userID, token, deviceInfo); err != nil {
		return fmt.Errorf("repository.SaveToken: %w", err)
	}
	return nil
}

func (r *Repository) ListTokens(ctx context.Context, userID int64) ([]*models.DeviceToken, error) {
	query := `
        SELECT id, user_id, token, device_info, created_at, updated_at
        FROM device_tokens
        WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListTokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.DeviceToken
	for rows.Next() {
		t := &models.DeviceToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceInfo, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListTokens scan: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListTokens rows: %w", err)
	}
	return tokens, nil
}

func (r *Repository) DeleteToken(ctx context.Context, userID int64, token string) error {
	query := `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`
	cmdTag, err := r.db.Exec(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("repository.DeleteToken: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
