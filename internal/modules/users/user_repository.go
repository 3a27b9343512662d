package users

import (
	"context"
	"errors"
	"fmt"

	"carryconnect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines methods for interacting with user storage.
type RepositoryInterface interface {
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `id, username, password_hash, full_name, email, role, rating, total_reviews, phone_number`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FullName,
		&user.Email, &user.Role, &user.Rating, &user.TotalReviews, &user.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return user, nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByUsername: %w", err)
	}
	return user, nil
}

// Create inserts a new user. A duplicate username surfaces as ErrConflict
// via the unique constraint rather than a racy pre-check.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, full_name, email, role, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, total_reviews`

	err := r.db.QueryRow(ctx, query,
		user.Username, user.PasswordHash, user.FullName, user.Email, user.Role, user.PhoneNumber,
	).Scan(&user.ID, &user.TotalReviews)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return user, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query := `
		SELECT id, username, full_name, role, rating, total_reviews, phone_number
		FROM users
		WHERE id = $1`

	profile := &models.UserProfile{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID, &profile.Username, &profile.FullName, &profile.Role,
		&profile.Rating, &profile.TotalReviews, &profile.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.GetProfile: %w", err)
	}
	return profile, nil
}
