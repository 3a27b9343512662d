package reviews

import (
	"context"
	"errors"
	"fmt"

	"carryconnect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for review storage.
type RepositoryInterface interface {
	// Create inserts the review and recomputes the reviewee's rating
	// aggregate in one transaction. A duplicate (delivery, reviewer) pair
	// returns ErrAlreadyReviewed.
	Create(ctx context.Context, review *models.Review) error
	FindByDeliveryAndReviewer(ctx context.Context, deliveryID, reviewerID int64) (*models.Review, error)
	ListByReviewee(ctx context.Context, revieweeID int64, page, limit int) ([]*models.ReviewWithReviewer, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.CreateReview begin: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
        INSERT INTO reviews (delivery_id, reviewer_id, reviewee_id, rating,
                             punctuality, communication, package_handling, comment)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	err = tx.QueryRow(ctx, insert,
		review.DeliveryID, review.ReviewerID, review.RevieweeID, review.Rating,
		review.Punctuality, review.Communication, review.PackageHandling, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrAlreadyReviewed
		}
		return fmt.Errorf("repository.CreateReview insert: %w", err)
	}

	// The user row carries a denormalized aggregate so profile reads stay a
	// single lookup. Recomputing from the reviews table keeps it exact.
	aggregate := `
        UPDATE users
        SET rating = sub.avg_rating, total_reviews = sub.cnt
        FROM (
            SELECT ROUND(AVG(rating))::int AS avg_rating, COUNT(*) AS cnt
            FROM reviews
            WHERE reviewee_id = $1
        ) AS sub
        WHERE users.id = $1`
	if _, err := tx.Exec(ctx, aggregate, review.RevieweeID); err != nil {
		return fmt.Errorf("repository.CreateReview aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.CreateReview commit: %w", err)
	}
	return nil
}

func (r *Repository) FindByDeliveryAndReviewer(ctx context.Context, deliveryID, reviewerID int64) (*models.Review, error) {
	query := `
        SELECT id, delivery_id, reviewer_id, reviewee_id, rating,
               punctuality, communication, package_handling, comment, created_at
        FROM reviews
        WHERE delivery_id = $1 AND reviewer_id = $2`
	review := &models.Review{}
	err := r.db.QueryRow(ctx, query, deliveryID, reviewerID).Scan(
		&review.ID, &review.DeliveryID, &review.ReviewerID, &review.RevieweeID, &review.Rating,
		&review.Punctuality, &review.Communication, &review.PackageHandling, &review.Comment, &review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByDeliveryAndReviewer: %w", err)
	}
	return review, nil
}

func (r *Repository) ListByReviewee(ctx context.Context, revieweeID int64, page, limit int) ([]*models.ReviewWithReviewer, error) {
	query := `
        SELECT r.id, r.delivery_id, r.reviewer_id, r.reviewee_id, r.rating,
               r.punctuality, r.communication, r.package_handling, r.comment, r.created_at,
               u.id, u.username, u.full_name
        FROM reviews r
        JOIN users u ON u.id = r.reviewer_id
        WHERE r.reviewee_id = $1
        ORDER BY r.created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, revieweeID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByReviewee: %w", err)
	}
	defer rows.Close()

	var reviews []*models.ReviewWithReviewer
	for rows.Next() {
		rv := &models.ReviewWithReviewer{Reviewer: &models.MessageSender{}}
		err := rows.Scan(
			&rv.ID, &rv.DeliveryID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating,
			&rv.Punctuality, &rv.Communication, &rv.PackageHandling, &rv.Comment, &rv.CreatedAt,
			&rv.Reviewer.ID, &rv.Reviewer.Username, &rv.Reviewer.FullName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByReviewee scan: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListByReviewee rows: %w", err)
	}
	return reviews, nil
}
