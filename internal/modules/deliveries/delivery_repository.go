package deliveries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carryconnect/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for delivery storage. Accept,
// AdvanceStatus and Cancel are conditional updates: the WHERE clause
// carries the expected current state, so concurrent writers serialize at
// the database and a stale request affects zero rows.
type RepositoryInterface interface {
	Create(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.Delivery, error)
	FindByID(ctx context.Context, deliveryID int64) (*models.Delivery, error)
	FindWithUsers(ctx context.Context, deliveryID int64) (*models.DeliveryWithUsers, error)
	List(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error)
	ListBySender(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error)
	ListByCarrier(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error)

	// Accept atomically assigns the carrier, stores both OTPs and moves the
	// delivery to "accepted" — but only if it is still unclaimed. Returns
	// ErrAlreadyAccepted when another carrier won the race.
	Accept(ctx context.Context, deliveryID, carrierID int64, pickupOTP, deliveryOTP string) error

	// AdvanceStatus moves from exactly `from` to `to`. Returns ErrConflict
	// when the delivery is no longer in `from`.
	AdvanceStatus(ctx context.Context, deliveryID int64, from, to models.DeliveryStatus) error

	// Cancel marks the delivery cancelled with a reason and timestamp,
	// guarded on the still-cancellable statuses. Returns ErrCannotCancel
	// when the delivery has moved past that window.
	Cancel(ctx context.Context, deliveryID int64, reason string) error
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const deliveryColumns = `
	id, sender_id, carrier_id, pickup_location, drop_location, package_size,
	package_weight, description, special_instructions, preferred_delivery_date,
	preferred_delivery_time, status, delivery_fee, pickup_otp, delivery_otp,
	cancellation_reason, cancelled_at, created_at`

func scanDelivery(row pgx.Row) (*models.Delivery, error) {
	d := &models.Delivery{}
	err := row.Scan(
		&d.ID, &d.SenderID, &d.CarrierID, &d.PickupLocation, &d.DropLocation,
		&d.PackageSize, &d.PackageWeight, &d.Description, &d.SpecialInstructions,
		&d.PreferredDeliveryDate, &d.PreferredDeliveryTime, &d.Status, &d.DeliveryFee,
		&d.PickupOTP, &d.DeliveryOTP, &d.CancellationReason, &d.CancelledAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan delivery: %w", err)
	}
	return d, nil
}

func (r *Repository) Create(ctx context.Context, senderID int64, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	query := `
		INSERT INTO deliveries (
			sender_id, pickup_location, drop_location, package_size, package_weight,
			description, special_instructions, preferred_delivery_date,
			preferred_delivery_time, status, delivery_fee
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'requested', $10)
		RETURNING` + deliveryColumns

	row := r.db.QueryRow(ctx, query,
		senderID, req.PickupLocation, req.DropLocation, req.PackageSize, req.PackageWeight,
		req.Description, req.SpecialInstructions, req.PreferredDeliveryDate,
		req.PreferredDeliveryTime, req.DeliveryFee,
	)
	d, err := scanDelivery(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return d, nil
}

func (r *Repository) FindByID(ctx context.Context, deliveryID int64) (*models.Delivery, error) {
	query := `SELECT` + deliveryColumns + ` FROM deliveries WHERE id = $1`
	d, err := scanDelivery(r.db.QueryRow(ctx, query, deliveryID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return d, nil
}

const deliveryWithUsersQuery = `
	SELECT
		d.id, d.sender_id, d.carrier_id, d.pickup_location, d.drop_location,
		d.package_size, d.package_weight, d.description, d.special_instructions,
		d.preferred_delivery_date, d.preferred_delivery_time, d.status,
		d.delivery_fee, d.pickup_otp, d.delivery_otp, d.cancellation_reason,
		d.cancelled_at, d.created_at,
		s.id, s.username, s.full_name, s.role, s.rating, s.total_reviews, s.phone_number,
		c.id, c.username, c.full_name, c.role, c.rating, c.total_reviews, c.phone_number
	FROM deliveries d
	JOIN users s ON s.id = d.sender_id
	LEFT JOIN users c ON c.id = d.carrier_id`

func scanDeliveryWithUsers(row pgx.Row) (*models.DeliveryWithUsers, error) {
	out := &models.DeliveryWithUsers{}
	sender := models.UserProfile{}

	var (
		carrierID       *int64
		carrierUsername *string
		carrierFullName *string
		carrierRole     *models.UserRole
		carrierRating   *int
		carrierReviews  *int
		carrierPhone    *string
	)

	err := row.Scan(
		&out.ID, &out.SenderID, &out.CarrierID, &out.PickupLocation, &out.DropLocation,
		&out.PackageSize, &out.PackageWeight, &out.Description, &out.SpecialInstructions,
		&out.PreferredDeliveryDate, &out.PreferredDeliveryTime, &out.Status,
		&out.DeliveryFee, &out.PickupOTP, &out.DeliveryOTP, &out.CancellationReason,
		&out.CancelledAt, &out.CreatedAt,
		&sender.ID, &sender.Username, &sender.FullName, &sender.Role,
		&sender.Rating, &sender.TotalReviews, &sender.PhoneNumber,
		&carrierID, &carrierUsername, &carrierFullName, &carrierRole,
		&carrierRating, &carrierReviews, &carrierPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan delivery with users: %w", err)
	}

	out.Sender = &sender
	if carrierID != nil {
		carrier := &models.UserProfile{
			ID:          *carrierID,
			Username:    *carrierUsername,
			FullName:    *carrierFullName,
			Role:        *carrierRole,
			Rating:      carrierRating,
			PhoneNumber: carrierPhone,
		}
		if carrierReviews != nil {
			carrier.TotalReviews = *carrierReviews
		}
		out.Carrier = carrier
	}
	return out, nil
}

func (r *Repository) FindWithUsers(ctx context.Context, deliveryID int64) (*models.DeliveryWithUsers, error) {
	query := deliveryWithUsersQuery + ` WHERE d.id = $1`
	d, err := scanDeliveryWithUsers(r.db.QueryRow(ctx, query, deliveryID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindWithUsers: %w", err)
	}
	return d, nil
}

func (r *Repository) queryManyWithUsers(ctx context.Context, query string, args ...interface{}) ([]*models.DeliveryWithUsers, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.DeliveryWithUsers
	for rows.Next() {
		d, err := scanDeliveryWithUsers(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns marketplace deliveries matching the filters, most recent
// first, hydrated with sender and carrier projections.
func (r *Repository) List(ctx context.Context, filters models.DeliveryFilters) ([]*models.DeliveryWithUsers, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	add := func(cond string, val interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argIdx))
		args = append(args, val)
		argIdx++
	}

	if filters.Status != nil {
		add("d.status = $%d", *filters.Status)
	}
	if filters.PickupLocation != nil {
		add("d.pickup_location = $%d", *filters.PickupLocation)
	}
	if filters.DropLocation != nil {
		add("d.drop_location = $%d", *filters.DropLocation)
	}
	if filters.PackageSize != nil {
		add("d.package_size = $%d", *filters.PackageSize)
	}
	if filters.MinWeight != nil {
		add("d.package_weight >= $%d", *filters.MinWeight)
	}
	if filters.MaxWeight != nil {
		add("d.package_weight <= $%d", *filters.MaxWeight)
	}
	if filters.MinFee != nil {
		add("d.delivery_fee >= $%d", *filters.MinFee)
	}
	if filters.MaxFee != nil {
		add("d.delivery_fee <= $%d", *filters.MaxFee)
	}
	if filters.StartDate != nil {
		add("d.preferred_delivery_date >= $%d", *filters.StartDate)
	}
	if filters.EndDate != nil {
		add("d.preferred_delivery_date <= $%d", *filters.EndDate)
	}

	query := deliveryWithUsersQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY d.created_at DESC"

	out, err := r.queryManyWithUsers(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.List: %w", err)
	}
	return out, nil
}

func (r *Repository) ListBySender(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	query := deliveryWithUsersQuery + ` WHERE d.sender_id = $1 ORDER BY d.created_at DESC`
	out, err := r.queryManyWithUsers(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListBySender: %w", err)
	}
	return out, nil
}

func (r *Repository) ListByCarrier(ctx context.Context, userID int64) ([]*models.DeliveryWithUsers, error) {
	query := deliveryWithUsersQuery + ` WHERE d.carrier_id = $1 ORDER BY d.created_at DESC`
	out, err := r.queryManyWithUsers(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByCarrier: %w", err)
	}
	return out, nil
}

// Accept is the single check-and-set for the acceptance race: carrier
// assignment, both OTPs and the status move happen in one statement, and
// only while the delivery is still unclaimed. A concurrent winner leaves
// zero rows for the loser.
func (r *Repository) Accept(ctx context.Context, deliveryID, carrierID int64, pickupOTP, deliveryOTP string) error {
	query := `
		UPDATE deliveries
		SET carrier_id = $2, pickup_otp = $3, delivery_otp = $4, status = 'accepted'
		WHERE id = $1 AND status = 'requested' AND carrier_id IS NULL`

	cmdTag, err := r.db.Exec(ctx, query, deliveryID, carrierID, pickupOTP, deliveryOTP)
	if err != nil {
		return fmt.Errorf("repository.Accept: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrAlreadyAccepted
	}
	return nil
}

func (r *Repository) AdvanceStatus(ctx context.Context, deliveryID int64, from, to models.DeliveryStatus) error {
	query := `
		UPDATE deliveries
		SET status = $3
		WHERE id = $1 AND status = $2`

	cmdTag, err := r.db.Exec(ctx, query, deliveryID, from, to)
	if err != nil {
		return fmt.Errorf("repository.AdvanceStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

func (r *Repository) Cancel(ctx context.Context, deliveryID int64, reason string) error {
	query := `
		UPDATE deliveries
		SET status = 'cancelled', cancellation_reason = $2, cancelled_at = NOW()
		WHERE id = $1 AND status IN ('requested', 'accepted', 'picked')`

	cmdTag, err := r.db.Exec(ctx, query, deliveryID, reason)
	if err != nil {
		return fmt.Errorf("repository.Cancel: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrCannotCancel
	}
	return nil
}
