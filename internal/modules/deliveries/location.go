package deliveries

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// ------------------- Repository Layer -------------------

// LocationRepositoryInterface declares storage for the append-only GPS
// timeline of a delivery.
type LocationRepositoryInterface interface {
	CreateLocation(ctx context.Context, loc *models.DeliveryLocation) error
	// ListLocations returns the full timeline in chronological order.
	ListLocations(ctx context.Context, deliveryID int64) ([]*models.DeliveryLocation, error)
	// LatestLocation returns the most recent ping, or ErrNotFound when the
	// carrier has not reported yet.
	LatestLocation(ctx context.Context, deliveryID int64) (*models.DeliveryLocation, error)
}

// LocationRepository is a PostgreSQL implementation of LocationRepositoryInterface.
type LocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) LocationRepositoryInterface {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) CreateLocation(ctx context.Context, loc *models.DeliveryLocation) error {
	query := `
        INSERT INTO delivery_locations (delivery_id, latitude, longitude)
        VALUES ($1, $2, $3)
        RETURNING id, timestamp`
	err := r.db.QueryRow(ctx, query, loc.DeliveryID, loc.Latitude, loc.Longitude).
		Scan(&loc.ID, &loc.Timestamp)
	if err != nil {
		return fmt.Errorf("repository.CreateLocation: %w", err)
	}
	return nil
}

func (r *LocationRepository) ListLocations(ctx context.Context, deliveryID int64) ([]*models.DeliveryLocation, error) {
	query := `
        SELECT id, delivery_id, latitude, longitude, timestamp
        FROM delivery_locations
        WHERE delivery_id = $1
        ORDER BY timestamp, id`
	rows, err := r.db.Query(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListLocations: %w", err)
	}
	defer rows.Close()

	var locations []*models.DeliveryLocation
	for rows.Next() {
		loc := &models.DeliveryLocation{}
		if err := rows.Scan(&loc.ID, &loc.DeliveryID, &loc.Latitude, &loc.Longitude, &loc.Timestamp); err != nil {
			return nil, fmt.Errorf("repository.ListLocations scan: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListLocations rows: %w", err)
	}
	return locations, nil
}

func (r *LocationRepository) LatestLocation(ctx context.Context, deliveryID int64) (*models.DeliveryLocation, error) {
	query := `
        SELECT id, delivery_id, latitude, longitude, timestamp
        FROM delivery_locations
        WHERE delivery_id = $1
        ORDER BY timestamp DESC, id DESC
        LIMIT 1`
	loc := &models.DeliveryLocation{}
	err := r.db.QueryRow(ctx, query, deliveryID).
		Scan(&loc.ID, &loc.DeliveryID, &loc.Latitude, &loc.Longitude, &loc.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.LatestLocation: %w", err)
	}
	return loc, nil
}

// ------------------- Service Layer -------------------

// LocationServiceInterface defines the location feed operations.
type LocationServiceInterface interface {
	// ReportLocation appends a GPS ping. Only the assigned carrier may
	// report, and only while the delivery is moving (picked or in-transit).
	ReportLocation(ctx context.Context, deliveryID, actorID int64, req models.ReportLocationRequest) (*models.DeliveryLocation, error)
	// GetLocationHistory returns the timeline for either participant.
	GetLocationHistory(ctx context.Context, deliveryID, actorID int64) ([]*models.DeliveryLocation, error)
	// GetLatestLocation returns the newest ping for either participant.
	GetLatestLocation(ctx context.Context, deliveryID, actorID int64) (*models.DeliveryLocation, error)
	// Subscribe registers a live listener for a delivery's pings. The
	// returned cancel func must be called when the listener goes away.
	Subscribe(deliveryID int64) (<-chan *models.DeliveryLocation, func())
}

// LocationService implements LocationServiceInterface.
type LocationService struct {
	repo       LocationRepositoryInterface
	deliveries RepositoryInterface

	mu          sync.Mutex
	subscribers map[int64]map[chan *models.DeliveryLocation]struct{}
}

func NewLocationService(repo LocationRepositoryInterface, deliveries RepositoryInterface) *LocationService {
	return &LocationService{
		repo:        repo,
		deliveries:  deliveries,
		subscribers: make(map[int64]map[chan *models.DeliveryLocation]struct{}),
	}
}

func (s *LocationService) ReportLocation(ctx context.Context, deliveryID, actorID int64, req models.ReportLocationRequest) (*models.DeliveryLocation, error) {
	delivery, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.CarrierID == nil || *delivery.CarrierID != actorID {
		return nil, models.ErrPermissionDenied
	}
	if delivery.Status != models.StatusPicked && delivery.Status != models.StatusInTransit {
		return nil, models.ErrInvalidTransition
	}

	loc := &models.DeliveryLocation{
		DeliveryID: deliveryID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}

	s.publish(loc)
	return loc, nil
}

func (s *LocationService) GetLocationHistory(ctx context.Context, deliveryID, actorID int64) ([]*models.DeliveryLocation, error) {
	if err := s.authorizeViewer(ctx, deliveryID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListLocations(ctx, deliveryID)
}

func (s *LocationService) GetLatestLocation(ctx context.Context, deliveryID, actorID int64) (*models.DeliveryLocation, error) {
	if err := s.authorizeViewer(ctx, deliveryID, actorID); err != nil {
		return nil, err
	}
	return s.repo.LatestLocation(ctx, deliveryID)
}

func (s *LocationService) authorizeViewer(ctx context.Context, deliveryID, actorID int64) error {
	delivery, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if !delivery.IsParticipant(actorID) {
		return models.ErrPermissionDenied
	}
	return nil
}

func (s *LocationService) Subscribe(deliveryID int64) (<-chan *models.DeliveryLocation, func()) {
	ch := make(chan *models.DeliveryLocation, 16)

	s.mu.Lock()
	set, ok := s.subscribers[deliveryID]
	if !ok {
		set = make(map[chan *models.DeliveryLocation]struct{})
		s.subscribers[deliveryID] = set
	}
	set[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.subscribers[deliveryID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(s.subscribers, deliveryID)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *LocationService) publish(loc *models.DeliveryLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[loc.DeliveryID] {
		select {
		case ch <- loc:
		default:
			// Slow consumers drop pings rather than stall the reporter.
		}
	}
}

// ------------------- HTTP Handlers -------------------

var locationUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LocationHandler exposes the location feed over HTTP and WebSocket.
type LocationHandler struct {
	service LocationServiceInterface
}

func NewLocationHandler(service LocationServiceInterface) *LocationHandler {
	return &LocationHandler{service: service}
}

// ReportLocation handles POST /deliveries/:deliveryId/location.
func (h *LocationHandler) ReportLocation(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	var req models.ReportLocationRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	loc, err := h.service.ReportLocation(c.Request().Context(), deliveryID, userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, loc)
}

// GetLocationHistory handles GET /deliveries/:deliveryId/location.
func (h *LocationHandler) GetLocationHistory(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	locations, err := h.service.GetLocationHistory(c.Request().Context(), deliveryID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, locations)
}

// GetLatestLocation handles GET /deliveries/:deliveryId/location/latest.
func (h *LocationHandler) GetLatestLocation(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	loc, err := h.service.GetLatestLocation(c.Request().Context(), deliveryID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, loc)
}

// StreamLocation handles GET /deliveries/:deliveryId/location/stream. It
// upgrades to a WebSocket, sends the latest known position if there is
// one, then pushes every new ping as the carrier reports it.
func (h *LocationHandler) StreamLocation(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	// Authorization happens before the upgrade so a rejected viewer gets a
	// plain HTTP error instead of a closed socket.
	if _, err := h.service.GetLatestLocation(c.Request().Context(), deliveryID, userID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return utils.HandleServiceError(c, err)
	}

	conn, err := locationUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe(deliveryID)
	defer cancel()

	if latest, err := h.service.GetLatestLocation(c.Request().Context(), deliveryID, userID); err == nil {
		if err := conn.WriteJSON(latest); err != nil {
			return nil
		}
	}

	// Reads are only consumed to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case loc := <-updates:
			if err := conn.WriteJSON(loc); err != nil {
				return nil
			}
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
