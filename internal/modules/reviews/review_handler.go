package reviews

import (
	"net/http"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes review endpoints.
type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateReview handles POST /reviews.
func (h *Handler) CreateReview(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	review, err := h.service.CreateReview(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, review)
}

// ListUserReviews handles GET /users/:userId/reviews.
func (h *Handler) ListUserReviews(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}
	userID, err := utils.ParamInt64(c, "userId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid user ID")
	}
	page, limit := utils.GetPageLimit(c)

	reviews, err := h.service.ListUserReviews(c.Request().Context(), userID, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, reviews)
}
