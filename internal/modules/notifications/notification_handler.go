package notifications

import (
	"net/http"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes device token registration.
type Handler struct {
	repo RepositoryInterface
}

func NewHandler(repo RepositoryInterface) *Handler {
	return &Handler{repo: repo}
}

// SaveToken handles POST /notifications/token.
func (h *Handler) SaveToken(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.SaveTokenRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	if err := h.repo.SaveToken(c.Request().Context(), userID, req.Token, req.DeviceInfo); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]string{"status": "saved"})
}

// DeleteToken handles DELETE /notifications/token.
func (h *Handler) DeleteToken(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.SaveTokenRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	if err := h.repo.DeleteToken(c.Request().Context(), userID, req.Token); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
