package users

import (
	"net/http"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for accounts and profiles.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	resp, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		if err == models.ErrConflict {
			return utils.RespondWithError(c, http.StatusConflict, "Username already exists")
		}
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// GetMe returns the authenticated user's own profile.
func (h *Handler) GetMe(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, profile)
}

// GetProfile returns the public safe projection of any user.
func (h *Handler) GetProfile(c echo.Context) error {
	userID, err := utils.ParamInt64(c, "userId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid user ID")
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	return utils.RespondWithJSON(c, http.StatusOK, profile)
}
