package utils

import (
	"errors"
	"net/http"
	"strconv"

	"carryconnect/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes the standard error envelope.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// ExtractUserInfo pulls the authenticated actor's id and role out of the
// request context, as set by the JWT middleware.
func ExtractUserInfo(c echo.Context) (int64, models.UserRole, error) {
	userID, ok := c.Get("userID").(int64)
	if !ok {
		return 0, "", RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
	}
	role, _ := c.Get("userRole").(models.UserRole)
	return userID, role, nil
}

// ParamInt64 parses a path parameter as an int64 id.
func ParamInt64(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// GetPageLimit reads pagination query params with sane bounds.
func GetPageLimit(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// HandleServiceError maps service sentinel errors onto HTTP responses.
// Anything unrecognized is a 500 with a generic message.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrPermissionDenied):
		return RespondWithError(c, http.StatusForbidden, "You are not allowed to perform this action")
	case errors.Is(err, models.ErrAlreadyAccepted),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrAlreadyReviewed):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrCannotCancel):
		return RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidOTP),
		errors.Is(err, models.ErrOTPRequired),
		errors.Is(err, models.ErrReasonTooShort),
		errors.Is(err, models.ErrEmptyMessage),
		errors.Is(err, models.ErrNotDelivered),
		errors.Is(err, models.ErrInvalidReviewee):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrChatUnavailable):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		return RespondWithError(c, http.StatusUnauthorized, "Invalid username or password")
	default:
		c.Logger().Error(err)
		return RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
