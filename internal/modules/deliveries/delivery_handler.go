package deliveries

import (
	"errors"
	"net/http"
	"strconv"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes the delivery lifecycle over HTTP.
type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateDelivery handles POST /deliveries.
func (h *Handler) CreateDelivery(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	delivery, err := h.service.CreateDelivery(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, delivery)
}

// GetDelivery handles GET /deliveries/:deliveryId.
func (h *Handler) GetDelivery(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	delivery, err := h.service.GetDelivery(c.Request().Context(), deliveryID, userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, delivery)
}

// ListDeliveries handles GET /deliveries with marketplace filters.
func (h *Handler) ListDeliveries(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	filters, err := bindFilters(c)
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	deliveries, err := h.service.ListDeliveries(c.Request().Context(), filters)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, deliveries)
}

// ListMySenderDeliveries handles GET /deliveries/sent.
func (h *Handler) ListMySenderDeliveries(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveries, err := h.service.ListSenderDeliveries(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, deliveries)
}

// ListMyCarrierDeliveries handles GET /deliveries/carrying.
func (h *Handler) ListMyCarrierDeliveries(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveries, err := h.service.ListCarrierDeliveries(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, deliveries)
}

// TransitionStatus handles PATCH /deliveries/:deliveryId/status.
func (h *Handler) TransitionStatus(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	var req models.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}
	target, ok := models.ParseDeliveryStatus(req.Status)
	if !ok {
		return utils.RespondWithError(c, http.StatusBadRequest, "Unknown delivery status")
	}

	delivery, err := h.service.TransitionStatus(c.Request().Context(), deliveryID, userID, target, req.OTP)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, delivery)
}

// CancelDelivery handles POST /deliveries/:deliveryId/cancel.
func (h *Handler) CancelDelivery(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	var req models.CancelRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}

	delivery, err := h.service.CancelDelivery(c.Request().Context(), deliveryID, userID, req.CancellationReason)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, delivery)
}

// ValidateOTP handles POST /deliveries/:deliveryId/validate-otp. It is a
// dry-run check for the carrier's UI and never changes the delivery.
func (h *Handler) ValidateOTP(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	var req models.ValidateOTPRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if fieldErrs := utils.GetValidator().Validate(req); fieldErrs != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: fieldErrs})
	}
	otpType := models.OTPPickup
	if req.Type == string(models.OTPDelivery) {
		otpType = models.OTPDelivery
	}

	valid, err := h.service.ValidateOTP(c.Request().Context(), deliveryID, userID, req.OTP, otpType)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]bool{"valid": valid})
}

func bindFilters(c echo.Context) (models.DeliveryFilters, error) {
	var f models.DeliveryFilters

	if raw := c.QueryParam("status"); raw != "" {
		status, ok := models.ParseDeliveryStatus(raw)
		if !ok {
			return f, errors.New("unknown delivery status")
		}
		f.Status = &status
	}
	if v := c.QueryParam("pickup_location"); v != "" {
		f.PickupLocation = &v
	}
	if v := c.QueryParam("drop_location"); v != "" {
		f.DropLocation = &v
	}
	if v := c.QueryParam("package_size"); v != "" {
		size := models.PackageSize(v)
		f.PackageSize = &size
	}
	for param, dst := range map[string]**int{
		"min_weight": &f.MinWeight,
		"max_weight": &f.MaxWeight,
		"min_fee":    &f.MinFee,
		"max_fee":    &f.MaxFee,
	} {
		if v := c.QueryParam(param); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, errors.New("invalid " + param)
			}
			*dst = &n
		}
	}
	if v := c.QueryParam("start_date"); v != "" {
		f.StartDate = &v
	}
	if v := c.QueryParam("end_date"); v != "" {
		f.EndDate = &v
	}
	return f, nil
}
