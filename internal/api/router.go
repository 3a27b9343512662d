package api

import (
	"net/http"

	"carryconnect/internal/api/middleware"
	"carryconnect/internal/modules/chat"
	"carryconnect/internal/modules/deliveries"
	"carryconnect/internal/modules/notifications"
	"carryconnect/internal/modules/reviews"
	"carryconnect/internal/modules/users"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	deliveryHandler *deliveries.Handler,
	locationHandler *deliveries.LocationHandler,
	chatHandler *chat.Handler,
	reviewHandler *reviews.Handler,
	notificationHandler *notifications.Handler,
	jwtSecret string,
	uploadDir string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to CarryConnect!"})
	})

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", userHandler.Register)
		authGroup.POST("/login", userHandler.Login)
	}

	// --- User Routes ---
	userGroup := e.Group("/users", authMiddleware)
	{
		userGroup.GET("/me", userHandler.GetMe)
		userGroup.GET("/me/deliveries/sender", deliveryHandler.ListMySenderDeliveries)
		userGroup.GET("/me/deliveries/carrier", deliveryHandler.ListMyCarrierDeliveries)
		userGroup.GET("/:userId/profile", userHandler.GetProfile)
		userGroup.GET("/:userId/reviews", reviewHandler.ListUserReviews)
	}

	// --- Delivery Routes ---
	deliveryGroup := e.Group("/deliveries", authMiddleware)
	{
		deliveryGroup.POST("", deliveryHandler.CreateDelivery)
		deliveryGroup.GET("", deliveryHandler.ListDeliveries)
		deliveryGroup.GET("/:deliveryId", deliveryHandler.GetDelivery)
		deliveryGroup.PATCH("/:deliveryId/status", deliveryHandler.TransitionStatus)
		deliveryGroup.POST("/:deliveryId/cancel", deliveryHandler.CancelDelivery)
		deliveryGroup.POST("/:deliveryId/validate-otp", deliveryHandler.ValidateOTP)

		// Location feed
		deliveryGroup.POST("/:deliveryId/location", locationHandler.ReportLocation)
		deliveryGroup.GET("/:deliveryId/location", locationHandler.GetLocationHistory)
		deliveryGroup.GET("/:deliveryId/location/latest", locationHandler.GetLatestLocation)
		deliveryGroup.GET("/:deliveryId/location/stream", locationHandler.StreamLocation)

		// Chat
		deliveryGroup.GET("/:deliveryId/chat/ws", chatHandler.ServeWS)
		deliveryGroup.GET("/:deliveryId/chat/messages", chatHandler.GetHistory)
		deliveryGroup.POST("/:deliveryId/chat/attachments", chatHandler.UploadAttachment)
	}

	// --- Review Routes ---
	reviewGroup := e.Group("/reviews", authMiddleware)
	{
		reviewGroup.POST("", reviewHandler.CreateReview)
	}

	// --- Notification Routes ---
	notificationGroup := e.Group("/notifications", authMiddleware)
	{
		notificationGroup.POST("/token", notificationHandler.SaveToken)
		notificationGroup.DELETE("/token", notificationHandler.DeleteToken)
	}

	// Uploaded chat attachments are served statically.
	e.Static("/uploads", uploadDir)
}
