// internal/app/router.go
package app

import (
	alertHandler "amayalert-service/internal/handlers/alert"
	logHandler "amayalert-service/internal/handlers/auditlog"
	authHandler "amayalert-service/internal/handlers/auth"
	evacuationHandler "amayalert-service/internal/handlers/evacuation"
	messageHandler "amayalert-service/internal/handlers/message"
	rescueHandler "amayalert-service/internal/handlers/rescue"
	userHandler "amayalert-service/internal/handlers/user"
	vendorHandler "amayalert-service/internal/handlers/vendor"
	wsHandler "amayalert-service/internal/handlers/websocket"
	wordfilterHandler "amayalert-service/internal/handlers/wordfilter"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler       *authHandler.AuthHandler
	AlertHandler      *alertHandler.AlertHandler
	EvacuationHandler *evacuationHandler.EvacuationHandler
	RescueHandler     *rescueHandler.RescueHandler
	UserHandler       *userHandler.UserHandler
	WordFilterHandler *wordfilterHandler.WordFilterHandler
	MessageHandler    *messageHandler.MessageHandler
	VendorHandler     *vendorHandler.VendorHandler
	LogHandler        *logHandler.LogHandler
	WSHandler         *wsHandler.WebSocketHandler
	Health            *healthHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) error {
	if err := validation.Register(); err != nil {
		return err
	}

	api := r.Group("/api")

	// ==================== Health Check ====================
	api.GET("/health", h.Health.Check)

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	api.POST("/auth/login", h.AuthHandler.Login)

	staff := api.Group("")
	staff.Use(h.AuthMiddleware.StaffOnly()...)
	{
		staff.POST("/auth/logout", h.AuthHandler.Logout)
		staff.GET("/auth/me", h.AuthHandler.GetMe)
	}

	// ==================== Alerts ====================
	alerts := staff.Group("/alerts")
	{
		alerts.GET("", h.AlertHandler.ListAlerts)
		alerts.POST("", h.AlertHandler.CreateAlert)
		alerts.GET("/:id", h.AlertHandler.GetAlert)
		alerts.PUT("/:id", h.AlertHandler.UpdateAlert)
		alerts.DELETE("/:id", h.AlertHandler.DeleteAlert)
	}

	// ==================== Evacuation Centers ====================
	evacuation := staff.Group("/evacuation")
	{
		evacuation.GET("", h.EvacuationHandler.ListCenters)
		evacuation.POST("", h.EvacuationHandler.CreateCenter)
		evacuation.GET("/:id", h.EvacuationHandler.GetCenter)
		evacuation.PUT("/:id", h.EvacuationHandler.UpdateCenter)
		evacuation.DELETE("/:id", h.EvacuationHandler.DeleteCenter)
	}

	// ==================== Rescues ====================
	rescues := staff.Group("/rescues")
	{
		rescues.GET("", h.RescueHandler.ListRescues)
		rescues.GET("/:id", h.RescueHandler.GetRescue)
		rescues.PUT("/:id", h.RescueHandler.UpdateRescue)
	}

	// ==================== Messages ====================
	messages := staff.Group("/messages")
	{
		messages.GET("", h.MessageHandler.GetThread) // ?peer_id=
		messages.POST("", h.MessageHandler.SendMessage)
		messages.PUT("/seen", h.MessageHandler.MarkSeen)
		messages.GET("/unread", h.MessageHandler.UnreadCounts)
	}

	// ==================== Moderation ====================
	words := staff.Group("/word-filters")
	{
		words.GET("", h.WordFilterHandler.ListWords)
		words.POST("", h.WordFilterHandler.CreateWord)
		words.DELETE("/:id", h.WordFilterHandler.DeleteWord)
	}

	// ==================== Vendor wrappers ====================
	staff.POST("/sms", h.VendorHandler.SendSMS)
	staff.POST("/notifications/push", h.VendorHandler.SendPush)
	staff.POST("/upload", h.VendorHandler.Upload)

	// ==================== Logs ====================
	staff.GET("/logs", h.LogHandler.ListLogs)

	// ==================== Admin ====================
	admin := api.Group("")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		users := admin.Group("/users")
		users.GET("", h.UserHandler.ListUsers)
		users.POST("", h.UserHandler.CreateUser)
		users.GET("/:id", h.UserHandler.GetUser)
		users.PUT("/:id", h.UserHandler.UpdateUser)
		users.DELETE("/:id", h.UserHandler.DeleteUser)

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
	return nil
}
