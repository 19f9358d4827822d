package alert

import (
	"sos-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, handler *AlertHandler, jwtSecret string) {
	sosGroup := r.Group("api/v1/sos")
	{
		// Public for safety reasons; a valid token only hides the caller's
		// own alerts from the list.
		sosGroup.GET("/active", middleware.Identify(jwtSecret), handler.GetActiveAlerts)

		secured := sosGroup.Group("", middleware.Secured(jwtSecret))
		{
			secured.POST("/create", handler.CreateAlert)
			secured.PUT("/:alertId/resolve", handler.ResolveAlert)
			secured.POST("/:alertId/help", handler.OfferHelp)
			secured.POST("/:alertId/cancel-help", handler.CancelHelp)
		}
	}
}
