package routes

import (
	"github.com/gin-gonic/gin"

	"userapi/src/handlers"
)

func SetupHealthRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler) {
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
}
