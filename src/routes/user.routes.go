package routes

import (
	"github.com/gin-gonic/gin"

	"userapi/src/handlers"
)

func SetupUserRoutes(r *gin.Engine, userHandler *handlers.UserHandler) {
	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.GET("", userHandler.GetAll)
			users.GET("/:id", userHandler.GetByID)
			users.POST("", userHandler.Create)
		}
	}
}
