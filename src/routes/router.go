package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"userapi/config"
	"userapi/src/handlers"
	"userapi/src/middleware"
	"userapi/src/models"
)

// Dependencies are the handlers mounted by NewRouter.
type Dependencies struct {
	Users  *handlers.UserHandler
	Health *handlers.HealthHandler
}

// NewRouter builds the gin engine with the full middleware chain and every
// route. Anything unmatched gets a NOT_FOUND envelope.
func NewRouter(cfg *config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(logger, !cfg.IsProduction()))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Security())
	r.Use(cors.New(corsConfig(cfg.CORSOrigin)))
	r.Use(middleware.BodyLimit(cfg.BodyLimit))

	SetupHealthRoutes(r, deps.Health)
	SetupUserRoutes(r, deps.Users)

	r.NoRoute(func(c *gin.Context) {
		msg := "Endpoint not found: " + c.Request.Method + " " + c.Request.URL.RequestURI()
		c.JSON(http.StatusNotFound, models.Failure(models.NotFound(msg)))
	})

	return r
}

func corsConfig(origin string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	// Credentials cannot be combined with a wildcard origin.
	if origin == "*" {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = []string{origin}
	cc.AllowCredentials = true
	return cc
}
