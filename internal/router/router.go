package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lawdesk/internal/domain"
	"lawdesk/internal/handler"
	"lawdesk/internal/middleware"
	"lawdesk/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *logrus.Logger,
	allowedOrigins []string,
	authSvc service.AuthService,
	importH *handler.ImportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Bulk client import, partners and admins only
	imports := v1.Group("/imports")
	imports.Use(middleware.AuthMiddleware(authSvc))
	imports.Use(middleware.RequireRole(domain.ImportRoles...))
	imports.GET("/template", importH.Template)
	imports.POST("/preview", importH.Preview)
	imports.POST("/preview/export", importH.ExportPreview)
	imports.POST("/commit", importH.Commit)
	imports.POST("", importH.Import)
	imports.POST("/results/export", importH.ExportResults)

	return r
}
