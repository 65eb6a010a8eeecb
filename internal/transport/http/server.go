package http

import (
	"github.com/gin-gonic/gin"

	"portfolio-site/internal/bootstrap"
	"portfolio-site/internal/transport/http/handler"
	"portfolio-site/internal/transport/http/middleware"
	"portfolio-site/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	// The rewriter runs before routing so prefixed paths never reach a
	// site route or the 404 handler.
	router.Use(gin.Logger(), gin.Recovery(), middleware.Rewrite(app.Rewriter))

	healthHandler := handler.NewHealthHandler(app)
	var auditHandler *handler.AuditHandler
	if app.AuditRepo != nil {
		auditHandler = handler.NewAuditHandler(app.AuditRepo)
	} else {
		auditHandler = handler.NewAuditHandler(nil)
	}

	router.GET("/healthz", healthHandler.Check)
	router.GET("/audit/documents", auditHandler.List)
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, 404, "Not Found")
	})

	return router
}
