package router

import (
	"net/http"

	"finance-tracker/internal/config"
	"finance-tracker/internal/handler"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures the gin engine. In single-user mode the API is
// open and every row is visible; in multi-user mode it sits behind JWT
// auth and rows are scoped to their owner.
func SetupRouter(cfg *config.Config, svc *ledger.Service) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "not found")
	})

	store := svc.Store()
	r.GET("/health", handler.Health(store))

	// ====== API ======
	api := r.Group("/api")
	api.GET("/categories", handler.ListCategories)

	protected := api.Group("")
	if cfg.App.MultiUser {
		authHandler := handler.NewAuthHandler(svc, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, store))
		protected.GET("/me", handler.GetMe)
	}

	txHandler := handler.NewTransactionHandler(svc)
	protected.POST("/transactions", txHandler.Create)
	protected.GET("/transactions", txHandler.List)
	protected.DELETE("/transactions", txHandler.Delete)
	protected.GET("/summary/investments", txHandler.InvestmentSummary)

	importExportHandler := handler.NewImportExportHandler(store)
	protected.GET("/export/csv", importExportHandler.ExportCSV)
	protected.GET("/export/xlsx", importExportHandler.ExportXLSX)

	syncHandler := handler.NewSyncHandler(svc)
	protected.POST("/sync", syncHandler.Sync)

	logHandler := handler.NewLogHandler(store)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}
