package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/okaokay/gestionale-energia/internal/audit"
	"github.com/okaokay/gestionale-energia/internal/config"
	"github.com/okaokay/gestionale-energia/internal/handlers"
	"github.com/okaokay/gestionale-energia/internal/metrics"
	"github.com/okaokay/gestionale-energia/internal/middleware"
	ucImport "github.com/okaokay/gestionale-energia/internal/usecase/importer"
	ucJob "github.com/okaokay/gestionale-energia/internal/usecase/importjob"
)

// Dependencies are the singletons built by main.
type Dependencies struct {
	DB      *gorm.DB
	Config  *config.Config
	Audit   *audit.Dispatcher
	Metrics *metrics.Metrics
	Import  *ucImport.UnifiedImport
	Runner  *ucJob.Runner
}

// multipart overhead allowed on top of the file limit
const formOverhead = 1 << 20

func RegisterRoutes(r *gin.Engine, deps Dependencies) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware(deps.Config.CORSOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	maxBytes := deps.Config.Import.MaxFileBytes()
	r.MaxMultipartMemory = maxBytes + formOverhead

	// ======================================================
	// HANDLERS
	// ======================================================
	healthHandler := handlers.NewHealthHandler(deps.DB)
	importHandler := handlers.NewImportHandler(deps.Runner, deps.Import, maxBytes)
	importLogsHandler := handlers.NewImportLogsHandler(deps.DB)
	clientHandler := handlers.NewClientHandler(deps.DB, deps.Audit)
	contractHandler := handlers.NewContractHandler(deps.DB, deps.Audit)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.DB)

	r.GET("/health", healthHandler.Health)

	if deps.Metrics != nil && deps.Config.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// IMPORTS
		// ------------------------------
		imports := api.Group("/imports")
		{
			upload := imports.Group("")
			upload.Use(middleware.BodyLimit(maxBytes + formOverhead))
			upload.POST("", importHandler.Create)
			upload.POST("/detect", importHandler.Detect)

			imports.GET("/:id", importHandler.Get)
			imports.GET("/:id/result", importHandler.Result)
		}

		api.GET("/import-logs", importLogsHandler.List)
		api.GET("/import-logs/:id", importLogsHandler.Get)
		api.GET("/import-logs/:id/errors", importLogsHandler.Errors)

		// ------------------------------
		// CLIENTS
		// ------------------------------
		api.GET("/clients/private", clientHandler.ListPrivate)
		api.GET("/clients/private/:id", clientHandler.GetPrivate)
		api.DELETE("/clients/private/:id", clientHandler.DeletePrivate)

		api.GET("/clients/business", clientHandler.ListBusiness)
		api.GET("/clients/business/:id", clientHandler.GetBusiness)
		api.DELETE("/clients/business/:id", clientHandler.DeleteBusiness)

		// ------------------------------
		// CONTRACTS
		// ------------------------------
		api.GET("/contracts/electricity", contractHandler.ListElectricity)
		api.GET("/contracts/electricity/:id", contractHandler.GetElectricity)
		api.DELETE("/contracts/electricity/:id", contractHandler.DeleteElectricity)

		api.GET("/contracts/gas", contractHandler.ListGas)
		api.GET("/contracts/gas/:id", contractHandler.GetGas)
		api.DELETE("/contracts/gas/:id", contractHandler.DeleteGas)

		api.GET("/audit-logs", auditLogsHandler.List)
	}
}
