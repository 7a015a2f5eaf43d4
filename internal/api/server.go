package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/config"
	"listingsmith/internal/export"
	"listingsmith/internal/generation"
	"listingsmith/internal/logging"
	"listingsmith/internal/services/vision"
)

// maxMultipartMemory bounds in-memory buffering of uploads.
const maxMultipartMemory = 32 << 20

// Options wires the server to the daemon's long-lived components.
type Options struct {
	Config  *config.Config
	Manager *generation.Manager
	// Analyzer is nil when no vision model is configured.
	Analyzer vision.Analyzer
	Logger   *slog.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg      *config.Config
	manager  *generation.Manager
	analyzer vision.Analyzer
	exporter *export.Exporter
	logger   *slog.Logger
}

// NewServer builds a server around the provided components.
func NewServer(opts Options) *Server {
	return &Server{
		cfg:      opts.Config,
		manager:  opts.Manager,
		analyzer: opts.Analyzer,
		exporter: export.NewExporter(opts.Config.Paths.ExportDir, opts.Config.LocaleTag()),
		logger:   logging.NewComponentLogger(opts.Logger, "api"),
	}
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory
	router.Use(gin.Recovery(), requestID(), requestLog(s.logger))

	router.GET("/api/health", s.health)

	api := router.Group("/api", bearerAuth(s.cfg.Paths.APIToken))
	{
		api.GET("/status", s.status)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.listTasks)
			tasks.POST("", s.createTask)
			tasks.POST("/import", s.importTasks)
			tasks.GET("/:id", s.getTask)
			tasks.DELETE("/:id", s.deleteTask)
			tasks.POST("/:id/start", s.startTask)
			tasks.POST("/:id/retry", s.retryTask)
			tasks.POST("/:id/cancel", s.cancelTask)
		}

		results := api.Group("/results")
		{
			results.POST("/:id/select", s.selectResult)
			results.PATCH("/:id", s.patchResult)
		}

		api.GET("/export", s.exportResults)

		materials := api.Group("/materials")
		{
			materials.GET("", s.listMaterials)
			materials.POST("/:id/favorite", s.favoriteMaterial)
			materials.DELETE("/:id", s.deleteMaterial)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", s.listTemplates)
			templates.POST("/:id/favorite", s.favoriteTemplate)
			templates.DELETE("/:id", s.deleteTemplate)
		}

		history := api.Group("/history")
		{
			history.GET("", s.listHistory)
			history.DELETE("/:id", s.deleteHistory)
		}

		api.POST("/copywriting", s.copywriting)
		api.POST("/vision/analyze", s.analyze)
		api.GET("/logs", s.getLogs)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found", Kind: "not_found"})
	})
	return router
}
