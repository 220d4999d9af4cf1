package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storecast/internal/api/middleware"
	"storecast/internal/billing"
	"storecast/internal/config"
	database "storecast/internal/db"
	"storecast/internal/engine"
	"storecast/internal/telemetry"
)

type Server struct {
	cfg    *config.Config
	db     *database.Client
	engine *engine.Engine
	sink   *telemetry.Sink
	ledger *billing.Ledger
	router *gin.Engine
}

func New(cfg *config.Config, db *database.Client, eng *engine.Engine, sink *telemetry.Sink, ledger *billing.Ledger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		db:     db,
		engine: eng,
		sink:   sink,
		ledger: ledger,
		router: gin.Default(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Device-Key"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "storecast"})
	})

	// Local backend serves media straight from disk; S3 installs hand
	// out presigned URLs instead and never hit this route.
	if s.cfg.Storage.Provider == "local" {
		s.router.Static("/media", s.cfg.Storage.LocalPath)
	}

	auth := middleware.RequireAuth([]byte(s.cfg.Auth.JWTSecret))

	v1 := s.router.Group("/api/v1")
	v1.Use(auth)
	{
		// Player-facing hot path
		v1.GET("/streams/:id/manifest", s.GetManifest)
		v1.POST("/streams/:id/playback", s.ReportPlayback)

		v1.GET("/streams/:id/devices", s.GetDevices)
		v1.GET("/stats", s.GetStats)

		// Programming & commercial state, operators only
		admin := v1.Group("")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/streams", s.CreateStream)
			admin.GET("/streams", s.GetStreams)

			admin.POST("/schedules", s.CreateSchedule)
			admin.GET("/streams/:id/schedules", s.GetSchedules)
			admin.DELETE("/schedules/:id", s.DeleteSchedule)

			admin.POST("/playlists", s.CreatePlaylist)
			admin.GET("/playlists", s.GetPlaylists)
			admin.DELETE("/playlists/:id", s.DeletePlaylist)

			admin.POST("/billing/transitions", s.ApplyTransition)
			admin.PUT("/billing/accesses", s.SetContractedAccesses)
		}
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
