package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/driftwatch/driftwatch/api/handlers"
	"github.com/driftwatch/driftwatch/api/middleware"
	"github.com/driftwatch/driftwatch/api/websocket"
	"github.com/driftwatch/driftwatch/internal/events"
	"github.com/driftwatch/driftwatch/internal/llm"
	"github.com/driftwatch/driftwatch/internal/source"
	"github.com/driftwatch/driftwatch/pkg/config"
	"github.com/driftwatch/driftwatch/pkg/database"
	"github.com/driftwatch/driftwatch/pkg/database/queries"
	"github.com/gin-gonic/gin"
)

// Deps bundles everything the dashboard API serves from.
type Deps struct {
	DB     *database.DB
	Repo   *queries.PredictionRepository
	Model  *llm.ResilientClient
	Source source.Source
	Runner handlers.PredictionRunner
	Bus    *events.EventBus
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	deps       Deps
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	wsHub := websocket.NewHub(&cfg.WebSocket)

	s := &Server{
		router: router,
		config: cfg,
		deps:   deps,
		wsHub:  wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// Start WebSocket hub
	go wsHub.Run()

	// Forward bus events to WebSocket clients
	if deps.Bus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, deps.Bus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))
	s.router.Use(middleware.CORS(corsConfig(s.config.API.CORS)))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())

	rateLimiter := middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))

	// On-demand predictions can each cost a model call, so they get a
	// tighter per-endpoint budget.
	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint(http.MethodPost, "/predictions", 10, time.Minute)
	endpointLimiter.AddEndpoint(http.MethodPost, "/predictions/run", 2, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Model, s.deps.Source)
	predictionHandler := handlers.NewPredictionHandler(s.deps.Repo, s.deps.Runner, &s.config.API)
	metricsHandler := handlers.NewMetricsHandler(s.deps.Source, &s.config.Source)
	modelHandler := handlers.NewModelHandler(s.deps.Model, &s.config.Model)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Predictions
	s.router.GET("/predictions", predictionHandler.List)
	s.router.GET("/predictions/latest", predictionHandler.Latest)
	s.router.GET("/predictions/stats", predictionHandler.Stats)
	s.router.GET("/predictions/:id", predictionHandler.Get)
	s.router.POST("/predictions", predictionHandler.Predict)
	s.router.POST("/predictions/run", predictionHandler.RunCycle)

	// Metrics source
	s.router.GET("/pairs", metricsHandler.ListPairs)
	s.router.GET("/metrics/window", metricsHandler.GetWindow)

	// Model
	s.router.GET("/model/status", modelHandler.Status)
	s.router.POST("/model/circuit/reset", modelHandler.ResetCircuit)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	idleTimeout := s.config.API.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		out.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		out.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		out.AllowHeaders = cfg.AllowedHeaders
	}
	if len(cfg.ExposedHeaders) > 0 {
		out.ExposeHeaders = cfg.ExposedHeaders
	}
	out.AllowCredentials = cfg.AllowCredentials
	return out
}
