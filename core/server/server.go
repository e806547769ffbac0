package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richd0tcom/sensoria/internal/domain"
	"github.com/richd0tcom/sensoria/internal/repo"
)

const apiVersion = "1.0.0"

type Server struct {
	config  *ServerConfig
	sensors *repo.SensorRepository
	metrics *Metrics
	router  *gin.Engine
}

func NewServer(options ...ConfigOption) (*Server, error) {
	config := &ServerConfig{
		Port:        "3000",
		Env:         "development",
		CORSOrigins: []string{"*"},
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return nil, err
		}
	}

	if config.Store == nil {
		return nil, errors.New("server requires a sensor store")
	}

	if config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:  config,
		sensors: repo.New(config.Store),
		metrics: NewMetrics(),
		router:  gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware(s.config.CORSOrigins))
	s.router.Use(securityHeaders())
	s.router.Use(s.metrics.middleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := s.router.Group("/api")

	// Generic surface: type comes from the path or the ?sensor= query.
	sensors := api.Group("/sensors")
	{
		sensors.POST("/:type", func(c *gin.Context) {
			s.handleCreate(c, domain.SensorType(c.Param("type")))
		})
		sensors.GET("", func(c *gin.Context) {
			s.handleList(c, domain.SensorType(c.Query("sensor")))
		})
		sensors.GET("/stats", func(c *gin.Context) {
			s.handleStats(c, domain.SensorType(c.Query("sensor")))
		})
		sensors.GET("/find/:id", s.handleFind)
		sensors.GET("/:type/:id", func(c *gin.Context) {
			s.handleGet(c, domain.SensorType(c.Param("type")))
		})
		sensors.PUT("/:type/:id", func(c *gin.Context) {
			s.handleUpdate(c, domain.SensorType(c.Param("type")))
		})
		sensors.DELETE("/:type/:id", func(c *gin.Context) {
			s.handleDelete(c, domain.SensorType(c.Param("type")))
		})
	}

	// Per-type surface: thin adapters over the same handlers with the type
	// fixed by the route.
	for _, t := range domain.EnumeratedTypes() {
		s.registerTypeRoutes(api.Group("/"+string(t)), t)
	}
}

func (s *Server) registerTypeRoutes(group *gin.RouterGroup, t domain.SensorType) {
	group.POST("", func(c *gin.Context) { s.handleCreate(c, t) })
	group.GET("", func(c *gin.Context) { s.handleList(c, t) })
	group.GET("/stats", func(c *gin.Context) { s.handleStats(c, t) })
	group.GET("/:id", func(c *gin.Context) { s.handleGet(c, t) })
	group.PUT("/:id", func(c *gin.Context) { s.handleUpdate(c, t) })
	group.DELETE("/:id", func(c *gin.Context) { s.handleDelete(c, t) })
}

func (s *Server) handleIndex(c *gin.Context) {
	endpoints := gin.H{
		"health":  "/health",
		"metrics": "/metrics",
		"sensors": "/api/sensors",
	}
	for _, t := range domain.EnumeratedTypes() {
		endpoints[string(t)] = "/api/" + string(t)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Sensor readings API",
		"version":   apiVersion,
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	if err := s.sensors.Ping(ctx); err != nil {
		database = "disconnected"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "sensor API is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.config.Env,
		"database":    database,
	})
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on port %s", s.config.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	if s.config.Store != nil {
		return s.config.Store.Close()
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
