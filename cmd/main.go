package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"bizadmin-service/internal/handler"
	"bizadmin-service/internal/middleware"
	"bizadmin-service/internal/service"
	"bizadmin-service/internal/store/gormstore"
	"bizadmin-service/pkg/config"
	"bizadmin-service/pkg/database"
	"bizadmin-service/pkg/jwtutil"
	"bizadmin-service/pkg/logger"
	"bizadmin-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting business admin service...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire storage, services and handlers
	store := gormstore.New(database.GetDB())
	authSvc := service.NewAuthService(store, log)
	trashSvc := service.NewTrashService(store, log, cfg.Trash.RetentionDays)
	h := handler.New(authSvc, trashSvc)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", h.Metrics)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/register", h.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management
	users := api.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.POST("/change-password", h.ChangePassword)

	// Role and permission catalog
	roles := api.Group("/roles")
	roles.POST("", h.CreateRole)
	roles.GET("", h.ListRoles)
	roles.DELETE("/:id", h.DeleteRole)
	roles.POST("/:id/permissions", h.AddPermissionToRole)

	permissions := api.Group("/permissions")
	permissions.POST("", h.CreatePermission)
	permissions.GET("", h.ListPermissions)

	// Role assignments
	assignments := api.Group("/assignments")
	assignments.POST("", h.AssignRole)
	assignments.DELETE("/:organization_id/:user_id/:role_id", h.RemoveRoleAssignment)

	// Trash / lifecycle
	trash := api.Group("/trash")
	trash.GET("/:type", h.ListSuspended)
	trash.POST("/:type/:id/suspend", h.Suspend)
	trash.POST("/:type/:id/restore", h.Restore)
	trash.DELETE("/:type/:id", h.PermanentlyDelete)
	trash.GET("/audit/log", h.AuditLog)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
