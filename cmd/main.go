package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopfloor/measure-backend/internal/db"
	"github.com/shopfloor/measure-backend/internal/http/handlers"
	"github.com/shopfloor/measure-backend/internal/platform/envutil"
	"github.com/shopfloor/measure-backend/internal/platform/logger"
	"github.com/shopfloor/measure-backend/internal/query"
	"github.com/shopfloor/measure-backend/internal/repos"
	"github.com/shopfloor/measure-backend/internal/schema"
	"github.com/shopfloor/measure-backend/internal/server"
	"github.com/shopfloor/measure-backend/internal/services"
	"github.com/shopfloor/measure-backend/internal/sessions"
)

func main() {
	_ = godotenv.Load()

	// Logger
	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	debug := envutil.Bool("API_DEBUG", false)
	sessionTTL := time.Duration(envutil.Int("SESSION_TTL_MINUTES", 60)) * time.Minute
	assetsDir := envutil.Str("ASSETS_DIR", "assets")

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := databaseService.AutoMigrateAll(); err != nil {
		log.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	conn := databaseService.DB()

	// Repos
	log.Info("Setting up repos")
	shaftRepo := repos.NewMeasuredShaftRepo(conn, log)
	housingRepo := repos.NewMeasuredHousingRepo(conn, log)
	userEntryRepo := repos.NewUserEntryRepo(conn, log)

	// Sessions
	sessionStore := sessions.NewStore(sessionTTL, log)

	// Schema catalog + query engine
	catalog := schema.NewCatalog(conn, log)
	engine := query.NewEngine(conn, catalog, log)

	// Services
	log.Info("Setting up services")
	measurementService := services.NewMeasurementService(conn, log, shaftRepo, housingRepo)
	userEntryService := services.NewUserEntryService(conn, log, userEntryRepo, sessionStore)

	// Handlers
	log.Info("Setting up handlers")
	healthHandler := handlers.NewHealthHandler()
	measurementHandler := handlers.NewMeasurementHandler(measurementService, debug)
	userEntryHandler := handlers.NewUserEntryHandler(userEntryService, debug)
	dbAdminHandler := handlers.NewDBAdminHandler(catalog, engine, debug)
	videoHandler := handlers.NewVideoHandler(assetsDir, log, debug)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		HealthHandler:      healthHandler,
		MeasurementHandler: measurementHandler,
		UserEntryHandler:   userEntryHandler,
		DBAdminHandler:     dbAdminHandler,
		VideoHandler:       videoHandler,
	})

	port := envutil.Str("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
