// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	router "minivenmo/internal/api"
	"minivenmo/internal/api/handler"
	"minivenmo/internal/config"
	"minivenmo/internal/processor"
	"minivenmo/internal/repository"
	"minivenmo/internal/repository/memory"
	"minivenmo/internal/service"
	"minivenmo/internal/util"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// Registry
	UserStore repository.UserStore

	// Services
	VenmoService service.VenmoService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Initialize the in-memory user registry
	app.UserStore = memory.NewUserStore()
	app.Logger.Info("User registry initialized.")

	// 4. Initialize card processor collaborators
	allowList := cfg.CardAllowList
	if len(allowList) == 0 {
		allowList = processor.DefaultAllowList
	}
	cardValidator := processor.NewAllowListValidator(allowList)
	cardCharger := processor.NewNoopCharger(app.Logger)

	// 5. Initialize Services
	app.VenmoService = service.NewVenmoService(app.UserStore, cardValidator, cardCharger, app.Logger)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	venmoHandler := handler.NewVenmoHandler(app.VenmoService, app.Logger)
	app.HTTPHandler = router.NewRouter(venmoHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources. The registry lives
// in process memory, so there is nothing to flush or close.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
