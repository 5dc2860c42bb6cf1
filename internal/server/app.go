// Package server initializes and runs the uservault server: it connects the
// storage backend, wires the user service, handles shutdown signals, and
// starts the HTTP endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dkarlovs/uservault/internal/logging"
	"github.com/dkarlovs/uservault/internal/server/config"
	"github.com/dkarlovs/uservault/internal/server/httpapi"
	"github.com/dkarlovs/uservault/internal/server/services"
	"github.com/dkarlovs/uservault/internal/server/shared/db"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	manager     db.RepositoryManager
	userService *services.UserService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	manager, err := db.NewMongoRepositoryManager(ctx, cfg.DatabaseURI, cfg.DatabaseName, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(manager.Users(), manager.Sessions(), logger, cfg)

	return &App{config: cfg, logger: logger, manager: manager, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.manager)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.manager.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "error closing store", "error", err)
	}
}
