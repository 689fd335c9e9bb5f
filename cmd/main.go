package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/celestiaorg/reloader/internal/app"
	"github.com/celestiaorg/reloader/internal/config"
	"github.com/celestiaorg/reloader/internal/db"
	"github.com/celestiaorg/reloader/internal/db/repos"
	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/host/editor"
	"github.com/celestiaorg/reloader/internal/host/prompt"
	"github.com/celestiaorg/reloader/internal/logger"
	"github.com/celestiaorg/reloader/pkg/api/v1/routes"
)

func main() {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()
	logger.InitializeAndConfigure()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	database, err := db.New(cfg.DBOptions())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := durable.NewDBStore(repos.NewDurableEntryRepository(database))
	bus := events.NewBus()
	bus.Start(ctx)

	mode, _ := prompt.ParseMode(cfg.ConfirmMode)
	confirmer := prompt.New(mode, os.Stdin, os.Stdout)

	ed := editor.New(cfg.EditorOptions(), bus)
	rt := app.New(app.Options{
		Store:          store,
		Keys:           durable.NewKeys(cfg.KeyPrefix),
		Host:           ed,
		Ticker:         ed,
		Bus:            bus,
		Confirmer:      confirmer,
		GraceWindow:    cfg.GraceWindow,
		DefaultTimeout: cfg.DefaultTimeout,
	})
	ed.SetResetHandler(rt.Reset)

	sess := rt.Boot(ctx)
	if err := ed.Start(ctx); err != nil {
		logger.Fatalf("Failed to start editor: %v", err)
	}

	server := routes.NewApp(rt)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := server.Shutdown(); err != nil {
			logger.Errorf("Failed to shut down server: %v", err)
		}
	}()

	logger.InfoWithFields("Starting reloader server", map[string]interface{}{
		"addr":        cfg.Addr,
		"project_dir": cfg.ProjectDir,
		"session_id":  sess.ID,
		"resumed":     sess.Resumed,
	})
	if err := server.Listen(cfg.Addr); err != nil {
		logger.Errorf("Server stopped: %v", err)
	}

	ed.Stop()
	rt.Close()
}
