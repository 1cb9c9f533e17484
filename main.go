package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"catalogops/adapters/api"
	"catalogops/adapters/excel"
	"catalogops/adapters/memory"
	"catalogops/adapters/postgres"
	"catalogops/app"
	"catalogops/domain/catalog"
	internalapi "catalogops/internal/api"
	"catalogops/internal/config"
	"catalogops/ports"
	"catalogops/ui"
)

// initAuditRepository connects the Postgres edit trail when DATABASE_URL is
// set; otherwise edits are audited in memory for the life of the process.
func initAuditRepository(cfg *config.Config) (ports.AuditRepository, func()) {
	if cfg.Database.URL == "" {
		log.Println("[Main] DATABASE_URL not set, auditing edits in memory")
		return memory.NewAuditRepository(), func() {}
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Printf("[Main] audit database unavailable, falling back to memory: %v", err)
		return memory.NewAuditRepository(), func() {}
	}

	repo, err := postgres.NewAuditRepository(db)
	if err != nil {
		log.Printf("[Main] audit schema setup failed, falling back to memory: %v", err)
		db.Close()
		return memory.NewAuditRepository(), func() {}
	}
	log.Println("[Main] auditing edits to Postgres")
	return repo, func() { db.Close() }
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	audit, closeAudit := initAuditRepository(cfg)
	defer closeAudit()

	collections := make([]catalog.Collection, len(cfg.Backend.Collections))
	for i, name := range cfg.Backend.Collections {
		collections[i] = catalog.Collection(name)
	}

	client := api.NewClient(cfg.Backend)
	service := app.NewCurationService(client, audit, excel.NewExporter(),
		collections, cfg.Backend.PageSize, cfg.Wizard.MaxQueue)

	jsonAPI := internalapi.NewCurationHandler(service)
	uiApp, err := ui.NewApp(service, jsonAPI.Router())
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: uiApp.Handler(),
	}

	go func() {
		log.Printf("[Main] catalog dashboard listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[Main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[Main] shutdown error: %v", err)
	}
}
