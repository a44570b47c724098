package main

import (
	"context"
	"log"

	"subtrackr-be/internal/bootstrap"
	"subtrackr-be/internal/config"
	"subtrackr-be/internal/server"
	"subtrackr-be/internal/tracer"
	"subtrackr-be/pkg/database"
	"subtrackr-be/pkg/provider"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Connector Registry
	// Connectors for real provider integrations register here. The server
	// runs without any: requests for unconnected providers escalate to
	// manual instructions.
	registry := provider.NewRegistry()

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, registry)

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Detection Service...")
		if err := container.DetectionService.Consume(context.Background()); err != nil {
			log.Printf("Background Detection Error: %v", err)
		}
	}()

	if err := container.RetryScheduler.Start(); err != nil {
		log.Panicf("Unable to start retry scheduler: %v", err)
	}
	defer container.RetryScheduler.Stop()

	// 6. Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
