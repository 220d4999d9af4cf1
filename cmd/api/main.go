package main

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storecast/internal/api"
	"storecast/internal/billing"
	"storecast/internal/config"
	database "storecast/internal/db"
	"storecast/internal/engine"
	"storecast/internal/storage"
	"storecast/internal/telemetry"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Storecast API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations
	db.AutoMigrate()
	if os.Getenv("STORECAST_SEED_DEMO") == "1" {
		database.SeedDemo(db.DB)
	}

	// 4. Storage
	store := storage.New(cfg)

	// 5. Resolution Engine
	eng := engine.New(db.DB, store, engine.RealClock{}, cfg.Window(), cfg.HeartbeatTimeout())
	sink := telemetry.NewSink(db.DB)
	ledger := billing.NewLedger(db.DB)

	// 6. Setup Metrics
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 7. Start Server
	srv := api.New(cfg, db, eng, sink, ledger)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
