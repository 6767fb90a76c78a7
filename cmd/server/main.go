package main

import (
	"fmt"
	"log"
	"os"

	"github.com/unidoc/unipdf/v3/common/license"

	"sdgtrack/internal/api"
	"sdgtrack/internal/config"
	"sdgtrack/internal/db"
	redisdb "sdgtrack/internal/redis"
	"sdgtrack/internal/tracker"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

	// PDF reports need a UniDoc license; without one report generation
	// fails but the rest of the service runs.
	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			log.Printf("[Main] WARNING: UniDoc license rejected, PDF reports disabled: %v", err)
		}
	} else {
		log.Printf("[Main] UNIDOC_LICENSE_API_KEY not set, PDF reports disabled")
	}

	svc := tracker.NewService(db.DB, rdb, cfg.Engine.MaxConcurrency)

	r := api.SetupRouter(cfg, rdb, svc)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
