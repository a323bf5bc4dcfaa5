/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the commission engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment / flags)
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start the recalculation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT env or 8080)
  -db      SQLite database path (default: DATABASE_PATH env or ./commission.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT                  HTTP server port
  DATABASE_PATH         SQLite database path
  LOG_LEVEL             debug | info | warn | error
  MAX_UPLOAD_SIZE_BYTES CSV upload limit
  REPORT_CACHE_TTL      Agent summary cache lifetime (e.g. 5m)
  RECALC_INTERVAL       Scheduler check interval; 0 disables it
  CORS_ALLOWED_ORIGINS  Comma-separated origin list, or *

  A .env file in the working directory is loaded when present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/commission.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/config"
	"github.com/warp/commission-engine/logger"
	"github.com/warp/commission-engine/store/sqlite"
)

func main() {
	// Environment first, then flags on top
	config.LoadConfig()

	port := flag.String("port", config.Cfg.Port, "HTTP server port")
	dbPath := flag.String("db", config.Cfg.DatabasePath, "SQLite database path")
	flag.Parse()

	logger.InitLogger(config.Cfg.LogLevel)

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Initialize handler and router
	handler := api.NewHandler(st)
	router := api.NewRouter(handler)

	// Background recalculation
	scheduler := api.NewRecalcScheduler(st, handler)
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.L.Info("🚀 server starting", "url", "http://localhost:"+*port)
		logger.L.Info("📊 API available", "url", "http://localhost:"+*port+"/api")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L.Info("shutting down server")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.L.Info("server stopped")
}
