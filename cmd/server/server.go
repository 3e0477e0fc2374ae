package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paularlott/cli"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/api"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/config"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/mcp"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/provisioner"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/storage"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/worker"
)

// ServerConfig holds the wired components for running the server
type ServerConfig struct {
	Config     *config.Config
	Store      storage.Storage
	Engine     *provisioner.Engine
	Pool       *worker.Pool
	Scheduler  *worker.Scheduler
	MCPServer  *mcp.Server
	APIHandler *api.Handler
}

// RunServer starts the platformd server with the given configuration
func RunServer(cfg *ServerConfig) error {
	mux := http.NewServeMux()

	// API routes
	cfg.APIHandler.RegisterRoutes(mux)

	// MCP endpoint
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())

	// Apply middleware
	var handler http.Handler = mux
	if cfg.Config.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.Config.APIToken, handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)

	server := &http.Server{
		Addr:    cfg.Config.ListenAddr,
		Handler: handler,
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down server...")
		server.Close()
	}()

	log.Info("Starting platformd server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the platformd server",
		Description: "Start the HTTP server with the admin API, MCP endpoint and background provisioning",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr)

			store, err := storage.NewSQLiteStorage(cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", "SQLite", "path", cfg.DataDir)

			// Worker pool and provisioning engine
			pool := worker.NewPool(cfg.Workers)
			pool.Start()
			defer pool.Stop()

			engine := provisioner.NewEngine(store, pool, cfg.EngineStep)

			// Recurring background tasks
			scheduler := worker.NewScheduler(cfg.SweepInterval, cfg.SweepJitter)
			scheduler.RegisterInterval("deployment-sweep", cfg.SweepInterval, engine.Sweep)
			scheduler.RegisterInterval("approval-expiry", cfg.ApprovalSweep, func(ctx context.Context) error {
				n, err := store.ExpireApprovalsBefore(time.Now())
				if err != nil {
					return err
				}
				if n > 0 {
					log.Info("Expired stale approvals", "count", n)
				}
				return nil
			})

			accruer := provisioner.NewCostAccruer(store, cfg.CostPeriod)
			if err := scheduler.RegisterCron("cost-rollup", cfg.CostCron, accruer.Accrue); err != nil {
				log.Error("Invalid cost rollup cron spec", "spec", cfg.CostCron, "error", err)
				return err
			}

			scheduler.Start()
			defer scheduler.Stop()

			apiHandler := api.NewHandler(store, engine, cfg.ApprovalTTL)
			mcpServer := mcp.NewServer(store, engine, cfg.ApprovalTTL, cfg.MCPToken)

			return RunServer(&ServerConfig{
				Config:     cfg,
				Store:      store,
				Engine:     engine,
				Pool:       pool,
				Scheduler:  scheduler,
				MCPServer:  mcpServer,
				APIHandler: apiHandler,
			})
		},
	}
}
