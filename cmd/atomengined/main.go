// Package main provides atomengined, the central coordination server for
// peer-to-peer atomic swap negotiation. It holds no funds and performs no
// chain I/O; it is the durable rendezvous point every wallet client observes.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomicswap/atomengine/internal/config"
	"github.com/atomicswap/atomengine/internal/engine"
	"github.com/atomicswap/atomengine/internal/server"
	"github.com/atomicswap/atomengine/pkg/logging"
)

func main() {
	var (
		port        = flag.Int("port", 0, "TCP listen port, overrides config")
		dataDir     = flag.String("data-dir", ".", "Data directory (command log and config)")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{
		Level:      "info",
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("atomengined %s", server.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*dataDir)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// CLI flags take precedence over the config file.
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	// Re-create the logger with the configured level, redirected to a file
	// when one is set.
	logCfg := &logging.Config{
		Level:      cfg.Logging.Level,
		TimeFormat: time.TimeOnly,
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			log.Fatal("Failed to open log file", "path", cfg.Logging.File, "error", err)
		}
		defer f.Close()
		logCfg.Output = f
	}
	log = logging.New(logCfg)
	logging.SetDefault(log)

	log.Info("Atom engine start")
	log.Info("Config loaded", "path", config.Path(*dataDir))

	if cfg.Server.Port == 0 {
		log.Fatal("Start failed: need set a port")
	}

	store := engine.NewStore()
	clog := engine.NewCommandLog(cfg.Storage.DataDir)
	engine.Recover(store, clog, log.Component("recovery"))

	srv := server.New(cfg.Server.Port, store, clog, log.Component("engine"))
	if err := srv.Start(); err != nil {
		log.Fatal("Atom engine starting failed", "error", err)
	}

	// Periodic status line, mirroring active connections and book size.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				conns, orders, trades := srv.Stats()
				log.Info("Status", "connections", conns, "orders", orders, "trades", trades)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down...")
	close(done)
	srv.Stop()
}
