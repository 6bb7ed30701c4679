package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/config"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/engine"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/logging"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/store"
)

// appContext bundles the collaborators every command needs. Close it when
// the command finishes.
type appContext struct {
	cfg    *config.Config
	log    *zap.Logger
	ledger *store.Store
	engine *engine.Engine
}

// newAppContext loads configuration, applies flag overrides, opens the
// ledger and builds the engine.
func newAppContext() (*appContext, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	ledger, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	return &appContext{
		cfg:    cfg,
		log:    log,
		ledger: ledger,
		engine: engine.New(cfg, ledger, log),
	}, nil
}

func (a *appContext) close() {
	a.ledger.Close()
	_ = a.log.Sync()
}

// runDir returns the per-user runtime directory for PID and log files.
func runDir() string {
	dir := filepath.Join(config.DefaultDir(), "run")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "."
	}
	return dir
}
