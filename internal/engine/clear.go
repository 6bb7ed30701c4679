package engine

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
)

// ClearResult reports a completed full wipe.
type ClearResult struct {
	AppsCleared      int
	KeysRemoved      int
	ManifestsRemoved int
	ACFRemoved       int
	MarkersRemoved   int
	DataDirCleared   bool
	DatabaseDeleted  bool
	Warnings         []string
}

// ClearAll wipes every store: the tracked depot keys in config.vdf, the
// whole depotcache, the appmanifest file of every tracked AppID, the
// GreenLuma AppList, the local data directory, and finally the ledger
// database file itself. The database goes last so a crash mid-way leaves
// it as the authoritative list of what still needs cleaning on a retry.
func (e *Engine) ClearAll(ctx context.Context) (*ClearResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Snapshot before any mutation.
	appIDs, err := e.ledger.ListInstalledAppIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list installed apps: %w", err)
	}
	keyed, err := e.ledger.DepotsWithKeysForInstalledApps()
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked depots: %w", err)
	}

	res := &ClearResult{AppsCleared: len(appIDs)}

	stages := []struct {
		name string
		run  func() error
	}{
		{"config_vdf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			if len(keyed) == 0 {
				return nil
			}
			depots := make([]steam.Depot, len(keyed))
			for i, d := range keyed {
				depots[i] = steam.Depot{ID: d.DepotID, Key: d.Key}
			}
			n, err := e.keys.Remove(e.cfg.ConfigVDFPath(), depots)
			res.KeysRemoved = n
			return err
		}},
		{"depot_cache", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			n, err := e.cache.ClearAll(e.cfg.SteamPath)
			res.ManifestsRemoved = n
			return err
		}},
		{"acf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			n, err := e.gen.RemoveAll(e.cfg.SteamPath, appIDs)
			res.ACFRemoved = n
			return err
		}},
		{"greenluma", func() error {
			if !e.glOK {
				return fmt.Errorf("GreenLuma path not configured")
			}
			n, err := e.allow.ClearAll(e.cfg.GreenLumaPath)
			res.MarkersRemoved = n
			return err
		}},
		{"data_dir", func() error {
			if e.cfg.DataDir == "" {
				return nil
			}
			if err := os.RemoveAll(e.cfg.DataDir); err != nil {
				return err
			}
			res.DataDirCleared = true
			return nil
		}},
	}
	for _, st := range stages {
		e.runStage(st.name, st.run, &res.Warnings)
	}

	// Database last.
	if err := e.ledger.DeleteDatabase(); err != nil {
		return res, fmt.Errorf("database deletion failed: %w", err)
	}
	res.DatabaseDeleted = true

	e.log.Info("clear complete",
		zap.Int("apps", res.AppsCleared),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}
