// Package engine is the reconciliation core. Given a desired transition
// (install, uninstall, clear everything) it drives the five stores toward
// the new state: the SQLite ledger, the GreenLuma allow-list, Steam's
// config.vdf depot keys, the depotcache, and the generated appmanifest
// files. External-store failures are collected as warnings so one missing
// directory never loses the whole operation; the ledger write is the only
// fatal step, placed first on create and last on destroy so the ledger
// never claims work that did not at least begin.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/acf"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/config"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/depotcache"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/lua"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steamweb"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/store"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/vdfkeys"
)

var (
	// ErrValidation marks bad input: a non-numeric AppID or a declaration
	// without depots.
	ErrValidation = errors.New("validation failed")
	// ErrNotInstalled is returned when uninstalling an AppID the ledger
	// does not know.
	ErrNotInstalled = errors.New("app is not installed")
)

// NameResolver resolves an AppID to a display name. Satisfied by
// steamweb.Client; nil disables lookups.
type NameResolver interface {
	GameName(ctx context.Context, appID string) (string, error)
}

// Engine coordinates the stores. All operations hold one mutex; the
// external stores share files with no per-app locking of their own, so
// reconciliations must never overlap.
type Engine struct {
	mu sync.Mutex

	cfg    *config.Config
	ledger *store.Store
	log    *zap.Logger

	allow *greenluma.Store
	keys  *vdfkeys.Store
	cache *depotcache.Store
	gen   *acf.Generator
	names NameResolver

	steamOK bool
	glOK    bool
}

// New builds an engine over the given ledger and configuration. Steam and
// GreenLuma path validity is checked once here; stores behind an invalid
// path are skipped with a warning on every operation.
func New(cfg *config.Config, ledger *store.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		ledger:  ledger,
		log:     log,
		allow:   greenluma.New(log),
		keys:    vdfkeys.New(log),
		cache:   depotcache.New(log),
		gen:     acf.New(log),
		names:   steamweb.New(),
		steamOK: cfg.HasSteam(),
		glOK:    cfg.HasGreenLuma(),
	}
}

// SetNameResolver replaces the catalog client, mainly for tests.
func (e *Engine) SetNameResolver(r NameResolver) { e.names = r }

// StageResult is the outcome of one named external-store stage.
type StageResult struct {
	Name string
	OK   bool
	Err  error
}

// InstallResult reports a completed install or update.
type InstallResult struct {
	AppID            string
	GameName         string
	Updated          bool
	DepotsProcessed  int
	ManifestsCopied  int
	GreenLumaUpdated bool
	ConfigVDFUpdated bool
	ACFGenerated     bool
	Warnings         []string
}

// UninstallResult reports a completed uninstall.
type UninstallResult struct {
	AppID            string
	GameName         string
	DepotsRemoved    int
	ManifestsRemoved int
	KeysRemoved      int
	MarkersRemoved   int
	ACFRemoved       bool
	Warnings         []string
}

// Install installs or updates an AppID from its data folder: the folder
// must contain the depot declaration (.lua) and any .manifest files. An
// empty sourceDir means the configured per-app data directory.
func (e *Engine) Install(ctx context.Context, appID, sourceDir string) (*InstallResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !steam.ValidAppID(appID) {
		return nil, fmt.Errorf("%w: %q is not a numeric AppID", ErrValidation, appID)
	}
	if sourceDir == "" {
		sourceDir = e.cfg.AppDataDir(appID)
	}

	declPath, err := lua.FindDeclaration(sourceDir, appID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	decl, err := lua.ParseDeclaration(declPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(decl.Depots) == 0 {
		return nil, fmt.Errorf("%w: declaration for %s contains no depots", ErrValidation, appID)
	}

	res := &InstallResult{AppID: appID, DepotsProcessed: len(decl.Depots)}

	exists, err := e.ledger.Exists(appID)
	if err != nil {
		return nil, fmt.Errorf("ledger check failed: %w", err)
	}
	if exists {
		// Update: clear the old state first. A partial cleanup must not
		// block the reinstall, so its outcome demotes to warnings.
		res.Updated = true
		if prior, err := e.uninstallLocked(ctx, appID); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cleanup of previous version failed: %v", err))
		} else {
			res.Warnings = append(res.Warnings, prior.Warnings...)
		}
	}

	res.GameName = e.resolveName(ctx, appID, res)

	manifests, err := depotcache.ListManifests(sourceDir)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("manifest scan: %v", err))
	}

	// Ledger first. If this fails there is no point touching external
	// stores for an AppID the ledger will not remember.
	if err := e.ledger.UpsertAppWithDepots(appID, res.GameName, decl.Depots, manifests); err != nil {
		return nil, fmt.Errorf("ledger write failed: %w", err)
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{"greenluma", func() error {
			if !e.glOK {
				return fmt.Errorf("GreenLuma path not configured")
			}
			_, err := e.allow.AddAppAndDepots(e.cfg.GreenLumaPath, appID, steam.DepotIDs(decl.Depots))
			if err == nil {
				res.GreenLumaUpdated = true
			}
			return err
		}},
		{"config_vdf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			n, err := e.keys.AddOrUpdate(e.cfg.ConfigVDFPath(), decl.Depots)
			if err == nil && n > 0 {
				res.ConfigVDFUpdated = true
			}
			return err
		}},
		{"depot_cache", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			cr, err := e.cache.CopyIn(e.cfg.SteamPath, sourceDir)
			res.ManifestsCopied = len(cr.Copied)
			if len(cr.Failed) > 0 {
				return fmt.Errorf("%d manifest(s) failed to copy", len(cr.Failed))
			}
			return err
		}},
		{"acf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			_, err := e.gen.Generate(e.cfg.SteamPath, e.appState(appID, res.GameName, decl.Depots, manifests))
			if err == nil {
				res.ACFGenerated = true
			}
			return err
		}},
	}
	for _, st := range stages {
		e.runStage(st.name, st.run, &res.Warnings)
	}

	e.log.Info("install complete",
		zap.String("app_id", appID),
		zap.String("name", res.GameName),
		zap.Bool("updated", res.Updated),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// Uninstall removes an AppID from every store, ledger last.
func (e *Engine) Uninstall(ctx context.Context, appID string) (*UninstallResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uninstallLocked(ctx, appID)
}

func (e *Engine) uninstallLocked(ctx context.Context, appID string) (*UninstallResult, error) {
	exists, err := e.ledger.Exists(appID)
	if err != nil {
		return nil, fmt.Errorf("ledger check failed: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, appID)
	}

	// Read everything before mutating anything; later stages must not
	// depend on data an earlier stage already removed.
	depots, err := e.ledger.GetDepots(appID)
	if err != nil {
		return nil, fmt.Errorf("failed to read depots: %w", err)
	}
	manifests, err := e.ledger.GetManifests(appID)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest list: %w", err)
	}

	res := &UninstallResult{AppID: appID, DepotsRemoved: len(depots)}

	stages := []struct {
		name string
		run  func() error
	}{
		{"config_vdf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			n, err := e.keys.Remove(e.cfg.ConfigVDFPath(), depots)
			res.KeysRemoved = n
			return err
		}},
		{"depot_cache", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			if len(manifests) == 0 {
				// Ownership unknown: the cache directory is not namespaced
				// by AppID, so without the recorded filename list removal
				// would be guesswork. Skip rather than delete by heuristic.
				return fmt.Errorf("no tracked manifest filenames for %s, skipping cache removal", appID)
			}
			n, err := e.cache.RemoveByFilenames(e.cfg.SteamPath, manifests)
			res.ManifestsRemoved = n
			return err
		}},
		{"acf", func() error {
			if !e.steamOK {
				return fmt.Errorf("Steam path not configured")
			}
			ok, err := e.gen.Remove(e.cfg.SteamPath, appID)
			res.ACFRemoved = ok
			return err
		}},
		{"greenluma", func() error {
			if !e.glOK {
				return fmt.Errorf("GreenLuma path not configured")
			}
			rr, err := e.allow.RemoveAppAndDepots(e.cfg.GreenLumaPath, appID, steam.DepotIDs(depots))
			res.MarkersRemoved = rr.FilesRemoved
			return err
		}},
	}
	for _, st := range stages {
		e.runStage(st.name, st.run, &res.Warnings)
	}

	// Ledger last. Only this failure fails the operation; the external
	// artifacts are already gone and the record is what still says so.
	if err := e.ledger.RemoveApp(appID); err != nil {
		return res, fmt.Errorf("ledger removal failed: %w", err)
	}

	e.log.Info("uninstall complete",
		zap.String("app_id", appID),
		zap.Int("depots", res.DepotsRemoved),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (e *Engine) runStage(name string, run func() error, warnings *[]string) {
	if err := run(); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("%s: %v", name, err))
		e.log.Warn("stage failed", zap.String("stage", name), zap.Error(err))
	}
}

func (e *Engine) resolveName(ctx context.Context, appID string, res *InstallResult) string {
	if e.names == nil {
		return fallbackName(appID)
	}
	name, err := e.names.GameName(ctx, appID)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("name lookup: %v", err))
		return fallbackName(appID)
	}
	return name
}

func fallbackName(appID string) string {
	return "AppID " + appID
}

// manifestPattern extracts the depot ID and manifest GID from a cache
// filename of the form <depot>_<gid>.manifest.
var manifestPattern = regexp.MustCompile(`^(\d+)_(\d+)\.manifest$`)

// appState builds the appmanifest payload from local data. Depot sizes
// and build IDs are not available offline, so the bookkeeping counters
// stay zero and Steam refreshes them on first launch.
func (e *Engine) appState(appID, name string, depots []steam.Depot, manifests []string) acf.AppState {
	gids := make(map[string]string, len(manifests))
	for _, m := range manifests {
		if g := manifestPattern.FindStringSubmatch(m); g != nil {
			gids[g[1]] = g[2]
		}
	}
	st := acf.AppState{AppID: appID, Name: name}
	for _, d := range depots {
		gid, ok := gids[d.ID]
		if !ok {
			continue
		}
		st.Depots = append(st.Depots, acf.InstalledDepot{DepotID: d.ID, ManifestGID: gid})
	}
	return st
}

// Warnings formats a warning list for display.
func Warnings(ws []string) string {
	return strings.Join(ws, "; ")
}
