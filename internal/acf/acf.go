// Package acf generates and removes appmanifest files, the per-app state
// descriptors the Steam client reads to decide what it considers
// installed. The output format is a compatibility contract: key casing,
// key order, and the tab-indented brace nesting all have to match what
// Steam itself writes or the client will discard the file.
package acf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/vdf"
)

// DefaultOwnerID is the anonymous account used for LastOwner when no real
// owner is known.
const DefaultOwnerID = "76561197960287930"

var manifestFilePattern = regexp.MustCompile(`^appmanifest_(\d+)\.acf$`)

// InstalledDepot describes one depot belonging to the app itself.
type InstalledDepot struct {
	DepotID     string
	ManifestGID string
	Size        int64
	DLCAppID    string // parent DLC AppID, empty for base depots
}

// SharedDepot describes a depot installed from another app, for example
// a shared redistributable depot.
type SharedDepot struct {
	DepotID     string
	SourceAppID string
}

// AppState carries everything needed to synthesize one appmanifest file.
type AppState struct {
	AppID      string
	Name       string
	InstallDir string
	BuildID    int64
	OwnerID    string
	Depots     []InstalledDepot
	Shared     []SharedDepot
}

// Generator writes appmanifest files into a steamapps directory.
type Generator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{log: log}
}

// SteamAppsDir returns the steamapps directory for a Steam root.
func SteamAppsDir(steamRoot string) string {
	return filepath.Join(steamRoot, "steamapps")
}

// ManifestPath returns the appmanifest filename for an AppID.
func ManifestPath(steamRoot, appID string) string {
	return filepath.Join(SteamAppsDir(steamRoot), "appmanifest_"+appID+".acf")
}

// Generate writes the appmanifest file for the given state, overwriting
// any existing file for the same AppID, and returns its path. SizeOnDisk
// is derived as the sum of the installed depot sizes.
func (g *Generator) Generate(steamRoot string, st AppState) (string, error) {
	if st.InstallDir == "" {
		st.InstallDir = sanitizeInstallDir(st.Name)
	}
	if st.OwnerID == "" {
		st.OwnerID = DefaultOwnerID
	}

	var totalSize int64
	for _, d := range st.Depots {
		totalSize += d.Size
	}

	app := vdf.NewObject().
		Set("appid", st.AppID).
		Set("Universe", 1).
		Set("LauncherPath", "").
		Set("name", st.Name).
		Set("StateFlags", 1026).
		Set("installdir", st.InstallDir).
		Set("LastUpdated", 0).
		Set("SizeOnDisk", totalSize).
		Set("StagingSize", 0).
		Set("buildid", st.BuildID).
		Set("LastOwner", st.OwnerID).
		Set("UpdateResult", 0).
		Set("BytesToDownload", 0).
		Set("BytesDownloaded", 0).
		Set("BytesToStage", 0).
		Set("BytesStaged", 0).
		Set("TargetBuildID", 0).
		Set("AutoUpdateBehavior", 0).
		Set("AllowOtherDownloadsWhileRunning", 0).
		Set("ScheduledAutoUpdate", 0)

	if len(st.Depots) > 0 {
		installed := vdf.NewObject()
		for _, d := range st.Depots {
			entry := vdf.NewObject().
				Set("manifest", d.ManifestGID).
				Set("size", d.Size)
			if d.DLCAppID != "" {
				entry.Set("dlcappid", d.DLCAppID)
			}
			installed.SetObject(d.DepotID, entry)
		}
		app.SetObject("InstalledDepots", installed)
	}
	if len(st.Shared) > 0 {
		shared := vdf.NewObject()
		for _, d := range st.Shared {
			shared.Set(d.DepotID, d.SourceAppID)
		}
		app.SetObject("SharedDepots", shared)
	}

	root := vdf.NewObject().SetObject("AppState", app)

	dir := SteamAppsDir(steamRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create steamapps: %w", err)
	}
	path := ManifestPath(steamRoot, st.AppID)
	if err := os.WriteFile(path, root.Marshal(), 0644); err != nil {
		return "", fmt.Errorf("failed to write appmanifest: %w", err)
	}

	g.log.Info("generated appmanifest",
		zap.String("app_id", st.AppID),
		zap.Int("depots", len(st.Depots)),
		zap.Int64("size_on_disk", totalSize))
	return path, nil
}

// Remove deletes the appmanifest for an AppID. It reports whether a file
// was actually deleted; absence is not an error.
func (g *Generator) Remove(steamRoot, appID string) (bool, error) {
	err := os.Remove(ManifestPath(steamRoot, appID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove appmanifest: %w", err)
	}
	return true, nil
}

// RemoveAll deletes appmanifest files for every given AppID and returns
// how many files were actually deleted.
func (g *Generator) RemoveAll(steamRoot string, appIDs []string) (int, error) {
	removed := 0
	for _, id := range appIDs {
		ok, err := g.Remove(steamRoot, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// List scans the steamapps directory and returns the AppIDs that have an
// appmanifest file.
func (g *Generator) List(steamRoot string) ([]string, error) {
	entries, err := os.ReadDir(SteamAppsDir(steamRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read steamapps: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if m := manifestFilePattern.FindStringSubmatch(e.Name()); m != nil {
			ids = append(ids, m[1])
		}
	}
	return ids, nil
}

var invalidDirChars = regexp.MustCompile(`[<>:"/\\|?*]`)

func sanitizeInstallDir(name string) string {
	return strings.TrimSpace(invalidDirChars.ReplaceAllString(name, ""))
}
