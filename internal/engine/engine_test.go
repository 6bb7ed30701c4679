package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/acf"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/config"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/depotcache"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/store"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/vdfkeys"
)

const emptyConfigVDF = `"InstallConfigStore"
{
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
			}
		}
	}
}
`

type stubResolver struct {
	names map[string]string
}

func (r *stubResolver) GameName(ctx context.Context, appID string) (string, error) {
	if name, ok := r.names[appID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown app %s", appID)
}

// fixture builds a full five-store environment under temp directories.
type fixture struct {
	cfg    *config.Config
	ledger *store.Store
	eng    *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	steamRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(steamRoot, "config"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(steamRoot, "config", "config.vdf"), []byte(emptyConfigVDF), 0644); err != nil {
		t.Fatal(err)
	}

	glRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(glRoot, "NormalMode", "AppList"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		SteamPath:     steamRoot,
		GreenLumaPath: glRoot,
		DataDir:       t.TempDir(),
		DatabasePath:  filepath.Join(t.TempDir(), "ledger.db"),
	}

	ledger, err := store.New(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })

	eng := New(cfg, ledger, nil)
	eng.SetNameResolver(&stubResolver{names: map[string]string{
		"730": "Counter-Strike 2",
		"400": "Portal",
	}})
	return &fixture{cfg: cfg, ledger: ledger, eng: eng}
}

// seedApp writes a data folder with a declaration and manifest files.
func (f *fixture) seedApp(t *testing.T, appID string, luaContent string, manifests ...string) {
	t.Helper()
	dir := f.cfg.AppDataDir(appID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, appID+".lua"), []byte(luaContent), 0644); err != nil {
		t.Fatal(err)
	}
	for _, m := range manifests {
		if err := os.WriteFile(filepath.Join(dir, m), []byte("manifest-data-"+m), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestInstallHappyPath(t *testing.T) {
	f := newFixture(t)
	f.seedApp(t, "730", "adddepot(731, \"AABB\")\nadddepot(732)\n", "731_111.manifest")

	res, err := f.eng.Install(context.Background(), "730", "")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if res.GameName != "Counter-Strike 2" || res.Updated || res.DepotsProcessed != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if !res.GreenLumaUpdated || !res.ConfigVDFUpdated || !res.ACFGenerated || res.ManifestsCopied != 1 {
		t.Errorf("stages not applied: %+v", res)
	}

	// Ledger.
	exists, _ := f.ledger.Exists("730")
	if !exists {
		t.Error("ledger missing the installed app")
	}
	manifests, _ := f.ledger.GetManifests("730")
	if len(manifests) != 1 || manifests[0] != "731_111.manifest" {
		t.Errorf("manifest ownership not recorded: %v", manifests)
	}

	// Key store: only the keyed depot.
	keys, err := vdfkeys.New(nil).ExistingKeys(f.cfg.ConfigVDFPath())
	if err != nil {
		t.Fatalf("reading config.vdf failed: %v", err)
	}
	if keys["731"] != "AABB" {
		t.Errorf("depot key not written: %v", keys)
	}
	if _, ok := keys["732"]; ok {
		t.Error("keyless depot written to config.vdf")
	}

	// Cache and state file.
	if _, err := os.Stat(filepath.Join(depotcache.Dir(f.cfg.SteamPath), "731_111.manifest")); err != nil {
		t.Error("manifest not copied to depotcache")
	}
	if _, err := os.Stat(acf.ManifestPath(f.cfg.SteamPath, "730")); err != nil {
		t.Error("appmanifest not generated")
	}
}

func TestInstallValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.eng.Install(context.Background(), "abc", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("non-numeric AppID: expected ErrValidation, got %v", err)
	}

	f.seedApp(t, "111", "-- nothing declared\n")
	if _, err := f.eng.Install(context.Background(), "111", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty declaration: expected ErrValidation, got %v", err)
	}
	if exists, _ := f.ledger.Exists("111"); exists {
		t.Error("validation failure must not touch the ledger")
	}
}

func TestInstallLedgerFirstWhenAllStoresFail(t *testing.T) {
	f := newFixture(t)
	// Invalidate every external store path. The engine captured path
	// validity at construction, so rebuild it.
	f.cfg.SteamPath = ""
	f.cfg.GreenLumaPath = ""
	f.eng = New(f.cfg, f.ledger, nil)
	f.eng.SetNameResolver(&stubResolver{names: map[string]string{"730": "Counter-Strike 2"}})

	f.seedApp(t, "730", "adddepot(731, \"AABB\")\n", "731_111.manifest")

	res, err := f.eng.Install(context.Background(), "730", "")
	if err != nil {
		t.Fatalf("Install must succeed on external-store failure, got %v", err)
	}
	if len(res.Warnings) != 4 {
		t.Errorf("expected one warning per stage, got %v", res.Warnings)
	}
	if exists, _ := f.ledger.Exists("730"); !exists {
		t.Error("ledger must record the install even when every store failed")
	}
}

func TestUninstallNotInstalled(t *testing.T) {
	f := newFixture(t)
	if _, err := f.eng.Uninstall(context.Background(), "999"); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("expected ErrNotInstalled, got %v", err)
	}
}

func TestUninstallNoCrossAppLeakage(t *testing.T) {
	f := newFixture(t)
	f.seedApp(t, "730", "adddepot(731, \"AABB\")\n", "731_111.manifest")
	f.seedApp(t, "400", "adddepot(401, \"CCDD\")\n", "401_222.manifest")

	if _, err := f.eng.Install(context.Background(), "730", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Install(context.Background(), "400", ""); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.Uninstall(context.Background(), "730")
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	// App 400's artifacts must all survive.
	keys, _ := vdfkeys.New(nil).ExistingKeys(f.cfg.ConfigVDFPath())
	if keys["401"] != "CCDD" {
		t.Error("other app's depot key removed")
	}
	if _, ok := keys["731"]; ok {
		t.Error("uninstalled app's depot key still present")
	}
	if _, err := os.Stat(filepath.Join(depotcache.Dir(f.cfg.SteamPath), "401_222.manifest")); err != nil {
		t.Error("other app's cache manifest removed")
	}
	if _, err := os.Stat(filepath.Join(depotcache.Dir(f.cfg.SteamPath), "731_111.manifest")); !os.IsNotExist(err) {
		t.Error("uninstalled app's cache manifest still present")
	}
	if _, err := os.Stat(acf.ManifestPath(f.cfg.SteamPath, "400")); err != nil {
		t.Error("other app's appmanifest removed")
	}
	if exists, _ := f.ledger.Exists("400"); !exists {
		t.Error("other app removed from ledger")
	}
	if exists, _ := f.ledger.Exists("730"); exists {
		t.Error("uninstalled app still in ledger")
	}
}

func TestUpdateEquivalence(t *testing.T) {
	f := newFixture(t)

	// Install v1, then overwrite the declaration with v2 and reinstall.
	f.seedApp(t, "730", "adddepot(731, \"OLD\")\nadddepot(732)\n")
	if _, err := f.eng.Install(context.Background(), "730", ""); err != nil {
		t.Fatal(err)
	}
	f.seedApp(t, "730", "adddepot(732, \"NEW\")\nadddepot(733)\n")
	res, err := f.eng.Install(context.Background(), "730", "")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Updated {
		t.Error("reinstall not flagged as update")
	}

	depots, err := f.ledger.GetDepots("730")
	if err != nil {
		t.Fatal(err)
	}
	want := []steam.Depot{{ID: "732", Key: "NEW"}, {ID: "733"}}
	if len(depots) != len(want) {
		t.Fatalf("depot set not replaced: %+v", depots)
	}
	for i, d := range want {
		if depots[i] != d {
			t.Errorf("depot[%d] = %+v, want %+v", i, depots[i], d)
		}
	}

	// The old keyed depot's entry must be gone from config.vdf too.
	keys, _ := vdfkeys.New(nil).ExistingKeys(f.cfg.ConfigVDFPath())
	if _, ok := keys["731"]; ok {
		t.Error("stale depot key from previous version still present")
	}
	if keys["732"] != "NEW" {
		t.Errorf("new depot key missing: %v", keys)
	}
}

func TestUninstallSkipsCacheRemovalWithoutTrackedManifests(t *testing.T) {
	f := newFixture(t)
	// No manifest files in the drop; ownership list ends up empty.
	f.seedApp(t, "730", "adddepot(731, \"AABB\")\n")
	if _, err := f.eng.Install(context.Background(), "730", ""); err != nil {
		t.Fatal(err)
	}

	// A foreign manifest in the cache must survive an uninstall that has
	// no recorded filename list.
	foreign := filepath.Join(depotcache.Dir(f.cfg.SteamPath), "999_1.manifest")
	if err := os.MkdirAll(depotcache.Dir(f.cfg.SteamPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(foreign, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.Uninstall(context.Background(), "730")
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if res.ManifestsRemoved != 0 {
		t.Errorf("cache removal should be skipped, got %d", res.ManifestsRemoved)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected a skip warning, got %v", res.Warnings)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("foreign cache manifest was deleted")
	}
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	f.seedApp(t, "730", "adddepot(731, \"AABB\")\n", "731_111.manifest")
	f.seedApp(t, "400", "adddepot(401, \"CCDD\")\n", "401_222.manifest")
	if _, err := f.eng.Install(context.Background(), "730", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Install(context.Background(), "400", ""); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if res.AppsCleared != 2 || !res.DatabaseDeleted {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.KeysRemoved != 2 || res.ACFRemoved != 2 {
		t.Errorf("unexpected removal counts: %+v", res)
	}

	keys, _ := vdfkeys.New(nil).ExistingKeys(f.cfg.ConfigVDFPath())
	if len(keys) != 0 {
		t.Errorf("depot keys remain: %v", keys)
	}
	entries, _ := os.ReadDir(depotcache.Dir(f.cfg.SteamPath))
	if len(entries) != 0 {
		t.Error("depotcache not emptied")
	}
	if _, err := os.Stat(f.cfg.DatabasePath); !os.IsNotExist(err) {
		t.Error("database file still present")
	}
	if _, err := os.Stat(f.cfg.DataDir); !os.IsNotExist(err) {
		t.Error("data directory still present")
	}
}
