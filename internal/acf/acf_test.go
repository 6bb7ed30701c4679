package acf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateGolden(t *testing.T) {
	steamRoot := t.TempDir()
	g := New(nil)

	path, err := g.Generate(steamRoot, AppState{
		AppID:      "730",
		Name:       "Counter-Strike 2",
		InstallDir: "Counter-Strike Global Offensive",
		BuildID:    1234,
		OwnerID:    "76561197960287930",
		Depots: []InstalledDepot{
			{DepotID: "731", ManifestGID: "111222333", Size: 100},
			{DepotID: "732", ManifestGID: "444555666", Size: 50, DLCAppID: "735"},
		},
		Shared: []SharedDepot{
			{DepotID: "228990", SourceAppID: "228980"},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if path != ManifestPath(steamRoot, "730") {
		t.Errorf("unexpected path: %s", path)
	}

	want := `"AppState"
{
	"appid"		"730"
	"Universe"		"1"
	"LauncherPath"		""
	"name"		"Counter-Strike 2"
	"StateFlags"		"1026"
	"installdir"		"Counter-Strike Global Offensive"
	"LastUpdated"		"0"
	"SizeOnDisk"		"150"
	"StagingSize"		"0"
	"buildid"		"1234"
	"LastOwner"		"76561197960287930"
	"UpdateResult"		"0"
	"BytesToDownload"		"0"
	"BytesDownloaded"		"0"
	"BytesToStage"		"0"
	"BytesStaged"		"0"
	"TargetBuildID"		"0"
	"AutoUpdateBehavior"		"0"
	"AllowOtherDownloadsWhileRunning"		"0"
	"ScheduledAutoUpdate"		"0"
	"InstalledDepots"
	{
		"731"
		{
			"manifest"		"111222333"
			"size"		"100"
		}
		"732"
		{
			"manifest"		"444555666"
			"size"		"50"
			"dlcappid"		"735"
		}
	}
	"SharedDepots"
	{
		"228990"		"228980"
	}
}
`
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read generated file: %v", err)
	}
	if string(got) != want {
		t.Errorf("generated manifest mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateOmitsEmptySections(t *testing.T) {
	steamRoot := t.TempDir()
	path, err := New(nil).Generate(steamRoot, AppState{AppID: "400", Name: "Portal"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	for _, section := range []string{"InstalledDepots", "SharedDepots"} {
		if strings.Contains(content, section) {
			t.Errorf("empty section %s present in output", section)
		}
	}
	// installdir falls back to the sanitized name.
	if !strings.Contains(content, "\"installdir\"\t\t\"Portal\"") {
		t.Errorf("installdir fallback missing:\n%s", content)
	}
}

func TestGenerateOverwrites(t *testing.T) {
	steamRoot := t.TempDir()
	g := New(nil)

	if _, err := g.Generate(steamRoot, AppState{AppID: "500", Name: "Old"}); err != nil {
		t.Fatal(err)
	}
	path, err := g.Generate(steamRoot, AppState{AppID: "500", Name: "New"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\"name\"\t\t\"New\"") {
		t.Error("regeneration did not overwrite prior file")
	}
}

func TestRemove(t *testing.T) {
	steamRoot := t.TempDir()
	g := New(nil)

	ok, err := g.Remove(steamRoot, "600")
	if err != nil {
		t.Fatalf("Remove of absent file failed: %v", err)
	}
	if ok {
		t.Error("Remove reported deletion of a missing file")
	}

	if _, err := g.Generate(steamRoot, AppState{AppID: "600", Name: "Game"}); err != nil {
		t.Fatal(err)
	}
	ok, err = g.Remove(steamRoot, "600")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !ok {
		t.Error("Remove did not report deletion")
	}
}

func TestList(t *testing.T) {
	steamRoot := t.TempDir()
	g := New(nil)

	if _, err := g.Generate(steamRoot, AppState{AppID: "700", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(steamRoot, AppState{AppID: "800", Name: "B"}); err != nil {
		t.Fatal(err)
	}
	// Unrelated file must not show up.
	if err := os.WriteFile(filepath.Join(SteamAppsDir(steamRoot), "libraryfolders.vdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ids, err := g.List(steamRoot)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 manifests, got %v", ids)
	}
}
