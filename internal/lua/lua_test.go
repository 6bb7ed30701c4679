package lua

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLua(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseDeclarationForms(t *testing.T) {
	content := `-- comment line, ignored
addappid(730)
adddepot(731, "AABB11")
adddepot(732)
addappid(733, 1, "CCDD22")
addappid(734, 0)
`
	path := writeLua(t, t.TempDir(), "730.lua", content)

	decl, err := ParseDeclaration(path)
	if err != nil {
		t.Fatalf("ParseDeclaration failed: %v", err)
	}
	if decl.AppID != "730" {
		t.Errorf("AppID = %q, want 730", decl.AppID)
	}
	if len(decl.Depots) != 4 {
		t.Fatalf("expected 4 depots, got %+v", decl.Depots)
	}

	byID := map[string]string{}
	for _, d := range decl.Depots {
		byID[d.ID] = d.Key
	}
	if byID["731"] != "AABB11" {
		t.Errorf("keyed adddepot: got %q", byID["731"])
	}
	if byID["732"] != "" {
		t.Errorf("keyless adddepot has key %q", byID["732"])
	}
	if byID["733"] != "CCDD22" {
		t.Errorf("keyed addappid: got %q", byID["733"])
	}
	if byID["734"] != "" {
		t.Errorf("keyless addappid has key %q", byID["734"])
	}
}

func TestParseDeclarationExcludesOwnAppID(t *testing.T) {
	content := `addappid(730, 1, "ISTHISAKEY")
adddepot(731, "REAL")
`
	path := writeLua(t, t.TempDir(), "730.lua", content)

	decl, err := ParseDeclaration(path)
	if err != nil {
		t.Fatalf("ParseDeclaration failed: %v", err)
	}
	for _, d := range decl.Depots {
		if d.ID == "730" {
			t.Errorf("own AppID appeared as depot: %+v", d)
		}
	}
	if len(decl.Depots) != 1 || decl.Depots[0].ID != "731" {
		t.Errorf("unexpected depots: %+v", decl.Depots)
	}
}

func TestParseDeclarationDuplicatesBackfillKey(t *testing.T) {
	content := `adddepot(731)
adddepot(731, "KEY1")
adddepot(731, "KEY2")
`
	path := writeLua(t, t.TempDir(), "730.lua", content)

	decl, err := ParseDeclaration(path)
	if err != nil {
		t.Fatalf("ParseDeclaration failed: %v", err)
	}
	if len(decl.Depots) != 1 {
		t.Fatalf("duplicates not collapsed: %+v", decl.Depots)
	}
	// Later keyed mentions update the single entry.
	if decl.Depots[0].Key != "KEY2" {
		t.Errorf("key = %q, want KEY2", decl.Depots[0].Key)
	}
}

func TestParseDeclarationNonNumericFilename(t *testing.T) {
	path := writeLua(t, t.TempDir(), "readme.lua", "adddepot(731)\n")
	if _, err := ParseDeclaration(path); err == nil {
		t.Fatal("expected error for non-numeric filename")
	}
}

func TestFindDeclaration(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "480.lua", "adddepot(481)\n")
	writeLua(t, dir, "730.lua", "adddepot(731)\n")

	path, err := FindDeclaration(dir, "730")
	if err != nil {
		t.Fatalf("FindDeclaration failed: %v", err)
	}
	if filepath.Base(path) != "730.lua" {
		t.Errorf("expected canonical file, got %s", path)
	}

	if _, err := FindDeclaration(t.TempDir(), "1"); err == nil {
		t.Error("expected error when no declaration exists")
	}
}
