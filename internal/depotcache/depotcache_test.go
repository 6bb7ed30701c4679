package depotcache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestCopyInAndIdempotence(t *testing.T) {
	steamRoot := t.TempDir()
	source := t.TempDir()
	writeManifest(t, source, "101_111.manifest", "data-a")
	writeManifest(t, source, "102_222.manifest", "data-bb")
	writeManifest(t, source, "notes.txt", "ignored")

	s := New(nil)
	res, err := s.CopyIn(steamRoot, source)
	if err != nil {
		t.Fatalf("CopyIn failed: %v", err)
	}
	if len(res.Copied) != 2 || len(res.Skipped) != 0 {
		t.Errorf("unexpected first copy result: %+v", res)
	}
	if len(res.Filenames) != 2 {
		t.Errorf("expected 2 filenames recorded, got %v", res.Filenames)
	}

	data, err := os.ReadFile(filepath.Join(Dir(steamRoot), "101_111.manifest"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(data) != "data-a" {
		t.Errorf("copied content mismatch: %q", data)
	}

	// Second pass: identical sizes, everything skipped.
	res, err = s.CopyIn(steamRoot, source)
	if err != nil {
		t.Fatalf("second CopyIn failed: %v", err)
	}
	if len(res.Copied) != 0 || len(res.Skipped) != 2 {
		t.Errorf("copy not idempotent: %+v", res)
	}
}

func TestCopyInReplacesChangedSize(t *testing.T) {
	steamRoot := t.TempDir()
	source := t.TempDir()
	writeManifest(t, source, "101_111.manifest", "v1")

	s := New(nil)
	if _, err := s.CopyIn(steamRoot, source); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, source, "101_111.manifest", "v2-longer")

	res, err := s.CopyIn(steamRoot, source)
	if err != nil {
		t.Fatalf("CopyIn failed: %v", err)
	}
	if len(res.Copied) != 1 {
		t.Errorf("changed file not re-copied: %+v", res)
	}
	data, _ := os.ReadFile(filepath.Join(Dir(steamRoot), "101_111.manifest"))
	if string(data) != "v2-longer" {
		t.Errorf("destination not updated: %q", data)
	}
}

func TestCopyInMissingSourceIsEmpty(t *testing.T) {
	res, err := New(nil).CopyIn(t.TempDir(), filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("expected success on missing source, got %v", err)
	}
	if len(res.Filenames) != 0 {
		t.Errorf("unexpected filenames: %v", res.Filenames)
	}
}

func TestRemoveByFilenames(t *testing.T) {
	steamRoot := t.TempDir()
	dir := Dir(steamRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "101_111.manifest", "a")
	writeManifest(t, dir, "201_222.manifest", "b")

	// One tracked file, one already gone. The other app's file stays.
	n, err := New(nil).RemoveByFilenames(steamRoot, []string{"101_111.manifest", "999_999.manifest"})
	if err != nil {
		t.Fatalf("RemoveByFilenames failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed (absence counts), got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "201_222.manifest")); err != nil {
		t.Error("untracked file was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "101_111.manifest")); !os.IsNotExist(err) {
		t.Error("tracked file still present")
	}
}

func TestClearAllAndInspect(t *testing.T) {
	steamRoot := t.TempDir()
	dir := Dir(steamRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "1_1.manifest", "xx")
	writeManifest(t, dir, "2_2.manifest", "yyy")
	writeManifest(t, dir, "keep.bin", "zz")

	s := New(nil)
	info, err := s.Inspect(steamRoot)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !info.Exists || info.Manifests != 2 || info.TotalSize != 5 {
		t.Errorf("unexpected info: %+v", info)
	}

	n, err := s.ClearAll(steamRoot)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.bin")); err != nil {
		t.Error("non-manifest file was removed")
	}
}
