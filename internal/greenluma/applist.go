// Package greenluma manages the GreenLuma loader's AppList allow-list: a
// flat directory where each permitted AppID or depot ID is represented by
// one <index>.txt marker file. Filenames are sequential indices assigned by
// this tool; the loader reads them in index order.
package greenluma

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// AppListDir is the allow-list location below the GreenLuma root.
const AppListDir = "NormalMode/AppList"

// Store manipulates the marker files of one GreenLuma installation.
type Store struct {
	log *zap.Logger
}

// New returns an allow-list store logging through log.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// AddResult reports what AddAppAndDepots changed.
type AddResult struct {
	AppsAdded         int
	DepotsAdded       int
	FilesCreated      int
	SkippedDuplicates int
}

// RemoveResult reports what RemoveAppAndDepots changed.
type RemoveResult struct {
	AppsRemoved   int
	DepotsRemoved int
	FilesRemoved  int
}

func appListPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(AppListDir))
}

// AddAppAndDepots creates marker files for the AppID and each depot ID that
// is not already present. Existing markers are never touched, preserving
// any externally assigned index; new markers continue numbering from the
// current maximum index so indices never collide.
func (s *Store) AddAppAndDepots(root, appID string, depotIDs []string) (AddResult, error) {
	var res AddResult

	dir := appListPath(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create AppList directory: %w", err)
	}

	existing, nextIndex, err := scanAppList(dir)
	if err != nil {
		return res, err
	}

	write := func(id string) error {
		name := filepath.Join(dir, strconv.Itoa(nextIndex)+".txt")
		if err := os.WriteFile(name, []byte(id+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write marker for %s: %w", id, err)
		}
		s.log.Debug("created AppList marker", zap.String("file", filepath.Base(name)), zap.String("id", id))
		nextIndex++
		res.FilesCreated++
		return nil
	}

	if _, dup := existing[appID]; dup {
		res.SkippedDuplicates++
		s.log.Debug("AppID already in AppList", zap.String("app", appID))
	} else {
		if err := write(appID); err != nil {
			return res, err
		}
		existing[appID] = true
		res.AppsAdded++
	}

	for _, depotID := range depotIDs {
		if _, dup := existing[depotID]; dup {
			res.SkippedDuplicates++
			continue
		}
		if err := write(depotID); err != nil {
			return res, err
		}
		existing[depotID] = true
		res.DepotsAdded++
	}

	s.log.Info("updated AppList",
		zap.String("app", appID),
		zap.Int("apps_added", res.AppsAdded),
		zap.Int("depots_added", res.DepotsAdded),
		zap.Int("skipped", res.SkippedDuplicates))
	return res, nil
}

// RemoveAppAndDepots deletes the marker files whose content matches the
// AppID or any of the depot IDs, then renumbers the survivors to a dense
// 0..n-1 sequence. A missing directory or already-absent marker is success.
func (s *Store) RemoveAppAndDepots(root, appID string, depotIDs []string) (RemoveResult, error) {
	var res RemoveResult

	dir := appListPath(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return res, nil
	}

	targets := map[string]bool{appID: true}
	for _, id := range depotIDs {
		targets[id] = true
	}

	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return res, err
	}
	for _, f := range files {
		content, err := readMarker(filepath.Join(dir, f))
		if err != nil {
			s.log.Warn("unreadable AppList marker", zap.String("file", f), zap.Error(err))
			continue
		}
		if !targets[content] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f)); err != nil {
			return res, fmt.Errorf("failed to remove marker %s: %w", f, err)
		}
		res.FilesRemoved++
		if content == appID {
			res.AppsRemoved++
		} else {
			res.DepotsRemoved++
		}
		s.log.Debug("removed AppList marker", zap.String("file", f), zap.String("id", content))
	}

	if res.FilesRemoved > 0 {
		if err := s.renumber(dir); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ClearAll deletes every marker file and returns the count. A missing
// directory clears zero entries.
func (s *Store) ClearAll(root string) (int, error) {
	dir := appListPath(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(dir, f)); err != nil {
			return deleted, fmt.Errorf("failed to remove marker %s: %w", f, err)
		}
		deleted++
	}
	s.log.Info("cleared AppList", zap.Int("removed", deleted))
	return deleted, nil
}

// RemoveDuplicates deletes markers whose ID already appeared at a lower
// index, then renumbers. Returns the number of duplicates removed.
func (s *Store) RemoveDuplicates(root string) (int, error) {
	dir := appListPath(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return 0, err
	}

	seen := map[string]bool{}
	removed := 0
	for _, f := range files {
		content, err := readMarker(filepath.Join(dir, f))
		if err != nil || content == "" {
			continue
		}
		if seen[content] {
			if err := os.Remove(filepath.Join(dir, f)); err != nil {
				return removed, fmt.Errorf("failed to remove duplicate %s: %w", f, err)
			}
			removed++
			s.log.Debug("removed duplicate marker", zap.String("file", f), zap.String("id", content))
			continue
		}
		seen[content] = true
	}

	if removed > 0 {
		if err := s.renumber(dir); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// renumber rewrites all surviving markers with dense sequential indices,
// preserving their relative index order. The loader stops scanning at the
// first gap, so gaps left by removals would orphan later entries.
func (s *Store) renumber(dir string) error {
	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return err
	}

	var contents []string
	for _, f := range files {
		content, err := readMarker(filepath.Join(dir, f))
		if err != nil {
			s.log.Warn("dropping unreadable marker during renumber", zap.String("file", f), zap.Error(err))
			continue
		}
		if content != "" {
			contents = append(contents, content)
		}
	}

	for _, f := range files {
		if err := os.Remove(filepath.Join(dir, f)); err != nil {
			return fmt.Errorf("failed to remove %s during renumber: %w", f, err)
		}
	}
	for i, content := range contents {
		name := filepath.Join(dir, strconv.Itoa(i)+".txt")
		if err := os.WriteFile(name, []byte(content+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s during renumber: %w", filepath.Base(name), err)
		}
	}
	s.log.Debug("renumbered AppList", zap.Int("markers", len(contents)))
	return nil
}

// scanAppList reads all markers, returning the set of IDs present and the
// next free index (max numeric stem + 1).
func scanAppList(dir string) (map[string]bool, int, error) {
	files, err := sortedMarkerFiles(dir)
	if err != nil {
		return nil, 0, err
	}

	ids := map[string]bool{}
	next := 0
	for _, f := range files {
		stem := strings.TrimSuffix(f, ".txt")
		if idx, err := strconv.Atoi(stem); err == nil && idx >= next {
			next = idx + 1
		}
		content, err := readMarker(filepath.Join(dir, f))
		if err == nil && content != "" {
			ids[content] = true
		}
	}
	return ids, next, nil
}

// sortedMarkerFiles lists *.txt files ordered by numeric index; files with
// non-numeric stems sort last.
func sortedMarkerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read AppList directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, e.Name())
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return markerIndex(files[i]) < markerIndex(files[j])
	})
	return files, nil
}

func markerIndex(name string) int {
	stem := strings.TrimSuffix(name, ".txt")
	idx, err := strconv.Atoi(stem)
	if err != nil {
		return int(^uint(0) >> 1) // non-numeric stems last
	}
	return idx
}

func readMarker(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
