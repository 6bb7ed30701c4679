// Package depotcache manages Steam's depotcache directory, the flat
// folder of .manifest files Steam consults when it needs depot content
// metadata. Copies are idempotent per file: a manifest already present
// with the same size is left alone.
package depotcache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store copies manifest files into and removes them from a Steam
// depotcache directory.
type Store struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// Dir returns the depotcache directory for a Steam root.
func Dir(steamRoot string) string {
	return filepath.Join(steamRoot, "depotcache")
}

// CopyResult reports the outcome of a CopyIn call.
type CopyResult struct {
	Copied    []string
	Skipped   []string
	Failed    []string
	Filenames []string
}

// CopyIn copies every .manifest file found directly in sourceDir into the
// Steam depotcache. Files whose destination already exists with an equal
// size are skipped. Individual copy failures are collected rather than
// aborting the batch. Filenames lists every manifest seen, copied or not,
// so callers can record ownership.
func (s *Store) CopyIn(steamRoot, sourceDir string) (CopyResult, error) {
	var res CopyResult

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, fmt.Errorf("failed to read source directory: %w", err)
	}

	dst := Dir(steamRoot)
	if err := os.MkdirAll(dst, 0755); err != nil {
		return res, fmt.Errorf("failed to create depotcache: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".manifest") {
			continue
		}
		res.Filenames = append(res.Filenames, e.Name())

		src := filepath.Join(sourceDir, e.Name())
		target := filepath.Join(dst, e.Name())

		srcInfo, err := e.Info()
		if err != nil {
			res.Failed = append(res.Failed, e.Name())
			s.log.Warn("failed to stat manifest", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if dstInfo, err := os.Stat(target); err == nil && dstInfo.Size() == srcInfo.Size() {
			res.Skipped = append(res.Skipped, e.Name())
			continue
		}

		if err := copyFile(src, target); err != nil {
			res.Failed = append(res.Failed, e.Name())
			s.log.Warn("failed to copy manifest", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		res.Copied = append(res.Copied, e.Name())
	}

	s.log.Info("manifest copy complete",
		zap.Int("copied", len(res.Copied)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

// RemoveByFilenames deletes the named manifests from the depotcache.
// Missing files count as removed, the goal state is absence either way.
func (s *Store) RemoveByFilenames(steamRoot string, filenames []string) (removed int, err error) {
	dir := Dir(steamRoot)
	for _, name := range filenames {
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				removed++
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// ClearAll removes every .manifest file from the depotcache.
func (s *Store) ClearAll(steamRoot string) (removed int, err error) {
	dir := Dir(steamRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read depotcache: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".manifest") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed++
	}
	s.log.Info("cleared depotcache", zap.Int("removed", removed))
	return removed, nil
}

// Info summarizes the depotcache contents.
type Info struct {
	Exists    bool
	Manifests int
	TotalSize int64
}

// Inspect reports manifest count and total size for a Steam depotcache.
func (s *Store) Inspect(steamRoot string) (Info, error) {
	var info Info
	entries, err := os.ReadDir(Dir(steamRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, fmt.Errorf("failed to read depotcache: %w", err)
	}
	info.Exists = true
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".manifest") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info.Manifests++
		info.TotalSize += fi.Size()
	}
	return info, nil
}

// ListManifests returns the .manifest filenames directly inside dir. A
// missing directory yields an empty list.
func ListManifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".manifest") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
