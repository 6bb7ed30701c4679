// Package vdfkeys manages the depot decryption-key section of Steam's
// config.vdf. The file is owned by the Steam client; this store merges keys
// in and removes only entries it wrote itself, so a failed or partial
// rewrite can never destroy third-party state.
package vdfkeys

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/vdf"
)

// ErrMalformed is returned when config.vdf lacks the expected
// InstallConfigStore/Software/Valve/Steam structure.
var ErrMalformed = errors.New("config.vdf has unexpected structure")

// Store reads and rewrites the depots section of a config.vdf file.
type Store struct {
	log *zap.Logger
}

// New returns a key store logging through log.
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// AddOrUpdate merges the decryption keys of the given depots into
// config.vdf at path and reports how many entries were written. Keyless
// depots are skipped. The original file is backed up to <path>.bak before
// the rewrite and is left untouched on any parse error.
func (s *Store) AddOrUpdate(path string, depots []steam.Depot) (int, error) {
	keyed := steam.FilterKeyed(depots)
	if len(keyed) == 0 {
		s.log.Debug("no depot keys to add", zap.String("path", path))
		return 0, nil
	}

	config, steamNode, err := s.load(path)
	if err != nil {
		return 0, err
	}

	depotsNode, ok := steamNode["depots"].(map[string]interface{})
	if !ok {
		depotsNode = map[string]interface{}{}
		steamNode["depots"] = depotsNode
	}

	for _, d := range keyed {
		depotsNode[d.ID] = map[string]interface{}{"DecryptionKey": d.Key}
		s.log.Debug("added depot key", zap.String("depot", d.ID))
	}

	if err := s.rewrite(path, config); err != nil {
		return 0, err
	}
	s.log.Info("updated config.vdf", zap.String("path", path), zap.Int("keys", len(keyed)))
	return len(keyed), nil
}

// Remove deletes the config.vdf entries for the given depots, but only
// when the stored key matches the key this system recorded. An entry with
// a different key belongs to someone else and is left alone. Reports how
// many entries were removed. A missing depots section is success.
func (s *Store) Remove(path string, depots []steam.Depot) (int, error) {
	if len(depots) == 0 {
		return 0, nil
	}

	config, steamNode, err := s.load(path)
	if err != nil {
		return 0, err
	}

	depotsNode, ok := steamNode["depots"].(map[string]interface{})
	if !ok {
		s.log.Debug("no depots section in config.vdf, nothing to remove")
		return 0, nil
	}

	removed := 0
	for _, d := range depots {
		entry, ok := depotsNode[d.ID].(map[string]interface{})
		if !ok {
			continue
		}
		stored, _ := entry["DecryptionKey"].(string)
		if d.Key == "" || stored != d.Key {
			// Not a key we wrote.
			s.log.Debug("skipping foreign depot key", zap.String("depot", d.ID))
			continue
		}
		delete(depotsNode, d.ID)
		removed++
		s.log.Debug("removed depot key", zap.String("depot", d.ID))
	}

	if removed == 0 {
		return 0, nil
	}

	if err := s.rewrite(path, config); err != nil {
		return 0, err
	}
	s.log.Info("removed depot keys from config.vdf", zap.String("path", path), zap.Int("keys", removed))
	return removed, nil
}

// ExistingKeys returns the depot_id → key mapping currently stored in
// config.vdf.
func (s *Store) ExistingKeys(path string) (map[string]string, error) {
	_, steamNode, err := s.load(path)
	if err != nil {
		return nil, err
	}

	keys := map[string]string{}
	depotsNode, ok := steamNode["depots"].(map[string]interface{})
	if !ok {
		return keys, nil
	}
	for id, v := range depotsNode {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if key, ok := entry["DecryptionKey"].(string); ok {
			keys[id] = key
		}
	}
	return keys, nil
}

// load parses config.vdf and navigates to the Steam node. The Valve and
// Steam keys appear with inconsistent casing across installs.
func (s *Store) load(path string) (map[string]interface{}, map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open config.vdf: %w", err)
	}
	defer f.Close()

	config, err := vdf.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse config.vdf: %w", err)
	}

	steamNode := vdf.ChildMapFold(config, "InstallConfigStore", "Software", "Valve", "Steam")
	if steamNode == nil {
		return nil, nil, ErrMalformed
	}
	return config, steamNode, nil
}

// rewrite backs the original file up next to itself, then writes the
// updated document in place.
func (s *Store) rewrite(path string, config map[string]interface{}) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config.vdf for backup: %w", err)
	}
	if err := os.WriteFile(path+".bak", original, 0644); err != nil {
		return fmt.Errorf("failed to back up config.vdf: %w", err)
	}
	if err := os.WriteFile(path, vdf.Marshal(config), 0644); err != nil {
		return fmt.Errorf("failed to write config.vdf: %w", err)
	}
	return nil
}
