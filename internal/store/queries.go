package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steam"
)

// App operations

// Exists reports whether the AppID has a ledger entry (installed or not).
func (s *Store) Exists(appID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRow(`SELECT 1 FROM appids WHERE app_id = ? LIMIT 1`, appID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check app %s: %w", appID, err)
	}
	return true, nil
}

// UpsertAppWithDepots records an installation in a single transaction: the
// app row is created or refreshed with installed=1, and the depot and
// manifest sets are replaced wholesale. Either every row for the AppID is
// written or none are.
func (s *Store) UpsertAppWithDepots(appID, gameName string, depots []steam.Depot, manifests []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = tx.Exec(`
		INSERT INTO appids (app_id, game_name, date_added, last_updated, is_installed)
		VALUES (?, NULLIF(?, ''), ?, ?, 1)
		ON CONFLICT(app_id) DO UPDATE SET
			game_name    = COALESCE(NULLIF(excluded.game_name, ''), game_name),
			last_updated = excluded.last_updated,
			is_installed = 1
	`, appID, gameName, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert app %s: %w", appID, err)
	}

	// The depot set is replaced wholesale, never merged incrementally.
	if _, err := tx.Exec(`DELETE FROM depots WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("failed to clear depots for app %s: %w", appID, err)
	}
	if _, err := tx.Exec(`DELETE FROM manifests WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("failed to clear manifests for app %s: %w", appID, err)
	}

	for _, d := range depots {
		_, err := tx.Exec(`
			INSERT INTO depots (depot_id, app_id, decryption_key, date_added)
			VALUES (?, ?, NULLIF(?, ''), ?)
		`, d.ID, appID, d.Key, now)
		if err != nil {
			return fmt.Errorf("failed to insert depot %s for app %s: %w", d.ID, appID, err)
		}
	}

	for _, filename := range manifests {
		_, err := tx.Exec(`
			INSERT INTO manifests (app_id, filename, date_added)
			VALUES (?, ?, ?)
		`, appID, filename, now)
		if err != nil {
			return fmt.Errorf("failed to insert manifest %s for app %s: %w", filename, appID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit install of app %s: %w", appID, err)
	}
	return nil
}

// RemoveApp hard-deletes the app row; the depot and manifest rows go with
// it via cascade. Returns ErrNotFound if the AppID has no ledger entry.
func (s *Store) RemoveApp(appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM appids WHERE app_id = ?`, appID)
	if err != nil {
		return fmt.Errorf("failed to remove app %s: %w", appID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("app %s: %w", appID, ErrNotFound)
	}
	return nil
}

// MarkUninstalled flips the installed flag without deleting any rows.
func (s *Store) MarkUninstalled(appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.Exec(`
		UPDATE appids SET is_installed = 0, last_updated = ?
		WHERE app_id = ?
	`, now, appID)
	if err != nil {
		return fmt.Errorf("failed to mark app %s uninstalled: %w", appID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("app %s: %w", appID, ErrNotFound)
	}
	return nil
}

// UpdateGameName sets the display name for an existing AppID.
func (s *Store) UpdateGameName(appID, gameName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		UPDATE appids SET game_name = ?, last_updated = ?
		WHERE app_id = ?
	`, gameName, now, appID)
	if err != nil {
		return fmt.Errorf("failed to update game name for app %s: %w", appID, err)
	}
	return nil
}

// Depot and manifest queries

// GetDepots returns the depots recorded for an AppID, ordered by depot ID.
func (s *Store) GetDepots(appID string) ([]steam.Depot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT depot_id, COALESCE(decryption_key, '')
		FROM depots
		WHERE app_id = ?
		ORDER BY depot_id
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to get depots for app %s: %w", appID, err)
	}
	defer rows.Close()

	var depots []steam.Depot
	for rows.Next() {
		var d steam.Depot
		if err := rows.Scan(&d.ID, &d.Key); err != nil {
			return nil, fmt.Errorf("failed to scan depot row: %w", err)
		}
		depots = append(depots, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating depots: %w", err)
	}
	return depots, nil
}

// GetManifests returns the manifest filenames recorded for an AppID. The
// depot cache is not namespaced by app, so this list is the only safe
// authority for what uninstall may remove.
func (s *Store) GetManifests(appID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT filename FROM manifests WHERE app_id = ? ORDER BY filename
	`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to get manifests for app %s: %w", appID, err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan manifest row: %w", err)
		}
		filenames = append(filenames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manifests: %w", err)
	}
	return filenames, nil
}

// Installed-set queries

// ListInstalledAppIDs returns the AppIDs currently marked installed.
func (s *Store) ListInstalledAppIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT app_id FROM appids WHERE is_installed = 1 ORDER BY app_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed apps: %w", err)
	}
	defer rows.Close()

	var appIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		appIDs = append(appIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apps: %w", err)
	}
	return appIDs, nil
}

// ListInstalledGames returns installed apps with their display names,
// ordered by name then AppID. Apps without a known name fall back to
// "AppID <id>".
func (s *Store) ListInstalledGames() ([]steam.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT app_id, COALESCE(game_name, ''), date_added, last_updated
		FROM appids
		WHERE is_installed = 1
		ORDER BY game_name ASC, app_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed games: %w", err)
	}
	defer rows.Close()

	var games []steam.Game
	for rows.Next() {
		var g steam.Game
		var dateAdded, lastUpdated string
		if err := rows.Scan(&g.AppID, &g.Name, &dateAdded, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		if g.Name == "" {
			g.Name = "AppID " + g.AppID
		}
		g.Installed = true
		g.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
		g.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

// AllDepotsForInstalledApps returns every depot belonging to an installed
// app, joined with its AppID.
func (s *Store) AllDepotsForInstalledApps() ([]steam.AppDepot, error) {
	return s.queryAppDepots(`
		SELECT d.depot_id, d.app_id, COALESCE(d.decryption_key, '')
		FROM depots d
		JOIN appids a ON d.app_id = a.app_id
		WHERE a.is_installed = 1
		ORDER BY d.app_id, d.depot_id
	`)
}

// DepotsWithKeysForInstalledApps returns only the depots of installed apps
// that carry a decryption key.
func (s *Store) DepotsWithKeysForInstalledApps() ([]steam.AppDepot, error) {
	return s.queryAppDepots(`
		SELECT d.depot_id, d.app_id, d.decryption_key
		FROM depots d
		JOIN appids a ON d.app_id = a.app_id
		WHERE a.is_installed = 1 AND d.decryption_key IS NOT NULL
		ORDER BY d.app_id, d.depot_id
	`)
}

func (s *Store) queryAppDepots(query string) ([]steam.AppDepot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query depots: %w", err)
	}
	defer rows.Close()

	var depots []steam.AppDepot
	for rows.Next() {
		var d steam.AppDepot
		if err := rows.Scan(&d.DepotID, &d.AppID, &d.Key); err != nil {
			return nil, fmt.Errorf("failed to scan depot row: %w", err)
		}
		depots = append(depots, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating depots: %w", err)
	}
	return depots, nil
}

// Stats returns counts across the ledger tables.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM appids`, &st.TotalApps},
		{`SELECT COUNT(*) FROM appids WHERE is_installed = 1`, &st.InstalledApps},
		{`SELECT COUNT(*) FROM depots`, &st.TotalDepots},
		{`SELECT COUNT(*) FROM depots WHERE decryption_key IS NOT NULL`, &st.DepotsWithKey},
		{`SELECT COUNT(*) FROM manifests`, &st.Manifests},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("failed to get ledger stats: %w", err)
		}
	}
	return st, nil
}
