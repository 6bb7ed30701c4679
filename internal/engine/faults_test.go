package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/acf"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/config"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/depotcache"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/store"
)

const keyedConfigVDF = `"InstallConfigStore"
{
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"depots"
				{
					"731"
					{
						"DecryptionKey"		"AABB"
					}
				}
			}
		}
	}
}
`

// Uninstall removes the external artifacts first and deletes the ledger
// row last. When that final delete fails the operation must report the
// error even though the artifacts are already gone, so the ledger stays
// the authority for what still needs cleaning.
func TestUninstallReportsLedgerFailureAfterStoreRemoval(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	steamRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(steamRoot, "config"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(steamRoot, "config", "config.vdf"), []byte(keyedConfigVDF), 0644); err != nil {
		t.Fatal(err)
	}
	cachePath := filepath.Join(depotcache.Dir(steamRoot), "731_111.manifest")
	if err := os.MkdirAll(depotcache.Dir(steamRoot), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cachePath, []byte("m"), 0644); err != nil {
		t.Fatal(err)
	}
	acfPath := acf.ManifestPath(steamRoot, "730")
	if err := os.MkdirAll(filepath.Dir(acfPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(acfPath, []byte("\"AppState\"\n{\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	glRoot := t.TempDir()
	if _, err := greenluma.New(nil).AddAppAndDepots(glRoot, "730", []string{"731"}); err != nil {
		t.Fatal(err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM appids WHERE app_id = ? LIMIT 1`)).
		WithArgs("730").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT depot_id, COALESCE\(decryption_key, ''\)`).
		WithArgs("730").
		WillReturnRows(sqlmock.NewRows([]string{"depot_id", "decryption_key"}).AddRow("731", "AABB"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT filename FROM manifests WHERE app_id = ? ORDER BY filename`)).
		WithArgs("730").
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("731_111.manifest"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM appids WHERE app_id = ?`)).
		WithArgs("730").
		WillReturnError(errors.New("disk I/O error"))

	cfg := &config.Config{
		SteamPath:     steamRoot,
		GreenLumaPath: glRoot,
		DatabasePath:  "mock.db",
	}
	eng := New(cfg, store.NewWithDB(db, "mock.db"), nil)

	res, err := eng.Uninstall(context.Background(), "730")
	if err == nil {
		t.Fatal("expected an error when the ledger delete fails")
	}
	if res == nil {
		t.Fatal("expected a partial result alongside the error")
	}
	if res.KeysRemoved != 1 || res.ManifestsRemoved != 1 || !res.ACFRemoved || res.MarkersRemoved != 2 {
		t.Errorf("external removals not reported: %+v", res)
	}

	// The external artifacts really are gone.
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Error("cache manifest still present")
	}
	if _, err := os.Stat(acfPath); !os.IsNotExist(err) {
		t.Error("appmanifest still present")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
