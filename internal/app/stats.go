package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/depotcache"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ledger, depot cache and AppList statistics",
	Long: `Show what the ledger tracks and how the external stores compare:
manifest count and size in the depotcache, and how many AppList markers
match tracked apps and depots versus externally added entries.`,
	RunE: runStats,
}

func init() {
	RootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	st, err := app.ledger.Stats()
	if err != nil {
		return fmt.Errorf("failed to read ledger stats: %w", err)
	}

	var cacheInfo *depotcache.Info
	if app.cfg.HasSteam() {
		info, err := depotcache.New(app.log).Inspect(app.cfg.SteamPath)
		if err != nil {
			app.log.Warn("depotcache inspection failed", zap.Error(err))
		} else {
			cacheInfo = &info
		}
	}

	var listStats *greenluma.DirStats
	if app.cfg.HasGreenLuma() {
		apps, err := app.ledger.ListInstalledAppIDs()
		if err != nil {
			return fmt.Errorf("failed to list apps: %w", err)
		}
		depots, err := app.ledger.AllDepotsForInstalledApps()
		if err != nil {
			return fmt.Errorf("failed to list depots: %w", err)
		}
		depotIDs := make([]string, len(depots))
		for i, d := range depots {
			depotIDs[i] = d.DepotID
		}
		ds, err := greenluma.New(app.log).Stats(app.cfg.GreenLumaPath, apps, depotIDs)
		if err != nil {
			app.log.Warn("AppList scan failed", zap.Error(err))
		} else {
			listStats = &ds
		}
	}

	fmt.Print(output.RenderStats(st, cacheInfo, listStats))
	return nil
}
