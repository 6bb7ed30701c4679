package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/engine"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <appid>",
	Short: "Remove a game from every store",
	Long: `Remove a game's depot keys from config.vdf, its tracked manifests
from the depotcache, its appmanifest file, and its AppList markers, then
drop it from the ledger. The ledger entry goes last so a partial removal
can be retried.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	RootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.engine.Uninstall(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, engine.ErrNotInstalled) {
			return fmt.Errorf("AppID %s is not installed", args[0])
		}
		return fmt.Errorf("uninstall failed: %w", err)
	}
	fmt.Print(output.RenderUninstallResult(res))
	return nil
}
