package app

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string

	// RootCmd is the root command for supersexysteam
	RootCmd = &cobra.Command{
		Use:   "supersexysteam",
		Short: "Manage Steam game installs across GreenLuma, config.vdf and the depot cache",
		Long: `supersexysteam keeps five stores in sync when installing or removing
games: its own SQLite ledger, the GreenLuma AppList, Steam's config.vdf
depot keys, the depotcache manifests, and the generated appmanifest
files.

An install reads the depot declaration (.lua) and manifest files from a
per-AppID data folder, records them in the ledger, and then reconciles
every external store. Individual store failures become warnings, never
a lost install; the ledger is written first on install and last on
uninstall so it always reflects what still needs cleaning.

Examples:
  # Install from the configured data directory
  supersexysteam install 730

  # Install from an explicit folder
  supersexysteam install 730 --source ./drops/730

  # Watch the data directory and install drops automatically
  supersexysteam watch --daemon

  # Remove one game, or everything
  supersexysteam uninstall 730
  supersexysteam clear --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <user config dir>/supersexysteam/config.toml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "ledger database path (overrides config)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
