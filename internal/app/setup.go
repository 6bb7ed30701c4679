package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/config"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/logging"
)

var (
	setupSteamPath     string
	setupGreenLumaPath string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the Steam and GreenLuma paths",
	Long: `Record where Steam and GreenLuma are installed and verify that the
GreenLuma directory has its expected components. The paths are written
to the per-user config file; install and uninstall read them from there.`,
	Example: `  supersexysteam setup --steam "C:\Program Files (x86)\Steam" --greenluma "D:\GreenLuma"`,
	RunE:    runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupSteamPath, "steam", "", "Steam installation root")
	setupCmd.Flags().StringVar(&setupGreenLumaPath, "greenluma", "", "GreenLuma installation root")
	RootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if setupSteamPath != "" {
		cfg.SteamPath = setupSteamPath
	}
	if setupGreenLumaPath != "" {
		cfg.GreenLumaPath = setupGreenLumaPath
	}

	if !cfg.HasSteam() {
		fmt.Println("Warning: steam_path does not point at an existing directory.")
	}
	if cfg.HasGreenLuma() {
		log, err := logging.New(cfg.LogLevel, cfg.LogPath)
		if err != nil {
			return err
		}
		missing, err := greenluma.New(log).Validate(cfg.GreenLumaPath)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			fmt.Printf("Warning: GreenLuma installation is missing: %s\n", strings.Join(missing, ", "))
		}
	} else if cfg.GreenLumaPath != "" {
		fmt.Println("Warning: greenluma_path does not point at an existing directory.")
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Println("Configuration saved.")
	return nil
}
