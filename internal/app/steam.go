package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/greenluma"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steamproc"
)

var steamCmd = &cobra.Command{
	Use:   "steam",
	Short: "Control the Steam client",
}

var steamStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether Steam is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		running, err := steamproc.New(nil).IsRunning()
		if err != nil {
			return err
		}
		if running {
			fmt.Println("Steam is running.")
		} else {
			fmt.Println("Steam is not running.")
		}
		return nil
	},
}

var steamStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Shut Steam down",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		mgr := steamproc.New(app.log)
		n, err := mgr.Terminate()
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("Steam is not running.")
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := mgr.WaitForExit(ctx); err != nil {
			return err
		}
		fmt.Println("Steam stopped.")
		return nil
	},
}

var steamStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start Steam through the GreenLuma injector",
	Long: `Rewrite DLLInjector.ini to point at the configured Steam and
GreenLuma paths, then launch Steam through the injector so the AppList
takes effect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		if !app.cfg.HasSteam() || !app.cfg.HasGreenLuma() {
			return fmt.Errorf("steam_path and greenluma_path must both be configured")
		}

		gl := greenluma.New(app.log)
		if err := gl.ConfigureInjector(app.cfg.SteamPath, app.cfg.GreenLumaPath); err != nil {
			return err
		}
		if err := steamproc.New(app.log).LaunchWithInjector(greenluma.InjectorEXEPath(app.cfg.GreenLumaPath)); err != nil {
			return err
		}
		fmt.Println("Steam started via injector.")
		return nil
	},
}

func init() {
	steamCmd.AddCommand(steamStatusCmd)
	steamCmd.AddCommand(steamStopCmd)
	steamCmd.AddCommand(steamStartCmd)
	RootCmd.AddCommand(steamCmd)
}
