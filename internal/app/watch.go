package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/watcher"
)

var (
	watchDaemon     bool
	watchForeground bool
	watchStop       bool
	watchStatus     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the data directory and install drops automatically",
	Long: `Watch the configured data directory. When a per-AppID folder with a
depot declaration appears and stops changing for a couple of seconds,
it is installed as if 'install <appid>' had been run.

Use --daemon to keep the watcher running in the background.`,
	Example: `  # Run in the foreground (Ctrl+C to stop)
  supersexysteam watch

  # Run in the background
  supersexysteam watch --daemon
  supersexysteam watch --status
  supersexysteam watch --stop`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run in the background")
	watchCmd.Flags().BoolVar(&watchForeground, "foreground", false, "run the daemon loop in this process")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop a running background watcher")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "report whether the background watcher is running")
	_ = watchCmd.Flags().MarkHidden("foreground")
	RootCmd.AddCommand(watchCmd)
}

func watchPIDFile() string {
	return filepath.Join(runDir(), "watch.pid")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pidFile := watchPIDFile()

	switch {
	case watchStop:
		if err := watcher.StopDaemon(pidFile); err != nil {
			return err
		}
		fmt.Println("Watcher stopped.")
		return nil

	case watchStatus:
		running, err := watcher.IsDaemonRunning(pidFile)
		if err != nil {
			return err
		}
		if running {
			fmt.Println("Watcher is running.")
		} else {
			fmt.Println("Watcher is not running.")
		}
		return nil

	case watchDaemon:
		if err := watcher.StartDaemon(pidFile, filepath.Join(runDir(), "watch.log")); err != nil {
			return err
		}
		fmt.Println("Watcher started in the background.")
		return nil
	}

	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	if err := os.MkdirAll(app.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	w, err := watcher.New(app.engine, app.cfg.DataDir, app.log)
	if err != nil {
		return err
	}
	if watchForeground {
		return w.RunForeground(pidFile)
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", app.cfg.DataDir)
	return w.RunForeground("")
}
