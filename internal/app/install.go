package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
)

var installSource string

var installCmd = &cobra.Command{
	Use:   "install <appid>",
	Short: "Install or update a game from its data folder",
	Long: `Install a game from a folder containing its depot declaration
(<appid>.lua) and any .manifest files. With no --source the folder
<data_dir>/<appid> is used.

If the AppID is already installed this becomes an update: the old state
is removed first, then the new declaration is applied. A failed cleanup
of the old state does not block the update.`,
	Example: `  # Install from the configured data directory
  supersexysteam install 730

  # Install from an explicit folder
  supersexysteam install 730 --source ./drops/730`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installSource, "source", "", "folder with the .lua declaration and manifests")
	RootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.engine.Install(cmd.Context(), args[0], installSource)
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	fmt.Print(output.RenderInstallResult(res))
	return nil
}
