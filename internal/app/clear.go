package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe every store and the ledger",
	Long: `Remove all tracked depot keys, the whole depotcache, every tracked
appmanifest file, the GreenLuma AppList, the local data directory, and
finally the ledger database itself. The database goes last so an
interrupted clear can be run again.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "skip the confirmation prompt")
	RootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		fmt.Print("This removes ALL tracked games and the database. Continue? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.engine.ClearAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	fmt.Print(output.RenderClearResult(res))
	return nil
}
