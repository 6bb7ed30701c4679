package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed games",
	RunE:  runList,
}

func init() {
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.close()

	games, err := app.ledger.ListInstalledGames()
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}
	fmt.Print(output.RenderGameTable(games))
	return nil
}
