package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/output"
	"github.com/PSSGAMER/SuperSexySteam-sub000/internal/steamweb"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the Steam catalog for AppIDs",
	Example: `  supersexysteam search "half-life"
  supersexysteam search portal --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of results")
	RootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	results, err := steamweb.New().Search(cmd.Context(), strings.Join(args, " "), searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Print(output.RenderSearchTable(results))
	return nil
}
