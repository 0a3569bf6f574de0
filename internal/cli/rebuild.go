package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCheck bool

var rebuildIndexCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the full-text search index",
	Long: `Rebuild the FTS5 search index from all memories. Use this for
maintenance or recovery if search results seem incorrect. With --check
the index is only verified against the rows, nothing is rebuilt.`,
	Args: cobra.NoArgs,
	RunE: runRebuildIndex,
}

func init() {
	rebuildIndexCmd.Flags().BoolVar(&rebuildCheck, "check", false, "Verify index consistency without rebuilding")
}

func runRebuildIndex(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	if rebuildCheck {
		if err := db.CheckIndex(ctx); err != nil {
			return err
		}
		fmt.Println("Index OK")
		return nil
	}

	count, err := db.RebuildIndex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Rebuilt index with %d memories\n", count)
	return nil
}
