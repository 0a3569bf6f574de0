package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := db.Stats(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, st)
	}

	fmt.Printf("Database: %s\n", st.Path)
	fmt.Printf("Size: %s\n", humanize.Bytes(uint64(st.SizeBytes)))
	fmt.Printf("Memories: %d\n", st.MemoryCount)
	fmt.Printf("Unique tags: %d\n", st.TagCount)
	fmt.Printf("Sessions: %d\n", st.SessionCount)
	return nil
}
