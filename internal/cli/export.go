package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all memories to a JSON file",
	Long: `Export every memory to a JSON array for backup or transfer. The file
can be read back with 'mem import'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	mems, err := db.AllMemories(cmd.Context())
	if err != nil {
		return err
	}

	items := make([]memoryJSON, 0, len(mems))
	for _, m := range mems {
		items = append(items, toMemoryJSON(m))
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}

	if !flagQuiet {
		fmt.Printf("Exported %d memories to %s\n", len(mems), args[0])
	}
	return nil
}
