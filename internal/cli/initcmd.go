package cli

import (
	"fmt"

	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a memory database",
	Long: `Create a memory database and its schema. By default this creates a
local .mem/ in the current directory; other commands prefer a local
database over the global one when it exists.

  mem init             create ./.mem/mem.db
  mem init --global    create ~/.mem/mem.db
  mem init --db PATH   create at a custom path`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	switch {
	case flagDB != "":
		db, err := store.Open(flagDB)
		if err != nil {
			return err
		}
		db.Close()
		fmt.Printf("Database initialized at: %s\n", flagDB)
	case flagGlobal:
		path, err := store.DefaultDBPath()
		if err != nil {
			return err
		}
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		db.Close()
		fmt.Printf("Global database initialized at: %s\n", path)
	default:
		path := store.LocalDBPath()
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		db.Close()
		fmt.Printf("Local database initialized at: %s\n", path)
	}
	return nil
}
