package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var (
	forgetTag     string
	forgetConfirm bool
)

var forgetCmd = &cobra.Command{
	Use:   "forget [id]",
	Short: "Delete a memory by ID or bulk delete by tag",
	Long: `Delete memories. A single ID deletes immediately; bulk delete by tag
asks for confirmation unless -y is given.

  mem forget 42
  mem forget --tag temporary -y`,
	Args: cobra.MaximumNArgs(1),
	RunE: runForget,
}

func init() {
	f := forgetCmd.Flags()
	f.StringVarP(&forgetTag, "tag", "t", "", "Delete ALL memories with this tag (asks to confirm)")
	f.BoolVarP(&forgetConfirm, "yes", "y", false, "Skip confirmation prompt for bulk delete")
}

func runForget(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && forgetTag == "" {
		return errors.New("provide either a memory ID or --tag")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid memory id: %s", args[0])
		}
		if err := db.DeleteMemory(ctx, id); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("Deleted memory %d\n", id)
		}
		return nil
	}

	mems, err := db.ListMemories(ctx, store.ListFilter{Tags: []string{forgetTag}, Limit: -1})
	if err != nil {
		return err
	}
	if len(mems) == 0 {
		fmt.Printf("No memories found with tag '%s'\n", forgetTag)
		return nil
	}

	if !forgetConfirm {
		q := fmt.Sprintf("Delete %d memories with tag '%s'?", len(mems), forgetTag)
		if !confirmPrompt(cmd.InOrStdin(), os.Stdout, q) {
			return errors.New("aborted")
		}
	}

	for _, m := range mems {
		if err := db.DeleteMemory(ctx, m.ID); err != nil {
			return err
		}
	}
	if !flagQuiet {
		fmt.Printf("Deleted %d memories\n", len(mems))
	}
	return nil
}
