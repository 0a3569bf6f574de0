package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var (
	updateTags       []string
	updateContext    string
	updateClearTags  bool
	updateSession    string
	updateSupersedes int64
	updateSeeAlso    []int64
	updateSourceURL  string
	updateSourceFile string
	updateImportance int
)

var updateCmd = &cobra.Command{
	Use:   "update <id> [content]",
	Short: "Update a memory in-place",
	Long: `Update an existing memory without losing its ID or creation time.

  mem update 42 "New content"
  mem update 42 --tag newtag --importance 5
  mem update 42 --clear-tags`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpdate,
}

func init() {
	f := updateCmd.Flags()
	f.StringArrayVarP(&updateTags, "tag", "t", nil, "Add tag(s) to the memory. Repeatable.")
	f.StringVarP(&updateContext, "context", "c", "", "Update the context field")
	f.BoolVar(&updateClearTags, "clear-tags", false, "Remove all tags from the memory")
	f.StringVar(&updateSession, "session", "", "Set/change the session ID")
	f.Int64Var(&updateSupersedes, "supersedes", 0, "Set the ID of memory this replaces")
	f.Int64SliceVar(&updateSeeAlso, "see-also", nil, "Add related memory IDs. Repeatable.")
	f.StringVar(&updateSourceURL, "source-url", "", "Set/update the source URL")
	f.StringVar(&updateSourceFile, "source-file", "", "Set/update the source file path")
	f.IntVarP(&updateImportance, "importance", "i", 0, "Set importance level 1-5")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid memory id: %s", args[0])
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	current, err := db.GetMemory(ctx, id)
	if err != nil {
		return err
	}

	var p store.UpdateParams
	changed := false
	f := cmd.Flags()

	if len(args) > 1 {
		p.Content = &args[1]
		changed = true
	}
	if updateClearTags {
		empty := []string{}
		p.SetTags = &empty
		changed = true
	} else if len(updateTags) > 0 {
		p.AddTags = updateTags
		for _, t := range updateTags {
			if !containsString(current.Tags, t) {
				changed = true
				break
			}
		}
	}
	if f.Changed("context") {
		p.Context = &updateContext
		changed = true
	}
	if f.Changed("session") {
		p.SessionID = &updateSession
		changed = true
	}
	if f.Changed("supersedes") {
		p.Supersedes = &updateSupersedes
		changed = true
	}
	if len(updateSeeAlso) > 0 {
		p.AddSeeAlso = updateSeeAlso
		for _, ref := range updateSeeAlso {
			if !containsID(current.SeeAlso, ref) {
				changed = true
				break
			}
		}
	}
	if f.Changed("source-url") {
		p.SourceURL = &updateSourceURL
		changed = true
	}
	if f.Changed("source-file") {
		p.SourceFile = &updateSourceFile
		changed = true
	}
	if f.Changed("importance") {
		p.Importance = &updateImportance
		changed = true
	}

	if !changed {
		if !flagQuiet {
			fmt.Printf("No changes made to memory %d\n", id)
		}
		return nil
	}

	m, err := db.UpdateMemory(ctx, id, p)
	if err != nil {
		return err
	}

	if flagQuiet {
		fmt.Println(m.ID)
		return nil
	}
	if flagJSON {
		return printJSON(os.Stdout, struct {
			ID      int64    `json:"id"`
			Content string   `json:"content"`
			Tags    []string `json:"tags"`
			Updated bool     `json:"updated"`
		}{m.ID, m.Content, m.Tags, true})
	}
	fmt.Printf("Updated memory %d\n", id)
	return nil
}

func containsID(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
