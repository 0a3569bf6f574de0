package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var (
	listTags          []string
	listSince         string
	listLimit         int
	listSession       string
	listMinImportance int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories with optional filters",
	Long: `List memories most-recent-first. Unlike recall this does not search,
it lists everything that passes the filters.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.StringArrayVarP(&listTags, "tag", "t", nil, "Filter to memories with this tag. Repeatable.")
	f.StringVar(&listSince, "since", "", "Only memories created after this date (YYYY-MM-DD)")
	f.IntVarP(&listLimit, "limit", "n", 50, "Maximum number of results")
	f.StringVar(&listSession, "session", "", "Only list memories in this session")
	f.IntVar(&listMinImportance, "min-importance", 0, "Only memories with importance >= this value (1-5)")
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func runList(cmd *cobra.Command, args []string) error {
	var since time.Time
	if listSince != "" {
		t, err := parseSince(listSince)
		if err != nil {
			return fmt.Errorf("invalid date format: %s", listSince)
		}
		since = t
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	mems, err := db.ListMemories(cmd.Context(), store.ListFilter{
		Tags:          listTags,
		SessionID:     listSession,
		Since:         since,
		MinImportance: listMinImportance,
		Limit:         listLimit,
	})
	if err != nil {
		return err
	}
	return outputMemories(os.Stdout, mems, nil)
}
