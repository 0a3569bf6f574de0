package cli

import (
	"os"

	"github.com/lazypower/mem/internal/engine"
	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var (
	recallTags           []string
	recallLimit          int
	recallShowScore      bool
	recallRecentFirst    bool
	recallSession        string
	recallMinImportance  int
	recallBoostImportant bool
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search memories using full-text search",
	Long: `Search memories with SQLite FTS5 across content and context, ranked by
BM25 relevance (lower score = better match).

Query syntax:
  mem recall "API key"            both words
  mem recall "API OR database"    either word
  mem recall "config*"            prefix match
  mem recall "\"exact phrase\""   phrase match`,
	Args: cobra.ExactArgs(1),
	RunE: runRecall,
}

func init() {
	f := recallCmd.Flags()
	f.StringArrayVarP(&recallTags, "tag", "t", nil, "Filter results to those with this tag. Repeatable.")
	f.IntVarP(&recallLimit, "limit", "n", 10, "Maximum number of results")
	f.BoolVar(&recallShowScore, "show-score", false, "Show BM25 relevance scores in output")
	f.BoolVar(&recallRecentFirst, "recent-first", false, "Sort by creation date instead of relevance")
	f.StringVar(&recallSession, "session", "", "Only search memories in this session")
	f.IntVar(&recallMinImportance, "min-importance", 0, "Only memories with importance >= this value (1-5)")
	f.BoolVar(&recallBoostImportant, "boost-important", false, "Prioritize high-importance memories")
}

func runRecall(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	limit := recallLimit
	if !cmd.Flags().Changed("limit") {
		limit = cfg.Recall.Limit
	}

	hits, err := eng.Recall(cmd.Context(), args[0], engine.RecallOpts{
		Limit:          limit,
		Tags:           recallTags,
		SessionID:      recallSession,
		MinImportance:  recallMinImportance,
		RecentFirst:    recallRecentFirst,
		BoostImportant: recallBoostImportant,
	})
	if err != nil {
		return err
	}

	mems := make([]*store.Memory, len(hits))
	var scores map[int64]float64
	if recallShowScore {
		scores = make(map[int64]float64, len(hits))
	}
	for i, h := range hits {
		mems[i] = h.Memory
		if recallShowScore {
			scores[h.Memory.ID] = h.Score
		}
	}
	return outputMemories(os.Stdout, mems, scores)
}
