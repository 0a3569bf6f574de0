package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dedupeDryRun    bool
	dedupeAuto      bool
	dedupeThreshold float64
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find and merge near-duplicate memories",
	Long: `Find near-duplicate memories by relevance scoring and merge them.
Merging keeps the newest content, combines tags from the whole group,
and deletes the older duplicates.

  mem dedupe              interactive: confirm each group
  mem dedupe --dry-run    just show duplicates
  mem dedupe --auto       merge everything, keep newest`,
	Args: cobra.NoArgs,
	RunE: runDedupe,
}

func init() {
	f := dedupeCmd.Flags()
	f.BoolVar(&dedupeDryRun, "dry-run", false, "Show duplicates without merging")
	f.BoolVar(&dedupeAuto, "auto", false, "Auto-merge keeping newest content")
	f.Float64Var(&dedupeThreshold, "threshold", -3.0, "BM25 score threshold for similarity (lower = more similar)")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	threshold := dedupeThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.Dedupe.Threshold
	}

	count, err := db.CountMemories(ctx)
	if err != nil {
		return err
	}
	if count < 2 {
		if !flagQuiet {
			fmt.Println("Not enough memories to deduplicate.")
		}
		return nil
	}

	clusters, err := eng.DedupeScan(ctx, threshold)
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		if !flagQuiet {
			fmt.Println("No duplicates found.")
		}
		return nil
	}

	if !flagQuiet {
		fmt.Printf("Found %d duplicate group(s):\n\n", len(clusters))
	}

	merged := 0
	for i, c := range clusters {
		if !flagQuiet {
			fmt.Printf("Group %d:\n", i+1)
			for _, m := range c.Members {
				hint := ""
				if len(m.Tags) > 0 {
					hint = fmt.Sprintf(" (tags: %s)", strings.Join(m.Tags, ", "))
				}
				fmt.Printf("  [%d] %s%s (%s)\n", m.ID, truncate(m.Content, 60), hint, m.CreatedAt.Format("2006-01-02"))
			}
			fmt.Println()
		}

		if dedupeDryRun {
			continue
		}

		merge := dedupeAuto
		if !dedupeAuto && !flagQuiet {
			merge = confirmPrompt(cmd.InOrStdin(), os.Stdout, "Merge this group (keep newest)?")
		}
		if !merge {
			continue
		}

		res, err := eng.MergeCluster(ctx, c)
		if err != nil {
			return err
		}
		merged += len(res.DeletedIDs)
		if !flagQuiet {
			fmt.Printf("  -> Merged into [%d], deleted %d duplicate(s)\n\n", res.WinnerID, len(res.DeletedIDs))
		}
	}

	if !flagQuiet && !dedupeDryRun {
		fmt.Printf("Merged %d duplicate(s) total.\n", merged)
	}
	return nil
}
