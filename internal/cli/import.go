package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import memories from a JSON file",
	Long: `Import memories from a JSON array as written by 'mem export'. Every
record gets a fresh id. Supersedes links are remapped through the
exported ids where possible and dropped when the target is not part of
the import; see-also links keep unknown ids as weak references.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// importRecord mirrors the export format. Unknown fields are ignored so
// foreign exports with extra keys still load.
type importRecord struct {
	ID         int64    `json:"id"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Context    string   `json:"context"`
	Source     string   `json:"source"`
	SessionID  string   `json:"session_id"`
	Supersedes int64    `json:"supersedes"`
	SeeAlso    []int64  `json:"see_also"`
	SourceURL  string   `json:"source_url"`
	SourceFile string   `json:"source_file"`
	Importance *int     `json:"importance"`
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var records []importRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	idMap := make(map[int64]int64, len(records))
	count := 0

	for _, r := range records {
		source := r.Source
		if source == "" {
			source = "imported"
		}

		supersedes := int64(0)
		if r.Supersedes != 0 {
			// Only keep the link when its target was imported earlier
			// in this file; the old id means nothing in the new store.
			supersedes = idMap[r.Supersedes]
		}
		seeAlso := make([]int64, 0, len(r.SeeAlso))
		for _, ref := range r.SeeAlso {
			if mapped, ok := idMap[ref]; ok {
				seeAlso = append(seeAlso, mapped)
			} else {
				seeAlso = append(seeAlso, ref)
			}
		}

		m, err := db.CreateMemory(ctx, store.CreateParams{
			Content:    r.Content,
			Context:    r.Context,
			Tags:       r.Tags,
			Source:     source,
			SessionID:  r.SessionID,
			Supersedes: supersedes,
			SeeAlso:    seeAlso,
			SourceURL:  r.SourceURL,
			SourceFile: r.SourceFile,
			Importance: r.Importance,
		})
		if err != nil {
			return fmt.Errorf("import record %d: %w", count+1, err)
		}
		if r.ID != 0 {
			idMap[r.ID] = m.ID
		}
		count++
	}

	if !flagQuiet {
		fmt.Printf("Imported %d memories from %s\n", count, args[0])
	}
	return nil
}
