package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lazypower/mem/internal/engine"
	"github.com/lazypower/mem/internal/store"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	rememberTags        []string
	rememberContext     string
	rememberSource      string
	rememberFile        string
	rememberSession     string
	rememberAutoTag     bool
	rememberSuggestTags bool
	rememberSupersedes  int64
	rememberSeeAlso     []int64
	rememberSourceURL   string
	rememberSourceFile  string
	rememberImportance  int
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Store a new memory",
	Long: `Store a new memory with optional tags and context.

Content comes from the argument, --file, or stdin:
  mem remember "API key is in .env"
  mem remember "The API uses JWT" --auto-tag
  mem remember --file notes.txt --tag imported
  echo "content" | mem remember`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemember,
}

func init() {
	f := rememberCmd.Flags()
	f.StringArrayVarP(&rememberTags, "tag", "t", nil, "Tag for categorization. Repeatable.")
	f.StringVarP(&rememberContext, "context", "c", "", "Why/where this was stored. Searchable via recall.")
	f.StringVarP(&rememberSource, "source", "s", "user", "Who created this: 'user', 'claude', 'file', etc.")
	f.StringVarP(&rememberFile, "file", "f", "", "Read content from file instead of argument")
	f.StringVar(&rememberSession, "session", "", "Session ID for grouping related memories")
	f.BoolVar(&rememberAutoTag, "auto-tag", false, "Automatically add tags based on content keywords")
	f.BoolVar(&rememberSuggestTags, "suggest-tags", false, "Show suggested tags and prompt to add them")
	f.Int64Var(&rememberSupersedes, "supersedes", 0, "ID of memory this replaces")
	f.Int64SliceVar(&rememberSeeAlso, "see-also", nil, "IDs of related memories. Repeatable.")
	f.StringVar(&rememberSourceURL, "source-url", "", "URL where this information came from")
	f.StringVar(&rememberSourceFile, "source-file", "", "File path this came from (e.g. /path/file.go:42)")
	f.IntVarP(&rememberImportance, "importance", "i", store.DefaultImportance, "Importance level 1-5")
}

// rememberContent resolves the content argument: --file beats the
// positional argument beats piped stdin.
func rememberContent(cmd *cobra.Command, args []string) (string, error) {
	if rememberFile != "" {
		data, err := os.ReadFile(rememberFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", rememberFile, err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "", errors.New("no content provided")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", errors.New("no content provided")
	}
	return content, nil
}

func runRemember(cmd *cobra.Command, args []string) error {
	content, err := rememberContent(cmd, args)
	if err != nil {
		return err
	}

	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	tags := append([]string(nil), rememberTags...)
	autoTag := rememberAutoTag

	if rememberSuggestTags && !autoTag && !flagQuiet {
		var suggested []string
		for _, t := range eng.Classify(content) {
			if !containsString(tags, t) {
				suggested = append(suggested, t)
			}
		}
		if len(suggested) > 0 {
			fmt.Printf("Suggested tags: %s\n", strings.Join(suggested, ", "))
			if confirmPrompt(cmd.InOrStdin(), os.Stdout, "Add them?") {
				tags = append(tags, suggested...)
			}
		}
	}

	var importance *int
	if cmd.Flags().Changed("importance") {
		importance = &rememberImportance
	}

	m, auto, err := eng.Remember(ctx, engine.RememberParams{
		CreateParams: store.CreateParams{
			Content:    content,
			Context:    rememberContext,
			Tags:       tags,
			Source:     rememberSource,
			SessionID:  rememberSession,
			Supersedes: rememberSupersedes,
			SeeAlso:    rememberSeeAlso,
			SourceURL:  rememberSourceURL,
			SourceFile: rememberSourceFile,
			Importance: importance,
		},
		AutoTag: autoTag,
	})
	if err != nil {
		return err
	}

	if flagQuiet {
		fmt.Println(m.ID)
		return nil
	}

	if flagJSON {
		return printJSON(os.Stdout, struct {
			ID       int64    `json:"id"`
			Content  string   `json:"content"`
			Tags     []string `json:"tags"`
			AutoTags []string `json:"auto_tags,omitempty"`
		}{m.ID, m.Content, m.Tags, auto})
	}

	suffix := ""
	if len(auto) > 0 {
		suffix = fmt.Sprintf(" [auto-tagged: %s]", strings.Join(auto, ", "))
	}
	fmt.Printf("Remembered (id=%d)%s\n", m.ID, suffix)

	if similar, err := eng.Similar(ctx, m, cfg.Similar.Limit, cfg.Similar.Threshold); err == nil && len(similar) > 0 {
		fmt.Println("Similar existing memories:")
		for _, s := range similar {
			hint := ""
			if len(s.Memory.Tags) > 0 {
				hint = fmt.Sprintf(" (tags: %s)", strings.Join(s.Memory.Tags, ", "))
			}
			fmt.Printf("  [%d] %s%s\n", s.Memory.ID, truncate(s.Memory.Content, 50), hint)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
