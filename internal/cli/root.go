package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lazypower/mem/internal/config"
	"github.com/lazypower/mem/internal/engine"
	"github.com/lazypower/mem/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagGlobal  bool
	flagConfig  string
	flagJSON    bool
	flagQuiet   bool
	flagVerbose bool

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "mem",
	Short: "Persistent memory for your shell",
	Long: "Mem stores short notes in a local SQLite database and finds them again\n" +
		"by full-text relevance. Single Go binary, no daemon required.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		cfg, err = config.Load(config.Resolve(flagConfig))
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "Path to the database file")
	pf.BoolVarP(&flagGlobal, "global", "g", false, "Use the global database (~/.mem)")
	pf.StringVar(&flagConfig, "config", "", "Path to the config file")
	pf.BoolVar(&flagJSON, "json", false, "Output JSON")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Minimal output (IDs only)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rebuildIndexCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath picks the database file. Precedence: --db, $MEM_DB, the
// config file's database.path, --global, a local .mem/ directory in the
// working dir, then the global fallback.
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	if env := os.Getenv("MEM_DB"); env != "" {
		return env, nil
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	if flagGlobal {
		return store.DefaultDBPath()
	}
	if fi, err := os.Stat(".mem"); err == nil && fi.IsDir() {
		return store.LocalDBPath(), nil
	}
	return store.DefaultDBPath()
}

// openDB opens the resolved database for CLI commands.
func openDB() (*store.DB, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// openEngine opens the database and wraps it in an engine configured
// from the loaded config.
func openEngine() (*engine.Engine, *store.DB, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(db)
	if len(cfg.TagRules) > 0 {
		eng.SetRules(engine.MergeRules(cfg.TagRules))
	}
	return eng, db, nil
}
