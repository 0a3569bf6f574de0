package engine

import (
	"context"
	"log/slog"

	"github.com/lazypower/mem/internal/store"
)

// Engine wires the record store to auto-tagging, recall, and
// deduplication. It holds no state of its own beyond the database
// handle, the tag rules, and a logger, so a single instance serves the
// CLI and the HTTP server alike.
type Engine struct {
	DB    *store.DB
	rules []TagRule
	log   *slog.Logger
}

// New creates an Engine with the built-in tag rules.
func New(db *store.DB) *Engine {
	return &Engine{
		DB:    db,
		rules: DefaultRules(),
		log:   slog.Default(),
	}
}

// SetRules replaces the auto-tag rules, usually with MergeRules output
// built from config.
func (e *Engine) SetRules(rules []TagRule) {
	if len(rules) > 0 {
		e.rules = rules
	}
}

// SetLogger redirects the engine's diagnostics.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.log = logger
	}
}

// RememberParams carries the fields for a new memory plus the
// engine-level auto-tag switch.
type RememberParams struct {
	store.CreateParams
	AutoTag bool
}

// Remember stores a new memory. With AutoTag set, the classifier runs
// over the content and its tags are appended after the caller's own.
// The returned slice holds only the tags the classifier added.
func (e *Engine) Remember(ctx context.Context, p RememberParams) (*store.Memory, []string, error) {
	var auto []string
	if p.AutoTag {
		have := make(map[string]bool, len(p.Tags))
		for _, t := range p.Tags {
			have[t] = true
		}
		for _, t := range e.Classify(p.Content) {
			if have[t] {
				continue
			}
			auto = append(auto, t)
		}
		p.Tags = append(append([]string{}, p.Tags...), auto...)
	}

	m, err := e.DB.CreateMemory(ctx, p.CreateParams)
	if err != nil {
		return nil, nil, err
	}
	if len(auto) > 0 {
		e.log.Debug("auto-tagged", "id", m.ID, "tags", auto)
	}
	return m, auto, nil
}
