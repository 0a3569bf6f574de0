package engine

import (
	"sort"
	"strings"
)

// TagRule maps one tag to the keywords that trigger it.
type TagRule struct {
	Tag      string
	Triggers []string
}

// DefaultRules returns the built-in keyword table. Six categories; the
// triggers are matched case-insensitively as plain substrings of the
// content, so "configuration" trips "config" and "JWT" trips "jwt".
func DefaultRules() []TagRule {
	return []TagRule{
		{Tag: "api", Triggers: []string{"api", "endpoint", "rest", "graphql", "http"}},
		{Tag: "database", Triggers: []string{"database", "db", "sql", "postgres", "sqlite", "mongo"}},
		{Tag: "config", Triggers: []string{"config", "configuration", "settings", ".env", "environment"}},
		{Tag: "auth", Triggers: []string{"auth", "authentication", "jwt", "oauth", "password", "login"}},
		{Tag: "error", Triggers: []string{"error", "exception", "bug", "fix", "issue"}},
		{Tag: "security", Triggers: []string{"security", "secret", "key", "credential", "token", "jwt"}},
	}
}

// MergeRules overlays config-supplied trigger lists on the defaults. A
// known tag replaces its default triggers entirely; unknown tags become
// new rules, appended in sorted order so the result is deterministic.
func MergeRules(overrides map[string][]string) []TagRule {
	rules := DefaultRules()
	used := make(map[string]bool, len(overrides))
	for i := range rules {
		if triggers, ok := overrides[rules[i].Tag]; ok {
			rules[i].Triggers = triggers
			used[rules[i].Tag] = true
		}
	}

	var extra []string
	for tag := range overrides {
		if !used[tag] {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	for _, tag := range extra {
		rules = append(rules, TagRule{Tag: tag, Triggers: overrides[tag]})
	}
	return rules
}

// Classify returns the tags whose triggers appear in the content. Pure
// and deterministic: the same content always yields the same tags, in
// rule-table order with no duplicates.
func (e *Engine) Classify(content string) []string {
	return classify(e.rules, content)
}

func classify(rules []TagRule, content string) []string {
	lowered := strings.ToLower(content)
	var tags []string
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Tag] {
			continue
		}
		for _, trigger := range r.Triggers {
			if strings.Contains(lowered, trigger) {
				tags = append(tags, r.Tag)
				seen[r.Tag] = true
				break
			}
		}
	}
	return tags
}
