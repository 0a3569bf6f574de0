package engine

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	eng := testEngine(t)

	cases := []struct {
		content string
		want    []string
	}{
		{"The API uses JWT", []string{"api", "auth", "security"}},
		{"JWT authentication setup", []string{"auth", "security"}},
		{"Postgres connection string lives in .env", []string{"database", "config"}},
		{"fix the login flow", []string{"auth", "error"}},
		{"API KEY IS IN THE VAULT", []string{"api", "security"}},
		{"weekly standup notes", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := eng.Classify(tc.content)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Classify(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	eng := testEngine(t)

	content := "API error while rotating the JWT secret"
	first := eng.Classify(content)
	for i := 0; i < 5; i++ {
		if got := eng.Classify(content); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Classify = %v, want %v", i, got, first)
		}
	}
}

func TestClassifySubstringMatch(t *testing.T) {
	eng := testEngine(t)

	// Triggers match inside larger words, not just at word boundaries.
	got := eng.Classify("reconfiguration of the dbms")
	want := []string{"database", "config"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %v, want %v", got, want)
	}
}

func TestMergeRules(t *testing.T) {
	rules := MergeRules(map[string][]string{
		"security": {"cve"},
		"infra":    {"terraform", "ansible"},
		"deploy":   {"rollout"},
	})

	byTag := make(map[string][]string, len(rules))
	var order []string
	for _, r := range rules {
		byTag[r.Tag] = r.Triggers
		order = append(order, r.Tag)
	}

	if !reflect.DeepEqual(byTag["security"], []string{"cve"}) {
		t.Errorf("security triggers = %v, want replaced [cve]", byTag["security"])
	}
	if !reflect.DeepEqual(byTag["api"], []string{"api", "endpoint", "rest", "graphql", "http"}) {
		t.Errorf("api triggers = %v, want defaults", byTag["api"])
	}
	// New tags follow the defaults in sorted order.
	if len(order) != 8 || order[6] != "deploy" || order[7] != "infra" {
		t.Errorf("rule order = %v, want defaults then [deploy infra]", order)
	}

	got := classify(rules, "terraform rollout for the api")
	want := []string{"api", "deploy", "infra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("classify = %v, want %v", got, want)
	}
}
