package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/mem/internal/engine"
	"github.com/lazypower/mem/internal/store"
)

// memoryJSON is the wire shape for a record: every data-model field,
// null for absent optionals.
type memoryJSON struct {
	ID         int64    `json:"id"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Context    *string  `json:"context"`
	Source     string   `json:"source"`
	SessionID  *string  `json:"session_id"`
	Supersedes *int64   `json:"supersedes"`
	SeeAlso    []int64  `json:"see_also"`
	SourceURL  *string  `json:"source_url"`
	SourceFile *string  `json:"source_file"`
	Importance int      `json:"importance"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	Score      *float64 `json:"score,omitempty"`
}

func toMemoryJSON(m *store.Memory) memoryJSON {
	j := memoryJSON{
		ID:         m.ID,
		Content:    m.Content,
		Tags:       m.Tags,
		Source:     m.Source,
		SeeAlso:    m.SeeAlso,
		Importance: m.Importance,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  m.UpdatedAt.Format(time.RFC3339),
	}
	if m.Context != "" {
		j.Context = &m.Context
	}
	if m.SessionID != "" {
		j.SessionID = &m.SessionID
	}
	if m.Supersedes != 0 {
		j.Supersedes = &m.Supersedes
	}
	if m.SourceURL != "" {
		j.SourceURL = &m.SourceURL
	}
	if m.SourceFile != "" {
		j.SourceFile = &m.SourceFile
	}
	return j
}

func toScoredJSON(hits []engine.ScoredMemory) []memoryJSON {
	out := make([]memoryJSON, len(hits))
	for i, h := range hits {
		j := toMemoryJSON(h.Memory)
		score := h.Score
		j.Score = &score
		out[i] = j
	}
	return out
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content    string   `json:"content"`
		Context    string   `json:"context"`
		Tags       []string `json:"tags"`
		Source     string   `json:"source"`
		SessionID  string   `json:"session_id"`
		Supersedes int64    `json:"supersedes"`
		SeeAlso    []int64  `json:"see_also"`
		SourceURL  string   `json:"source_url"`
		SourceFile string   `json:"source_file"`
		Importance *int     `json:"importance"`
		AutoTag    bool     `json:"auto_tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m, auto, err := s.engine.Remember(r.Context(), engine.RememberParams{
		CreateParams: store.CreateParams{
			Content:    req.Content,
			Context:    req.Context,
			Tags:       req.Tags,
			Source:     req.Source,
			SessionID:  req.SessionID,
			Supersedes: req.Supersedes,
			SeeAlso:    req.SeeAlso,
			SourceURL:  req.SourceURL,
			SourceFile: req.SourceFile,
			Importance: req.Importance,
		},
		AutoTag: req.AutoTag,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		memoryJSON
		AutoTags []string `json:"auto_tags,omitempty"`
	}{toMemoryJSON(m), auto})
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var since time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			t, err = time.Parse(time.RFC3339, v)
		}
		if err != nil {
			http.Error(w, `{"error":"invalid since date"}`, http.StatusBadRequest)
			return
		}
		since = t
	}

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	minImportance := 0
	if v := q.Get("min_importance"); v != "" {
		minImportance, _ = strconv.Atoi(v)
	}

	mems, err := s.db.ListMemories(r.Context(), store.ListFilter{
		Tags:          q["tag"],
		SessionID:     q.Get("session"),
		Since:         since,
		MinImportance: minImportance,
		Limit:         limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]memoryJSON, len(mems))
	for i, m := range mems {
		out[i] = toMemoryJSON(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(out),
		"memories": out,
	})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	m, err := s.db.GetMemory(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemoryJSON(m))
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}

	var req struct {
		Content    *string   `json:"content"`
		Context    *string   `json:"context"`
		SetTags    *[]string `json:"set_tags"`
		AddTags    []string  `json:"add_tags"`
		SessionID  *string   `json:"session_id"`
		Supersedes *int64    `json:"supersedes"`
		AddSeeAlso []int64   `json:"add_see_also"`
		SourceURL  *string   `json:"source_url"`
		SourceFile *string   `json:"source_file"`
		Importance *int      `json:"importance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m, err := s.db.UpdateMemory(r.Context(), id, store.UpdateParams{
		Content:    req.Content,
		Context:    req.Context,
		SetTags:    req.SetTags,
		AddTags:    req.AddTags,
		SessionID:  req.SessionID,
		Supersedes: req.Supersedes,
		AddSeeAlso: req.AddSeeAlso,
		SourceURL:  req.SourceURL,
		SourceFile: req.SourceFile,
		Importance: req.Importance,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemoryJSON(m))
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteMemory(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	limit := engine.SimilarHintLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	threshold := engine.SimilarHintThreshold
	if v := q.Get("threshold"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}

	m, err := s.db.GetMemory(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hits, err := s.engine.Similar(r.Context(), m, limit, threshold)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"count":   len(hits),
		"results": toScoredJSON(hits),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		http.Error(w, `{"error":"q parameter required"}`, http.StatusBadRequest)
		return
	}

	limit := 10
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	minImportance := 0
	if v := q.Get("min_importance"); v != "" {
		minImportance, _ = strconv.Atoi(v)
	}

	hits, err := s.engine.Recall(r.Context(), query, engine.RecallOpts{
		Limit:          limit,
		Tags:           q["tag"],
		SessionID:      q.Get("session"),
		MinImportance:  minImportance,
		RecentFirst:    boolParam(q.Get("recent_first")),
		BoostImportant: boolParam(q.Get("boost_important")),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(hits),
		"results": toScoredJSON(hits),
	})
}

func boolParam(v string) bool {
	return v == "1" || v == "true"
}

// dedupeThreshold reads an optional {"threshold": x} body. An empty body
// means the default.
func dedupeThreshold(r *http.Request) (float64, error) {
	var req struct {
		Threshold *float64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if req.Threshold != nil {
		return *req.Threshold, nil
	}
	return engine.DefaultDedupeThreshold, nil
}

func (s *Server) handleDedupeScan(w http.ResponseWriter, r *http.Request) {
	threshold, err := dedupeThreshold(r)
	if err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	clusters, err := s.engine.DedupeScan(r.Context(), threshold)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type clusterJSON struct {
		Members []memoryJSON `json:"members"`
	}
	out := make([]clusterJSON, len(clusters))
	for i, c := range clusters {
		members := make([]memoryJSON, len(c.Members))
		for j, m := range c.Members {
			members[j] = toMemoryJSON(m)
		}
		out[i] = clusterJSON{Members: members}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"count":     len(out),
		"clusters":  out,
	})
}

func (s *Server) handleDedupeMerge(w http.ResponseWriter, r *http.Request) {
	threshold, err := dedupeThreshold(r)
	if err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	results, err := s.engine.DedupeMerge(r.Context(), threshold)
	if err != nil {
		// A mid-merge failure can leave a cluster half-merged; return
		// the partial results alongside the error so nothing is hidden.
		s.log.Error("dedupe merge failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"results": results,
		})
		return
	}

	merged := 0
	for _, res := range results {
		merged += len(res.DeletedIDs)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"merged":    merged,
		"results":   results,
	})
}

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.RebuildIndex(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "rebuilt",
		"count":  count,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.db.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}
