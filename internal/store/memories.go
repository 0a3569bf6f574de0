package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Importance bounds for a memory record.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Memory is one stored note with its metadata: the unit of storage
// and retrieval.
type Memory struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Context    string    `json:"context,omitempty"`
	Tags       []string  `json:"tags"`
	Source     string    `json:"source"`
	SessionID  string    `json:"session_id,omitempty"`
	Supersedes int64     `json:"supersedes,omitempty"`
	SeeAlso    []int64   `json:"see_also"`
	SourceURL  string    `json:"source_url,omitempty"`
	SourceFile string    `json:"source_file,omitempty"`
	Importance int       `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateParams carries the fields for a new memory. Zero values mean
// "absent": Source defaults to "user", a nil Importance picks
// DefaultImportance, Supersedes 0 means no supersession.
type CreateParams struct {
	Content    string
	Context    string
	Tags       []string
	Source     string
	SessionID  string
	Supersedes int64
	SeeAlso    []int64
	SourceURL  string
	SourceFile string
	Importance *int
}

// UpdateParams describes an in-place update. Nil pointer fields are left
// unchanged. SetTags replaces the whole tag list; AddTags appends tags the
// memory does not already have. AddSeeAlso likewise skips ids already
// referenced. Supersedes 0 clears the link.
type UpdateParams struct {
	Content    *string
	Context    *string
	SetTags    *[]string
	AddTags    []string
	SessionID  *string
	Supersedes *int64
	AddSeeAlso []int64
	SourceURL  *string
	SourceFile *string
	Importance *int
}

const memoryColumns = `id, content, context, source, session_id, supersedes, source_url, source_file, importance, created_at, updated_at`

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier covers *DB and *sql.Tx for the association loaders.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanMemory(sc scanner, extra ...any) (*Memory, error) {
	var m Memory
	var supersedes sql.NullInt64
	var created, updated int64
	dest := []any{
		&m.ID, &m.Content, &m.Context, &m.Source, &m.SessionID, &supersedes,
		&m.SourceURL, &m.SourceFile, &m.Importance, &created, &updated,
	}
	dest = append(dest, extra...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	m.Supersedes = supersedes.Int64
	m.CreatedAt = time.UnixMilli(created)
	m.UpdatedAt = time.UnixMilli(updated)
	m.Tags = []string{}
	m.SeeAlso = []int64{}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]*Memory, error) {
	var ms []*Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content must not be empty", ErrValidation)
	}
	return nil
}

func validateImportance(importance int) error {
	if importance < MinImportance || importance > MaxImportance {
		return fmt.Errorf("%w: importance %d outside [%d,%d]", ErrValidation, importance, MinImportance, MaxImportance)
	}
	return nil
}

func validateTags(tags []string) error {
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" {
			return fmt.Errorf("%w: empty tag", ErrValidation)
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate tag %q", ErrValidation, t)
		}
		seen[t] = true
	}
	return nil
}

// refExists checks a supersedes target inside the write transaction.
func refExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("check supersedes %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: supersedes %d", ErrBadReference, id)
	}
	return nil
}

func insertTags(ctx context.Context, tx *sql.Tx, id int64, tags []string) error {
	for i, t := range tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_tags (memory_id, tag, position) VALUES (?, ?, ?)",
			id, t, i,
		); err != nil {
			return fmt.Errorf("insert tag %q: %w", t, err)
		}
	}
	return nil
}

func insertRefs(ctx context.Context, tx *sql.Tx, id int64, refs []int64) error {
	for i, r := range refs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_refs (memory_id, ref_id, position) VALUES (?, ?, ?)",
			id, r, i,
		); err != nil {
			return fmt.Errorf("insert ref %d: %w", r, err)
		}
	}
	return nil
}

// CreateMemory validates and inserts a new record. The row, its tag and
// see-also associations, and the search index entry all land in one
// transaction. A supersedes target that does not exist fails with
// ErrBadReference; see-also targets are stored unchecked.
func (db *DB) CreateMemory(ctx context.Context, p CreateParams) (*Memory, error) {
	if err := validateContent(p.Content); err != nil {
		return nil, err
	}
	if err := validateTags(p.Tags); err != nil {
		return nil, err
	}
	importance := DefaultImportance
	if p.Importance != nil {
		if err := validateImportance(*p.Importance); err != nil {
			return nil, err
		}
		importance = *p.Importance
	}
	source := p.Source
	if source == "" {
		source = "user"
	}

	now := time.UnixMilli(time.Now().UnixMilli())

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	if p.Supersedes != 0 {
		if err := refExists(ctx, tx, p.Supersedes); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO memories (content, context, source, session_id, supersedes,
			source_url, source_file, importance, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULLIF(?, 0), ?, ?, ?, ?, ?)
	`, p.Content, p.Context, source, p.SessionID, p.Supersedes,
		p.SourceURL, p.SourceFile, importance, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertTags(ctx, tx, id, p.Tags); err != nil {
		return nil, err
	}
	if err := insertRefs(ctx, tx, id, p.SeeAlso); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	return &Memory{
		ID:         id,
		Content:    p.Content,
		Context:    p.Context,
		Tags:       append([]string{}, p.Tags...),
		Source:     source,
		SessionID:  p.SessionID,
		Supersedes: p.Supersedes,
		SeeAlso:    append([]int64{}, p.SeeAlso...),
		SourceURL:  p.SourceURL,
		SourceFile: p.SourceFile,
		Importance: importance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// GetMemory returns a record by id, or ErrNotFound.
func (db *DB) GetMemory(ctx context.Context, id int64) (*Memory, error) {
	row := db.QueryRowContext(ctx, "SELECT "+memoryColumns+" FROM memories WHERE id = ?", id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get memory %d: %w", id, err)
	}
	if err := db.loadAssociations(ctx, []*Memory{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMemory applies an in-place update. Only supplied fields change;
// id and created_at are frozen, updated_at is refreshed. The row and the
// search index move together in one transaction.
func (db *DB) UpdateMemory(ctx context.Context, id int64, p UpdateParams) (*Memory, error) {
	if p.Content != nil {
		if err := validateContent(*p.Content); err != nil {
			return nil, err
		}
	}
	if p.Importance != nil {
		if err := validateImportance(*p.Importance); err != nil {
			return nil, err
		}
	}
	if p.SetTags != nil {
		if err := validateTags(*p.SetTags); err != nil {
			return nil, err
		}
	}
	for _, t := range p.AddTags {
		if t == "" {
			return nil, fmt.Errorf("%w: empty tag", ErrValidation)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+memoryColumns+" FROM memories WHERE id = ?", id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load memory %d: %w", id, err)
	}
	if m.Tags, err = tagsFor(ctx, tx, id); err != nil {
		return nil, err
	}
	if m.SeeAlso, err = refsFor(ctx, tx, id); err != nil {
		return nil, err
	}

	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Context != nil {
		m.Context = *p.Context
	}
	if p.SessionID != nil {
		m.SessionID = *p.SessionID
	}
	if p.Supersedes != nil {
		if *p.Supersedes != 0 {
			if err := refExists(ctx, tx, *p.Supersedes); err != nil {
				return nil, err
			}
		}
		m.Supersedes = *p.Supersedes
	}
	if p.SourceURL != nil {
		m.SourceURL = *p.SourceURL
	}
	if p.SourceFile != nil {
		m.SourceFile = *p.SourceFile
	}
	if p.Importance != nil {
		m.Importance = *p.Importance
	}

	tagsChanged := false
	if p.SetTags != nil {
		m.Tags = append([]string{}, (*p.SetTags)...)
		tagsChanged = true
	} else if len(p.AddTags) > 0 {
		existing := make(map[string]bool, len(m.Tags))
		for _, t := range m.Tags {
			existing[t] = true
		}
		for _, t := range p.AddTags {
			if existing[t] {
				continue
			}
			m.Tags = append(m.Tags, t)
			existing[t] = true
			tagsChanged = true
		}
	}

	refsChanged := false
	if len(p.AddSeeAlso) > 0 {
		existing := make(map[int64]bool, len(m.SeeAlso))
		for _, r := range m.SeeAlso {
			existing[r] = true
		}
		for _, r := range p.AddSeeAlso {
			if existing[r] {
				continue
			}
			m.SeeAlso = append(m.SeeAlso, r)
			existing[r] = true
			refsChanged = true
		}
	}

	m.UpdatedAt = time.UnixMilli(time.Now().UnixMilli())

	if _, err := tx.ExecContext(ctx, `
		UPDATE memories SET content = ?, context = ?, session_id = ?, supersedes = NULLIF(?, 0),
			source_url = ?, source_file = ?, importance = ?, updated_at = ?
		WHERE id = ?
	`, m.Content, m.Context, m.SessionID, m.Supersedes,
		m.SourceURL, m.SourceFile, m.Importance, m.UpdatedAt.UnixMilli(), id); err != nil {
		return nil, fmt.Errorf("update memory %d: %w", id, err)
	}

	if tagsChanged {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_tags WHERE memory_id = ?", id); err != nil {
			return nil, fmt.Errorf("clear tags %d: %w", id, err)
		}
		if err := insertTags(ctx, tx, id, m.Tags); err != nil {
			return nil, err
		}
	}
	if refsChanged {
		if _, err := tx.ExecContext(ctx, "DELETE FROM memory_refs WHERE memory_id = ?", id); err != nil {
			return nil, fmt.Errorf("clear refs %d: %w", id, err)
		}
		if err := insertRefs(ctx, tx, id, m.SeeAlso); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return m, nil
}

// DeleteMemory removes a record. Tag and see-also associations cascade,
// and the index trigger drops the search entry in the same statement.
// Records elsewhere that reference the deleted id keep their dangling
// weak references.
func (db *DB) DeleteMemory(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete memory %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete memory %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListFilter narrows ListMemories. Tags matches records carrying any of
// the given tags, exact and case-sensitive. Limit 0 means the default of
// 50; negative means no limit.
type ListFilter struct {
	Tags          []string
	SessionID     string
	Since         time.Time
	MinImportance int
	Limit         int
}

// ListMemories returns records most-recent-created-first.
func (db *DB) ListMemories(ctx context.Context, f ListFilter) ([]*Memory, error) {
	var conds []string
	var args []any
	if len(f.Tags) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(f.Tags)), ",")
		conds = append(conds, "id IN (SELECT memory_id FROM memory_tags WHERE tag IN ("+ph+"))")
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	if f.MinImportance > 0 {
		conds = append(conds, "importance >= ?")
		args = append(args, f.MinImportance)
	}

	query := "SELECT " + memoryColumns + " FROM memories"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 {
			limit = 50
		}
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	ms, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if err := db.loadAssociations(ctx, ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// AllMemories returns every record in creation order. Dedupe, export, and
// tag accounting enumerate with this.
func (db *DB) AllMemories(ctx context.Context) ([]*Memory, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+memoryColumns+" FROM memories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("all memories: %w", err)
	}
	defer rows.Close()

	ms, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}
	if err := db.loadAssociations(ctx, ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// CountMemories returns the total number of records.
func (db *DB) CountMemories(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&n)
	return n, err
}

func tagsFor(ctx context.Context, q querier, id int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT tag FROM memory_tags WHERE memory_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("load tags %d: %w", id, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func refsFor(ctx context.Context, q querier, id int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, "SELECT ref_id FROM memory_refs WHERE memory_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("load refs %d: %w", id, err)
	}
	defer rows.Close()

	refs := []int64{}
	for rows.Next() {
		var r int64
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// loadAssociations fills Tags and SeeAlso for a batch of records with two
// IN queries instead of a pair per record.
func (db *DB) loadAssociations(ctx context.Context, ms []*Memory) error {
	if len(ms) == 0 {
		return nil
	}
	byID := make(map[int64]*Memory, len(ms))
	placeholders := make([]string, len(ms))
	args := make([]any, len(ms))
	for i, m := range ms {
		byID[m.ID] = m
		placeholders[i] = "?"
		args[i] = m.ID
	}
	ph := strings.Join(placeholders, ",")

	rows, err := db.QueryContext(ctx,
		"SELECT memory_id, tag FROM memory_tags WHERE memory_id IN ("+ph+") ORDER BY memory_id, position",
		args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if m := byID[id]; m != nil {
			m.Tags = append(m.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	refRows, err := db.QueryContext(ctx,
		"SELECT memory_id, ref_id FROM memory_refs WHERE memory_id IN ("+ph+") ORDER BY memory_id, position",
		args...)
	if err != nil {
		return fmt.Errorf("load refs: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var id, ref int64
		if err := refRows.Scan(&id, &ref); err != nil {
			return fmt.Errorf("scan ref: %w", err)
		}
		if m := byID[id]; m != nil {
			m.SeeAlso = append(m.SeeAlso, ref)
		}
	}
	return refRows.Err()
}
