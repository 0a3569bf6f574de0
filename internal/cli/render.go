package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lazypower/mem/internal/store"
)

var (
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	headerStyle  = cellStyle.Bold(true)
	idStyle      = cellStyle.Faint(true)
	tagStyle     = cellStyle.Foreground(lipgloss.Color("6"))
	scoreStyle   = cellStyle.Foreground(lipgloss.Color("3"))
	createdStyle = cellStyle.Foreground(lipgloss.Color("2"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// memoryJSON is the JSON shape for a single record: every field of the
// data model, null for absent optionals. Shared by list output and the
// export file format.
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

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func toMemoryJSON(m *store.Memory) memoryJSON {
	return memoryJSON{
		ID:         m.ID,
		Content:    m.Content,
		Tags:       m.Tags,
		Context:    optStr(m.Context),
		Source:     m.Source,
		SessionID:  optStr(m.SessionID),
		Supersedes: optID(m.Supersedes),
		SeeAlso:    m.SeeAlso,
		SourceURL:  optStr(m.SourceURL),
		SourceFile: optStr(m.SourceFile),
		Importance: m.Importance,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  m.UpdatedAt.Format(time.RFC3339),
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// truncate cuts s to max runes, ending in "..." when it was longer.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// outputMemories renders records honoring --json and --quiet. A non-nil
// scores map adds a Score column keyed by record id.
func outputMemories(w io.Writer, mems []*store.Memory, scores map[int64]float64) error {
	if flagQuiet {
		for _, m := range mems {
			fmt.Fprintln(w, m.ID)
		}
		return nil
	}

	if flagJSON {
		items := make([]memoryJSON, 0, len(mems))
		for _, m := range mems {
			j := toMemoryJSON(m)
			if scores != nil {
				if s, ok := scores[m.ID]; ok {
					sc := s
					j.Score = &sc
				}
			}
			items = append(items, j)
		}
		return printJSON(w, items)
	}

	if len(mems) == 0 {
		fmt.Fprintln(w, "No memories found.")
		return nil
	}

	headers := []string{"ID", "Content", "Tags"}
	if scores != nil {
		headers = append(headers, "Score")
	}
	headers = append(headers, "Created")
	last := len(headers) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			case col == 2:
				return tagStyle
			case col == last:
				return createdStyle
			case scores != nil && col == 3:
				return scoreStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...)

	for _, m := range mems {
		row := []string{
			fmt.Sprintf("%d", m.ID),
			truncate(m.Content, 60),
			orDash(strings.Join(m.Tags, ", ")),
		}
		if scores != nil {
			row = append(row, fmt.Sprintf("%.2f", scores[m.ID]))
		}
		row = append(row, m.CreatedAt.Format("2006-01-02 15:04"))
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
	return nil
}

// confirmPrompt asks a yes/no question. Anything but y/yes declines.
func confirmPrompt(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}
