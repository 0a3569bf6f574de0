package cli

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage session labels",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Mint a fresh session label",
	Long: `Print a new unique session label (a ULID). Pass it to remember and
recall via --session to group related memories:

  SESSION=$(mem session new)
  mem remember "auth notes" --session "$SESSION"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
		fmt.Println(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions with counts and activity",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ListSessions(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return cellStyle.Align(lipgloss.Right)
			case col == 3:
				return createdStyle
			default:
				return cellStyle
			}
		}).
		Headers("Session", "Memories", "First", "Last")
	for _, s := range sessions {
		t.Row(
			s.SessionID,
			strconv.Itoa(s.Count),
			s.FirstAt.Format("2006-01-02 15:04"),
			humanize.Time(s.LastAt),
		)
	}
	fmt.Println(t.Render())
	return nil
}
