package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Inspect and edit tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags with usage counts",
	Args:  cobra.NoArgs,
	RunE:  runTagsList,
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <id> <tag>",
	Short: "Add a tag to a memory",
	Long:  "Add a tag to an existing memory. Idempotent: adding a tag it already has does nothing.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsAdd,
}

var tagsRmCmd = &cobra.Command{
	Use:   "rm <id> <tag>",
	Short: "Remove a tag from a memory",
	Long:  "Remove a tag from a memory. Idempotent: removing a tag it doesn't have does nothing.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsRm,
}

func init() {
	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsAddCmd)
	tagsCmd.AddCommand(tagsRmCmd)
}

func runTagsList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := db.TagCounts(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(os.Stdout, counts)
	}
	if len(counts) == 0 {
		fmt.Println("No tags found.")
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return tagStyle
			default:
				return cellStyle.Align(lipgloss.Right)
			}
		}).
		Headers("Tag", "Count")
	for _, name := range names {
		t.Row(name, strconv.Itoa(counts[name]))
	}
	fmt.Println(t.Render())
	return nil
}

func runTagsAdd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid memory id: %s", args[0])
	}
	tag := args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	_, added, err := db.AddTag(cmd.Context(), id, tag)
	if err != nil {
		return err
	}
	if flagQuiet {
		return nil
	}
	if !added {
		fmt.Printf("Memory %d already has tag '%s'\n", id, tag)
		return nil
	}
	fmt.Printf("Added tag '%s' to memory %d\n", tag, id)
	return nil
}

func runTagsRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid memory id: %s", args[0])
	}
	tag := args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	_, removed, err := db.RemoveTag(cmd.Context(), id, tag)
	if err != nil {
		return err
	}
	if flagQuiet {
		return nil
	}
	if !removed {
		fmt.Printf("Memory %d doesn't have tag '%s'\n", id, tag)
		return nil
	}
	fmt.Printf("Removed tag '%s' from memory %d\n", tag, id)
	return nil
}
