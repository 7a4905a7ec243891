package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/store"
)

// reportsCommand creates the reports command with list and show subcommands.
func (c *CLI) reportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect reports saved by export nodes",
	}
	cmd.AddCommand(c.reportsListCommand())
	cmd.AddCommand(c.reportsShowCommand())
	return cmd
}

func (c *CLI) reportsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				reports, err := s.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					printInfo("No reports yet")
					printNextStep("Create one", "storyboard export --enrich --offline")
					return nil
				}
				fmt.Println(reportTable(reports))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of reports")
	return cmd
}

func (c *CLI) reportsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				r, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Println(StyleTitle.Render(r.Title))
				printKeyValue("id", r.ID)
				printKeyValue("status", r.Status)
				if r.TaskID != "" {
					printKeyValue("task", r.TaskID)
				}
				if r.DocumentID != "" {
					printKeyValue("document", r.DocumentID)
				}
				printKeyValue("created", r.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
				printNewline()
				fmt.Println(r.Body)
				return nil
			})
		},
	}
}

// withStore opens the configured report store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := store.Open(ctx, c.settings().StoreOptions())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func reportTable(reports []*store.Report) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ID[:min(8, len(r.ID))],
			r.Status,
			r.CreatedAt.Local().Format("Jan 2 15:04"),
			firstLine(r.Body, 48),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Status", "Created", "Summary").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 1 && reports[row].Status == store.StatusFailed:
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// firstLine returns the first non-empty line of s, cut to n runes.
func firstLine(s string, n int) string {
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			if r := []rune(l); len(r) > n {
				return string(r[:n-1]) + "…"
			}
			return l
		}
	}
	return ""
}
