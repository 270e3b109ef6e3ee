package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/aftershock/internal/history"
	"github.com/zjrosen/aftershock/internal/infrastructure/sqlite"
	"github.com/zjrosen/aftershock/internal/ui/styles"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved forecasts",
	Long: `Lists forecasts saved by the forecast-history feature, newest first.

Each line starts with the record GUID, which "history show" and
"history diff" accept.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <guid>",
	Short: "Print a saved forecast table",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDiffCmd = &cobra.Command{
	Use:   "diff <older-guid> <newer-guid>",
	Short: "Compare the tables of two saved forecasts",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryDiff,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "show at most this many records (0 for all)")
	historyCmd.AddCommand(historyShowCmd, historyDiffCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*sqlite.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := sqlite.NewDB(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("opening forecast history: %w", err)
	}
	return db, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	defer closeLog()
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := db.Forecasts().List(limit)
	if err != nil {
		return fmt.Errorf("listing forecasts: %w", err)
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No saved forecasts")
		return nil
	}
	guid := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	for _, r := range records {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", guid.Render(r.GUID), r.Summary())
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	defer closeLog()
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	r, err := findRecord(db.Forecasts(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Table())
	return err
}

func runHistoryDiff(cmd *cobra.Command, args []string) error {
	defer closeLog()
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	older, err := findRecord(db.Forecasts(), args[0])
	if err != nil {
		return err
	}
	newer, err := findRecord(db.Forecasts(), args[1])
	if err != nil {
		return err
	}

	lines := history.Diff(older, newer)
	if !history.Changed(lines) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Forecast tables are identical")
		return nil
	}
	return printDiff(cmd.OutOrStdout(), lines)
}

// printDiff writes lines in unified form, removals and additions colored.
func printDiff(w io.Writer, lines []history.DiffLine) error {
	removed := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	added := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	for _, l := range lines {
		var out string
		switch l.Type {
		case history.LineRemoved:
			out = removed.Render("- " + l.Text)
		case history.LineAdded:
			out = added.Render("+ " + l.Text)
		default:
			out = "  " + l.Text
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

func findRecord(repo history.Repository, guid string) (*history.Record, error) {
	r, err := repo.FindByGUID(guid)
	if err != nil {
		var nf *history.NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, fmt.Errorf("loading forecast %s: %w", guid, err)
	}
	return r, nil
}
