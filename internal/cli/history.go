package cli

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"broom/internal/cleaner"
	"broom/internal/database"
)

var errNoHistoryDB = errors.New("no history database given, set --db")

type HistoryArgs struct {
	*RootArgs

	DBPath    string
	Recent    int
	Largest   int
	Stats     bool
	Days      int
	Action    string
	Path      string
	PruneDays int
	JSON      bool
}

func NewHistoryArgs(rootArgs *RootArgs) *HistoryArgs {
	return &HistoryArgs{
		RootArgs: rootArgs,
	}
}

func (ha *HistoryArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ha.DBPath, "db", "", "Path to the history database written by --history")
	cmd.Flags().IntVar(&ha.Recent, "recent", 20, "Show the N most recent records")
	cmd.Flags().IntVar(&ha.Largest, "largest", 0, "Show the N largest measured deletions")
	cmd.Flags().BoolVar(&ha.Stats, "stats", false, "Show statistics instead of records")
	cmd.Flags().IntVar(&ha.Days, "days", 30, "Number of days covered by --stats")
	cmd.Flags().StringVar(&ha.Action, "action", "",
		fmt.Sprintf("Show records with this action, one of: %s", allActions))
	cmd.Flags().StringVar(&ha.Path, "path", "", "Show records whose path matches a SQL LIKE pattern")
	cmd.Flags().IntVar(&ha.PruneDays, "prune", 0, "Delete records older than N days")
	cmd.Flags().BoolVar(&ha.JSON, "json", false, "Print JSON")

	var err error

	err = cmd.RegisterFlagCompletionFunc("action",
		cobra.FixedCompletions(allActions, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkFlagFilename("db", "db", "sqlite")
	if err != nil {
		panic(fmt.Errorf("mark db flag: %w", err))
	}
}

var allActions = []string{
	string(database.ActionDelete),
	string(database.ActionDryRun),
	string(database.ActionSkip),
	string(database.ActionError),
}

func NewHistoryCmd(ha *HistoryArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the removal history",
		Example: `  # Show the 10 most recent records:
  broom history --db history.db --recent 10

  # Summarize the last week:
  broom history --db history.db --stats --days 7

  # Show everything removed below ~/src:
  broom history --db history.db --path "$HOME/src/%"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, ha)
		},
	}
	ha.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runHistory(cmd *cobra.Command, ha *HistoryArgs) error {
	if ha.DBPath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, errNoHistoryDB)
	}

	db, err := database.Open(ha.DBPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	w := cmd.OutOrStdout()

	switch {
	case ha.PruneDays > 0:
		n, err := db.DeleteOlderThan(ha.PruneDays)
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
		_, err = fmt.Fprintf(w, "Deleted %d records older than %d days\n", n, ha.PruneDays)
		return err

	case ha.Stats:
		stats, err := db.GetStats(ha.Days)
		if err != nil {
			return fmt.Errorf("get statistics: %w", err)
		}
		if ha.JSON {
			return writeJSON(w, stats)
		}
		return printStats(w, stats, ha.Days)
	}

	var records []database.Removal
	switch {
	case ha.Action != "":
		action := database.Action(strings.ToUpper(ha.Action))
		records, err = db.GetByAction(action)
	case ha.Path != "":
		records, err = db.GetByPath(ha.Path)
	case ha.Largest > 0:
		records, err = db.GetLargest(ha.Largest)
	default:
		records, err = db.GetRecent(ha.Recent)
	}
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	if ha.JSON {
		if records == nil {
			records = []database.Removal{}
		}
		return writeJSON(w, records)
	}
	return printRecords(w, records)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(w io.Writer, stats *database.Stats, days int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Removal statistics (last %d days)\n", days)
	fmt.Fprintf(tw, "Period:\t%s to %s\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(tw, "Deleted:\t%d\n", stats.Deleted)
	fmt.Fprintf(tw, "Dry run:\t%d\n", stats.DryRun)
	fmt.Fprintf(tw, "Skipped:\t%d\n", stats.Skipped)
	fmt.Fprintf(tw, "Failed:\t%d\n", stats.Failed)
	fmt.Fprintf(tw, "Reclaimed:\t%s\n", humanize.IBytes(uint64(stats.BytesReclaimed)))

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(tw, "\nBy category:")
		for _, name := range categoryKeys(stats.ByCategory) {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", name, stats.ByCategory[name],
				humanize.IBytes(uint64(stats.BytesByCategory[name])))
		}
	}

	return tw.Flush()
}

// categoryKeys orders single categories canonically, followed by combined
// ones alphabetically.
func categoryKeys(m map[string]int) []string {
	names := cleaner.Names()
	rank := func(k string) int {
		if i := slices.Index(names, k); i >= 0 {
			return i
		}
		return len(names)
	}

	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a, b))
	})
	return keys
}

func printRecords(w io.Writer, records []database.Removal) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tACTION\tCATEGORIES\tSIZE\tPATH")

	for _, r := range records {
		size := "-"
		if r.Size != nil {
			size = humanize.IBytes(uint64(*r.Size))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, humanize.Time(r.Timestamp), r.Action, r.Categories, size, r.Path)
	}

	return tw.Flush()
}
