package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"civicrisk/internal/history"
)

var errHistoryDisabled = errors.New("history is disabled (set [history] enabled = true)")

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var intensity string
	var outcome string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded classifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				records, err := store.List(cmd.Context(), history.Filter{
					Limit:     limit,
					Intensity: strings.ToLower(strings.TrimSpace(intensity)),
					Outcome:   strings.ToLower(strings.TrimSpace(outcome)),
				})
				if err != nil {
					return err
				}
				if jsonOut {
					if records == nil {
						records = []history.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No classifications recorded")
					return nil
				}
				color := colorEnabled(cmd)
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.ID,
						rec.CreatedAt.Local().Format("2006-01-02 15:04"),
						rec.Source,
						intensityLabel(rec.Intensity, color),
						fmt.Sprintf("%.2f", rec.Confidence),
						string(rec.Outcome),
						truncate(rec.Text, 40),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Created", "Source", "Intensity", "Confidence", "Outcome", "Complaint"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to show (default 50)")
	cmd.Flags().StringVar(&intensity, "intensity", "", "Only show this intensity (low, medium, high)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only show this outcome (classified, degraded)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryStatsCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	cmd.AddCommand(newHistorySimilarCommand(ctx))
	return cmd
}

func newHistorySimilarCommand(ctx *commandContext) *cobra.Command {
	var file string
	var threshold float64
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "similar [text...]",
		Short: "Find recorded complaints that resemble the given text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readComplaint(cmd, args, file)
			if err != nil {
				return err
			}
			if threshold < 0 || threshold > 1 {
				return errors.New("threshold must be between 0 and 1")
			}
			return ctx.withStore(func(store *history.Store) error {
				matches, err := store.Similar(cmd.Context(), history.SimilarQuery{Text: text, Threshold: &threshold, Limit: limit})
				if err != nil {
					return err
				}
				if jsonOut {
					if matches == nil {
						matches = []history.Match{}
					}
					return writeJSON(cmd, matches)
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "No similar complaints found")
					return nil
				}
				color := colorEnabled(cmd)
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{
						fmt.Sprintf("%.2f", m.Score),
						m.ID,
						intensityLabel(m.Intensity, color),
						truncate(m.Text, 50),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Score", "ID", "Intensity", "Complaint"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file (- for stdin)")
	cmd.Flags().Float64Var(&threshold, "threshold", history.DefaultSimilarThreshold, "Minimum similarity score")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum matches (default 5)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				rec, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("classification %s not found", args[0])
				}
				if jsonOut {
					return writeJSON(cmd, rec)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:         %s\n", rec.ID)
				fmt.Fprintf(out, "Created:    %s\n", rec.CreatedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Source:     %s\n", rec.Source)
				fmt.Fprintf(out, "Elapsed:    %s\n", time.Duration(rec.ElapsedMS)*time.Millisecond)
				fmt.Fprintf(out, "Complaint:  %s\n", rec.Text)
				printClassification(out, classifyOutput{Classification: rec.Classification()}, colorEnabled(cmd))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded classifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}
				rows := [][]string{{"total", strconv.FormatInt(stats.Total, 10)}}
				for _, key := range sortedKeys(stats.ByOutcome) {
					rows = append(rows, []string{"outcome " + key, strconv.FormatInt(stats.ByOutcome[key], 10)})
				}
				for _, key := range sortedKeys(stats.ByIntensity) {
					rows = append(rows, []string{"intensity " + key, strconv.FormatInt(stats.ByIntensity[key], 10)})
				}
				rows = append(rows, []string{"average confidence", fmt.Sprintf("%.2f", stats.AverageConfidence)})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded classifications older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := parseAge(olderThan)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-age))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d classification(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "30d", "Age threshold, e.g. 72h or 30d")
	return cmd
}

// parseAge accepts Go durations plus a whole-day "Nd" form.
func parseAge(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	age, err := time.ParseDuration(value)
	if err != nil || age < 0 {
		return 0, fmt.Errorf("invalid age %q", value)
	}
	return age, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
