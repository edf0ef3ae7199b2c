package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"civicrisk/internal/history"
	"civicrisk/internal/logging"
	"civicrisk/internal/risk"
)

type batchResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	risk.Classification
	ID      string `json:"id,omitempty"`
	elapsed time.Duration
}

type batchSummary struct {
	Total       int            `json:"total"`
	Degraded    int            `json:"degraded"`
	ByIntensity map[string]int `json:"by_intensity"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var noStore bool
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Classify one complaint per line from a file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open complaints file: %w", err)
				}
				defer f.Close()
				input = f
			}
			lines, err := readComplaintLines(input)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return errNoInput
			}

			analyzer, err := ctx.analyzer()
			if err != nil {
				return err
			}
			notifier, err := ctx.notifier()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(noStore)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			reqCtx := commandRequestContext(cmd, history.SourceBatch)
			results := classifyAll(reqCtx, analyzer, lines, workers)
			if store != nil {
				logger, _ := ctx.ensureLogger()
				for i := range results {
					record, err := store.Record(reqCtx, results[i].Text, history.SourceBatch, results[i].elapsed, results[i].Classification)
					if err != nil {
						logging.WarnWithContext(logging.WithContext(reqCtx, logger), "history write failed", "history_write_failed",
							logging.Error(err),
							logging.Int("index", results[i].Index),
						)
						continue
					}
					results[i].ID = record.ID
				}
			}

			for _, r := range results {
				ctx.notify(reqCtx, notifier, r.Text, r.Classification)
			}

			summary := summarize(results)
			if jsonOut {
				return writeJSON(cmd, struct {
					Results []batchResult `json:"results"`
					Summary batchSummary  `json:"summary"`
				}{results, summary})
			}

			color := colorEnabled(cmd)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					strconv.Itoa(r.Index),
					intensityLabel(r.Intensity, color),
					fmt.Sprintf("%.2f", r.Confidence),
					truncate(r.Reason, 48),
					truncate(r.Text, 40),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Intensity", "Confidence", "Reason", "Complaint"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d classified: %d high, %d medium, %d low, %d degraded\n",
				summary.Total,
				summary.ByIntensity[string(risk.IntensityHigh)],
				summary.ByIntensity[string(risk.IntensityMedium)],
				summary.ByIntensity[string(risk.IntensityLow)],
				summary.Degraded,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record results in history")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Concurrent classification requests")
	return cmd
}

// classifyAll runs lines through analyzer with up to workers in flight,
// preserving input order in the result.
func classifyAll(ctx context.Context, analyzer *risk.Analyzer, lines []string, workers int) []batchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]batchResult, len(lines))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, len(lines)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				c := analyzer.Classify(ctx, lines[i])
				results[i] = batchResult{Index: i + 1, Text: lines[i], Classification: c, elapsed: time.Since(start)}
			}
		}()
	}
	for i := range lines {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func summarize(results []batchResult) batchSummary {
	summary := batchSummary{Total: len(results), ByIntensity: map[string]int{}}
	for _, r := range results {
		if r.Degraded() {
			summary.Degraded++
			continue
		}
		summary.ByIntensity[string(r.Intensity)]++
	}
	return summary
}
