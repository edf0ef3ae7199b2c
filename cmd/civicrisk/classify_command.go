package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"civicrisk/internal/history"
	"civicrisk/internal/logging"
	"civicrisk/internal/risk"
)

type classifyOutput struct {
	risk.Classification
	ID string `json:"id,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var file string
	var jsonOut bool
	var noStore bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify one complaint",
		Long: `Classify one complaint and print its risk intensity.

The text comes from the arguments, --file, or stdin. Provider failures still
produce a result (medium, confidence 0.0); use --strict to exit non-zero then.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readComplaint(cmd, args, file)
			if err != nil {
				return err
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

			reqCtx := commandRequestContext(cmd, history.SourceCLI)
			start := time.Now()
			result := analyzer.Classify(reqCtx, text)
			elapsed := time.Since(start)
			ctx.notify(reqCtx, notifier, text, result)
			out := classifyOutput{Classification: result}
			if store != nil {
				record, err := store.Record(reqCtx, text, history.SourceCLI, elapsed, result)
				if err != nil {
					logger, _ := ctx.ensureLogger()
					logging.WarnWithContext(logging.WithContext(reqCtx, logger), "history write failed", "history_write_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "result printed but not stored"),
					)
				} else {
					out.ID = record.ID
				}
			}

			if jsonOut {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				printClassification(cmd.OutOrStdout(), out, colorEnabled(cmd))
			}
			if strict && result.Degraded() {
				return errors.New("classification degraded: " + result.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the complaint from a file (- for stdin)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the result in history")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the provider call fails")
	return cmd
}

func printClassification(w io.Writer, out classifyOutput, color bool) {
	fmt.Fprintf(w, "Intensity:  %s\n", intensityLabel(out.Intensity, color))
	fmt.Fprintf(w, "Confidence: %.2f\n", out.Confidence)
	fmt.Fprintf(w, "Reason:     %s\n", out.Reason)
	fmt.Fprintf(w, "Model:      %s\n", out.ModelName)
	if out.Degraded() {
		fmt.Fprintf(w, "Outcome:    %s (%s)\n", out.Outcome, out.ErrorKind)
	}
	if out.ID != "" {
		fmt.Fprintf(w, "History ID: %s\n", out.ID)
	}
}
