package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"metafix/internal/journal"
)

const defaultRunsLimit = 20

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withJournal(func(j *journal.Journal) error {
				runs, err := j.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable("", runHeaders, runRows(runs), runAligns))
				return nil
			})
		},
	}
	runsCmd.Flags().IntVarP(&limit, "limit", "n", defaultRunsLimit, "Number of runs to show")
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

var (
	runHeaders = []string{"ID", "Root", "Status", "Started", "Media", "Applied", "Failed"}
	runAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}
)

func runRows(runs []journal.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.Root,
			string(r.Status),
			humanize.Time(r.StartedAt),
			humanize.Comma(int64(r.Counts.Media)),
			humanize.Comma(int64(r.Counts.Applied)),
			strconv.Itoa(r.Counts.Failed),
		})
	}
	return rows
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-item events for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(j *journal.Journal) error {
				run, err := j.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				events, err := j.Events(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
				fmt.Fprintf(out, "Root: %s\n", run.Root)
				fmt.Fprintf(out, "Started: %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
				if d := run.Duration(); d > 0 {
					fmt.Fprintf(out, "Duration: %s\n", d)
				}
				fmt.Fprintln(out, renderTable("", []string{"Outcome", "Count"}, countRows(run.Counts), []columnAlignment{alignLeft, alignRight}))

				rows := eventRows(events, strings.TrimSpace(kind))
				if len(rows) == 0 {
					fmt.Fprintln(out, "No matching events")
					return nil
				}
				fmt.Fprintln(out, renderTable("Events", []string{"Stage", "Kind", "Path", "Target", "Detail"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only show events of this kind (for example orphan_moved)")
	return cmd
}

func eventRows(events []journal.Event, kind string) [][]string {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		if kind != "" && ev.Kind != kind {
			continue
		}
		rows = append(rows, []string{ev.Stage, ev.Kind, ev.Path, ev.Target, ev.Detail})
	}
	return rows
}
