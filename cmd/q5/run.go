package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"q5engine/internal/engine"
	"q5engine/internal/sink"
)

type runOptions struct {
	region     string
	startDate  string
	endDate    string
	threads    int
	tablePath  string
	resultPath string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the query once and write NATION|REVENUE lines to a file",
		Example: "  q5 run --r_name ASIA --start_date 1994-01-01 --end_date 1995-01-01 " +
			"--threads 4 --table_path ./tables --result_path ./result.txt",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.region, "r_name", "", "region name, e.g. ASIA")
	f.StringVar(&opts.startDate, "start_date", "", "first order date included (YYYY-MM-DD)")
	f.StringVar(&opts.endDate, "end_date", "", "first order date excluded (YYYY-MM-DD)")
	f.IntVar(&opts.threads, "threads", 0, "number of aggregation workers")
	f.StringVar(&opts.tablePath, "table_path", "", "directory holding the .tbl files")
	f.StringVar(&opts.resultPath, "result_path", "", "output file")
	for _, name := range []string{"r_name", "start_date", "end_date", "threads", "table_path", "result_path"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runQuery(cmd *cobra.Command, opts *runOptions) error {
	q := engine.Query{
		Region:    opts.region,
		StartDate: opts.startDate,
		EndDate:   opts.endDate,
		Threads:   opts.threads,
	}
	// Reject bad arguments before touching any file
	if _, err := q.Window(); err != nil {
		return err
	}
	if opts.tablePath == "" || opts.resultPath == "" {
		return fmt.Errorf("%w: --table_path and --result_path must not be empty", engine.ErrInvalidQuery)
	}

	ctx := cmd.Context()
	tables, err := engine.LoadTables(ctx, opts.tablePath)
	if err != nil {
		return err
	}

	report, err := engine.Execute(ctx, tables, q)
	if err != nil {
		return err
	}
	return sink.Write(opts.resultPath, report.Result)
}
