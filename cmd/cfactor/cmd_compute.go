package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sawpanic/cfactor/internal/factors"
	httpContracts "github.com/sawpanic/cfactor/internal/http"
	cio "github.com/sawpanic/cfactor/internal/io"
	clog "github.com/sawpanic/cfactor/internal/log"
	"github.com/sawpanic/cfactor/internal/report"
)

// outputFormat is a pflag.Value restricted to csv and json
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }
func (f *outputFormat) Type() string   { return "csv|json" }

func (f *outputFormat) Set(s string) error {
	switch s {
	case "csv", "json":
		*f = outputFormat(s)
		return nil
	}
	return fmt.Errorf("must be csv or json, got %q", s)
}

// per-file overrides of the --input-dir layout
var inputFlags = []struct {
	name  string
	usage string
	field func(*cio.InputPaths) *string
}{
	{"monthly", "monthly returns CSV", func(p *cio.InputPaths) *string { return &p.MonthlyReturns }},
	{"futures-f1", "front-month futures prices CSV", func(p *cio.InputPaths) *string { return &p.FuturesNear }},
	{"futures-f2", "second-month futures prices CSV", func(p *cio.InputPaths) *string { return &p.FuturesNext }},
	{"cftc-long", "CFTC commercial long positions CSV", func(p *cio.InputPaths) *string { return &p.CFTCLong }},
	{"cftc-short", "CFTC commercial short positions CSV", func(p *cio.InputPaths) *string { return &p.CFTCShort }},
	{"daily", "daily returns CSV", func(p *cio.InputPaths) *string { return &p.DailyReturns }},
	{"inflation", "inflation series CSV", func(p *cio.InputPaths) *string { return &p.Inflation }},
	{"open-interest", "open interest CSV", func(p *cio.InputPaths) *string { return &p.OpenInterest }},
}

func newComputeCmd() *cobra.Command {
	format := outputFormat("csv")

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute all factors from CSV inputs and write one file per factor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, format)
		},
	}

	cmd.Flags().String("input-dir", ".", "Directory holding the eight input CSVs")
	for _, f := range inputFlags {
		cmd.Flags().String(f.name, "", "Override path of the "+f.usage)
	}
	cmd.Flags().String("out", "", "Output directory (config output.dir when empty)")
	cmd.Flags().Var(&format, "format", "Output format")
	cmd.Flags().Int("buckets", 0, "Long-short buckets n, weights are ±1/n (config when 0)")
	cmd.Flags().Int("parallel", 0, "Concurrent factor jobs (config when 0)")
	cmd.Flags().Bool("signals", false, "Also write the raw signal behind each weight table")
	cmd.Flags().Bool("summary", true, "Print the latest cross-section summary")
	cmd.Flags().String("weights", "", "Print the latest weights of one factor (name or slug)")

	return cmd
}

func runCompute(cmd *cobra.Command, format outputFormat) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir, _ = flags.GetString("out")
	}
	if flags.Changed("format") {
		cfg.Output.Format = format.String()
	}
	if flags.Changed("signals") {
		cfg.Output.Signals, _ = flags.GetBool("signals")
	}
	if n, _ := flags.GetInt("buckets"); n > 0 {
		cfg.Factors.Buckets = n
	}
	if n, _ := flags.GetInt("parallel"); n > 0 {
		cfg.Factors.Parallelism = n
	}

	var show factors.Name
	if s, _ := flags.GetString("weights"); s != "" {
		n, ok := factors.ParseName(s)
		if !ok {
			return fmt.Errorf("unknown factor %q", s)
		}
		show = n
	}

	inputDir, _ := flags.GetString("input-dir")
	paths := cio.DirInputPaths(inputDir)
	for _, f := range inputFlags {
		if v, _ := flags.GetString(f.name); v != "" {
			*f.field(&paths) = v
		}
	}

	in, err := cio.LoadInputs(paths)
	if err != nil {
		return fmt.Errorf("load inputs: %w", err)
	}

	// the bar only draws on a terminal
	var bar *clog.Progress
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar = clog.NewProgress(os.Stderr, "Computing factors", len(factors.AllNames()))
	} else {
		bar = clog.NewProgress(nil, "Computing factors", len(factors.AllNames()))
	}

	calc, err := factors.NewCalculator(cfg.Factors,
		factors.WithProgress(func(n factors.Name) { bar.Step(string(n)) }))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, err := calc.Compute(ctx, in)
	if err != nil {
		bar.Fail(err.Error())
		return fmt.Errorf("compute: %w", err)
	}
	bar.Finish()

	written, err := writeResult(res, cfg.Output.Dir, cfg.Output.Format, cfg.Output.Signals)
	if err != nil {
		return err
	}

	log.Info().
		Str("dir", cfg.Output.Dir).
		Str("format", cfg.Output.Format).
		Int("files", len(written)).
		Dur("elapsed", time.Since(start)).
		Msg("Factors written")

	out := cmd.OutOrStdout()
	if summary, _ := flags.GetBool("summary"); summary {
		fmt.Fprintln(out, report.SummaryTable(res).Render())
	}
	if show != "" {
		t, err := report.LatestWeights(res, show)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, t.Render())
	}
	return nil
}

// writeResult writes one file per factor into dir and returns the paths written.
// Weight tables use the factor slug; raw signals get a _signal suffix.
func writeResult(res factors.Result, dir, format string, signals bool) ([]string, error) {
	var written []string
	write := func(path string, fn func(string) error) error {
		if err := fn(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	for _, name := range res.Names() {
		out := res[name]
		base := filepath.Join(dir, name.Slug())

		if format == "json" {
			var payload any
			if out.IsSeries() {
				payload = httpContracts.NewSeriesPayload(out.Series)
			} else {
				payload = httpContracts.NewTablePayload(out.Weights)
			}
			if err := write(base+".json", func(p string) error { return cio.WriteJSONAtomic(p, payload) }); err != nil {
				return written, err
			}
			if signals && !out.IsSeries() {
				sig := httpContracts.NewTablePayload(out.Signal)
				if err := write(base+"_signal.json", func(p string) error { return cio.WriteJSONAtomic(p, sig) }); err != nil {
					return written, err
				}
			}
			continue
		}

		if out.IsSeries() {
			if err := write(base+".csv", func(p string) error { return cio.WriteSeriesAtomic(p, out.Series) }); err != nil {
				return written, err
			}
			continue
		}
		if err := write(base+".csv", func(p string) error { return cio.WriteTableAtomic(p, out.Weights) }); err != nil {
			return written, err
		}
		if signals {
			if err := write(base+"_signal.csv", func(p string) error { return cio.WriteTableAtomic(p, out.Signal) }); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}
