package factors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/cfactor/internal/config"
	"github.com/sawpanic/cfactor/internal/frame"
	"github.com/sawpanic/cfactor/internal/metrics"
)

// Output is one entry of a calculator result. AVG carries a Series; every other
// factor carries its raw Signal and the long-short Weights derived from it.
type Output struct {
	Name    Name
	Series  *frame.Series
	Signal  *frame.Table
	Weights *frame.Table
}

// IsSeries reports whether the output is the single-column AVG factor
func (o Output) IsSeries() bool { return o.Series != nil }

// Missing returns the number of missing cells and the total number of cells of the
// primary output (the series for AVG, the weights otherwise)
func (o Output) Missing() (missing, total int) {
	if o.IsSeries() {
		return o.Series.Missing(), o.Series.Len()
	}
	return o.Weights.Missing(), o.Weights.Rows() * o.Weights.Cols()
}

// Result maps every factor name to its output
type Result map[Name]Output

// Names returns the result's factor names in canonical order
func (r Result) Names() []Name {
	names := make([]Name, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].order() < names[j].order() })
	return names
}

// Calculator computes the ten commodity factors from pre-aligned inputs
type Calculator struct {
	cfg         config.FactorConfig
	logger      zerolog.Logger
	metrics     *metrics.Registry
	parallelism int
	progress    func(Name)
}

// Option customises a Calculator
type Option func(*Calculator)

// WithLogger replaces the package logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Calculator) { c.logger = logger }
}

// WithMetrics records per-factor timings and missing ratios on reg
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Calculator) { c.metrics = reg }
}

// WithParallelism overrides the configured number of concurrent factor jobs
func WithParallelism(n int) Option {
	return func(c *Calculator) { c.parallelism = n }
}

// WithProgress calls fn after each factor completes. With parallelism > 1 fn is
// called from several goroutines.
func WithProgress(fn func(Name)) Option {
	return func(c *Calculator) { c.progress = fn }
}

// NewCalculator validates cfg and builds a calculator
func NewCalculator(cfg config.FactorConfig, opts ...Option) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid factor config: %w", err)
	}

	c := &Calculator{
		cfg:         cfg,
		logger:      log.With().Str("component", "factors").Logger(),
		parallelism: cfg.Parallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Calculate runs the calculator with the default windows and three buckets
func Calculate(in Inputs) (Result, error) {
	c, err := NewCalculator(config.DefaultFactorConfig())
	if err != nil {
		return nil, err
	}
	return c.Compute(context.Background(), in)
}

type job struct {
	name Name
	run  func(Inputs) (Output, error)
}

func (c *Calculator) jobs() []job {
	return []job{
		{AVG, c.average},
		{Momentum, c.momentum},
		{Basis, c.basis},
		{BasisMomentum, c.basisMomentum},
		{HedgingPressure, c.hedgingPressure},
		{Value, c.value},
		{Skewness, c.skewness},
		{InflationBeta, c.inflationBeta},
		{Volatility, c.volatility},
		{OpenInterest, c.openInterest},
	}
}

// Compute evaluates all ten factors. The jobs are independent and run concurrently
// when parallelism > 1; the result does not depend on scheduling.
func (c *Calculator) Compute(ctx context.Context, in Inputs) (res Result, err error) {
	start := time.Now()
	if c.metrics != nil {
		done := c.metrics.RunStarted()
		defer func() { done(err) }()
	}

	jobs := c.jobs()
	outputs := make([]Output, len(jobs))

	if c.parallelism <= 1 {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if outputs[i], err = c.runJob(j, in); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.parallelism)
		for i, j := range jobs {
			i, j := i, j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := c.runJob(j, in)
				if err != nil {
					return err
				}
				outputs[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res = make(Result, len(outputs))
	for _, out := range outputs {
		res[out.Name] = out
	}

	c.logger.Info().
		Int("factors", len(res)).
		Int("parallelism", c.parallelism).
		Dur("elapsed", time.Since(start)).
		Msg("Factor computation completed")

	return res, nil
}

func (c *Calculator) runJob(j job, in Inputs) (Output, error) {
	var timer *metrics.FactorTimer
	if c.metrics != nil {
		timer = c.metrics.StartFactorTimer(string(j.name))
	}
	start := time.Now()

	out, err := j.run(in)
	if err != nil {
		if timer != nil {
			timer.Stop("error")
		}
		return Output{}, fmt.Errorf("%s: %w", j.name, err)
	}
	out.Name = j.name

	missing, total := out.Missing()
	if timer != nil {
		timer.Stop("ok")
		c.metrics.RecordMissing(string(j.name), missing, total)
	}

	c.logger.Debug().
		Str("factor", string(j.name)).
		Int("cells", total).
		Int("missing", missing).
		Dur("elapsed", time.Since(start)).
		Msg("Factor computed")

	if c.progress != nil {
		c.progress(j.name)
	}
	return out, nil
}

// ranked wraps a raw signal with its long-short weights
func (c *Calculator) ranked(signal *frame.Table) (Output, error) {
	weights, err := LongShort(signal, c.cfg.Buckets)
	if err != nil {
		return Output{}, err
	}
	return Output{Signal: signal, Weights: weights}, nil
}

func (c *Calculator) average(in Inputs) (Output, error) {
	monthly, err := in.monthly()
	if err != nil {
		return Output{}, err
	}
	return Output{Series: Average(monthly)}, nil
}

func (c *Calculator) momentum(in Inputs) (Output, error) {
	monthly, err := in.monthly()
	if err != nil {
		return Output{}, err
	}
	signal, err := MomentumSignal(monthly, c.cfg.MomentumWindow, c.cfg.MomentumLag)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) basis(in Inputs) (Output, error) {
	near, err := in.tenor(TenorNear)
	if err != nil {
		return Output{}, err
	}
	next, err := in.tenor(TenorNext)
	if err != nil {
		return Output{}, err
	}
	signal, err := BasisSignal(near, next)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) basisMomentum(in Inputs) (Output, error) {
	near, err := in.tenor(TenorNear)
	if err != nil {
		return Output{}, err
	}
	next, err := in.tenor(TenorNext)
	if err != nil {
		return Output{}, err
	}
	signal, err := BasisMomentumSignal(near, next, c.cfg.BasisMomentumPeriod)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) hedgingPressure(in Inputs) (Output, error) {
	long, err := in.position(PositionLong)
	if err != nil {
		return Output{}, err
	}
	short, err := in.position(PositionShort)
	if err != nil {
		return Output{}, err
	}
	signal, err := HedgingPressureSignal(long, short)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) value(in Inputs) (Output, error) {
	monthly, err := in.monthly()
	if err != nil {
		return Output{}, err
	}
	signal, err := ValueSignal(monthly, c.cfg.ValueWindow)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) skewness(in Inputs) (Output, error) {
	monthly, err := in.monthly()
	if err != nil {
		return Output{}, err
	}
	signal, err := SkewnessSignal(monthly, c.cfg.SkewnessWindow)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) inflationBeta(in Inputs) (Output, error) {
	monthly, err := in.monthly()
	if err != nil {
		return Output{}, err
	}
	if in.Inflation == nil {
		return Output{}, fmt.Errorf("%w: inflation", ErrMissingInput)
	}
	signal, err := InflationBetaSignal(monthly, in.Inflation, c.cfg.BetaWindow, c.cfg.InflationTrendWindow)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) volatility(in Inputs) (Output, error) {
	if in.DailyReturns == nil {
		return Output{}, fmt.Errorf("%w: daily returns", ErrMissingInput)
	}
	signal, err := VolatilitySignal(in.DailyReturns, c.cfg.VolatilityWindow, c.cfg.AnnualizationPeriods)
	if err != nil {
		return Output{}, err
	}
	return c.ranked(signal)
}

func (c *Calculator) openInterest(in Inputs) (Output, error) {
	if in.OpenInterest == nil {
		return Output{}, fmt.Errorf("%w: open interest", ErrMissingInput)
	}
	return c.ranked(in.OpenInterest)
}
