package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rjboer/GoRCS/internal/logging"
	"github.com/rjboer/GoRCS/internal/mie"
	"github.com/rjboer/GoRCS/internal/plot"
	"github.com/rjboer/GoRCS/internal/rcsxml"
	"github.com/rjboer/GoRCS/internal/record"
	"github.com/rjboer/GoRCS/internal/telemetry"
)

// Config captures application level configuration.
type Config struct {
	Variant string
	// InputPath is the local task table. When it does not exist the table
	// is downloaded from InputURL and cached there.
	InputPath string
	InputURL  string
	OutputDir string
	XMLName   string
	PlotName  string
	Compute   mie.Config
}

const (
	defaultOutputDir = "results"
	defaultXMLName   = "rcs.xml"
	defaultPlotName  = "rcs.svg"
	defaultTableName = "task_rcs_02.txt"
)

func (c Config) withDefaults() Config {
	if c.Variant == "" {
		c.Variant = record.DefaultVariant
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.InputPath == "" {
		c.InputPath = filepath.Join(c.OutputDir, defaultTableName)
	}
	if c.XMLName == "" {
		c.XMLName = defaultXMLName
	}
	if c.PlotName == "" {
		c.PlotName = defaultPlotName
	}
	if c.Compute.NMax == 0 {
		c.Compute.NMax = mie.DefaultNMax
	}
	return c
}

// Result is everything one run produced.
type Result struct {
	Record   record.Record
	Curve    mie.Curve
	XMLPath  string
	PlotPath string
	Summary  telemetry.Summary
}

// Runner loads the sphere record, computes its RCS curve and publishes it.
type Runner struct {
	reporter telemetry.Reporter
	fetcher  *record.Fetcher
	logger   logging.Logger
	cfg      Config
}

// NewRunner wires a runner. A nil fetcher downloads with the default retry
// policy; a nil reporter discards summaries.
func NewRunner(fetcher *record.Fetcher, reporter telemetry.Reporter, logger logging.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	if fetcher == nil {
		fetcher = record.NewFetcher(logger)
	}
	if reporter == nil {
		reporter = telemetry.MultiReporter(nil)
	}
	return &Runner{
		reporter: reporter,
		fetcher:  fetcher,
		logger:   logger.With(logging.Field{Key: "subsystem", Value: "app"}),
		cfg:      cfg.withDefaults(),
	}
}

// Run loads the record, computes the curve, writes the XML and SVG files
// and reports the summary.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	rec, err := r.loadRecord(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Record: rec}

	target := rec.Target()
	sweep := rec.Sweep(r.cfg.Compute)
	r.logger.Info("computing rcs",
		logging.Field{Key: "variant", Value: rec.Variant},
		logging.Field{Key: "radius_m", Value: target.Radius},
		logging.Field{Key: "fmin_hz", Value: sweep.Min},
		logging.Field{Key: "fmax_hz", Value: sweep.Max},
		logging.Field{Key: "step_hz", Value: sweep.Step},
		logging.Field{Key: "n_max", Value: r.cfg.Compute.NMax})

	start := time.Now()
	curve, err := mie.Compute(ctx, target, sweep, r.cfg.Compute)
	res.Curve = curve
	if err != nil {
		return res, fmt.Errorf("compute variant %s: %w", rec.Variant, err)
	}
	elapsed := time.Since(start)

	for _, w := range curve.Warnings {
		r.logger.Warn("numeric instability",
			logging.Field{Key: "kind", Value: string(w.Kind)},
			logging.Field{Key: "frequency_hz", Value: w.Frequency},
			logging.Field{Key: "kr", Value: w.Arg},
			logging.Field{Key: "order", Value: w.Order},
			logging.Field{Key: "suggested_n_max", Value: w.SuggestedOrder})
	}

	if res.XMLPath, err = rcsxml.WriteFile(r.cfg.OutputDir, r.cfg.XMLName, curve); err != nil {
		return res, err
	}
	res.PlotPath = filepath.Join(r.cfg.OutputDir, r.cfg.PlotName)
	label := fmt.Sprintf("Sphere D=%g m, variant %s", rec.Diameter, rec.Variant)
	if err := plot.WriteFile(res.PlotPath, curve, plot.Options{Title: label}); err != nil {
		return res, fmt.Errorf("write plot: %w", err)
	}

	res.Summary = telemetry.Summarize(label, target, r.cfg.Compute.NMax, curve, elapsed)
	r.reporter.Report(res.Summary, curve)
	r.logger.Info("results written",
		logging.Field{Key: "samples", Value: curve.Len()},
		logging.Field{Key: "xml", Value: res.XMLPath},
		logging.Field{Key: "plot", Value: res.PlotPath})
	return res, nil
}

// loadRecord reads the cached table, downloading it first when absent.
func (r *Runner) loadRecord(ctx context.Context) (record.Record, error) {
	path := r.cfg.InputPath
	_, err := os.Stat(path)
	switch {
	case err == nil:
		r.logger.Debug("using cached table", logging.Field{Key: "path", Value: path})
		return record.ParseFile(path, r.cfg.Variant)
	case !errors.Is(err, fs.ErrNotExist):
		return record.Record{}, fmt.Errorf("stat %s: %w", path, err)
	case r.cfg.InputURL == "":
		return record.Record{}, fmt.Errorf("table %s not found and no input URL configured", path)
	}

	body, err := r.fetcher.FetchToFile(ctx, r.cfg.InputURL, path)
	if err != nil {
		return record.Record{}, fmt.Errorf("download table: %w", err)
	}
	return record.ParseBytes(body, r.cfg.Variant)
}
