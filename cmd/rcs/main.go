package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rjboer/GoRCS/internal/app"
	"github.com/rjboer/GoRCS/internal/logging"
	"github.com/rjboer/GoRCS/internal/mdns"
	"github.com/rjboer/GoRCS/internal/mie"
	"github.com/rjboer/GoRCS/internal/record"
	"github.com/rjboer/GoRCS/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.LookupEnv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("rcs: %v", err)
	}
}

type cliConfig struct {
	configPath   string
	input        string
	inputURL     string
	variant      string
	outputDir    string
	step         float64
	nMax         int
	waveSpeed    float64
	workers      int
	logLevel     string
	logFormat    string
	webAddr      string
	historyLimit int
	advertise    bool
	discover     time.Duration
}

func parseConfig(args []string, lookup func(string) (string, bool), defaults fileConfig) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("rcs", flag.ContinueOnError)
	fs.StringVar(&cfg.configPath, "config", envString(lookup, "RCS_CONFIG", ""), "Config file (toml, yaml or json)")
	fs.StringVar(&cfg.input, "input", envString(lookup, "RCS_INPUT", defaults.Input), "Task table path; downloaded from -input-url when missing")
	fs.StringVar(&cfg.inputURL, "input-url", envString(lookup, "RCS_INPUT_URL", defaults.InputURL), "Task table URL")
	fs.StringVar(&cfg.variant, "variant", envString(lookup, "RCS_VARIANT", defaults.Variant), "Task table variant")
	fs.StringVar(&cfg.outputDir, "output-dir", envString(lookup, "RCS_OUTPUT_DIR", defaults.OutputDir), "Directory for rcs.xml and rcs.svg")
	fs.Float64Var(&cfg.step, "step", envFloat(lookup, "RCS_STEP", defaults.Step), "Frequency step in Hz")
	fs.IntVar(&cfg.nMax, "n-max", envInt(lookup, "RCS_N_MAX", defaults.NMax), "Highest partial-wave order")
	fs.Float64Var(&cfg.waveSpeed, "wave-speed", envFloat(lookup, "RCS_WAVE_SPEED", defaults.WaveSpeed), "Wave propagation speed in m/s")
	fs.IntVar(&cfg.workers, "workers", envInt(lookup, "RCS_WORKERS", defaults.Workers), "Goroutines sharing the sweep")
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "RCS_LOG_LEVEL", defaults.LogLevel), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.logFormat, "log-format", envString(lookup, "RCS_LOG_FORMAT", defaults.LogFormat), "Log format (text|json)")
	fs.StringVar(&cfg.webAddr, "web-addr", envString(lookup, "RCS_WEB_ADDR", defaults.WebAddr), "Optional results web view listen address (e.g. :8080)")
	fs.IntVar(&cfg.historyLimit, "history-limit", envInt(lookup, "RCS_HISTORY_LIMIT", defaults.HistoryLimit), "Maximum summaries kept by the web view")
	fs.BoolVar(&cfg.advertise, "advertise", envBool(lookup, "RCS_ADVERTISE", defaults.Advertise), "Announce the web view over mDNS")
	fs.DurationVar(&cfg.discover, "discover", envDuration(lookup, "RCS_DISCOVER", 0), "Browse for results servers for this long, print them and exit")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if fs.NArg() > 0 {
		return cliConfig{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

func (c cliConfig) appConfig() app.Config {
	return app.Config{
		Variant:   c.variant,
		InputPath: c.input,
		InputURL:  c.inputURL,
		OutputDir: c.outputDir,
		Compute: mie.Config{
			WaveSpeed: c.waveSpeed,
			Step:      c.step,
			NMax:      c.nMax,
			Workers:   c.workers,
		},
	}
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout io.Writer, lookup func(string) (string, bool)) error {
	defaults, err := loadConfig(configPath(args, lookup), defaultFileConfig())
	if err != nil {
		return err
	}
	cfg, err := parseConfig(args, lookup, defaults)
	if err != nil {
		return err
	}
	logger, err := logging.FromStrings(cfg.logLevel, cfg.logFormat, stdout)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	if cfg.discover > 0 {
		return discover(ctx, cfg.discover, stdout)
	}

	reporters := []telemetry.Reporter{telemetry.NewStdoutReporter(logger)}
	var hub *telemetry.Hub
	if cfg.webAddr != "" {
		hub = telemetry.NewHub(cfg.historyLimit, logger)
		reporters = append(reporters, hub)
	}

	runner := app.NewRunner(record.NewFetcher(logger), telemetry.MultiReporter(reporters), logger, cfg.appConfig())
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d samples to %s and %s\n", res.Curve.Len(), res.XMLPath, res.PlotPath)

	if hub == nil {
		return nil
	}
	if cfg.advertise {
		if shutdown, err := advertise(cfg.webAddr, res.Record); err != nil {
			logger.Warn("mdns advertise failed", logging.Field{Key: "error", Value: err})
		} else {
			defer shutdown()
		}
	}
	logger.Info("serving results (Ctrl+C to stop)", logging.Field{Key: "addr", Value: cfg.webAddr})
	return telemetry.NewWebServer(cfg.webAddr, hub).Start(ctx)
}

func advertise(addr string, rec record.Record) (func(), error) {
	port, err := mdns.PortFromAddr(addr)
	if err != nil {
		return nil, err
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	txt := []string{
		"variant=" + rec.Variant,
		"diameter=" + strconv.FormatFloat(rec.Diameter, 'g', -1, 64),
		"path=/plot.svg",
	}
	return mdns.Advertise("rcs on "+host, port, txt)
}

func discover(ctx context.Context, timeout time.Duration, stdout io.Writer) error {
	hosts, err := mdns.Discover(ctx, timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Discovered %d results server(s) in %s\n", len(hosts), timeout)
	for _, h := range hosts {
		fmt.Fprintf(stdout, "  %s  %s:%d  %v  %v\n", h.Instance, h.Hostname, h.Port, h.Addresses, h.TXT)
	}
	return nil
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(lookup func(string) (string, bool), key string, def bool) bool {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}

func envDuration(lookup func(string) (string, bool), key string, def time.Duration) time.Duration {
	if val, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}
