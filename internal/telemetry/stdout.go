package telemetry

import (
	"github.com/rjboer/GoRCS/internal/logging"
	"github.com/rjboer/GoRCS/internal/mie"
)

// Reporter receives every computed curve.
type Reporter interface {
	Report(s Summary, curve mie.Curve)
}

// MultiReporter fans out results to multiple destinations.
type MultiReporter []Reporter

// Report forwards the result to each configured reporter.
func (m MultiReporter) Report(s Summary, curve mie.Curve) {
	for _, r := range m {
		if r != nil {
			r.Report(s, curve)
		}
	}
}

// StdoutReporter logs a summary line per computed curve.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter with the provided logger.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

func (r StdoutReporter) Report(s Summary, _ mie.Curve) {
	fields := []logging.Field{
		{Key: "subsystem", Value: "telemetry"},
		{Key: "label", Value: s.Label},
		{Key: "samples", Value: s.Samples},
		{Key: "radius_m", Value: s.Radius},
	}
	if s.Samples > 0 {
		fields = append(fields,
			logging.Field{Key: "max_rcs_m2", Value: s.MaxRCS},
			logging.Field{Key: "peak_hz", Value: s.PeakFrequency},
			logging.Field{Key: "mean_rcs_m2", Value: s.MeanRCS},
		)
	}
	if s.Warnings != 0 {
		fields = append(fields, logging.Field{Key: "warnings", Value: s.Warnings})
	}
	fields = append(fields, logging.Field{Key: "elapsed", Value: s.Elapsed})
	r.logger.Info("rcs curve computed", fields...)
}
