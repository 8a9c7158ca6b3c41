// Package record reads the sphere description from the task table: one
// whitespace-delimited line per variant holding the sphere diameter and the
// frequency bounds.
package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rjboer/GoRCS/internal/mie"
)

// DefaultVariant is the table row used when none is configured.
const DefaultVariant = "8"

// ErrVariantNotFound is returned when no line starts with the wanted variant.
var ErrVariantNotFound = errors.New("record: variant not found")

// Record is one parsed row of the task table.
type Record struct {
	Variant  string
	Diameter float64 // m
	FMin     float64 // Hz
	FMax     float64 // Hz
}

// Radius returns half the diameter.
func (r Record) Radius() float64 { return r.Diameter / 2 }

// Target returns the sphere described by the record.
func (r Record) Target() mie.SphereTarget {
	return mie.SphereTarget{Radius: r.Radius()}
}

// Sweep returns the record's frequency range sampled with cfg's step.
func (r Record) Sweep(cfg mie.Config) mie.FrequencySweep {
	return cfg.Sweep(r.FMin, r.FMax)
}

// ParseError reports a row for the wanted variant whose values are malformed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record: line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse returns the first row whose first token equals variant. Blank lines,
// headers and other variants are skipped.
func Parse(r io.Reader, variant string) (Record, error) {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = DefaultVariant
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != variant {
			continue
		}
		rec, err := parseFields(fields)
		if err != nil {
			return Record{}, &ParseError{Line: line, Text: sc.Text(), Err: err}
		}
		return rec, nil
	}
	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("record: scan: %w", err)
	}
	return Record{}, fmt.Errorf("%w: %q", ErrVariantNotFound, variant)
}

// ParseBytes is Parse over an in-memory table.
func ParseBytes(data []byte, variant string) (Record, error) {
	return Parse(bytes.NewReader(data), variant)
}

// ParseFile opens path and parses it.
func ParseFile(path, variant string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, variant)
}

func parseFields(fields []string) (Record, error) {
	if len(fields) < 4 {
		return Record{}, fmt.Errorf("expected 4 fields (variant diameter fmin fmax), got %d", len(fields))
	}
	var vals [3]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Record{}, err
		}
		vals[i] = v
	}
	return Record{Variant: fields[0], Diameter: vals[0], FMin: vals[1], FMax: vals[2]}, nil
}
