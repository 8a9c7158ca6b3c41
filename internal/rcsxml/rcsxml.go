// Package rcsxml writes an RCS curve as the tagged text document consumed by
// the plotting and reporting tools:
//
//	<data>
//		<frequencydata><f>1.000000e+09 Hz</f>...</frequencydata>
//		<lambdadata><lambda>3.000000e-01 m</lambda>...</lambdadata>
//		<rcsdata><rcs>1.234560e-01 m^2</rcs>...</rcsdata>
//	</data>
package rcsxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rjboer/GoRCS/internal/mie"
)

// Unit suffixes written after every value.
const (
	FrequencyUnit  = "Hz"
	WavelengthUnit = "m"
	RCSUnit        = "m^2"
)

// Document mirrors the on-disk layout.
type Document struct {
	XMLName     xml.Name `xml:"data"`
	Frequencies []string `xml:"frequencydata>f"`
	Wavelengths []string `xml:"lambdadata>lambda"`
	RCS         []string `xml:"rcsdata>rcs"`
}

// NewDocument formats every record of curve in scientific notation.
func NewDocument(curve mie.Curve) Document {
	doc := Document{
		Frequencies: make([]string, len(curve.Records)),
		Wavelengths: make([]string, len(curve.Records)),
		RCS:         make([]string, len(curve.Records)),
	}
	for i, rec := range curve.Records {
		doc.Frequencies[i] = formatValue(rec.Frequency, FrequencyUnit)
		doc.Wavelengths[i] = formatValue(rec.Wavelength, WavelengthUnit)
		doc.RCS[i] = formatValue(rec.RCS, RCSUnit)
	}
	return doc
}

func formatValue(v float64, unit string) string {
	return fmt.Sprintf("%e %s", v, unit)
}

// Records parses the document back into curve records. Values carry the
// precision of the %e formatting (7 significant digits).
func (d Document) Records() ([]mie.Record, error) {
	if len(d.Frequencies) != len(d.Wavelengths) || len(d.Frequencies) != len(d.RCS) {
		return nil, fmt.Errorf("rcsxml: section lengths differ (f=%d, lambda=%d, rcs=%d)",
			len(d.Frequencies), len(d.Wavelengths), len(d.RCS))
	}
	out := make([]mie.Record, len(d.Frequencies))
	for i := range d.Frequencies {
		f, err := parseValue(d.Frequencies[i])
		if err != nil {
			return nil, fmt.Errorf("rcsxml: frequency %d: %w", i, err)
		}
		l, err := parseValue(d.Wavelengths[i])
		if err != nil {
			return nil, fmt.Errorf("rcsxml: wavelength %d: %w", i, err)
		}
		r, err := parseValue(d.RCS[i])
		if err != nil {
			return nil, fmt.Errorf("rcsxml: rcs %d: %w", i, err)
		}
		out[i] = mie.Record{Frequency: f, Wavelength: l, RCS: r}
	}
	return out, nil
}

func parseValue(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(fields[0], 64)
}

// Write encodes curve to w.
func Write(w io.Writer, curve mie.Curve) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(NewDocument(curve)); err != nil {
		return fmt.Errorf("rcsxml: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes curve to dir/name, creating dir if needed, and returns
// the path written.
func WriteFile(dir, name string, curve mie.Curve) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("rcsxml: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("rcsxml: create %s: %w", path, err)
	}
	if err := Write(f, curve); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("rcsxml: close %s: %w", path, err)
	}
	return path, nil
}

// Read decodes a document written by Write.
func Read(r io.Reader) (Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("rcsxml: decode: %w", err)
	}
	return doc, nil
}
