package rcsxml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/rjboer/GoRCS/internal/mie"
)

func sampleCurve() mie.Curve {
	return mie.Curve{Records: []mie.Record{
		{Frequency: 1e9, Wavelength: 0.3, RCS: 0.123456},
		{Frequency: 2e9, Wavelength: 0.15, RCS: 0.8},
	}}
}

func TestWriteLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleCurve()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<data>\n\t<frequencydata>\n\t\t<f>1.000000e+09 Hz</f>\n\t\t<f>2.000000e+09 Hz</f>\n\t</frequencydata>",
		"<lambdadata>\n\t\t<lambda>3.000000e-01 m</lambda>",
		"<rcsdata>\n\t\t<rcs>1.234560e-01 m^2</rcs>\n\t\t<rcs>8.000000e-01 m^2</rcs>\n\t</rcsdata>\n</data>\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("missing xml header:\n%s", out)
	}
	f := strings.Index(out, "<frequencydata>")
	l := strings.Index(out, "<lambdadata>")
	r := strings.Index(out, "<rcsdata>")
	if !(f < l && l < r) {
		t.Fatalf("sections out of order:\n%s", out)
	}
}

func TestWriteFileAndReadBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	path, err := WriteFile(dir, "res2.xml", sampleCurve())
	if err != nil {
		t.Fatalf("write file: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := doc.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	want := sampleCurve().Records
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i := range want {
		if !scalar.EqualWithinRel(got[i].Frequency, want[i].Frequency, 1e-6) ||
			!scalar.EqualWithinRel(got[i].Wavelength, want[i].Wavelength, 1e-6) ||
			!scalar.EqualWithinRel(got[i].RCS, want[i].RCS, 1e-6) {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecordsRejectsMismatchedSections(t *testing.T) {
	doc := Document{Frequencies: []string{"1e9 Hz"}, Wavelengths: []string{}, RCS: []string{"1 m^2"}}
	if _, err := doc.Records(); err == nil {
		t.Fatal("expected error for mismatched sections")
	}
	doc = Document{Frequencies: []string{"x Hz"}, Wavelengths: []string{"1 m"}, RCS: []string{"1 m^2"}}
	if _, err := doc.Records(); err == nil {
		t.Fatal("expected error for malformed value")
	}
}

func TestEmptyCurve(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, mie.Curve{}); err != nil {
		t.Fatal(err)
	}
	doc, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := doc.Records()
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected no records, got %v (%v)", recs, err)
	}
}
