// Package plot renders an RCS curve as a standalone SVG line chart.
package plot

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/rjboer/GoRCS/internal/mie"
)

const (
	defaultWidth  = 800
	defaultHeight = 500
	marginLeft    = 80
	marginRight   = 30
	marginTop     = 40
	marginBottom  = 60
	tickCount     = 5

	foregroundColor = "black"
	gridColor       = "lightgray"
	curveColor      = "steelblue"
	curveWidth      = "2"
	labelFontSize   = 12
	titleFontSize   = 16
)

// Options controls the chart size and title.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.Title == "" {
		o.Title = "Monostatic RCS"
	}
	return o
}

// span returns [lo, hi] padded so a flat series still has a visible range.
func span(v []float64) (lo, hi float64) {
	lo, hi = floats.Min(v), floats.Max(v)
	if hi == lo {
		pad := math.Abs(lo) * 0.05
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

// SVG renders RCS (m^2) against frequency (GHz).
func SVG(curve mie.Curve, opts Options) string {
	opts = opts.withDefaults()
	if curve.Len() < 2 {
		return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" style="background-color:white;"><rect width="100%%" height="100%%" fill="white"/><text x="50" y="50" fill="%s">Not enough data points for RCS plot.</text></svg>`,
			opts.Width, opts.Height, foregroundColor)
	}

	freqs := curve.Frequencies()
	floats.Scale(1e-9, freqs)
	rcs := curve.RCS()
	fLo, fHi := span(freqs)
	rLo, rHi := span(rcs)

	plotW := float64(opts.Width - marginLeft - marginRight)
	plotH := float64(opts.Height - marginTop - marginBottom)
	toX := func(f float64) float64 { return marginLeft + (f-fLo)/(fHi-fLo)*plotW }
	toY := func(r float64) float64 { return marginTop + (1-(r-rLo)/(rHi-rLo))*plotH }

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" style="background-color:white;">`, opts.Width, opts.Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="white"/>`)
	fmt.Fprintf(&b, `<text x="%f" y="%d" fill="%s" font-size="%d" text-anchor="middle">%s</text>`,
		float64(opts.Width)/2, marginTop/2+titleFontSize/2, foregroundColor, titleFontSize, escape(opts.Title))

	// grid and tick labels
	for i := 0; i <= tickCount; i++ {
		t := float64(i) / tickCount
		x := marginLeft + t*plotW
		y := marginTop + (1-t)*plotH
		fmt.Fprintf(&b, `<line x1="%f" y1="%d" x2="%f" y2="%f" stroke="%s" stroke-width="0.5"/>`, x, marginTop, x, marginTop+plotH, gridColor)
		fmt.Fprintf(&b, `<line x1="%d" y1="%f" x2="%f" y2="%f" stroke="%s" stroke-width="0.5"/>`, marginLeft, y, marginLeft+plotW, y, gridColor)
		fmt.Fprintf(&b, `<text x="%f" y="%f" fill="%s" font-size="%d" text-anchor="middle">%.3g</text>`,
			x, marginTop+plotH+labelFontSize+4, foregroundColor, labelFontSize, fLo+t*(fHi-fLo))
		fmt.Fprintf(&b, `<text x="%d" y="%f" fill="%s" font-size="%d" text-anchor="end" dominant-baseline="middle">%.3g</text>`,
			marginLeft-6, y, foregroundColor, labelFontSize, rLo+t*(rHi-rLo))
	}

	// axes
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%f" height="%f" stroke="%s" stroke-width="1" fill="none"/>`,
		marginLeft, marginTop, plotW, plotH, foregroundColor)
	fmt.Fprintf(&b, `<text x="%f" y="%d" fill="%s" font-size="%d" text-anchor="middle">f, GHz</text>`,
		marginLeft+plotW/2, opts.Height-marginBottom/4, foregroundColor, labelFontSize)
	fmt.Fprintf(&b, `<text x="%d" y="%f" fill="%s" font-size="%d" text-anchor="middle" transform="rotate(-90 %d %f)">RCS, m²</text>`,
		marginLeft/4, marginTop+plotH/2, foregroundColor, labelFontSize, marginLeft/4, marginTop+plotH/2)

	b.WriteString(`<polyline fill="none" stroke="` + curveColor + `" stroke-width="` + curveWidth + `" points="`)
	for i := range freqs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", toX(freqs[i]), toY(rcs[i]))
	}
	b.WriteString(`"/>`)

	b.WriteString(`</svg>`)
	return b.String()
}

// WriteFile renders curve and writes it to path.
func WriteFile(path string, curve mie.Curve, opts Options) error {
	if err := os.WriteFile(path, []byte(SVG(curve, opts)), 0o644); err != nil {
		return fmt.Errorf("plot: write %s: %w", path, err)
	}
	return nil
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
