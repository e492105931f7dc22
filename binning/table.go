package binning

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/binngo/metrics"
)

// BinRow is one row of a binning table.
type BinRow struct {
	Bin       string
	Count     int
	CountFrac float64
	NonEvent  int
	Event     int
	EventRate float64
	WoE       float64
	IV        float64
}

// BinningTable is the read-only summary of a fitted binning: final bin
// boundaries with per-bin counts and derived statistics, plus the special
// and missing buckets. Tables are built once and never mutated.
type BinningTable struct {
	name   string
	splits []float64

	nonevent []int // Per final bin.
	event    []int

	nonEventSpecial int
	eventSpecial    int
	nonEventMissing int
	eventMissing    int

	rows    []BinRow
	totalIV float64
	gini    float64
	ks      float64
}

func newBinningTable(name string, splits []float64, nonevent, event []int,
	neSpecial, evSpecial, neMissing, evMissing int) *BinningTable {

	t := &BinningTable{
		name:            name,
		splits:          append([]float64(nil), splits...),
		nonevent:        append([]int(nil), nonevent...),
		event:           append([]int(nil), event...),
		nonEventSpecial: neSpecial,
		eventSpecial:    evSpecial,
		nonEventMissing: neMissing,
		eventMissing:    evMissing,
	}
	t.build()
	return t
}

// build computes the derived statistics. Totals include the special and
// missing buckets, so WoE and IV are relative to the full population.
func (t *BinningTable) build() {
	var totNE, totEV float64
	for i := range t.nonevent {
		totNE += float64(t.nonevent[i])
		totEV += float64(t.event[i])
	}
	totNE += float64(t.nonEventSpecial + t.nonEventMissing)
	totEV += float64(t.eventSpecial + t.eventMissing)
	total := totNE + totEV

	addRow := func(label string, ne, ev int) {
		neF, evF := float64(ne), float64(ev)
		row := BinRow{
			Bin:       label,
			Count:     ne + ev,
			NonEvent:  ne,
			Event:     ev,
			EventRate: metrics.EventRate(neF, evF),
			WoE:       metrics.WoE(neF, evF, totNE, totEV),
			IV:        metrics.IVContribution(neF, evF, totNE, totEV),
		}
		if total > 0 {
			row.CountFrac = float64(row.Count) / total
		}
		t.rows = append(t.rows, row)
		t.totalIV += row.IV
	}

	for i := range t.nonevent {
		addRow(intervalLabel(t.splits, i, 2), t.nonevent[i], t.event[i])
	}
	addRow("Special", t.nonEventSpecial, t.eventSpecial)
	addRow("Missing", t.nonEventMissing, t.eventMissing)

	// Discrimination statistics over the final bins. The count slices are
	// aligned by construction, so the errors cannot trigger.
	t.gini, _ = metrics.Gini(t.nonevent, t.event)
	t.ks, _ = metrics.KolmogorovSmirnov(t.nonevent, t.event)
}

// Name returns the variable name.
func (t *BinningTable) Name() string { return t.name }

// Splits returns the final bin boundaries.
func (t *BinningTable) Splits() []float64 {
	return append([]float64(nil), t.splits...)
}

// NBins returns the number of final bins, excluding the special and missing
// buckets.
func (t *BinningTable) NBins() int { return len(t.nonevent) }

// Rows returns all table rows: the final bins followed by the Special and
// Missing buckets.
func (t *BinningTable) Rows() []BinRow {
	return append([]BinRow(nil), t.rows...)
}

// IV returns the total information value of the binning.
func (t *BinningTable) IV() float64 { return t.totalIV }

// Gini returns the Gini index of the final bins.
func (t *BinningTable) Gini() float64 { return t.gini }

// KS returns the Kolmogorov-Smirnov statistic of the final bins.
func (t *BinningTable) KS() float64 { return t.ks }

// String renders the table as aligned text.
func (t *BinningTable) String() string {
	var sb strings.Builder
	if t.name != "" {
		fmt.Fprintf(&sb, "Binning table: %s\n", t.name)
	}

	w := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Bin\tCount\tCount (%)\tNon-event\tEvent\tEvent rate\tWoE\tIV")
	var count, ne, ev int
	for _, row := range t.rows {
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%d\t%d\t%.6f\t%.6f\t%.6f\n",
			row.Bin, row.Count, row.CountFrac, row.NonEvent, row.Event,
			row.EventRate, row.WoE, row.IV)
		count += row.Count
		ne += row.NonEvent
		ev += row.Event
	}
	fmt.Fprintf(w, "Totals\t%d\t%.4f\t%d\t%d\t\t\t%.6f\n", count, 1.0, ne, ev, t.totalIV)
	w.Flush()
	return sb.String()
}

// Plot writes a PNG chart of the binning: count fraction bars with the
// event-rate curve overlaid, one point per final bin.
func (t *BinningTable) Plot(path string) error {
	p := plot.New()
	p.Title.Text = "Binning table"
	if t.name != "" {
		p.Title.Text = fmt.Sprintf("Binning table: %s", t.name)
	}
	p.X.Label.Text = "Bin"
	p.Y.Label.Text = "Count fraction / Event rate"

	nBins := t.NBins()
	values := make(plotter.Values, nBins)
	rates := make(plotter.XYs, nBins)
	labels := make([]string, nBins)
	for i := 0; i < nBins; i++ {
		values[i] = t.rows[i].CountFrac
		rates[i].X = float64(i)
		rates[i].Y = t.rows[i].EventRate
		labels[i] = t.rows[i].Bin
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Legend.Add("Count fraction", bars)

	line, err := plotter.NewLine(rates)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("Event rate", line)
	p.NominalX(labels...)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// intervalLabel renders bin i of the given splits under the right-closed
// convention, e.g. "(-inf, 1.25]", "(1.25, 3.00]", "(3.00, inf)".
func intervalLabel(splits []float64, i, digits int) string {
	format := func(v float64) string {
		if math.IsInf(v, -1) {
			return "-inf"
		}
		if math.IsInf(v, 1) {
			return "inf"
		}
		return fmt.Sprintf("%.*f", digits, v)
	}

	lo := math.Inf(-1)
	hi := math.Inf(1)
	if i > 0 {
		lo = splits[i-1]
	}
	if i < len(splits) {
		hi = splits[i]
	}
	if math.IsInf(hi, 1) {
		return fmt.Sprintf("(%s, %s)", format(lo), format(hi))
	}
	return fmt.Sprintf("(%s, %s]", format(lo), format(hi))
}
