package binning

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
	"github.com/ezoic/binngo/tree"
)

// preBinning generates candidate split points from the pooled clean data of
// all scenarios. The pipeline only consumes the ordered split list; the
// generator itself is an interchangeable heuristic.
type preBinning struct {
	method     PrebinningMethod
	maxNBins   int
	minBinSize int // Minimum raw record count per prebin.
}

// fit proposes a strictly increasing list of candidate splits for the
// pooled samples x with binary labels y and optional sample weights w.
func (p preBinning) fit(x []float64, y []int, w []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, binngoErrors.NewModelError("preBinning.fit", "empty data", binngoErrors.ErrEmptyData)
	}

	switch p.method {
	case MethodCART:
		return p.fitCART(x, y, w)
	case MethodQuantile:
		return p.fitQuantile(x), nil
	case MethodUniform:
		return p.fitUniform(x), nil
	default:
		return nil, binngoErrors.NewValidationError("preBinning.fit",
			"unsupported prebinning method "+string(p.method))
	}
}

func (p preBinning) fitCART(x []float64, y []int, w []float64) ([]float64, error) {
	clf := tree.NewClassifier(
		tree.WithMaxLeafNodes(p.maxNBins),
		tree.WithMinSamplesLeaf(p.minBinSize),
	)
	if err := clf.Fit(x, y, w); err != nil {
		return nil, err
	}
	return clf.Thresholds()
}

func (p preBinning) fitQuantile(x []float64) []float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	splits := make([]float64, 0, p.maxNBins-1)
	for i := 1; i < p.maxNBins; i++ {
		q := stat.Quantile(float64(i)/float64(p.maxNBins), stat.Empirical, sorted, nil)
		splits = append(splits, q)
	}
	return uniqueSorted(splits)
}

func (p preBinning) fitUniform(x []float64) []float64 {
	lo, hi := x[0], x[0]
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	splits := make([]float64, 0, p.maxNBins-1)
	width := (hi - lo) / float64(p.maxNBins)
	for i := 1; i < p.maxNBins; i++ {
		splits = append(splits, lo+float64(i)*width)
	}
	return uniqueSorted(splits)
}

// roundSplits rounds split points to the configured number of decimal
// digits, preserving length and order. digits < 0 keeps all digits.
// Callers are responsible for re-checking uniqueness afterwards.
func roundSplits(splits []float64, digits int) []float64 {
	if digits < 0 {
		return splits
	}
	scale := math.Pow(10, float64(digits))
	out := make([]float64, len(splits))
	for i, s := range splits {
		out[i] = math.Round(s*scale) / scale
	}
	return out
}

// uniqueSorted sorts the values and removes duplicates in place.
func uniqueSorted(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}
	sort.Float64s(values)
	out := values[:1]
	for _, v := range values[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
