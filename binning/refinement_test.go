package binning

import (
	"errors"
	"math"
	"testing"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// twoScenarios builds two scenarios over the same feature values with the
// given label vectors.
func twoScenarios(yA, yB []int) ([][]float64, [][]int) {
	x := make([]float64, len(yA))
	for i := range x {
		x[i] = float64(i + 1)
	}
	return [][]float64{x, x}, [][]int{yA, yB}
}

func TestBinIndexRightClosed(t *testing.T) {
	splits := []float64{2.5, 4.5}

	cases := []struct {
		v    float64
		want int
	}{
		{1.0, 0},
		{2.5, 0}, // Boundary value belongs to the lower bin.
		{2.6, 1},
		{4.5, 1},
		{4.6, 2},
		{math.Inf(1), 2},
		{math.Inf(-1), 0},
	}
	for _, tc := range cases {
		if got := binIndex(splits, tc.v); got != tc.want {
			t.Errorf("binIndex(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestComputeCountsConservation(t *testing.T) {
	X, Y := twoScenarios(
		[]int{0, 0, 0, 1, 0, 1},
		[]int{0, 1, 0, 1, 0, 1},
	)
	splits := []float64{2.5, 4.5}

	m := computeCounts(splits, X, Y)
	if m.nBins() != 3 || m.nScenarios() != 2 {
		t.Fatalf("unexpected matrix shape: %d bins, %d scenarios", m.nBins(), m.nScenarios())
	}

	for s := 0; s < 2; s++ {
		total := 0
		for i := 0; i < m.nBins(); i++ {
			total += m.nonevent[i][s] + m.event[i][s]
		}
		if total != len(X[s]) {
			t.Errorf("scenario %d: counts sum to %d, want %d", s, total, len(X[s]))
		}
	}
}

func TestRefineRemovesPureBinAndConserves(t *testing.T) {
	// Bin 0 of (-inf, 2.5] holds only nonevents in both scenarios; the
	// other bins are mixed.
	X, Y := twoScenarios(
		[]int{0, 0, 0, 1, 0, 1},
		[]int{0, 0, 0, 1, 0, 1},
	)
	splits := []float64{2.5, 4.5}

	res, err := refine("test", splits, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}

	if len(res.splits) >= len(splits) {
		t.Fatalf("expected at least one split removed, got %v", res.splits)
	}
	if res.nRefinements == 0 {
		t.Error("expected a recorded refinement")
	}

	for i := 0; i < res.counts.nBins(); i++ {
		for s := 0; s < res.counts.nScenarios(); s++ {
			if res.counts.nonevent[i][s] == 0 || res.counts.event[i][s] == 0 {
				t.Errorf("pure bin survived refinement: bin %d scenario %d", i, s)
			}
		}
	}

	// Conservation holds on the refined matrix.
	for s := 0; s < res.counts.nScenarios(); s++ {
		total := 0
		for i := 0; i < res.counts.nBins(); i++ {
			total += res.counts.nonevent[i][s] + res.counts.event[i][s]
		}
		if total != len(X[s]) {
			t.Errorf("scenario %d: refined counts sum to %d, want %d", s, total, len(X[s]))
		}
	}
}

func TestRefinePerfectSeparationCollapses(t *testing.T) {
	// Fully separated labels: every bin of any split set is pure somewhere,
	// so refinement collapses to the empty candidate set.
	X, Y := twoScenarios(
		[]int{0, 0, 0, 1, 1, 1},
		[]int{0, 0, 0, 1, 1, 1},
	)
	splits := []float64{2.5, 4.5}

	res, err := refine("test", splits, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	if len(res.splits) != 0 {
		t.Errorf("expected empty split set, got %v", res.splits)
	}
	if res.counts.nBins() != 0 {
		t.Errorf("expected empty count matrix, got %d bins", res.counts.nBins())
	}
}

func TestRefineIdempotent(t *testing.T) {
	X, Y := twoScenarios(
		[]int{0, 0, 0, 1, 0, 1},
		[]int{0, 1, 0, 1, 0, 1},
	)
	splits := []float64{2.5, 4.5}

	first, err := refine("test", splits, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}

	second, err := refine("test", first.splits, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed on its own output: %v", err)
	}
	if second.nRefinements != 0 {
		t.Errorf("refinement of a fixed point must be a no-op, got %d refinements", second.nRefinements)
	}
	if len(second.splits) != len(first.splits) {
		t.Fatalf("splits changed on second refinement: %v != %v", second.splits, first.splits)
	}
	for i := range first.splits {
		if second.splits[i] != first.splits[i] {
			t.Errorf("split %d changed: %v != %v", i, second.splits[i], first.splits[i])
		}
	}
	for i := 0; i < first.counts.nBins(); i++ {
		for s := 0; s < first.counts.nScenarios(); s++ {
			if first.counts.nonevent[i][s] != second.counts.nonevent[i][s] ||
				first.counts.event[i][s] != second.counts.event[i][s] {
				t.Errorf("count matrix changed at bin %d scenario %d", i, s)
			}
		}
	}
}

func TestRefineTerminatesWithinSplitBound(t *testing.T) {
	// A pure leading stretch knocks out several candidate splits. The
	// number of refinement rounds is bounded by the initial split count.
	y := make([]int, 40)
	for i := range y {
		if i >= 8 {
			y[i] = i % 2
		}
	}
	X, Y := twoScenarios(y, y)

	splits := []float64{2.5, 4.5, 6.5, 8.5, 20.5, 30.5}
	res, err := refine("test", splits, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	if res.nRefinements > len(splits) {
		t.Errorf("refinement ran %d rounds for %d splits", res.nRefinements, len(splits))
	}
}

func TestRefineFixedSplitConflict(t *testing.T) {
	X, Y := twoScenarios(
		[]int{0, 0, 0, 1, 0, 1},
		[]int{0, 0, 0, 1, 0, 1},
	)
	splits := []float64{2.5, 4.5}
	fixed := []bool{true, false} // 2.5 is pinned but produces a pure bin.

	fixedBefore := append([]bool(nil), fixed...)
	splitsBefore := append([]float64(nil), splits...)

	_, err := refine("test", splits, fixed, X, Y)
	if err == nil {
		t.Fatal("expected FixedSplitConflictError")
	}
	var conflict *binngoErrors.FixedSplitConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected FixedSplitConflictError, got %v", err)
	}
	if len(conflict.Splits) != 1 || conflict.Splits[0] != 2.5 {
		t.Errorf("expected offending split 2.5, got %v", conflict.Splits)
	}

	// The inputs must not be mutated by a failed refinement.
	for i := range splits {
		if splits[i] != splitsBefore[i] || fixed[i] != fixedBefore[i] {
			t.Error("refine mutated its inputs on failure")
		}
	}
}

func TestRefineEmptySplits(t *testing.T) {
	X, Y := twoScenarios(
		[]int{0, 1, 0, 1, 0, 1},
		[]int{0, 1, 0, 1, 0, 1},
	)

	res, err := refine("test", nil, nil, X, Y)
	if err != nil {
		t.Fatalf("refine failed: %v", err)
	}
	if len(res.splits) != 0 || res.counts.nBins() != 0 || res.nRefinements != 0 {
		t.Errorf("empty candidate set must return immediately: %+v", res)
	}
}
