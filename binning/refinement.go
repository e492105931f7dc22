package binning

import (
	"sort"

	"github.com/ezoic/binngo/core/parallel"
	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// parallelScenarioThreshold is the scenario count below which count tallies
// run sequentially.
const parallelScenarioThreshold = 4

// countMatrix holds nonevent/event counts per (bin, scenario). It is
// rebuilt from scratch at every refinement iteration, never mutated in
// place.
type countMatrix struct {
	nonevent [][]int // [bin][scenario]
	event    [][]int
}

func (m countMatrix) nBins() int { return len(m.nonevent) }

func (m countMatrix) nScenarios() int {
	if len(m.nonevent) == 0 {
		return 0
	}
	return len(m.nonevent[0])
}

// binIndex assigns value v to a bin under the right-closed convention:
// bin i = (splits[i-1], splits[i]], with unbounded first and last bins.
func binIndex(splits []float64, v float64) int {
	return sort.SearchFloat64s(splits, v)
}

// computeCounts tallies the per-scenario nonevent/event counts of every bin
// defined by splits. Scenarios are independent columns, so the tally runs
// in parallel across scenarios.
func computeCounts(splits []float64, x [][]float64, y [][]int) countMatrix {
	nBins := len(splits) + 1
	nScenarios := len(x)

	m := countMatrix{
		nonevent: make([][]int, nBins),
		event:    make([][]int, nBins),
	}
	for i := range m.nonevent {
		m.nonevent[i] = make([]int, nScenarios)
		m.event[i] = make([]int, nScenarios)
	}

	parallel.ParallelizeWithThreshold(nScenarios, parallelScenarioThreshold, func(start, end int) {
		for s := start; s < end; s++ {
			for i, v := range x[s] {
				bin := binIndex(splits, v)
				if y[s][i] == 0 {
					m.nonevent[bin][s]++
				} else {
					m.event[bin][s]++
				}
			}
		}
	})
	return m
}

// refinementResult is the fixed point of the prebin refinement: a split set
// whose every bin holds both classes in every scenario, with the matching
// count matrix and the surviving fixed-split flags.
type refinementResult struct {
	splits       []float64
	counts       countMatrix
	fixed        []bool // nil when no user splits were fixed
	nRefinements int
}

// refine removes splits that produce pure bins in any scenario and
// recomputes counts until no pure bin remains. Each iteration strictly
// shrinks the split set, so the loop terminates within len(splits)
// iterations. A fixed split that would have to be removed makes the
// configuration infeasible and fails without mutating the inputs.
func refine(op string, splits []float64, fixed []bool, x [][]float64, y [][]int) (refinementResult, error) {
	current := append([]float64(nil), splits...)
	var currentFixed []bool
	if fixed != nil {
		currentFixed = append([]bool(nil), fixed...)
	}

	res := refinementResult{}
	for {
		if len(current) == 0 {
			res.splits = current
			res.counts = countMatrix{}
			res.fixed = currentFixed
			return res, nil
		}

		counts := computeCounts(current, x, y)
		nBins := counts.nBins()

		maskRemove := make([]bool, nBins)
		removed := false
		for i := 0; i < nBins; i++ {
			for s := 0; s < counts.nScenarios(); s++ {
				if counts.nonevent[i][s] == 0 || counts.event[i][s] == 0 {
					maskRemove[i] = true
					removed = true
					break
				}
			}
		}

		if !removed {
			res.splits = current
			res.counts = counts
			res.fixed = currentFixed
			return res, nil
		}

		// Map bin removal to split removal: dropping bin i removes the
		// split at its left edge, except that the last two bins share
		// blame for the final split (the last bin has no split of its
		// own to remove).
		maskSplits := make([]bool, nBins-1)
		copy(maskSplits, maskRemove[:nBins-2])
		maskSplits[nBins-2] = maskRemove[nBins-2] || maskRemove[nBins-1]

		if currentFixed != nil {
			var conflict []float64
			for i, fx := range currentFixed {
				if fx && maskSplits[i] {
					conflict = append(conflict, current[i])
				}
			}
			if len(conflict) > 0 {
				return refinementResult{}, binngoErrors.NewFixedSplitConflictError(op, conflict)
			}
		}

		next := make([]float64, 0, len(current))
		var nextFixed []bool
		if currentFixed != nil {
			nextFixed = make([]bool, 0, len(currentFixed))
		}
		for i, s := range current {
			if maskSplits[i] {
				continue
			}
			next = append(next, s)
			if currentFixed != nil {
				nextFixed = append(nextFixed, currentFixed[i])
			}
		}

		current = next
		currentFixed = nextFixed
		res.nRefinements++
	}
}
