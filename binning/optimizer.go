package binning

import (
	"fmt"
	"time"

	"github.com/ezoic/binngo/metrics"
	binngoErrors "github.com/ezoic/binngo/pkg/errors"
	"github.com/ezoic/binngo/solver"
)

// rateEps absorbs floating-point noise in event-rate comparisons.
const rateEps = 1e-9

// binningOptimizer builds and solves the extensive-form selection problem:
// one boolean variable per prebin marks it as the last prebin of a final
// bin (the trailing sentinel is always set). A selection is feasible only
// if bin count, per-scenario bin sizes, the aggregate-rate trend and the
// significance constraints all hold; the objective is the scenario-weighted
// sum of information values.
type binningOptimizer struct {
	trend            MonotonicTrend
	minNBins         int
	maxNBins         int
	minBinSize       []int // Per-scenario minimum record count, nil = unset.
	maxBinSize       []int // Per-scenario maximum record count, nil = unset.
	minEventRateDiff float64
	maxPValue        float64
	pvaluePolicy     PValuePolicy
	fixedSplits      []bool // Over candidate splits, nil = none fixed.
	timeLimit        time.Duration

	model    *solver.Model
	vars     []solver.BoolVar
	nPrebins int
}

// buildModelScenarios constructs the solver model from the refined count
// matrix (prebins x scenarios) and scenario weights.
func (o *binningOptimizer) buildModelScenarios(ne, ev [][]int, weights []float64) {
	n := len(ne)
	nScenarios := len(weights)
	o.nPrebins = n

	// Prefix sums per scenario: cumNE[s][i] = nonevents of prebins [0, i).
	cumNE := make([][]int, nScenarios)
	cumEV := make([][]int, nScenarios)
	totNE := make([]float64, nScenarios)
	totEV := make([]float64, nScenarios)
	for s := 0; s < nScenarios; s++ {
		cumNE[s] = make([]int, n+1)
		cumEV[s] = make([]int, n+1)
		for i := 0; i < n; i++ {
			cumNE[s][i+1] = cumNE[s][i] + ne[i][s]
			cumEV[s][i+1] = cumEV[s][i] + ev[i][s]
		}
		totNE[s] = float64(cumNE[s][n])
		totEV[s] = float64(cumEV[s][n])
	}

	model := solver.NewModel("binning")
	vars := make([]solver.BoolVar, n)
	for i := 0; i < n; i++ {
		if i == n-1 {
			vars[i] = model.NewBoolVar("sentinel")
		} else {
			vars[i] = model.NewBoolVar(fmt.Sprintf("split[%d]", i))
		}
	}
	// The last prebin always closes the final bin.
	model.FixVar(vars[n-1], true)

	if o.fixedSplits != nil {
		for i, fx := range o.fixedSplits {
			if fx {
				model.FixVar(vars[i], true)
			}
		}
	}

	binEnds := func(assign []bool) []int {
		ends := make([]int, 0, n)
		for i, set := range assign {
			if set {
				ends = append(ends, i)
			}
		}
		return ends
	}

	if o.minNBins > 0 || o.maxNBins > 0 {
		model.AddConstraint("bin-count", func(assign []bool) bool {
			k := len(binEnds(assign))
			if o.minNBins > 0 && k < o.minNBins {
				return false
			}
			if o.maxNBins > 0 && k > o.maxNBins {
				return false
			}
			return true
		})
	}

	// Bin sizes are bounded independently in every scenario against that
	// scenario's own record counts.
	if o.minBinSize != nil || o.maxBinSize != nil {
		model.AddConstraint("bin-size", func(assign []bool) bool {
			ends := binEnds(assign)
			for s := 0; s < nScenarios; s++ {
				start := 0
				for _, end := range ends {
					size := cumNE[s][end+1] - cumNE[s][start] +
						cumEV[s][end+1] - cumEV[s][start]
					if o.minBinSize != nil && size < o.minBinSize[s] {
						return false
					}
					if o.maxBinSize != nil && size > o.maxBinSize[s] {
						return false
					}
					start = end + 1
				}
			}
			return true
		})
	}

	// Aggregate (scenario-weighted) event rate of each selected bin.
	aggregateRates := func(ends []int) []float64 {
		rates := make([]float64, len(ends))
		start := 0
		for b, end := range ends {
			var wEV, wTotal float64
			for s := 0; s < nScenarios; s++ {
				evS := float64(cumEV[s][end+1] - cumEV[s][start])
				neS := float64(cumNE[s][end+1] - cumNE[s][start])
				wEV += weights[s] * evS
				wTotal += weights[s] * (evS + neS)
			}
			if wTotal > 0 {
				rates[b] = wEV / wTotal
			}
			start = end + 1
		}
		return rates
	}

	if o.trend != TrendNone {
		model.AddConstraint("monotonic-trend", func(assign []bool) bool {
			return trendFeasible(o.trend, aggregateRates(binEnds(assign)), o.minEventRateDiff)
		})
	}

	// Significance: every scenario must distinguish the compared bin pair.
	if o.maxPValue > 0 {
		model.AddConstraint("max-pvalue", func(assign []bool) bool {
			ends := binEnds(assign)
			k := len(ends)
			starts := make([]int, k)
			for b := 1; b < k; b++ {
				starts[b] = ends[b-1] + 1
			}
			for b1 := 0; b1 < k-1; b1++ {
				last := b1 + 1
				if o.pvaluePolicy == PolicyAll {
					last = k - 1
				}
				for b2 := b1 + 1; b2 <= last; b2++ {
					for s := 0; s < nScenarios; s++ {
						ev1 := float64(cumEV[s][ends[b1]+1] - cumEV[s][starts[b1]])
						n1 := ev1 + float64(cumNE[s][ends[b1]+1]-cumNE[s][starts[b1]])
						ev2 := float64(cumEV[s][ends[b2]+1] - cumEV[s][starts[b2]])
						n2 := ev2 + float64(cumNE[s][ends[b2]+1]-cumNE[s][starts[b2]])
						pv, err := metrics.PValueZTest(ev1, n1, ev2, n2)
						if err != nil || pv > o.maxPValue {
							return false
						}
					}
				}
			}
			return true
		})
	}

	// Expected IV across scenarios.
	model.Maximize(func(assign []bool) float64 {
		ends := binEnds(assign)
		obj := 0.0
		for s := 0; s < nScenarios; s++ {
			iv := 0.0
			start := 0
			for _, end := range ends {
				neS := float64(cumNE[s][end+1] - cumNE[s][start])
				evS := float64(cumEV[s][end+1] - cumEV[s][start])
				iv += metrics.IVContribution(neS, evS, totNE[s], totEV[s])
				start = end + 1
			}
			obj += weights[s] * iv
		}
		return obj
	})

	o.model = model
	o.vars = vars
}

// solve runs the backend under the configured time limit and decodes the
// boolean prebin-end selection.
func (o *binningOptimizer) solve() (solver.Status, []bool, *solver.Solution, error) {
	if o.model == nil {
		return solver.StatusUnknown, nil, nil,
			binngoErrors.NewValueError("binningOptimizer.solve", "model not built")
	}

	sol, err := o.model.Solve(o.timeLimit)
	if err != nil {
		return solver.StatusUnknown, nil, nil, err
	}

	selection := make([]bool, o.nPrebins)
	if sol.Status == solver.StatusOptimal || sol.Status == solver.StatusFeasible {
		for i, v := range o.vars {
			selection[i] = sol.BoolValue(v)
		}
	}
	return sol.Status, selection, sol, nil
}

// trendFeasible checks the aggregate event-rate curve against the
// configured trend. The minimum event-rate gap applies to adjacent pairs
// within each monotone segment.
func trendFeasible(trend MonotonicTrend, rates []float64, minDiff float64) bool {
	k := len(rates)
	if k <= 1 {
		return true
	}

	switch trend {
	case TrendAscending:
		return ascendingFrom(rates, 0, k-1, minDiff)
	case TrendDescending:
		return descendingFrom(rates, 0, k-1, minDiff)
	case TrendConvex:
		for i := 1; i < k-1; i++ {
			if rates[i+1]-2*rates[i]+rates[i-1] < -rateEps {
				return false
			}
		}
		return true
	case TrendConcave:
		for i := 1; i < k-1; i++ {
			if rates[i+1]-2*rates[i]+rates[i-1] > rateEps {
				return false
			}
		}
		return true
	case TrendPeak:
		for t := 0; t < k; t++ {
			if ascendingFrom(rates, 0, t, minDiff) && descendingFrom(rates, t, k-1, minDiff) {
				return true
			}
		}
		return false
	case TrendValley:
		for t := 0; t < k; t++ {
			if descendingFrom(rates, 0, t, minDiff) && ascendingFrom(rates, t, k-1, minDiff) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func ascendingFrom(rates []float64, lo, hi int, minDiff float64) bool {
	for i := lo; i < hi; i++ {
		if rates[i+1]-rates[i] < minDiff-rateEps {
			return false
		}
	}
	return true
}

func descendingFrom(rates []float64, lo, hi int, minDiff float64) bool {
	for i := lo; i < hi; i++ {
		if rates[i]-rates[i+1] < minDiff-rateEps {
			return false
		}
	}
	return true
}
