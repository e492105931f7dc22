package binning

import (
	"fmt"
	"math"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// scenarioData holds each scenario's records partitioned into clean,
// missing (NaN) and special-code subsets, with per-subset target counts.
// Only counts matter downstream; sample order within a scenario is
// irrelevant.
type scenarioData struct {
	xClean [][]float64
	yClean [][]int

	xMissing [][]float64
	yMissing [][]int

	xSpecial [][]float64
	ySpecial [][]int

	nonEventMissing []int
	eventMissing    []int
	nonEventSpecial []int
	eventSpecial    []int

	nSamples []int // Raw sample count per scenario.
}

func (d *scenarioData) nScenarios() int { return len(d.xClean) }

// checkScenarios validates the shapes of the fit inputs before any
// computation.
func checkScenarios(op string, X [][]float64, Y [][]int, weights []float64) error {
	if len(X) == 0 {
		return binngoErrors.NewValidationError(op, "at least one scenario is required")
	}
	if len(X) != len(Y) {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"X and Y must have the same length; got %d != %d", len(X), len(Y)))
	}
	for s := range X {
		if len(X[s]) != len(Y[s]) {
			return binngoErrors.NewValidationError(op, fmt.Sprintf(
				"scenario %d: x and y lengths differ: %d != %d", s, len(X[s]), len(Y[s])))
		}
		if len(X[s]) == 0 {
			return binngoErrors.NewValidationError(op, fmt.Sprintf("scenario %d is empty", s))
		}
		for _, label := range Y[s] {
			if label != 0 && label != 1 {
				return binngoErrors.NewValidationError(op, fmt.Sprintf(
					"scenario %d: target must be binary (0 or 1); got %d", s, label))
			}
		}
	}
	if weights != nil {
		if len(weights) != len(X) {
			return binngoErrors.NewValidationError(op, fmt.Sprintf(
				"number of scenarios and number of weights must coincide; got %d != %d",
				len(X), len(weights)))
		}
		for s, w := range weights {
			if w < 0 || math.IsNaN(w) {
				return binngoErrors.NewValidationError(op, fmt.Sprintf(
					"scenario %d: weight must be nonnegative; got %g", s, w))
			}
		}
	}
	return nil
}

// splitScenarioData partitions every scenario's records into clean, missing
// and special subsets and tallies the missing/special target counts.
func splitScenarioData(X [][]float64, Y [][]int, specialCodes []float64) *scenarioData {
	n := len(X)
	d := &scenarioData{
		xClean:          make([][]float64, n),
		yClean:          make([][]int, n),
		xMissing:        make([][]float64, n),
		yMissing:        make([][]int, n),
		xSpecial:        make([][]float64, n),
		ySpecial:        make([][]int, n),
		nonEventMissing: make([]int, n),
		eventMissing:    make([]int, n),
		nonEventSpecial: make([]int, n),
		eventSpecial:    make([]int, n),
		nSamples:        make([]int, n),
	}

	special := make(map[float64]bool, len(specialCodes))
	for _, code := range specialCodes {
		special[code] = true
	}

	for s := range X {
		d.nSamples[s] = len(X[s])
		for i, v := range X[s] {
			label := Y[s][i]
			switch {
			case math.IsNaN(v):
				d.xMissing[s] = append(d.xMissing[s], v)
				d.yMissing[s] = append(d.yMissing[s], label)
			case special[v]:
				d.xSpecial[s] = append(d.xSpecial[s], v)
				d.ySpecial[s] = append(d.ySpecial[s], label)
			default:
				d.xClean[s] = append(d.xClean[s], v)
				d.yClean[s] = append(d.yClean[s], label)
			}
		}
		d.nonEventMissing[s], d.eventMissing[s] = targetInfo(d.yMissing[s])
		d.nonEventSpecial[s], d.eventSpecial[s] = targetInfo(d.ySpecial[s])
	}
	return d
}

// targetInfo counts nonevents (label 0) and events (label 1).
func targetInfo(y []int) (nonevent, event int) {
	for _, label := range y {
		if label == 0 {
			nonevent++
		} else {
			event++
		}
	}
	return nonevent, event
}
