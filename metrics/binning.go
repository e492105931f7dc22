// Package metrics provides the statistics used by optimal binning: Weight
// of Evidence, Information Value, event rates and the two-proportion Z-test
// for bin significance.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// EventRate returns event / (nonevent + event), or 0 for an empty bin.
func EventRate(nonevent, event float64) float64 {
	total := nonevent + event
	if total == 0 {
		return 0
	}
	return event / total
}

// WoE computes the Weight of Evidence of a bin:
//
//	ln( (nonevent / totalNonevent) / (event / totalEvent) )
//
// A bin holding only one class has infinite WoE; callers are expected to
// have eliminated such bins during refinement. WoE returns 0 when either
// bin count is zero so degenerate single-bin solutions stay finite.
func WoE(nonevent, event, totalNonevent, totalEvent float64) float64 {
	if nonevent == 0 || event == 0 || totalNonevent == 0 || totalEvent == 0 {
		return 0
	}
	return math.Log((nonevent / totalNonevent) / (event / totalEvent))
}

// IVContribution computes a bin's Information Value term:
//
//	(nonevent% - event%) * WoE
//
// Summing contributions over all bins yields the IV of the binning.
func IVContribution(nonevent, event, totalNonevent, totalEvent float64) float64 {
	if totalNonevent == 0 || totalEvent == 0 {
		return 0
	}
	return (nonevent/totalNonevent - event/totalEvent) *
		WoE(nonevent, event, totalNonevent, totalEvent)
}

// PValueZTest performs a two-sided two-proportion Z-test comparing the event
// rates of two bins, using the pooled proportion for the standard error.
// event1/total1 and event2/total2 are the per-bin event counts and sizes.
//
// Returns the p-value; small values mean the bins are significantly
// different. An error is returned when either bin is empty.
func PValueZTest(event1, total1, event2, total2 float64) (float64, error) {
	if total1 <= 0 || total2 <= 0 {
		return 0, binngoErrors.NewValueError("PValueZTest", "bin totals must be positive")
	}

	p1 := event1 / total1
	p2 := event2 / total2
	pooled := (event1 + event2) / (total1 + total2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/total1 + 1/total2))
	if se == 0 {
		// Identical degenerate rates: the bins are indistinguishable.
		return 1, nil
	}

	z := math.Abs(p1-p2) / se
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	return 2 * normal.Survival(z), nil
}
