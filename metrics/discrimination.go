package metrics

import (
	"math"
	"sort"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// Gini calculates the Gini index of a binning from its per-bin class counts.
//
// The Gini index is the accuracy ratio of the binning used as a score: bins
// are ranked by event rate and the index equals 2*AUC - 1 with the usual tie
// correction for records sharing a bin. Values range from 0 (the binning
// carries no rank information) to 1 (the binning separates the classes
// perfectly).
//
// Parameters:
//   - nonevent: Per-bin nonevent counts
//   - event: Per-bin event counts, aligned with nonevent
//
// Returns:
//   - The Gini index
//   - An error if the count slices are misaligned
func Gini(nonevent, event []int) (float64, error) {
	if len(nonevent) != len(event) {
		return 0, binngoErrors.NewDimensionError("Gini", len(nonevent), len(event), 0)
	}

	type bin struct {
		ne, ev float64
	}
	bins := make([]bin, 0, len(nonevent))
	var totNE, totEV float64
	for i := range nonevent {
		ne, ev := float64(nonevent[i]), float64(event[i])
		if ne+ev == 0 {
			continue
		}
		bins = append(bins, bin{ne: ne, ev: ev})
		totNE += ne
		totEV += ev
	}
	if totNE == 0 || totEV == 0 {
		return 0, nil
	}

	sort.Slice(bins, func(i, j int) bool {
		return bins[i].ev/(bins[i].ev+bins[i].ne) < bins[j].ev/(bins[j].ev+bins[j].ne)
	})

	// AUC over the ranked bins; records within a bin are ties.
	var auc, cumNE float64
	for _, b := range bins {
		auc += b.ev * (cumNE + 0.5*b.ne)
		cumNE += b.ne
	}
	auc /= totEV * totNE

	return math.Abs(2*auc - 1), nil
}

// KolmogorovSmirnov calculates the KS statistic of a binning: the maximum
// distance between the cumulative nonevent and event distributions over the
// ordered bins. Bins must be given in their natural value order.
func KolmogorovSmirnov(nonevent, event []int) (float64, error) {
	if len(nonevent) != len(event) {
		return 0, binngoErrors.NewDimensionError("KolmogorovSmirnov", len(nonevent), len(event), 0)
	}

	var totNE, totEV float64
	for i := range nonevent {
		totNE += float64(nonevent[i])
		totEV += float64(event[i])
	}
	if totNE == 0 || totEV == 0 {
		return 0, nil
	}

	var ks, cumNE, cumEV float64
	for i := range nonevent {
		cumNE += float64(nonevent[i])
		cumEV += float64(event[i])
		d := math.Abs(cumNE/totNE - cumEV/totEV)
		if d > ks {
			ks = d
		}
	}
	return ks, nil
}
