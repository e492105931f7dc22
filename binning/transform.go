package binning

import (
	"fmt"
	"math"

	"github.com/ezoic/binngo/metrics"
	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// TransformMetric selects the value assigned to each bin when transforming
// new data through a fitted binning.
type TransformMetric string

const (
	// MetricWoE assigns each bin its Weight of Evidence.
	MetricWoE TransformMetric = "woe"
	// MetricEventRate assigns each bin its event rate.
	MetricEventRate TransformMetric = "event_rate"
	// MetricIndices assigns the bin index. Special values map to index
	// n_bins and missing values to n_bins+1.
	MetricIndices TransformMetric = "indices"
)

// metricSubstitute is the transform value for special or missing inputs:
// either a fixed numeric substitute or "empirical", meaning the fitted
// special/missing bucket's own statistic.
type metricSubstitute struct {
	empirical bool
	value     float64
}

type transformConfig struct {
	metric  TransformMetric
	special metricSubstitute
	missing metricSubstitute
}

// TransformOption configures Transform.
type TransformOption func(*transformConfig)

// WithTransformMetric selects the per-bin metric. Default is WoE.
func WithTransformMetric(m TransformMetric) TransformOption {
	return func(c *transformConfig) { c.metric = m }
}

// WithMetricSpecial substitutes a fixed value for special-code inputs.
func WithMetricSpecial(v float64) TransformOption {
	return func(c *transformConfig) { c.special = metricSubstitute{value: v} }
}

// WithMetricSpecialEmpirical uses the fitted special bucket's own statistic
// for special-code inputs.
func WithMetricSpecialEmpirical() TransformOption {
	return func(c *transformConfig) { c.special = metricSubstitute{empirical: true} }
}

// WithMetricMissing substitutes a fixed value for missing (NaN) inputs.
func WithMetricMissing(v float64) TransformOption {
	return func(c *transformConfig) { c.missing = metricSubstitute{value: v} }
}

// WithMetricMissingEmpirical uses the fitted missing bucket's own statistic
// for missing inputs.
func WithMetricMissingEmpirical() TransformOption {
	return func(c *transformConfig) { c.missing = metricSubstitute{empirical: true} }
}

// transformBinaryTarget maps raw values to the chosen metric through the
// fitted splits and aggregate counts.
func transformBinaryTarget(op string, splits []float64, nonevent, event []int,
	neSpecial, evSpecial, neMissing, evMissing int,
	specialCodes []float64, x []float64, cfg transformConfig) ([]float64, error) {

	nBins := len(nonevent)
	if nBins != len(splits)+1 {
		return nil, binngoErrors.NewDimensionError(op, len(splits)+1, nBins, 0)
	}

	var totNE, totEV float64
	for i := 0; i < nBins; i++ {
		totNE += float64(nonevent[i])
		totEV += float64(event[i])
	}
	totNE += float64(neSpecial + neMissing)
	totEV += float64(evSpecial + evMissing)

	binValue := func(ne, ev int, index int) (float64, error) {
		switch cfg.metric {
		case MetricWoE:
			return metrics.WoE(float64(ne), float64(ev), totNE, totEV), nil
		case MetricEventRate:
			return metrics.EventRate(float64(ne), float64(ev)), nil
		case MetricIndices:
			return float64(index), nil
		default:
			return 0, binngoErrors.NewValidationError(op, fmt.Sprintf(
				"unsupported transform metric %q", cfg.metric))
		}
	}

	values := make([]float64, nBins)
	for i := 0; i < nBins; i++ {
		v, err := binValue(nonevent[i], event[i], i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	substitute := func(sub metricSubstitute, ne, ev, index int) (float64, error) {
		if !sub.empirical {
			return sub.value, nil
		}
		if cfg.metric == MetricIndices {
			return 0, binngoErrors.NewValidationError(op,
				`metric "indices" does not support empirical substitution`)
		}
		return binValue(ne, ev, index)
	}

	specialValue, err := substitute(cfg.special, neSpecial, evSpecial, nBins)
	if err != nil {
		return nil, err
	}
	missingValue, err := substitute(cfg.missing, neMissing, evMissing, nBins+1)
	if err != nil {
		return nil, err
	}
	if cfg.metric == MetricIndices {
		// Fixed substitutes make no sense for indices; route to the
		// reserved out-of-range slots instead.
		specialValue = float64(nBins)
		missingValue = float64(nBins + 1)
	}

	special := make(map[float64]bool, len(specialCodes))
	for _, code := range specialCodes {
		special[code] = true
	}

	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = missingValue
		case special[v]:
			out[i] = specialValue
		default:
			out[i] = values[binIndex(splits, v)]
		}
	}
	return out, nil
}

// transformIntervals maps raw values to bin interval labels with the given
// number of significant digits. Special and missing inputs map to
// "Special" and "Missing".
func transformIntervals(splits []float64, specialCodes []float64, x []float64, showDigits int) []string {
	special := make(map[float64]bool, len(specialCodes))
	for _, code := range specialCodes {
		special[code] = true
	}

	out := make([]string, len(x))
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = "Missing"
		case special[v]:
			out[i] = "Special"
		default:
			out[i] = intervalLabel(splits, binIndex(splits, v), showDigits)
		}
	}
	return out
}
