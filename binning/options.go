package binning

import (
	"fmt"
	"time"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// PrebinningMethod selects the candidate split generator.
type PrebinningMethod string

const (
	// MethodCART generates candidate splits with a decision tree.
	MethodCART PrebinningMethod = "cart"
	// MethodQuantile generates prebins with approximately equal frequency.
	MethodQuantile PrebinningMethod = "quantile"
	// MethodUniform generates prebins with equal width.
	MethodUniform PrebinningMethod = "uniform"
)

// MonotonicTrend constrains the aggregate event-rate curve of the final
// binning.
type MonotonicTrend string

const (
	TrendNone       MonotonicTrend = "none"
	TrendAscending  MonotonicTrend = "ascending"
	TrendDescending MonotonicTrend = "descending"
	TrendConvex     MonotonicTrend = "convex"
	TrendConcave    MonotonicTrend = "concave"
	TrendPeak       MonotonicTrend = "peak"
	TrendValley     MonotonicTrend = "valley"
)

// PValuePolicy selects which bin pairs the significance constraint compares.
type PValuePolicy string

const (
	// PolicyConsecutive compares consecutive bins only.
	PolicyConsecutive PValuePolicy = "consecutive"
	// PolicyAll compares all bin pairs.
	PolicyAll PValuePolicy = "all"
)

// config holds the full estimator configuration. Values are validated
// eagerly at the start of Fit, before any data is touched.
type config struct {
	name             string
	prebinningMethod PrebinningMethod
	maxNPrebins      int
	minPrebinSize    float64

	minNBins   int     // 0 = unset
	maxNBins   int     // 0 = unset
	minBinSize float64 // 0 = unset, fraction of a scenario's sample count
	maxBinSize float64 // 0 = unset

	monotonicTrend   MonotonicTrend
	minEventRateDiff float64
	maxPValue        float64 // 0 = disabled
	pvaluePolicy     PValuePolicy

	userSplits      []float64
	userSplitsFixed []bool
	specialCodes    []float64
	splitDigits     int // -1 = keep all significant digits

	timeLimit time.Duration
}

func defaultConfig() config {
	return config{
		prebinningMethod: MethodCART,
		maxNPrebins:      20,
		minPrebinSize:    0.05,
		monotonicTrend:   TrendNone,
		pvaluePolicy:     PolicyConsecutive,
		splitDigits:      -1,
		timeLimit:        100 * time.Second,
	}
}

func (c *config) validate(op string) error {
	switch c.prebinningMethod {
	case MethodCART, MethodQuantile, MethodUniform:
	default:
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			`prebinning method must be "cart", "quantile" or "uniform"; got %q`, c.prebinningMethod))
	}

	if c.maxNPrebins <= 1 {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"max n prebins must be an integer greater than 1; got %d", c.maxNPrebins))
	}

	if c.minPrebinSize <= 0 || c.minPrebinSize > 0.5 {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"min prebin size must be in (0, 0.5]; got %g", c.minPrebinSize))
	}

	if c.minNBins < 0 || c.maxNBins < 0 {
		return binngoErrors.NewValidationError(op, "min/max n bins must be positive integers")
	}
	if c.minNBins > 0 && c.maxNBins > 0 && c.minNBins > c.maxNBins {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"min n bins must be <= max n bins; got %d > %d", c.minNBins, c.maxNBins))
	}

	if c.minBinSize != 0 && (c.minBinSize < 0 || c.minBinSize > 0.5) {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"min bin size must be in (0, 0.5]; got %g", c.minBinSize))
	}
	if c.maxBinSize != 0 && (c.maxBinSize < 0 || c.maxBinSize > 1.0) {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"max bin size must be in (0, 1.0]; got %g", c.maxBinSize))
	}
	if c.minBinSize != 0 && c.maxBinSize != 0 && c.minBinSize > c.maxBinSize {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"min bin size must be <= max bin size; got %g > %g", c.minBinSize, c.maxBinSize))
	}

	switch c.monotonicTrend {
	case TrendNone, TrendAscending, TrendDescending, TrendConvex, TrendConcave, TrendPeak, TrendValley:
	default:
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"invalid monotonic trend %q", c.monotonicTrend))
	}

	if c.minEventRateDiff < 0 || c.minEventRateDiff > 1 {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"min event rate diff must be in [0, 1]; got %g", c.minEventRateDiff))
	}

	if c.maxPValue != 0 && (c.maxPValue < 0 || c.maxPValue > 1) {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"max p-value must be in (0, 1.0]; got %g", c.maxPValue))
	}

	switch c.pvaluePolicy {
	case PolicyConsecutive, PolicyAll:
	default:
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			`max p-value policy must be "all" or "consecutive"; got %q`, c.pvaluePolicy))
	}

	if c.userSplitsFixed != nil {
		if c.userSplits == nil {
			return binngoErrors.NewValidationError(op, "user splits must be provided when fixing splits")
		}
		if len(c.userSplitsFixed) != len(c.userSplits) {
			return binngoErrors.NewValidationError(op, fmt.Sprintf(
				"inconsistent length of user splits and fixed flags: %d != %d",
				len(c.userSplits), len(c.userSplitsFixed)))
		}
	}

	if c.splitDigits != -1 && (c.splitDigits < 0 || c.splitDigits > 8) {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"split digits must be an integer in [0, 8]; got %d", c.splitDigits))
	}

	if c.timeLimit < 0 {
		return binngoErrors.NewValidationError(op, fmt.Sprintf(
			"time limit must be a positive duration; got %s", c.timeLimit))
	}

	return nil
}

// Option is a functional option for ScenarioBinning.
type Option func(*config)

// WithName sets the variable name used in binning tables and logs.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithPrebinningMethod selects the candidate split generator.
func WithPrebinningMethod(method PrebinningMethod) Option {
	return func(c *config) { c.prebinningMethod = method }
}

// WithMaxNPrebins sets the maximum number of prebins.
func WithMaxNPrebins(n int) Option {
	return func(c *config) { c.maxNPrebins = n }
}

// WithMinPrebinSize sets the minimum fraction of records per prebin.
func WithMinPrebinSize(fraction float64) Option {
	return func(c *config) { c.minPrebinSize = fraction }
}

// WithMinNBins sets the minimum number of final bins.
func WithMinNBins(n int) Option {
	return func(c *config) { c.minNBins = n }
}

// WithMaxNBins sets the maximum number of final bins.
func WithMaxNBins(n int) Option {
	return func(c *config) { c.maxNBins = n }
}

// WithMinBinSize sets the minimum fraction of records per final bin,
// enforced independently in every scenario against that scenario's own
// sample count.
func WithMinBinSize(fraction float64) Option {
	return func(c *config) { c.minBinSize = fraction }
}

// WithMaxBinSize sets the maximum fraction of records per final bin,
// enforced per scenario like WithMinBinSize.
func WithMaxBinSize(fraction float64) Option {
	return func(c *config) { c.maxBinSize = fraction }
}

// WithMonotonicTrend constrains the aggregate event-rate curve.
func WithMonotonicTrend(trend MonotonicTrend) Option {
	return func(c *config) { c.monotonicTrend = trend }
}

// WithMinEventRateDiff sets the minimum aggregate event-rate difference
// between consecutive bins. Only active together with a monotonic trend.
func WithMinEventRateDiff(diff float64) Option {
	return func(c *config) { c.minEventRateDiff = diff }
}

// WithMaxPValue enables the Z-test significance constraint between bins.
func WithMaxPValue(p float64) Option {
	return func(c *config) { c.maxPValue = p }
}

// WithMaxPValuePolicy selects which bin pairs the significance constraint
// compares.
func WithMaxPValuePolicy(policy PValuePolicy) Option {
	return func(c *config) { c.pvaluePolicy = policy }
}

// WithUserSplits supplies candidate split points, bypassing prebinning.
func WithUserSplits(splits []float64) Option {
	return func(c *config) { c.userSplits = splits }
}

// WithUserSplitsFixed marks user splits as non-removable by refinement and
// optimization. Must align with WithUserSplits.
func WithUserSplitsFixed(fixed []bool) Option {
	return func(c *config) { c.userSplitsFixed = fixed }
}

// WithSpecialCodes declares data values that must be binned separately.
func WithSpecialCodes(codes []float64) Option {
	return func(c *config) { c.specialCodes = codes }
}

// WithSplitDigits rounds candidate splits to the given number of digits
// before refinement. Zero makes the splits integers.
func WithSplitDigits(digits int) Option {
	return func(c *config) { c.splitDigits = digits }
}

// WithTimeLimit bounds the optimization solver's wall-clock runtime.
func WithTimeLimit(limit time.Duration) Option {
	return func(c *config) { c.timeLimit = limit }
}
