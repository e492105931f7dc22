package binning

import (
	"errors"
	"math"
	"testing"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
	"github.com/ezoic/binngo/metrics"
)

// fittedCounts is a small fitted surface shared by the transform tests:
// splits {2.5, 4.5}, three bins plus special and missing buckets.
var (
	fittedSplits   = []float64{2.5, 4.5}
	fittedNonEvent = []int{18, 10, 2}
	fittedEvent    = []int{2, 10, 18}
)

const (
	fittedNESpecial = 3
	fittedEVSpecial = 1
	fittedNEMissing = 1
	fittedEVMissing = 3
)

func transformWith(t *testing.T, x []float64, cfg transformConfig) []float64 {
	t.Helper()
	out, err := transformBinaryTarget("test", fittedSplits, fittedNonEvent, fittedEvent,
		fittedNESpecial, fittedEVSpecial, fittedNEMissing, fittedEVMissing,
		[]float64{-999}, x, cfg)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	return out
}

func TestTransformWoE(t *testing.T) {
	out := transformWith(t, []float64{1, 2.5, 3, 6}, transformConfig{metric: MetricWoE})

	totNE := float64(18 + 10 + 2 + fittedNESpecial + fittedNEMissing)
	totEV := float64(2 + 10 + 18 + fittedEVSpecial + fittedEVMissing)

	want0 := metrics.WoE(18, 2, totNE, totEV)
	if math.Abs(out[0]-want0) > 1e-12 {
		t.Errorf("bin 0 WoE = %f, want %f", out[0], want0)
	}
	if out[0] != out[1] {
		t.Errorf("2.5 must fall in the lower bin: %f != %f", out[1], out[0])
	}
	if out[2] == out[0] {
		t.Error("3 must fall in the middle bin, not the first")
	}
	// Nonevent-heavy bins carry positive WoE, event-heavy bins negative.
	if out[0] <= 0 || out[3] >= 0 {
		t.Errorf("expected WoE signs (+, -), got %f and %f", out[0], out[3])
	}
}

func TestTransformEventRate(t *testing.T) {
	out := transformWith(t, []float64{1, 3, 6}, transformConfig{metric: MetricEventRate})

	wants := []float64{0.1, 0.5, 0.9}
	for i := range wants {
		if math.Abs(out[i]-wants[i]) > 1e-12 {
			t.Errorf("bin %d rate = %f, want %f", i, out[i], wants[i])
		}
	}
}

func TestTransformIndices(t *testing.T) {
	nan := math.NaN()
	out := transformWith(t, []float64{1, 3, 6, -999, nan}, transformConfig{metric: MetricIndices})

	wants := []float64{0, 1, 2, 3, 4} // Special and missing take the slots past the bins.
	for i := range wants {
		if out[i] != wants[i] {
			t.Errorf("index %d = %f, want %f", i, out[i], wants[i])
		}
	}
}

func TestTransformSubstitutes(t *testing.T) {
	nan := math.NaN()

	// Default substitutes are zero.
	out := transformWith(t, []float64{-999, nan}, transformConfig{metric: MetricWoE})
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("default substitutes must be 0, got %v", out)
	}

	// Fixed substitutes.
	out = transformWith(t, []float64{-999, nan}, transformConfig{
		metric:  MetricWoE,
		special: metricSubstitute{value: -1.5},
		missing: metricSubstitute{value: 2.5},
	})
	if out[0] != -1.5 || out[1] != 2.5 {
		t.Errorf("fixed substitutes not applied: %v", out)
	}

	// Empirical substitutes use the buckets' own statistics.
	out = transformWith(t, []float64{-999, nan}, transformConfig{
		metric:  MetricEventRate,
		special: metricSubstitute{empirical: true},
		missing: metricSubstitute{empirical: true},
	})
	if math.Abs(out[0]-0.25) > 1e-12 {
		t.Errorf("empirical special rate = %f, want 0.25", out[0])
	}
	if math.Abs(out[1]-0.75) > 1e-12 {
		t.Errorf("empirical missing rate = %f, want 0.75", out[1])
	}
}

func TestTransformIndicesRejectEmpirical(t *testing.T) {
	_, err := transformBinaryTarget("test", fittedSplits, fittedNonEvent, fittedEvent,
		fittedNESpecial, fittedEVSpecial, fittedNEMissing, fittedEVMissing,
		nil, []float64{1}, transformConfig{
			metric:  MetricIndices,
			special: metricSubstitute{empirical: true},
		})
	if err == nil {
		t.Fatal("expected error for empirical substitution under indices")
	}
	var vErr *binngoErrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTransformDimensionMismatch(t *testing.T) {
	_, err := transformBinaryTarget("test", fittedSplits, []int{1, 2}, []int{1, 2},
		0, 0, 0, 0, nil, []float64{1}, transformConfig{metric: MetricWoE})
	if err == nil {
		t.Fatal("expected dimension error for 2 bins against 2 splits")
	}
	var dErr *binngoErrors.DimensionError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
}

func TestTransformUnknownMetric(t *testing.T) {
	_, err := transformBinaryTarget("test", fittedSplits, fittedNonEvent, fittedEvent,
		0, 0, 0, 0, nil, []float64{1}, transformConfig{metric: "median"})
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestTransformIntervalLabels(t *testing.T) {
	nan := math.NaN()
	out := transformIntervals(fittedSplits, []float64{-999}, []float64{1, 3, 6, nan, -999}, 2)

	wants := []string{"(-inf, 2.50]", "(2.50, 4.50]", "(4.50, inf)", "Missing", "Special"}
	for i := range wants {
		if out[i] != wants[i] {
			t.Errorf("label %d = %q, want %q", i, out[i], wants[i])
		}
	}
}

func TestTransformIntervalsNoSplits(t *testing.T) {
	out := transformIntervals(nil, nil, []float64{-5, 0, 5}, 2)
	for _, label := range out {
		if label != "(-inf, inf)" {
			t.Errorf("single bin must span the whole line, got %q", label)
		}
	}
}
