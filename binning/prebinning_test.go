package binning

import (
	"errors"
	"math"
	"testing"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

func TestPreBinningCART(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}

	pb := preBinning{method: MethodCART, maxNBins: 4, minBinSize: 2}
	splits, err := pb.fit(x, y, nil)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	found := false
	for _, s := range splits {
		if math.Abs(s-4.5) < 1e-12 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected split 4.5 in %v", splits)
	}
}

func TestPreBinningQuantile(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = float64(i + 1)
	}

	pb := preBinning{method: MethodQuantile, maxNBins: 4}
	splits, err := pb.fit(x, nil, nil)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	if len(splits) != 3 {
		t.Fatalf("expected 3 quantile splits, got %v", splits)
	}
	for i, s := range splits {
		if s <= 1 || s >= 100 {
			t.Errorf("split %f outside the data range", s)
		}
		if i > 0 && splits[i] <= splits[i-1] {
			t.Errorf("splits must be strictly increasing: %v", splits)
		}
	}

	// Each split lands near its quantile of the uniform grid.
	wants := []float64{25, 50, 75}
	for i := range splits {
		if math.Abs(splits[i]-wants[i]) > 1.5 {
			t.Errorf("split %d = %f, want near %f", i, splits[i], wants[i])
		}
	}
}

func TestPreBinningUniform(t *testing.T) {
	x := []float64{0, 10}

	pb := preBinning{method: MethodUniform, maxNBins: 5}
	splits, err := pb.fit(x, nil, nil)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	wants := []float64{2, 4, 6, 8}
	if len(splits) != len(wants) {
		t.Fatalf("expected %v, got %v", wants, splits)
	}
	for i := range wants {
		if math.Abs(splits[i]-wants[i]) > 1e-12 {
			t.Errorf("split %d = %f, want %f", i, splits[i], wants[i])
		}
	}
}

func TestPreBinningUniformConstantData(t *testing.T) {
	x := []float64{3, 3, 3, 3}

	pb := preBinning{method: MethodUniform, maxNBins: 4}
	splits, err := pb.fit(x, nil, nil)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	// Zero-width data collapses to a single candidate, never duplicates.
	if len(splits) > 1 {
		t.Errorf("expected at most one split for constant data, got %v", splits)
	}
}

func TestPreBinningEmptyData(t *testing.T) {
	pb := preBinning{method: MethodCART, maxNBins: 4}
	if _, err := pb.fit(nil, nil, nil); !errors.Is(err, binngoErrors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
}

func TestRoundSplits(t *testing.T) {
	splits := []float64{1.2345, 2.7182, 3.1415}

	rounded := roundSplits(splits, 2)
	wants := []float64{1.23, 2.72, 3.14}
	for i := range wants {
		if math.Abs(rounded[i]-wants[i]) > 1e-12 {
			t.Errorf("split %d = %f, want %f", i, rounded[i], wants[i])
		}
	}

	zero := roundSplits(splits, 0)
	for i, want := range []float64{1, 3, 3} {
		if zero[i] != want {
			t.Errorf("integer rounding: split %d = %f, want %f", i, zero[i], want)
		}
	}

	// Negative digits disable rounding; length and order are always kept.
	kept := roundSplits(splits, -1)
	if len(kept) != len(splits) || kept[0] != splits[0] {
		t.Errorf("digits -1 must pass splits through, got %v", kept)
	}
	if len(zero) != len(splits) {
		t.Errorf("rounding must preserve length even when values collide: %v", zero)
	}
}

func TestUniqueSorted(t *testing.T) {
	got := uniqueSorted([]float64{3, 1, 2, 3, 1})
	wants := []float64{1, 2, 3}
	if len(got) != len(wants) {
		t.Fatalf("expected %v, got %v", wants, got)
	}
	for i := range wants {
		if got[i] != wants[i] {
			t.Errorf("index %d = %f, want %f", i, got[i], wants[i])
		}
	}
	if out := uniqueSorted(nil); len(out) != 0 {
		t.Errorf("expected empty output for empty input, got %v", out)
	}
}
