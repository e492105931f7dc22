package errors_test

import (
	"errors"
	"fmt"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

func ExampleNewValidationError() {
	err := binngoErrors.NewValidationError("ScenarioBinning.Fit",
		"min prebin size must be in (0, 0.5]; got 0.75")
	fmt.Println(err)
	// Output:
	// binngo: ScenarioBinning.Fit: invalid parameter: min prebin size must be in (0, 0.5]; got 0.75
}

func ExampleNewNotFittedError() {
	err := binngoErrors.NewNotFittedError("ScenarioBinning", "Transform")
	fmt.Println(err)
	fmt.Println(errors.Is(err, binngoErrors.ErrNotFitted))
	// Output:
	// binngo: ScenarioBinning.Transform: ScenarioBinning instance is not fitted yet; call Fit before using this method
	// true
}

func ExampleNewDimensionError() {
	err := binngoErrors.NewDimensionError("transform", 3, 2, 0)
	fmt.Println(err)
	// Output:
	// binngo: transform: dimension mismatch at index 0: expected 3, got 2
}

func ExampleNewFixedSplitConflictError() {
	err := binngoErrors.NewFixedSplitConflictError("ScenarioBinning.Fit", []float64{2.5, 30})

	var conflict *binngoErrors.FixedSplitConflictError
	if errors.As(err, &conflict) {
		fmt.Println(conflict.Splits)
	}
	fmt.Println(err)
	// Output:
	// [2.5 30]
	// binngo: ScenarioBinning.Fit: fixed user splits [2.5, 30] are removed because they produce pure prebins; provide different splits to be fixed
}

func ExampleRecover() {
	run := func() (err error) {
		defer binngoErrors.Recover(&err, "ScenarioBinning.Fit")
		panic("index out of range")
	}
	fmt.Println(run())
	// Output:
	// binngo: ScenarioBinning.Fit: panic: index out of range
}
