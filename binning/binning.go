// Package binning implements scenario-based stochastic optimal binning of a
// numerical variable with respect to a binary target.
//
// Given a finite number of weighted data scenarios (for example economic
// stress scenarios in credit-risk modeling), ScenarioBinning computes one
// discretization that is feasible for every scenario simultaneously: the
// extensive form of the stochastic optimal binning problem. The pipeline
// partitions each scenario's records into clean, missing and special-code
// subsets, generates candidate splits on the pooled clean data, iteratively
// removes candidate bins that are pure in any scenario, and solves a
// combinatorial selection problem maximizing the expected information value
// under monotonicity, bin-count, per-scenario bin-size, event-rate-gap and
// significance constraints.
//
// Example usage:
//
//	sb := binning.NewScenarioBinning(
//	    binning.WithName("ltv"),
//	    binning.WithMonotonicTrend(binning.TrendAscending),
//	)
//	if err := sb.Fit(X, Y, weights); err != nil {
//	    log.Fatal(err)
//	}
//	woe, err := sb.Transform(x)
package binning

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ezoic/binngo/core/model"
	binngoErrors "github.com/ezoic/binngo/pkg/errors"
	"github.com/ezoic/binngo/pkg/log"
	"github.com/ezoic/binngo/solver"
)

// FitInfo is the immutable record of a completed fit: problem dimensions,
// refinement and solver outcomes, and per-phase timings.
type FitInfo struct {
	NScenarios       int
	NSamples         int
	NSamplesScenario []int
	NPrebins         int
	NRefinements     int

	Status         solver.Status
	ObjectiveValue float64
	SolverNodes    int64

	TimePreprocessing  time.Duration
	TimePrebinning     time.Duration
	TimeSolver         time.Duration
	TimePostprocessing time.Duration
	TimeTotal          time.Duration
}

// ScenarioBinning is the scenario-based optimal binning estimator.
// Configure it with functional options, fit it once with Fit, then read the
// fitted surface through Splits, Status, BinningTable and Transform.
type ScenarioBinning struct {
	state  *model.StateManager
	cfg    config
	logger log.Logger

	// Fitted state, set exactly once by a successful Fit.
	splitsOptimal []float64
	solution      []bool
	status        solver.Status
	info          FitInfo

	nonevent        []int // Aggregate per final bin, summed across scenarios.
	event           []int
	nonEventSpecial int
	eventSpecial    int
	nonEventMissing int
	eventMissing    int

	table  *BinningTable
	tables []*BinningTable
}

// NewScenarioBinning creates a scenario-based optimal binning estimator.
func NewScenarioBinning(opts ...Option) *ScenarioBinning {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &ScenarioBinning{
		state: model.NewStateManager(),
		cfg:   cfg,
	}
	b.logger = log.GetLoggerWithName("binning").With(
		log.ModelNameKey, "ScenarioBinning",
	)
	return b
}

// Fit computes the optimal binning given a list of scenarios. X and Y hold
// one feature vector and one binary label vector per scenario; weights are
// the scenario weights (nil means equally weighted).
func (b *ScenarioBinning) Fit(X [][]float64, Y [][]int, weights []float64) (err error) {
	defer binngoErrors.Recover(&err, "ScenarioBinning.Fit")

	const op = "ScenarioBinning.Fit"
	timeInit := time.Now()

	if err := b.cfg.validate(op); err != nil {
		return err
	}
	if err := checkScenarios(op, X, Y, weights); err != nil {
		return err
	}

	nScenarios := len(X)
	nSamplesScenario := make([]int, nScenarios)
	nSamples := 0
	for s := range X {
		nSamplesScenario[s] = len(X[s])
		nSamples += len(X[s])
	}

	b.logger.Info("optimal binning started",
		log.OperationKey, log.OperationFit,
		log.ScenariosKey, nScenarios,
		log.SamplesKey, nSamples,
	)

	// Preprocessing: partition each scenario into clean/missing/special.
	timePreprocessing := time.Now()
	data := splitScenarioData(X, Y, b.cfg.specialCodes)
	durPreprocessing := time.Since(timePreprocessing)

	// Prebinning: candidate splits from user input or the heuristic
	// generator, then refinement to eliminate pure prebins.
	timePrebinning := time.Now()

	var candidates []float64
	var fixed []bool
	if b.cfg.userSplits != nil {
		candidates, fixed, err = b.prepareUserSplits(op)
		if err != nil {
			return err
		}
	} else {
		candidates, err = b.fitPrebinning(op, data, weights, nSamples)
		if err != nil {
			return err
		}
	}

	refined, err := refine(op, candidates, fixed, data.xClean, data.yClean)
	if err != nil {
		return err
	}
	nPrebins := refined.counts.nBins()
	durPrebinning := time.Since(timePrebinning)

	b.logger.Info("prebinning terminated",
		log.PhaseKey, log.PhasePrebinning,
		log.PrebinsKey, nPrebins,
		"n_refinements", refined.nRefinements,
	)

	// Optimization.
	timeSolver := time.Now()
	status, selection, objective, nodes, err := b.fitOptimizer(refined, weights, nSamplesScenario)
	if err != nil {
		return err
	}
	durSolver := time.Since(timeSolver)

	splitsOptimal := make([]float64, 0, len(refined.splits))
	for i, s := range refined.splits {
		if selection[i] {
			splitsOptimal = append(splitsOptimal, s)
		}
	}

	// Postprocessing: per-scenario and aggregate binning tables. Final
	// bin counts are recomputed against the optimal splits so the tables
	// and the transform agree bin for bin.
	timePostprocessing := time.Now()
	finalCounts := computeCounts(splitsOptimal, data.xClean, data.yClean)

	nFinalBins := finalCounts.nBins()
	aggNE := make([]int, nFinalBins)
	aggEV := make([]int, nFinalBins)
	b.tables = make([]*BinningTable, nScenarios)
	var aggNESpecial, aggEVSpecial, aggNEMissing, aggEVMissing int

	for s := 0; s < nScenarios; s++ {
		neS := make([]int, nFinalBins)
		evS := make([]int, nFinalBins)
		for i := 0; i < nFinalBins; i++ {
			neS[i] = finalCounts.nonevent[i][s]
			evS[i] = finalCounts.event[i][s]
			aggNE[i] += neS[i]
			aggEV[i] += evS[i]
		}
		aggNESpecial += data.nonEventSpecial[s]
		aggEVSpecial += data.eventSpecial[s]
		aggNEMissing += data.nonEventMissing[s]
		aggEVMissing += data.eventMissing[s]

		b.tables[s] = newBinningTable(
			fmt.Sprintf("%s (scenario %d)", b.cfg.name, s), splitsOptimal, neS, evS,
			data.nonEventSpecial[s], data.eventSpecial[s],
			data.nonEventMissing[s], data.eventMissing[s])
	}

	b.table = newBinningTable(b.cfg.name, splitsOptimal, aggNE, aggEV,
		aggNESpecial, aggEVSpecial, aggNEMissing, aggEVMissing)
	durPostprocessing := time.Since(timePostprocessing)

	b.splitsOptimal = splitsOptimal
	b.solution = selection
	b.status = status
	b.nonevent = aggNE
	b.event = aggEV
	b.nonEventSpecial = aggNESpecial
	b.eventSpecial = aggEVSpecial
	b.nonEventMissing = aggNEMissing
	b.eventMissing = aggEVMissing

	b.info = FitInfo{
		NScenarios:         nScenarios,
		NSamples:           nSamples,
		NSamplesScenario:   nSamplesScenario,
		NPrebins:           nPrebins,
		NRefinements:       refined.nRefinements,
		Status:             status,
		ObjectiveValue:     objective,
		SolverNodes:        nodes,
		TimePreprocessing:  durPreprocessing,
		TimePrebinning:     durPrebinning,
		TimeSolver:         durSolver,
		TimePostprocessing: durPostprocessing,
		TimeTotal:          time.Since(timeInit),
	}

	b.state.SetFitted()

	b.logger.Info("optimal binning terminated",
		log.StatusKey, status.String(),
		log.SplitsKey, len(splitsOptimal),
		log.DurationKey, b.info.TimeTotal,
	)
	return nil
}

// prepareUserSplits sorts and validates user-supplied splits, permuting the
// fixed-flag mask alongside and applying the split-digit rounding.
func (b *ScenarioBinning) prepareUserSplits(op string) ([]float64, []bool, error) {
	n := len(b.cfg.userSplits)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return b.cfg.userSplits[order[i]] < b.cfg.userSplits[order[j]]
	})

	splits := make([]float64, n)
	for i, idx := range order {
		splits[i] = b.cfg.userSplits[idx]
		if math.IsNaN(splits[i]) || math.IsInf(splits[i], 0) {
			return nil, nil, binngoErrors.NewValidationError(op, "user splits must be finite")
		}
	}

	var fixed []bool
	if b.cfg.userSplitsFixed != nil {
		fixed = make([]bool, n)
		for i, idx := range order {
			fixed[i] = b.cfg.userSplitsFixed[idx]
		}
	}

	splits = roundSplits(splits, b.cfg.splitDigits)
	for i := 1; i < len(splits); i++ {
		if splits[i] == splits[i-1] {
			return nil, nil, binngoErrors.NewValidationError(op, "user splits are not unique")
		}
	}
	return splits, fixed, nil
}

// fitPrebinning pools the clean data of all scenarios, weighting each
// sample by its scenario weight, and runs the candidate split generator.
func (b *ScenarioBinning) fitPrebinning(op string, data *scenarioData, weights []float64, nSamples int) ([]float64, error) {
	var pooledX []float64
	var pooledY []int
	var pooledW []float64
	for s := 0; s < data.nScenarios(); s++ {
		pooledX = append(pooledX, data.xClean[s]...)
		pooledY = append(pooledY, data.yClean[s]...)
		w := 1.0
		if weights != nil {
			w = weights[s]
		}
		for range data.xClean[s] {
			pooledW = append(pooledW, w)
		}
	}
	if len(pooledX) == 0 {
		return nil, binngoErrors.NewModelError(op, "no clean samples across scenarios",
			binngoErrors.ErrEmptyData)
	}

	minBinSize := int(math.Ceil(b.cfg.minPrebinSize * float64(nSamples)))
	pb := preBinning{
		method:     b.cfg.prebinningMethod,
		maxNBins:   b.cfg.maxNPrebins,
		minBinSize: minBinSize,
	}
	splits, err := pb.fit(pooledX, pooledY, pooledW)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(roundSplits(splits, b.cfg.splitDigits)), nil
}

// fitOptimizer solves the extensive-form selection problem, or
// short-circuits to a trivially optimal empty selection when refinement
// left no candidate splits.
func (b *ScenarioBinning) fitOptimizer(refined refinementResult, weights []float64,
	nSamplesScenario []int) (solver.Status, []bool, float64, int64, error) {

	if refined.counts.nBins() == 0 {
		b.logger.Warn("no prebins after refinement; solver not run",
			log.PhaseKey, log.PhaseOptimization,
		)
		return solver.StatusOptimal, nil, 0, 0, nil
	}

	nScenarios := refined.counts.nScenarios()
	if weights == nil {
		weights = make([]float64, nScenarios)
		for s := range weights {
			weights[s] = 1
		}
	}

	var minBinSize, maxBinSize []int
	if b.cfg.minBinSize > 0 {
		minBinSize = make([]int, nScenarios)
		for s := range minBinSize {
			minBinSize[s] = int(math.Ceil(b.cfg.minBinSize * float64(nSamplesScenario[s])))
		}
	}
	if b.cfg.maxBinSize > 0 {
		maxBinSize = make([]int, nScenarios)
		for s := range maxBinSize {
			maxBinSize[s] = int(math.Ceil(b.cfg.maxBinSize * float64(nSamplesScenario[s])))
		}
	}

	opt := &binningOptimizer{
		trend:            b.cfg.monotonicTrend,
		minNBins:         b.cfg.minNBins,
		maxNBins:         b.cfg.maxNBins,
		minBinSize:       minBinSize,
		maxBinSize:       maxBinSize,
		minEventRateDiff: b.cfg.minEventRateDiff,
		maxPValue:        b.cfg.maxPValue,
		pvaluePolicy:     b.cfg.pvaluePolicy,
		fixedSplits:      refined.fixed,
		timeLimit:        b.cfg.timeLimit,
	}
	opt.buildModelScenarios(refined.counts.nonevent, refined.counts.event, weights)

	status, selection, sol, err := opt.solve()
	if err != nil {
		return solver.StatusUnknown, nil, 0, 0, err
	}
	return status, selection, sol.Objective(), sol.NodesExplored, nil
}

// Transform maps raw values to the chosen metric (WoE by default) using the
// fitted optimal splits. Special codes and missing values are substituted
// according to the transform options.
func (b *ScenarioBinning) Transform(x []float64, opts ...TransformOption) (result []float64, err error) {
	defer binngoErrors.Recover(&err, "ScenarioBinning.Transform")

	if !b.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("ScenarioBinning", "Transform")
	}

	cfg := transformConfig{metric: MetricWoE}
	for _, opt := range opts {
		opt(&cfg)
	}
	return transformBinaryTarget("ScenarioBinning.Transform", b.splitsOptimal,
		b.nonevent, b.event,
		b.nonEventSpecial, b.eventSpecial, b.nonEventMissing, b.eventMissing,
		b.cfg.specialCodes, x, cfg)
}

// TransformIntervals maps raw values to bin interval labels with the given
// number of significant digits.
func (b *ScenarioBinning) TransformIntervals(x []float64, showDigits int) ([]string, error) {
	if !b.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("ScenarioBinning", "TransformIntervals")
	}
	return transformIntervals(b.splitsOptimal, b.cfg.specialCodes, x, showDigits), nil
}

// FitTransform fits the binning on the scenarios, then transforms x.
func (b *ScenarioBinning) FitTransform(x []float64, X [][]float64, Y [][]int,
	weights []float64, opts ...TransformOption) ([]float64, error) {

	if err := b.Fit(X, Y, weights); err != nil {
		return nil, err
	}
	return b.Transform(x, opts...)
}

// Splits returns the optimal split points.
func (b *ScenarioBinning) Splits() ([]float64, error) {
	if !b.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("ScenarioBinning", "Splits")
	}
	return append([]float64(nil), b.splitsOptimal...), nil
}

// Status returns the solver status of the fit. A non-optimal status is a
// valid terminal outcome, not an error.
func (b *ScenarioBinning) Status() (solver.Status, error) {
	if !b.state.IsFitted() {
		return solver.StatusUnknown, binngoErrors.NewNotFittedError("ScenarioBinning", "Status")
	}
	return b.status, nil
}

// Info returns the fit record: dimensions, refinement count, solver outcome
// and phase timings.
func (b *ScenarioBinning) Info() (FitInfo, error) {
	if !b.state.IsFitted() {
		return FitInfo{}, binngoErrors.NewNotFittedError("ScenarioBinning", "Info")
	}
	return b.info, nil
}

// BinningTable returns the aggregate binning table, summing counts across
// all scenarios.
func (b *ScenarioBinning) BinningTable() (*BinningTable, error) {
	if !b.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("ScenarioBinning", "BinningTable")
	}
	return b.table, nil
}

// BinningTableScenario returns the binning table of one scenario.
func (b *ScenarioBinning) BinningTableScenario(scenarioID int) (*BinningTable, error) {
	if !b.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("ScenarioBinning", "BinningTableScenario")
	}
	if scenarioID < 0 || scenarioID >= len(b.tables) {
		return nil, binngoErrors.NewValueError("ScenarioBinning.BinningTableScenario",
			fmt.Sprintf("scenario id must be in [0, %d); got %d", len(b.tables), scenarioID))
	}
	return b.tables[scenarioID], nil
}
