// Package solver provides a small boolean constraint-optimization backend
// behind a narrow capability interface: declare boolean variables, fix some
// of them, attach constraints and an objective, then solve under a
// wall-clock time limit and read the boolean solution back.
//
// The default engine enumerates assignments of the free variables with
// incumbent tracking and periodic deadline checks. The binning optimizer
// works over at most a few dozen candidate splits, so exhaustive search is
// both exact and fast; any stronger engine (CP, MIP) can be substituted
// behind the same interface.
package solver

import (
	"time"

	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// Status is the terminal state of a solve.
type Status int

const (
	// StatusUnknown means the solver returned without classifying the
	// model. The default engine never produces it.
	StatusUnknown Status = iota

	// StatusOptimal means the search space was exhausted and the best
	// feasible assignment found is provably optimal.
	StatusOptimal

	// StatusFeasible means the time limit expired with a feasible
	// incumbent that is not provably optimal.
	StatusFeasible

	// StatusInfeasible means the search space was exhausted and no
	// assignment satisfies all constraints.
	StatusInfeasible

	// StatusStopped means the time limit expired before any feasible
	// assignment was found.
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// BoolVar identifies a boolean decision variable within its model.
type BoolVar struct {
	index int
	name  string
}

// Name returns the variable's declared name.
func (v BoolVar) Name() string { return v.name }

type constraint struct {
	name string
	fn   func(assign []bool) bool
}

// Model is a boolean constraint-optimization model. Constraints and the
// objective are evaluated on complete assignments, so any predicate
// computable from the assignment vector can be expressed.
type Model struct {
	name        string
	vars        []BoolVar
	fixed       []int8 // -1 free, 0 fixed false, 1 fixed true
	constraints []constraint
	objective   func(assign []bool) float64
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// NewBoolVar declares a boolean decision variable.
func (m *Model) NewBoolVar(name string) BoolVar {
	v := BoolVar{index: len(m.vars), name: name}
	m.vars = append(m.vars, v)
	m.fixed = append(m.fixed, -1)
	return v
}

// FixVar pins a variable to a value, removing it from the search.
func (m *Model) FixVar(v BoolVar, value bool) {
	if value {
		m.fixed[v.index] = 1
	} else {
		m.fixed[v.index] = 0
	}
}

// AddConstraint attaches a named feasibility predicate. An assignment is
// feasible only if every predicate returns true.
func (m *Model) AddConstraint(name string, fn func(assign []bool) bool) {
	m.constraints = append(m.constraints, constraint{name: name, fn: fn})
}

// Maximize sets the objective. Without one, Solve degenerates to a pure
// feasibility search.
func (m *Model) Maximize(fn func(assign []bool) float64) {
	m.objective = fn
}

// Solution is the immutable outcome of a solve.
type Solution struct {
	Status        Status
	NodesExplored int64
	Elapsed       time.Duration

	values    []bool
	objective float64
}

// BoolValue returns the solved value of v. Only meaningful for
// StatusOptimal and StatusFeasible.
func (s *Solution) BoolValue(v BoolVar) bool { return s.values[v.index] }

// Values returns the full assignment vector in variable declaration order.
func (s *Solution) Values() []bool {
	out := make([]bool, len(s.values))
	copy(out, s.values)
	return out
}

// Objective returns the objective value of the solution.
func (s *Solution) Objective() float64 { return s.objective }

const deadlineCheckInterval = 1024

// Solve searches for the feasible assignment maximizing the objective,
// stopping at the deadline implied by timeLimit. A zero time limit stops
// immediately; the solve never blocks past its budget.
func (m *Model) Solve(timeLimit time.Duration) (*Solution, error) {
	if len(m.vars) == 0 {
		return nil, binngoErrors.NewValueError("Model.Solve", "model has no variables")
	}

	start := time.Now()
	deadline := start.Add(timeLimit)

	free := make([]int, 0, len(m.vars))
	assign := make([]bool, len(m.vars))
	for i, f := range m.fixed {
		switch f {
		case -1:
			free = append(free, i)
		case 1:
			assign[i] = true
		}
	}

	var (
		nodes     int64
		timedOut  bool
		incumbent []bool
		bestObj   float64
	)

	k := len(free)
	// Enumerate the 2^k assignments of the free variables. k is bounded by
	// the number of candidate splits, and the deadline check caps runtime
	// for adversarial configurations.
	total := uint64(1) << uint(min(k, 63))
	for code := uint64(0); ; code++ {
		if k >= 63 || code >= total {
			if k >= 63 {
				// Cannot exhaust; rely on the deadline.
				if time.Now().After(deadline) {
					timedOut = true
					break
				}
			} else {
				break
			}
		}
		if nodes%deadlineCheckInterval == 0 && time.Now().After(deadline) {
			timedOut = true
			break
		}
		nodes++

		for bit, idx := range free {
			assign[idx] = code&(1<<uint(bit)) != 0
		}

		if !m.feasible(assign) {
			continue
		}

		obj := 0.0
		if m.objective != nil {
			obj = m.objective(assign)
		}
		if incumbent == nil || obj > bestObj {
			incumbent = make([]bool, len(assign))
			copy(incumbent, assign)
			bestObj = obj
		}
	}

	sol := &Solution{
		NodesExplored: nodes,
		Elapsed:       time.Since(start),
	}
	switch {
	case incumbent != nil && !timedOut:
		sol.Status = StatusOptimal
	case incumbent != nil:
		sol.Status = StatusFeasible
	case timedOut:
		sol.Status = StatusStopped
	default:
		sol.Status = StatusInfeasible
	}
	if incumbent != nil {
		sol.values = incumbent
		sol.objective = bestObj
	} else {
		sol.values = make([]bool, len(m.vars))
	}
	return sol, nil
}

func (m *Model) feasible(assign []bool) bool {
	for _, c := range m.constraints {
		if !c.fn(assign) {
			return false
		}
	}
	return true
}
