// Package tree implements a CART decision tree over a single numerical
// feature and a binary target. Its purpose in this library is candidate
// split generation for prebinning: the tree is grown best-first until a
// leaf budget is exhausted and the internal node thresholds are harvested
// as candidate split points.
package tree

import (
	"math"
	"sort"

	"github.com/ezoic/binngo/core/model"
	binngoErrors "github.com/ezoic/binngo/pkg/errors"
)

// Node is a node in the fitted tree.
type Node struct {
	IsLeaf    bool
	Threshold float64 // Split threshold (internal nodes): left <= t < right.
	Left      *Node
	Right     *Node
	NSamples  int     // Raw sample count at this node.
	Weight    float64 // Total sample weight at this node.
	NonEvent  float64 // Weighted count of class 0.
	Event     float64 // Weighted count of class 1.
	Impurity  float64
	Depth     int
}

// Classifier is a univariate decision tree classifier for a binary target.
type Classifier struct {
	state *model.StateManager

	criterion      string // "gini" or "entropy"
	minSamplesLeaf int
	maxLeafNodes   int // 0 = unlimited
	maxDepth       int // 0 = unlimited

	root    *Node
	nLeaves int
}

// Option is a functional option for Classifier.
type Option func(*Classifier)

// WithCriterion sets the impurity criterion, "gini" (default) or "entropy".
func WithCriterion(criterion string) Option {
	return func(c *Classifier) { c.criterion = criterion }
}

// WithMinSamplesLeaf sets the minimum raw sample count per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(c *Classifier) { c.minSamplesLeaf = n }
}

// WithMaxLeafNodes caps the number of leaves. The tree is grown best-first,
// always expanding the leaf with the largest weighted impurity decrease, so
// the cap keeps the most informative splits.
func WithMaxLeafNodes(n int) Option {
	return func(c *Classifier) { c.maxLeafNodes = n }
}

// WithMaxDepth caps the tree depth.
func WithMaxDepth(depth int) Option {
	return func(c *Classifier) { c.maxDepth = depth }
}

// NewClassifier creates a univariate decision tree classifier.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		state:          model.NewStateManager(),
		criterion:      "gini",
		minSamplesLeaf: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candidate is a frontier leaf together with its best split, ranked by gain.
type candidate struct {
	node    *Node
	indices []int // Sample indices at the node, sorted by x.
	pos     int   // Split position: indices[:pos] left, indices[pos:] right.
	gain    float64
}

// Fit grows the tree on feature vector x, binary labels y and optional
// per-sample weights w (nil means unweighted).
func (c *Classifier) Fit(x []float64, y []int, w []float64) error {
	n := len(x)
	if n == 0 {
		return binngoErrors.NewModelError("Classifier.Fit", "empty data", binngoErrors.ErrEmptyData)
	}
	if len(y) != n {
		return binngoErrors.NewDimensionError("Classifier.Fit", n, len(y), 0)
	}
	if w != nil && len(w) != n {
		return binngoErrors.NewDimensionError("Classifier.Fit", n, len(w), 0)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return binngoErrors.NewValueError("Classifier.Fit", "labels must be binary (0 or 1)")
		}
		_ = i
	}
	if w == nil {
		w = make([]float64, n)
		for i := range w {
			w[i] = 1
		}
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(i, j int) bool { return x[indices[i]] < x[indices[j]] })

	c.root = c.newNode(x, y, w, indices, 0)
	c.nLeaves = 1

	// Best-first growth: repeatedly split the frontier leaf with the
	// largest impurity decrease until the leaf budget or the data is
	// exhausted.
	frontier := make([]*candidate, 0, 8)
	if cand := c.bestSplit(c.root, x, y, w, indices); cand != nil {
		frontier = append(frontier, cand)
	}

	for len(frontier) > 0 {
		if c.maxLeafNodes > 0 && c.nLeaves >= c.maxLeafNodes {
			break
		}

		best := 0
		for i := 1; i < len(frontier); i++ {
			if frontier[i].gain > frontier[best].gain {
				best = i
			}
		}
		cand := frontier[best]
		frontier = append(frontier[:best], frontier[best+1:]...)

		node := cand.node
		leftIdx := cand.indices[:cand.pos]
		rightIdx := cand.indices[cand.pos:]

		node.IsLeaf = false
		node.Threshold = midpoint(x[leftIdx[len(leftIdx)-1]], x[rightIdx[0]])
		node.Left = c.newNode(x, y, w, leftIdx, node.Depth+1)
		node.Right = c.newNode(x, y, w, rightIdx, node.Depth+1)
		c.nLeaves++

		if next := c.bestSplit(node.Left, x, y, w, leftIdx); next != nil {
			frontier = append(frontier, next)
		}
		if next := c.bestSplit(node.Right, x, y, w, rightIdx); next != nil {
			frontier = append(frontier, next)
		}
	}

	c.state.SetFitted()
	return nil
}

func (c *Classifier) newNode(x []float64, y []int, w []float64, indices []int, depth int) *Node {
	var weight, nonevent, event float64
	for _, idx := range indices {
		weight += w[idx]
		if y[idx] == 0 {
			nonevent += w[idx]
		} else {
			event += w[idx]
		}
	}
	return &Node{
		IsLeaf:   true,
		NSamples: len(indices),
		Weight:   weight,
		NonEvent: nonevent,
		Event:    event,
		Impurity: c.impurity(nonevent, event),
		Depth:    depth,
	}
}

// bestSplit scans the sorted samples of a leaf for the threshold with the
// largest weighted impurity decrease. Returns nil when the leaf cannot be
// split (pure, too small, or at max depth).
func (c *Classifier) bestSplit(node *Node, x []float64, y []int, w []float64, indices []int) *candidate {
	n := len(indices)
	if n < 2*c.minSamplesLeaf || node.Impurity == 0 {
		return nil
	}
	if c.maxDepth > 0 && node.Depth >= c.maxDepth {
		return nil
	}

	var leftNE, leftEV float64
	bestGain := 0.0
	bestPos := -1

	for i := 0; i < n-1; i++ {
		idx := indices[i]
		if y[idx] == 0 {
			leftNE += w[idx]
		} else {
			leftEV += w[idx]
		}

		// Only positions between distinct feature values are valid
		// thresholds.
		if x[idx] == x[indices[i+1]] {
			continue
		}
		pos := i + 1
		if pos < c.minSamplesLeaf || n-pos < c.minSamplesLeaf {
			continue
		}

		rightNE := node.NonEvent - leftNE
		rightEV := node.Event - leftEV
		wl := leftNE + leftEV
		wr := rightNE + rightEV

		children := wl*c.impurity(leftNE, leftEV) + wr*c.impurity(rightNE, rightEV)
		gain := node.Weight*node.Impurity - children
		if gain > bestGain {
			bestGain = gain
			bestPos = pos
		}
	}

	if bestPos < 0 {
		return nil
	}
	return &candidate{node: node, indices: indices, pos: bestPos, gain: bestGain}
}

func (c *Classifier) impurity(nonevent, event float64) float64 {
	total := nonevent + event
	if total == 0 {
		return 0
	}
	p0 := nonevent / total
	p1 := event / total

	if c.criterion == "entropy" {
		imp := 0.0
		if p0 > 0 {
			imp -= p0 * math.Log2(p0)
		}
		if p1 > 0 {
			imp -= p1 * math.Log2(p1)
		}
		return imp
	}
	// Gini.
	return 1 - p0*p0 - p1*p1
}

func midpoint(a, b float64) float64 { return (a + b) / 2 }

// Thresholds returns the internal node thresholds in increasing order.
// These are the candidate split points for prebinning.
func (c *Classifier) Thresholds() ([]float64, error) {
	if !c.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("Classifier", "Thresholds")
	}
	var thresholds []float64
	collectThresholds(c.root, &thresholds)
	sort.Float64s(thresholds)
	return thresholds, nil
}

func collectThresholds(node *Node, out *[]float64) {
	if node == nil || node.IsLeaf {
		return
	}
	*out = append(*out, node.Threshold)
	collectThresholds(node.Left, out)
	collectThresholds(node.Right, out)
}

// NLeaves returns the number of leaves in the fitted tree.
func (c *Classifier) NLeaves() int { return c.nLeaves }

// Depth returns the depth of the fitted tree.
func (c *Classifier) Depth() int { return maxDepth(c.root) }

func maxDepth(node *Node) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return node.Depth
	}
	l := maxDepth(node.Left)
	r := maxDepth(node.Right)
	if l > r {
		return l
	}
	return r
}

// Apply returns the leaf reached by value v.
func (c *Classifier) Apply(v float64) (*Node, error) {
	if !c.state.IsFitted() {
		return nil, binngoErrors.NewNotFittedError("Classifier", "Apply")
	}
	node := c.root
	for !node.IsLeaf {
		if v <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node, nil
}
