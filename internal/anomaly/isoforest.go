package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Isolation forest defaults. The fixed seed makes repeated runs over the
// same batch produce identical flags, which the rescore endpoints rely
// on.
const (
	defaultTrees         = 100
	defaultSubsample     = 256
	defaultContamination = 0.10
	defaultSeed          = 42
)

// IsolationStrategy scores batches with an isolation forest over three
// features per transaction: amount, day of month and day of week. The
// spending-rhythm features let it catch odd-day charges that an
// amount-only z-score never sees.
type IsolationStrategy struct {
	trees         int
	subsample     int
	contamination float64
	seed          int64
}

// IsolationOption configures an IsolationStrategy.
type IsolationOption func(*IsolationStrategy)

// WithContamination overrides the expected anomaly fraction. Values
// outside (0, 0.5] are ignored.
func WithContamination(c float64) IsolationOption {
	return func(s *IsolationStrategy) {
		if c > 0 && c <= 0.5 {
			s.contamination = c
		}
	}
}

func NewIsolationStrategy(opts ...IsolationOption) *IsolationStrategy {
	s := &IsolationStrategy{
		trees:         defaultTrees,
		subsample:     defaultSubsample,
		contamination: defaultContamination,
		seed:          defaultSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IsolationStrategy) Name() string { return "isolation-forest" }

func (s *IsolationStrategy) Score(txns []Transaction) ([]Score, error) {
	if len(txns) < minBatchSize {
		return nil, fmt.Errorf("batch of %d too small for isolation forest", len(txns))
	}

	features := make([][3]float64, len(txns))
	for i, t := range txns {
		features[i] = [3]float64{
			t.Amount,
			float64(t.Date.Day()),
			float64(mondayIndexedWeekday(t.Date)),
		}
	}

	rng := rand.New(rand.NewSource(s.seed))
	psi := s.subsample
	if psi > len(features) {
		psi = len(features)
	}

	depths := make([]float64, len(features))
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))
	for t := 0; t < s.trees; t++ {
		sample := sampleIndexes(rng, len(features), psi)
		tree := buildTree(rng, features, sample, 0, maxDepth)
		for i := range features {
			depths[i] += pathLength(tree, features[i], 0)
		}
	}

	// s(x) = 2^{-E[h(x)]/c(psi)}: near 1 for isolates, near 0.5 and
	// below for inliers.
	norm := avgPathLength(float64(psi))
	scores := make([]float64, len(features))
	for i := range features {
		avg := depths[i] / float64(s.trees)
		scores[i] = math.Pow(2, -avg/norm)
	}

	threshold := quantile(scores, 1-s.contamination)
	out := make([]Score, len(txns))
	for i, t := range txns {
		out[i] = Score{
			TransactionID: t.ID,
			IsAnomaly:     scores[i] >= threshold,
			Score:         math.Min(1, math.Max(0, scores[i])),
		}
	}
	return out, nil
}

// isoNode is one node of an isolation tree. Leaves carry the size of the
// sample that reached them so truncated paths can be extended by the
// expected remainder.
type isoNode struct {
	splitDim   int
	splitValue float64
	left       *isoNode
	right      *isoNode
	size       int
}

func (n *isoNode) isLeaf() bool { return n.left == nil }

func buildTree(rng *rand.Rand, features [][3]float64, sample []int, depth, maxDepth int) *isoNode {
	if len(sample) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(sample)}
	}

	dim := rng.Intn(3)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, idx := range sample {
		v := features[idx][dim]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(sample)}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, idx := range sample {
		if features[idx][dim] < split {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return &isoNode{
		splitDim:   dim,
		splitValue: split,
		left:       buildTree(rng, features, left, depth+1, maxDepth),
		right:      buildTree(rng, features, right, depth+1, maxDepth),
		size:       len(sample),
	}
}

func pathLength(n *isoNode, point [3]float64, depth int) float64 {
	if n.isLeaf() {
		return float64(depth) + avgPathLength(float64(n.size))
	}
	if point[n.splitDim] < n.splitValue {
		return pathLength(n.left, point, depth+1)
	}
	return pathLength(n.right, point, depth+1)
}

// avgPathLength is c(n), the average path length of an unsuccessful BST
// search over n points. Extends truncated tree paths.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	const eulerGamma = 0.5772156649
	return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
}

func sampleIndexes(rng *rand.Rand, n, k int) []int {
	perm := rng.Perm(n)
	return perm[:k]
}

// quantile returns the value below which fraction q of the sorted data
// falls, with linear interpolation.
func quantile(data []float64, q float64) float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// mondayIndexedWeekday maps Go's Sunday-first weekday numbering onto a
// Monday=0 scale.
func mondayIndexedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
