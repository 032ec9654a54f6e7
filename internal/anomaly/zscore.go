package anomaly

import "math"

// zThreshold flags a transaction whose amount sits this many population
// standard deviations from the batch mean; scoreDivisor maps z onto
// [0,1] with saturation at z=5.
const (
	zThreshold   = 2.5
	scoreDivisor = 5.0
)

// ZScoreStrategy is the baseline detector: amount-only, no model state,
// cannot fail.
type ZScoreStrategy struct{}

func NewZScoreStrategy() *ZScoreStrategy { return &ZScoreStrategy{} }

func (s *ZScoreStrategy) Name() string { return "zscore" }

func (s *ZScoreStrategy) Score(txns []Transaction) ([]Score, error) {
	mean, stdev := meanPstdev(txns)
	out := make([]Score, len(txns))
	for i, t := range txns {
		z := 0.0
		if stdev != 0 {
			z = math.Abs(t.Amount-mean) / stdev
		}
		out[i] = Score{
			TransactionID: t.ID,
			IsAnomaly:     z >= zThreshold,
			Score:         math.Min(1, z/scoreDivisor),
		}
	}
	return out, nil
}

// meanPstdev returns the mean and the population standard deviation of
// the batch amounts.
func meanPstdev(txns []Transaction) (float64, float64) {
	n := float64(len(txns))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, t := range txns {
		sum += t.Amount
	}
	mean := sum / n
	varSum := 0.0
	for _, t := range txns {
		d := t.Amount - mean
		varSum += d * d
	}
	return mean, math.Sqrt(varSum / n)
}
