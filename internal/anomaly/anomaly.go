package anomaly

import (
	"time"
)

// minBatchSize is the smallest batch worth scoring. Below this any
// statistic is noise, so detection returns nothing rather than guessing.
const minBatchSize = 10

// Transaction is the scoring snapshot of one persisted transaction.
type Transaction struct {
	ID     int64
	Amount float64
	Date   time.Time
}

// Score is the detection outcome for a single transaction. Every
// transaction in a scored batch gets a Score; IsAnomaly marks the
// flagged subset.
type Score struct {
	TransactionID int64
	IsAnomaly     bool
	Score         float64
	Reason        string
	Severity      string
}

// Strategy scores one batch. Implementations must be deterministic for
// a fixed input batch.
type Strategy interface {
	Name() string
	Score(txns []Transaction) ([]Score, error)
}

// Detector runs a primary strategy with a z-score fallback: any primary
// failure degrades silently to the baseline, which cannot fail.
type Detector struct {
	primary  Strategy
	fallback *ZScoreStrategy
}

// Option configures a Detector.
type Option func(*Detector)

// WithStrategy sets the primary scoring strategy.
func WithStrategy(s Strategy) Option {
	return func(d *Detector) { d.primary = s }
}

// NewDetector builds a Detector. Without options it scores with the
// z-score baseline only.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{fallback: NewZScoreStrategy()}
	for _, opt := range opts {
		opt(d)
	}
	if d.primary == nil {
		d.primary = d.fallback
	}
	return d
}

// Detect scores a batch. Batches smaller than minBatchSize yield an
// empty result, not an error.
func (d *Detector) Detect(txns []Transaction) []Score {
	if len(txns) < minBatchSize {
		return nil
	}
	scores, err := d.primary.Score(txns)
	if err != nil {
		scores, _ = d.fallback.Score(txns)
	}
	for i := range scores {
		amount := txns[i].Amount
		scores[i].Reason = reasonFor(amount)
		scores[i].Severity = severityFor(scores[i].Score)
	}
	return scores
}

func reasonFor(amount float64) string {
	switch {
	case amount > 1000:
		return "High-value transaction"
	case amount < 1:
		return "Very small transaction"
	default:
		return "Unusual amount"
	}
}

func severityFor(score float64) string {
	switch {
	case score > 0.5:
		return "high"
	case score < 0.2:
		return "low"
	default:
		return "medium"
	}
}
