package anomaly

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func batchWithOutlier() []Transaction {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	txns := make([]Transaction, 0, 12)
	for i := 0; i < 11; i++ {
		txns = append(txns, Transaction{
			ID:     int64(i + 1),
			Amount: 20 + float64(i),
			Date:   base.AddDate(0, 0, i),
		})
	}
	txns = append(txns, Transaction{ID: 99, Amount: 5000, Date: base.AddDate(0, 0, 15)})
	return txns
}

func TestDetectSmallBatch(t *testing.T) {
	d := NewDetector()
	txns := batchWithOutlier()[:9]
	if got := d.Detect(txns); len(got) != 0 {
		t.Errorf("Detect on %d transactions = %v, want empty", len(txns), got)
	}
}

func TestZScoreFlagsOutlier(t *testing.T) {
	d := NewDetector()
	scores := d.Detect(batchWithOutlier())
	if len(scores) != 12 {
		t.Fatalf("got %d scores, want 12", len(scores))
	}

	var flagged []Score
	for _, s := range scores {
		if s.IsAnomaly {
			flagged = append(flagged, s)
		}
	}
	if len(flagged) != 1 || flagged[0].TransactionID != 99 {
		t.Fatalf("flagged = %+v, want only txn 99", flagged)
	}
	if flagged[0].Score <= 0.5 {
		t.Errorf("outlier score = %v, want upper half", flagged[0].Score)
	}
	if flagged[0].Reason != "High-value transaction" {
		t.Errorf("reason = %q", flagged[0].Reason)
	}
	if flagged[0].Severity != "high" {
		t.Errorf("severity = %q", flagged[0].Severity)
	}
}

func TestZScoreUniformAmounts(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	txns := make([]Transaction, 10)
	for i := range txns {
		txns[i] = Transaction{ID: int64(i), Amount: 25, Date: base.AddDate(0, 0, i)}
	}
	scores := NewDetector().Detect(txns)
	for _, s := range scores {
		if s.IsAnomaly || s.Score != 0 {
			t.Fatalf("uniform batch produced %+v", s)
		}
	}
}

func TestIsolationDeterministic(t *testing.T) {
	strat := NewIsolationStrategy()
	txns := batchWithOutlier()
	first, err := strat.Score(txns)
	if err != nil {
		t.Fatal(err)
	}
	second, err := strat.Score(txns)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same batch scored differently across runs")
	}
}

func TestIsolationFlagsOutlier(t *testing.T) {
	scores, err := NewIsolationStrategy().Score(batchWithOutlier())
	if err != nil {
		t.Fatal(err)
	}
	var outlier *Score
	for i, s := range scores {
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("score %v outside [0,1]", s.Score)
		}
		if s.TransactionID == 99 {
			outlier = &scores[i]
		}
	}
	if outlier == nil || !outlier.IsAnomaly {
		t.Errorf("outlier not flagged: %+v", outlier)
	}
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Score([]Transaction) ([]Score, error) {
	return nil, errors.New("model unavailable")
}

func TestDetectorDegradesToBaseline(t *testing.T) {
	d := NewDetector(WithStrategy(failingStrategy{}))
	scores := d.Detect(batchWithOutlier())
	if len(scores) != 12 {
		t.Fatalf("fallback produced %d scores, want 12", len(scores))
	}
	found := false
	for _, s := range scores {
		if s.TransactionID == 99 && s.IsAnomaly {
			found = true
		}
	}
	if !found {
		t.Error("fallback did not flag the outlier")
	}
}

func TestReasonAndSeverity(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{1500, "High-value transaction"},
		{0.5, "Very small transaction"},
		{42, "Unusual amount"},
	}
	for _, tt := range tests {
		if got := reasonFor(tt.amount); got != tt.want {
			t.Errorf("reasonFor(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}

	sev := []struct {
		score float64
		want  string
	}{
		{0.9, "high"}, {0.5, "medium"}, {0.3, "medium"}, {0.1, "low"},
	}
	for _, tt := range sev {
		if got := severityFor(tt.score); got != tt.want {
			t.Errorf("severityFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
