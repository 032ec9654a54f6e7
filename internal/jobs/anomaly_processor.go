package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"FinSightSaaS/internal/anomaly"
	"FinSightSaaS/internal/config"
	"FinSightSaaS/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

// AnomalyConfig holds configuration for the nightly anomaly rescore job.
type AnomalyConfig struct {
	Schedule      string
	Months        int
	Contamination float64
	TimeZone      string
}

// NewDefaultAnomalyConfig creates an AnomalyConfig from env with fallbacks
func NewDefaultAnomalyConfig() *AnomalyConfig {
	schedule := os.Getenv("ANOMALY_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultAnomalySchedule
	}
	months := config.DefaultAnomalyMonths
	if m := os.Getenv("ANOMALY_MONTHS"); m != "" {
		if parsed, err := parseInt(m); err == nil && parsed >= 1 && parsed <= config.MaxAnomalyMonths {
			months = parsed
		}
	}
	contamination := 0.10
	if c := os.Getenv("ANOMALY_CONTAMINATION"); c != "" {
		if parsed, err := strconv.ParseFloat(c, 64); err == nil && parsed > 0 && parsed <= 0.5 {
			contamination = parsed
		}
	}
	return &AnomalyConfig{
		Schedule:      schedule,
		Months:        months,
		Contamination: contamination,
		TimeZone:      config.DefaultTimeZone,
	}
}

// RunAnomalyScheduler starts the cron job that rescores each user's
// recent transaction window.
func RunAnomalyScheduler(cfg *AnomalyConfig, db *pgxpool.Pool, detector *anomaly.Detector) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultAnomalySchedule
	}
	if cfg.Months <= 0 {
		cfg.Months = config.DefaultAnomalyMonths
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err))
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Starting anomaly rescore job at %s", time.Now().In(loc).Format(time.RFC3339)))
		count, err := RescoreAllUsers(db, detector, cfg.Months)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Anomaly rescore job failed: %v", err))
			log.Printf("ERROR: Anomaly rescore job failed: %v", err)
		} else {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Anomaly rescore job completed, %d transactions scored", count))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule anomaly rescore processor: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Anomaly rescore scheduler started with schedule: %s (timezone: %s)", cfg.Schedule, cfg.TimeZone))
	log.Printf("[AUDIT] Anomaly rescore scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)
	return nil
}

// RescoreAllUsers rescores the rolling window for every user that has
// transactions in it and returns how many transactions were scored.
func RescoreAllUsers(db *pgxpool.Pool, detector *anomaly.Detector, months int) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	sqlDB, err := openSQLFromPool(db)
	if err != nil {
		return 0, fmt.Errorf("failed to open sql.DB connection: %w", err)
	}
	defer sqlDB.Close()

	since := windowStart(months)
	userRows, err := sqlDB.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM finsight.transactions WHERE date >= $1`, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list users for rescore: %w", err)
	}
	var userIDs []int64
	for userRows.Next() {
		var id int64
		if err := userRows.Scan(&id); err != nil {
			userRows.Close()
			return 0, err
		}
		userIDs = append(userIDs, id)
	}
	userRows.Close()
	if err := userRows.Err(); err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range userIDs {
		n, err := RescoreUserWindow(ctx, sqlDB, detector, userID, months)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Anomaly rescore failed for user %d: %v", userID, err))
			continue
		}
		total += n
	}
	return total, nil
}

// RescoreUserWindow loads one user's window snapshot, scores it, and
// persists every flag and score in a single bulk update. Returns the
// number of transactions in the window.
func RescoreUserWindow(ctx context.Context, db *sql.DB, detector *anomaly.Detector, userID int64, months int) (int, error) {
	txns, err := LoadWindowSnapshot(ctx, db, userID, months)
	if err != nil {
		return 0, err
	}

	scores := detector.Detect(txns)
	if len(scores) == 0 {
		return len(txns), nil
	}
	if err := BulkUpdateScores(ctx, db, scores); err != nil {
		return 0, err
	}
	return len(txns), nil
}

// LoadWindowSnapshot fetches the scoring snapshot of a user's window,
// newest first.
func LoadWindowSnapshot(ctx context.Context, db *sql.DB, userID int64, months int) ([]anomaly.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, amount, date
		FROM finsight.transactions
		WHERE user_id = $1 AND date >= $2 AND date <= now()
		ORDER BY date DESC, id DESC
	`, userID, windowStart(months))
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction window: %w", err)
	}
	defer rows.Close()

	var txns []anomaly.Transaction
	for rows.Next() {
		var t anomaly.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Date); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// BulkUpdateScores persists anomaly flags and scores with one
// array-based UPDATE.
func BulkUpdateScores(ctx context.Context, db *sql.DB, scores []anomaly.Score) error {
	if len(scores) == 0 {
		return nil
	}
	ids := make([]int64, len(scores))
	flags := make([]bool, len(scores))
	values := make([]float64, len(scores))
	for i, s := range scores {
		ids[i] = s.TransactionID
		flags[i] = s.IsAnomaly
		values[i] = s.Score
	}
	query := `
		UPDATE finsight.transactions AS t
		SET is_anomaly = u.is_anomaly, anomaly_score = u.anomaly_score, updated_at = now()
		FROM (
			SELECT unnest($1::bigint[]) AS txn_id,
			       unnest($2::boolean[]) AS is_anomaly,
			       unnest($3::float8[]) AS anomaly_score
		) AS u
		WHERE t.id = u.txn_id
	`
	_, err := db.ExecContext(ctx, query, pq.Array(ids), pq.Array(flags), pq.Array(values))
	return err
}

// windowStart mirrors the anomaly surfaces: a month is a fixed 30 days.
func windowStart(months int) time.Time {
	return time.Now().AddDate(0, 0, -months*30)
}
