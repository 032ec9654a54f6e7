package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"FinSightSaaS/internal/categorize"
	"FinSightSaaS/internal/config"
	"FinSightSaaS/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

// CategorizationConfig holds configuration for auto-categorization processing
type CategorizationConfig struct {
	Schedule  string // Cron schedule (default: "0 18 * * *" for 6 PM daily)
	BatchSize int    // Number of transactions to process per batch
	TimeZone  string // Timezone for scheduling
}

// categorizationUpdate represents a transaction that needs its category updated
type categorizationUpdate struct {
	txnID      int64
	categoryID int64
}

// NewDefaultCategorizationConfig creates a CategorizationConfig from env with fallbacks
func NewDefaultCategorizationConfig() *CategorizationConfig {
	schedule := os.Getenv("CATEGORIZATION_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultCategorizationSchedule
	}

	batchSize := config.CategorizationBatchSize
	if bs := os.Getenv("CATEGORIZATION_BATCH_SIZE"); bs != "" {
		if parsed, err := parseInt(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	return &CategorizationConfig{
		Schedule:  schedule,
		BatchSize: batchSize,
		TimeZone:  config.DefaultTimeZone,
	}
}

// RunCategorizationScheduler starts the cron job for automated transaction categorization
func RunCategorizationScheduler(cfg *CategorizationConfig, db *pgxpool.Pool, engine *categorize.Engine) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultCategorizationSchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.CategorizationBatchSize
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
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Starting auto-categorization job at %s", time.Now().In(loc).Format(time.RFC3339)))
		err := ProcessUncategorizedTransactions(db, engine, cfg.BatchSize)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Auto-categorization job failed: %v", err))
			log.Printf("ERROR: Auto-categorization job failed: %v", err)
		} else {
			logger.GlobalLogger.LogAudit("Auto-categorization job completed successfully")
		}
	})

	if err != nil {
		return fmt.Errorf("unable to schedule auto-categorization processor: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Auto-categorization scheduler started with schedule: %s (timezone: %s)", cfg.Schedule, cfg.TimeZone))
	log.Printf("[AUDIT] Auto-categorization scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)

	return nil
}

// userRuleSet is the per-user context the matching engine needs: the
// user's active rules in stored order plus the category name lookup.
type userRuleSet struct {
	rules      []categorize.MerchantRule
	categories []categorize.Category
}

// ProcessUncategorizedTransactions categorizes every transaction with a
// NULL category: user merchant rules first, then the keyword taxonomy.
// batchSize controls how many transactions are fetched and bulk-updated
// per round trip, not how many are processed overall.
func ProcessUncategorizedTransactions(db *pgxpool.Pool, engine *categorize.Engine, batchSize int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	startTime := time.Now()
	logger.GlobalLogger.LogAudit("Auto-categorization: Starting to count uncategorized transactions")

	sqlDB, err := openSQLFromPool(db)
	if err != nil {
		return fmt.Errorf("failed to open sql.DB connection: %w", err)
	}
	defer sqlDB.Close()

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM finsight.transactions WHERE category_id IS NULL`
	if err := sqlDB.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return fmt.Errorf("failed to count uncategorized transactions: %w", err)
	}

	if totalCount == 0 {
		logger.GlobalLogger.LogAudit("No uncategorized transactions found")
		return nil
	}

	log.Printf("[AUDIT] Total uncategorized transactions: %d", totalCount)
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Found %d total uncategorized transactions to process", totalCount))

	// Load every user's rules and categories once up front to avoid
	// per-transaction queries.
	ruleSets, err := loadAllUserRuleSets(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to load merchant rules: %w", err)
	}
	log.Printf("[AUDIT] Loaded rule sets for %d users", len(ruleSets))

	type txnRow struct {
		id       int64
		userID   int64
		merchant string
	}

	if batchSize <= 0 {
		batchSize = config.CategorizationBatchSize
	}

	offset := 0
	totalProcessed := 0
	totalCategorized := 0
	lastLogTime := time.Now()

	for {
		query := `
			SELECT id, user_id, merchant
			FROM finsight.transactions
			WHERE category_id IS NULL
			ORDER BY date DESC, id DESC
			LIMIT $1 OFFSET $2
		`
		rows, err := sqlDB.QueryContext(ctx, query, batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to query uncategorized transactions at offset %d: %w", offset, err)
		}

		var txns []txnRow
		for rows.Next() {
			var tr txnRow
			if err := rows.Scan(&tr.id, &tr.userID, &tr.merchant); err != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to scan transaction row: %v", err))
				continue
			}
			txns = append(txns, tr)
		}
		rows.Close()

		if len(txns) == 0 {
			break
		}

		categorized := make([]categorizationUpdate, 0, len(txns))
		for _, tr := range txns {
			totalProcessed++
			rs, ok := ruleSets[tr.userID]
			if !ok {
				continue
			}
			if catID := engine.Categorize(tr.merchant, rs.rules, rs.categories); catID != nil {
				categorized = append(categorized, categorizationUpdate{txnID: tr.id, categoryID: *catID})
				totalCategorized++
			}

			if totalProcessed%1000 == 0 || time.Since(lastLogTime) > 10*time.Second {
				progress := fmt.Sprintf("Progress: %d/%d processed (%d matched)", totalProcessed, totalCount, totalCategorized)
				log.Println(progress)
				logger.GlobalLogger.LogAudit(progress)
				lastLogTime = time.Now()
			}
		}

		if len(categorized) > 0 {
			if err := bulkUpdateCategories(ctx, sqlDB, categorized); err != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Bulk update failed for batch at offset %d, falling back to individual updates: %v", offset, err))
				for _, cat := range categorized {
					updateQuery := `UPDATE finsight.transactions SET category_id = $1, updated_at = now() WHERE id = $2`
					if _, err := sqlDB.ExecContext(ctx, updateQuery, cat.categoryID, cat.txnID); err != nil {
						logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to update transaction %d: %v", cat.txnID, err))
					}
				}
			}
		}

		// Matched rows drop out of the NULL-category result set, so the
		// next fetch must only skip the ones that stayed uncategorized.
		offset += len(txns) - len(categorized)

		if len(txns) < batchSize {
			break
		}
	}

	duration := time.Since(startTime)
	uncategorized := totalCount - totalCategorized
	summary := fmt.Sprintf("Auto-categorization completed: %d/%d transactions categorized, %d remain uncategorized (Duration: %v)",
		totalCategorized, totalCount, uncategorized, duration)
	logger.GlobalLogger.LogAudit(summary)
	log.Println(summary)

	return nil
}

// loadAllUserRuleSets loads every user's active merchant rules (stored
// order) and categories in two queries.
func loadAllUserRuleSets(ctx context.Context, db *sql.DB) (map[int64]*userRuleSet, error) {
	sets := make(map[int64]*userRuleSet)
	get := func(userID int64) *userRuleSet {
		if rs, ok := sets[userID]; ok {
			return rs
		}
		rs := &userRuleSet{}
		sets[userID] = rs
		return rs
	}

	ruleQuery := `
		SELECT user_id, id, pattern, match_type, category_id, is_active
		FROM finsight.merchant_rules
		WHERE is_active = true
		ORDER BY user_id, id ASC
	`
	rows, err := db.QueryContext(ctx, ruleQuery)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var userID int64
		var rule categorize.MerchantRule
		var matchType string
		if err := rows.Scan(&userID, &rule.ID, &rule.Pattern, &matchType, &rule.CategoryID, &rule.IsActive); err != nil {
			rows.Close()
			return nil, err
		}
		rule.MatchType = categorize.MatchType(matchType)
		rs := get(userID)
		rs.rules = append(rs.rules, rule)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catQuery := `
		SELECT COALESCE(user_id, 0), id, name
		FROM finsight.categories
		ORDER BY user_id, id ASC
	`
	catRows, err := db.QueryContext(ctx, catQuery)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	var systemCategories []categorize.Category
	for catRows.Next() {
		var userID int64
		var cat categorize.Category
		if err := catRows.Scan(&userID, &cat.ID, &cat.Name); err != nil {
			return nil, err
		}
		if userID == 0 {
			systemCategories = append(systemCategories, cat)
			continue
		}
		rs := get(userID)
		rs.categories = append(rs.categories, cat)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	// System categories are visible to everyone, after the user's own.
	for _, rs := range sets {
		rs.categories = append(rs.categories, systemCategories...)
	}

	return sets, nil
}

// bulkUpdateCategories performs a single bulk UPDATE using PostgreSQL arrays
func bulkUpdateCategories(ctx context.Context, db *sql.DB, updates []categorizationUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	txnIDs := make([]int64, len(updates))
	categoryIDs := make([]int64, len(updates))
	for i, u := range updates {
		txnIDs[i] = u.txnID
		categoryIDs[i] = u.categoryID
	}

	query := `
		UPDATE finsight.transactions AS t
		SET category_id = u.category_id, updated_at = now()
		FROM (
			SELECT unnest($1::bigint[]) AS txn_id, unnest($2::bigint[]) AS category_id
		) AS u
		WHERE t.id = u.txn_id
	`
	_, err := db.ExecContext(ctx, query, pq.Array(txnIDs), pq.Array(categoryIDs))
	return err
}

// openSQLFromPool opens a database/sql connection using the pgx pool's
// config, for the lib/pq driver paths (pq.Array bulk updates).
func openSQLFromPool(db *pgxpool.Pool) (*sql.DB, error) {
	cc := db.Config().ConnConfig
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cc.User, cc.Password, cc.Host, cc.Port, cc.Database)
	return sql.Open("postgres", connStr)
}

// parseInt is a helper to parse int from string
func parseInt(s string) (int, error) {
	var result int
	_, err := fmt.Sscanf(s, "%d", &result)
	return result, err
}
