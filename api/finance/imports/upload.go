package imports

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"FinSightSaaS/api/constants"
	"FinSightSaaS/internal/categorize"
	"FinSightSaaS/internal/checksum"
	"FinSightSaaS/internal/logger"
	"FinSightSaaS/internal/statement"

	"github.com/google/uuid"
)

const maxUploadBytes = 20 << 20

// UploadStatement handles multipart statement uploads end to end:
// idempotency check, import job lifecycle, parse, categorize, dedupe
// and the single-transaction persist.
func UploadStatement(db *sql.DB, engine *categorize.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		if len(data) == 0 {
			http.Error(w, userFriendlyUploadError(ErrEmptyFile), http.StatusBadRequest)
			return
		}

		kind, source, err := kindForFilename(header.Filename)
		if err != nil {
			http.Error(w, userFriendlyUploadError(err), http.StatusBadRequest)
			return
		}

		// Idempotency: identical bytes are rejected before any parsing.
		fileHash := checksum.HashBytes(data)
		var existing string
		err = db.QueryRow(
			`SELECT id FROM finsight.import_jobs WHERE user_id = $1 AND file_hash = $2 AND status <> $3`,
			userID, fileHash, StatusFailed,
		).Scan(&existing)
		if err == nil {
			http.Error(w, userFriendlyUploadError(ErrFileAlreadyUploaded), http.StatusConflict)
			return
		}
		if err != sql.ErrNoRows {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}

		jobID := uuid.New().String()
		_, err = db.Exec(`
			INSERT INTO finsight.import_jobs (id, user_id, filename, file_type, file_hash, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
		`, jobID, userID, header.Filename, string(kind), fileHash, StatusPending)
		if err != nil {
			http.Error(w, userFriendlyUploadError(err), http.StatusInternalServerError)
			return
		}
		if _, err := db.Exec(
			`UPDATE finsight.import_jobs SET status = $1 WHERE id = $2`,
			StatusProcessing, jobID,
		); err != nil {
			http.Error(w, userFriendlyUploadError(err), http.StatusInternalServerError)
			return
		}

		result, err := runImport(db, engine, userID, jobID, data, kind, source)
		if err != nil {
			markJobFailed(db, jobID, err)
			logger.GlobalLogger.LogAudit(fmt.Sprintf("[Imports] Job %s failed for user %d: %v", jobID, userID, err))
			http.Error(w, userFriendlyUploadError(err), http.StatusBadRequest)
			return
		}

		logger.GlobalLogger.LogAudit(fmt.Sprintf(
			"[Imports] Job %s completed for user %d: %d parsed, %d inserted, %d duplicates, %d rows skipped",
			jobID, userID, result.Parsed, result.Inserted, result.Duplicates, result.RowsSkipped))

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":                true,
			"import_job_id":          jobID,
			"status":                 StatusCompleted,
			"total_transactions":     result.Parsed,
			"processed_transactions": result.Inserted,
			"duplicates_skipped":     result.Duplicates,
			"rows_skipped":           result.RowsSkipped,
		})
	})
}

type importResult struct {
	Parsed      int
	Inserted    int
	Duplicates  int
	RowsSkipped int
}

// runImport parses, categorizes, dedupes and persists candidates. The
// transaction inserts and the completed job state commit together;
// failure anywhere leaves the job for markJobFailed.
func runImport(db *sql.DB, engine *categorize.Engine, userID int64, jobID string, data []byte, kind statement.Kind, source string) (*importResult, error) {
	candidates, report, err := statement.Parse(data, kind)
	if err != nil {
		return nil, err
	}

	rules, categories, err := loadUserRuleSet(db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}

	existingKeys, err := loadExistingKeys(db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing transactions: %w", err)
	}

	result := &importResult{Parsed: len(candidates), RowsSkipped: len(report.RowErrors)}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin db transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO finsight.transactions
			(user_id, category_id, import_job_id, date, amount, merchant, description, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', now(), now())
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, cand := range candidates {
		key := txnKey(cand.Date, cand.Amount.StringFixed(2), cand.Merchant)
		if _, dup := existingKeys[key]; dup {
			result.Duplicates++
			continue
		}
		existingKeys[key] = struct{}{}

		var categoryID interface{}
		if id := engine.Categorize(cand.Merchant, rules, categories); id != nil {
			categoryID = *id
		}
		var description interface{}
		if cand.Description != nil {
			description = *cand.Description
		}
		if _, err := stmt.Exec(userID, categoryID, jobID, cand.Date, cand.Amount.StringFixed(2), cand.Merchant, description, source); err != nil {
			return nil, fmt.Errorf("failed to bulk insert transactions: %w", err)
		}
		result.Inserted++
	}

	if _, err := tx.Exec(`
		UPDATE finsight.import_jobs
		SET status = $1, total_transactions = $2, processed_transactions = $3, completed_at = now()
		WHERE id = $4
	`, StatusCompleted, result.Parsed, result.Inserted, jobID); err != nil {
		return nil, fmt.Errorf("failed to finalize import job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return result, nil
}

func markJobFailed(db *sql.DB, jobID string, cause error) {
	if _, err := db.Exec(`
		UPDATE finsight.import_jobs
		SET status = $1, error_message = $2, completed_at = now()
		WHERE id = $3
	`, StatusFailed, userFriendlyUploadError(cause), jobID); err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("[Imports] Failed to mark job %s failed: %v", jobID, err))
	}
}

// loadUserRuleSet loads the user's active merchant rules in stored order
// plus their categories (own and system).
func loadUserRuleSet(db *sql.DB, userID int64) ([]categorize.MerchantRule, []categorize.Category, error) {
	ruleRows, err := db.Query(`
		SELECT id, pattern, match_type, category_id, is_active
		FROM finsight.merchant_rules
		WHERE user_id = $1 AND is_active = true
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer ruleRows.Close()

	var rules []categorize.MerchantRule
	for ruleRows.Next() {
		var rule categorize.MerchantRule
		var matchType string
		if err := ruleRows.Scan(&rule.ID, &rule.Pattern, &matchType, &rule.CategoryID, &rule.IsActive); err != nil {
			return nil, nil, err
		}
		rule.MatchType = categorize.MatchType(matchType)
		rules = append(rules, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, nil, err
	}

	catRows, err := db.Query(`
		SELECT id, name FROM finsight.categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY user_id NULLS LAST, id ASC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer catRows.Close()

	var categories []categorize.Category
	for catRows.Next() {
		var cat categorize.Category
		if err := catRows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, nil, err
		}
		categories = append(categories, cat)
	}
	return rules, categories, catRows.Err()
}

// loadExistingKeys builds the dedupe key set over the user's persisted
// transactions.
func loadExistingKeys(db *sql.DB, userID int64) (map[string]struct{}, error) {
	rows, err := db.Query(`
		SELECT date, amount::text, merchant FROM finsight.transactions WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var date time.Time
		var amount, merchant string
		if err := rows.Scan(&date, &amount, &merchant); err != nil {
			return nil, err
		}
		keys[txnKey(date, amount, merchant)] = struct{}{}
	}
	return keys, rows.Err()
}

// txnKey is the dedupe identity: user-scoped (date, amount, merchant).
func txnKey(date time.Time, amount, merchant string) string {
	if !strings.Contains(amount, ".") {
		amount += ".00"
	}
	return fmt.Sprintf("%s|%s|%s", date.Format(constants.DateFormat), amount, strings.ToLower(strings.TrimSpace(merchant)))
}
