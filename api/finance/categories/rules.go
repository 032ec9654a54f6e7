package categories

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"FinSightSaaS/api/constants"
	"FinSightSaaS/internal/categorize"
)

// MerchantRuleRow is the list projection of a merchant rule.
type MerchantRuleRow struct {
	ID         int64     `json:"id"`
	Pattern    string    `json:"pattern"`
	MatchType  string    `json:"match_type"`
	CategoryID int64     `json:"category_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMerchantRule adds a rule at the end of the user's rule order.
// Creation order is evaluation order: rules are matched by ascending id.
func CreateMerchantRule(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID     int64  `json:"user_id"`
			Pattern    string `json:"pattern"`
			MatchType  string `json:"match_type"`
			CategoryID int64  `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}
		if categorize.Normalize(req.Pattern) == "" {
			http.Error(w, "pattern must contain matchable characters", http.StatusBadRequest)
			return
		}
		mt := categorize.MatchType(req.MatchType)
		if mt != categorize.MatchExact && mt != categorize.MatchPartial {
			http.Error(w, "match_type must be exact or partial", http.StatusBadRequest)
			return
		}

		var ownerOK bool
		err := db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM finsight.categories
				WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
			)
		`, req.CategoryID, req.UserID).Scan(&ownerOK)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		if !ownerOK {
			http.Error(w, "category not found", http.StatusBadRequest)
			return
		}

		var rule MerchantRuleRow
		err = db.QueryRow(`
			INSERT INTO finsight.merchant_rules (user_id, pattern, match_type, category_id, is_active, created_at)
			VALUES ($1, $2, $3, $4, true, now())
			RETURNING id, pattern, match_type, category_id, is_active, created_at
		`, req.UserID, req.Pattern, string(mt), req.CategoryID).Scan(
			&rule.ID, &rule.Pattern, &rule.MatchType, &rule.CategoryID, &rule.IsActive, &rule.CreatedAt)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rule":    rule,
		})
	})
}

// ListMerchantRules returns the user's rules in evaluation order.
func ListMerchantRules(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID     int64 `json:"user_id"`
			ActiveOnly bool  `json:"active_only"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}

		query := `
			SELECT id, pattern, match_type, category_id, is_active, created_at
			FROM finsight.merchant_rules
			WHERE user_id = $1
		`
		if req.ActiveOnly {
			query += ` AND is_active = true`
		}
		query += ` ORDER BY id ASC`

		rows, err := db.Query(query, req.UserID)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		rules := []MerchantRuleRow{}
		for rows.Next() {
			var rule MerchantRuleRow
			if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.MatchType, &rule.CategoryID, &rule.IsActive, &rule.CreatedAt); err != nil {
				http.Error(w, constants.ErrDB, http.StatusInternalServerError)
				return
			}
			rules = append(rules, rule)
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rules":   rules,
		})
	})
}

// DeactivateMerchantRule turns a rule off without deleting it, so the
// audit trail of past categorizations stays explainable.
func DeactivateMerchantRule(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID int64 `json:"user_id"`
			RuleID int64 `json:"rule_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}

		res, err := db.Exec(`
			UPDATE finsight.merchant_rules SET is_active = false
			WHERE id = $1 AND user_id = $2
		`, req.RuleID, req.UserID)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
}
