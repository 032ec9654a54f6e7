package categories

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"FinSightSaaS/api/constants"
)

// GetUncategorizedTransactionsHandler returns the user's transactions
// without a category, for the review screen. Supports optional
// limit/offset; without a limit it returns everything.
func GetUncategorizedTransactionsHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			UserID int64 `json:"user_id"`
			Limit  *int  `json:"limit,omitempty"`
			Offset *int  `json:"offset,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}

		offset := 0
		if req.Offset != nil {
			offset = *req.Offset
		}

		query := `
			SELECT id, date, amount, merchant, description, source, status, created_at
			FROM finsight.transactions
			WHERE user_id = $1 AND category_id IS NULL
			ORDER BY date DESC, id DESC
		`
		args := []interface{}{req.UserID}
		if req.Limit != nil && *req.Limit > 0 {
			query += " LIMIT $2 OFFSET $3"
			args = append(args, *req.Limit, offset)
		}

		rows, err := db.Query(query, args...)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		transactions := []map[string]interface{}{}
		for rows.Next() {
			var (
				id          int64
				date        time.Time
				amount      float64
				merchant    string
				description sql.NullString
				source      string
				status      string
				createdAt   time.Time
			)
			if err := rows.Scan(&id, &date, &amount, &merchant, &description, &source, &status, &createdAt); err != nil {
				http.Error(w, constants.ErrDB, http.StatusInternalServerError)
				return
			}
			row := map[string]interface{}{
				"id":         id,
				"date":       date.Format(constants.DateFormat),
				"amount":     amount,
				"merchant":   merchant,
				"source":     source,
				"status":     status,
				"created_at": createdAt,
			}
			if description.Valid {
				row["description"] = description.String
			}
			transactions = append(transactions, row)
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"transactions": transactions,
			"count":        len(transactions),
		})
	})
}
