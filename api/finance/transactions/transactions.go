package transactions

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"FinSightSaaS/api/constants"
	"FinSightSaaS/api/utils"

	"github.com/lib/pq"
)

// TransactionRow is the list projection of a transaction.
type TransactionRow struct {
	ID           int64    `json:"id"`
	Date         string   `json:"date"`
	Amount       float64  `json:"amount"`
	Merchant     string   `json:"merchant"`
	Description  *string  `json:"description,omitempty"`
	Source       string   `json:"source"`
	Status       string   `json:"status"`
	CategoryID   *int64   `json:"category_id,omitempty"`
	CategoryName *string  `json:"category_name,omitempty"`
	IsAnomaly    bool     `json:"is_anomaly"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty"`
}

// ListTransactions returns the user's transactions, newest first, with
// page/limit pagination taken from the query string.
func ListTransactions(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID int64   `json:"user_id"`
			Status *string `json:"status,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}
		pagination, err := utils.ExtractPagination(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		countQuery := `SELECT COUNT(*) FROM finsight.transactions WHERE user_id = $1`
		countArgs := []interface{}{req.UserID}
		listQuery := `
			SELECT t.id, t.date, t.amount, t.merchant, t.description, t.source, t.status,
			       t.category_id, c.name, t.is_anomaly, t.anomaly_score
			FROM finsight.transactions t
			LEFT JOIN finsight.categories c ON t.category_id = c.id
			WHERE t.user_id = $1
		`
		listArgs := []interface{}{req.UserID}
		if req.Status != nil && *req.Status != "" {
			countQuery += ` AND status = $2`
			countArgs = append(countArgs, *req.Status)
			listQuery += ` AND t.status = $2`
			listArgs = append(listArgs, *req.Status)
		}
		listQuery += ` ORDER BY t.date DESC, t.id DESC`

		total, err := utils.CountTotal(db, countQuery, countArgs...)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		pagination.SetPaginationStats(total)

		listQuery += " LIMIT $" + strconv.Itoa(len(listArgs)+1) + " OFFSET $" + strconv.Itoa(len(listArgs)+2)
		listArgs = append(listArgs, pagination.Limit, pagination.Offset)

		rows, err := db.Query(listQuery, listArgs...)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		txns := []TransactionRow{}
		for rows.Next() {
			var t TransactionRow
			var date time.Time
			if err := rows.Scan(&t.ID, &date, &t.Amount, &t.Merchant, &t.Description, &t.Source,
				&t.Status, &t.CategoryID, &t.CategoryName, &t.IsAnomaly, &t.AnomalyScore); err != nil {
				http.Error(w, constants.ErrDB, http.StatusInternalServerError)
				return
			}
			t.Date = date.Format(constants.DateFormat)
			txns = append(txns, t)
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"transactions": txns,
			"pagination":   pagination,
		})
	})
}

// ConfirmTransactions flips pending transactions to processed after the
// user has reviewed an import.
func ConfirmTransactions(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID         int64   `json:"user_id"`
			TransactionIDs []int64 `json:"transaction_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}
		if len(req.TransactionIDs) == 0 {
			http.Error(w, "transaction_ids required", http.StatusBadRequest)
			return
		}

		res, err := db.Exec(`
			UPDATE finsight.transactions
			SET status = 'processed', updated_at = now()
			WHERE user_id = $1 AND status = 'pending' AND id = ANY($2::bigint[])
		`, req.UserID, pq.Array(req.TransactionIDs))
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		confirmed, _ := res.RowsAffected()

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"confirmed": confirmed,
		})
	})
}
