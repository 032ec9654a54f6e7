package anomalies

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"FinSightSaaS/api/constants"
	"FinSightSaaS/internal/anomaly"
	"FinSightSaaS/internal/config"
	"FinSightSaaS/internal/jobs"
	"FinSightSaaS/internal/logger"
)

// AnomalyRow is one flagged transaction in the anomaly report.
type AnomalyRow struct {
	TransactionID int64   `json:"transaction_id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Merchant      string  `json:"merchant"`
	Score         float64 `json:"anomaly_score"`
	Reason        string  `json:"reason"`
	Severity      string  `json:"severity"`
}

// ListAnomalies rescores the user's recent window and returns the
// flagged transactions with reason and severity. The fresh flags and
// scores are persisted as a side effect, so the listing is always
// consistent with what is stored.
func ListAnomalies(db *sql.DB, detector *anomaly.Detector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		req, ok := decodeWindowRequest(w, r)
		if !ok {
			return
		}

		ctx := r.Context()
		txns, err := jobs.LoadWindowSnapshot(ctx, db, req.UserID, req.Months)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		scores := detector.Detect(txns)
		if err := jobs.BulkUpdateScores(ctx, db, scores); err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}

		byID := make(map[int64]anomaly.Transaction, len(txns))
		for _, t := range txns {
			byID[t.ID] = t
		}

		flagged := []AnomalyRow{}
		for _, s := range scores {
			if !s.IsAnomaly {
				continue
			}
			t := byID[s.TransactionID]
			row := AnomalyRow{
				TransactionID: s.TransactionID,
				Date:          t.Date.Format(constants.DateFormat),
				Amount:        t.Amount,
				Score:         s.Score,
				Reason:        s.Reason,
				Severity:      s.Severity,
			}
			flagged = append(flagged, row)
		}
		if err := fillMerchants(db, flagged); err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"months":    req.Months,
			"anomalies": flagged,
		})
	})
}

// RecalculateAnomalies rescores the window and reports how many
// transactions were processed.
func RecalculateAnomalies(db *sql.DB, detector *anomaly.Detector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		req, ok := decodeWindowRequest(w, r)
		if !ok {
			return
		}

		count, err := jobs.RescoreUserWindow(r.Context(), db, detector, req.UserID, req.Months)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		logger.GlobalLogger.LogAudit(fmt.Sprintf("[Anomalies] Rescored %d transactions for user %d (window %d months)", count, req.UserID, req.Months))

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Anomaly detection completed for %d transactions", count),
		})
	})
}

type windowRequest struct {
	UserID int64 `json:"user_id"`
	Months int   `json:"months,omitempty"`
}

// decodeWindowRequest parses and bounds the shared user_id + months
// request body. Months outside 1..12 is rejected; absent months
// defaults to 3.
func decodeWindowRequest(w http.ResponseWriter, r *http.Request) (windowRequest, bool) {
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
		return req, false
	}
	if req.UserID <= 0 {
		http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
		return req, false
	}
	if req.Months == 0 {
		req.Months = config.DefaultAnomalyMonths
	}
	if req.Months < 1 || req.Months > config.MaxAnomalyMonths {
		http.Error(w, fmt.Sprintf("months must be between 1 and %d", config.MaxAnomalyMonths), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// fillMerchants resolves merchant names for the flagged rows. The
// scoring snapshot deliberately excludes text fields, so the report
// fetches them separately.
func fillMerchants(db *sql.DB, rows []AnomalyRow) error {
	for i := range rows {
		var merchant string
		var date time.Time
		err := db.QueryRow(`SELECT merchant, date FROM finsight.transactions WHERE id = $1`, rows[i].TransactionID).
			Scan(&merchant, &date)
		if err != nil {
			return err
		}
		rows[i].Merchant = merchant
		rows[i].Date = date.Format(constants.DateFormat)
	}
	return nil
}
