package categories

import (
	"encoding/json"
	"net/http"

	"FinSightSaaS/api/constants"
	"FinSightSaaS/internal/categorize"
	"FinSightSaaS/internal/jobs"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ManualCategorizationTriggerHandler runs the auto-categorization job on
// demand instead of waiting for the nightly schedule.
func ManualCategorizationTriggerHandler(pgxPool *pgxpool.Pool, engine *categorize.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			UserID    int64 `json:"user_id"`
			BatchSize int   `json:"batch_size,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if body.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}

		batchSize := body.BatchSize
		if batchSize <= 0 {
			batchSize = 500
		}
		if batchSize > 5000 {
			batchSize = 5000
		}

		err := jobs.ProcessUncategorizedTransactions(pgxPool, engine, batchSize)
		if err != nil {
			w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Categorization job failed: " + err.Error(),
			})
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "Categorization job completed successfully",
		})
	})
}
