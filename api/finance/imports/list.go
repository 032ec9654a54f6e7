package imports

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"FinSightSaaS/api/constants"
)

// ListImports returns the user's import history, newest first.
func ListImports(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID int64 `json:"user_id"`
			Limit  *int  `json:"limit,omitempty"`
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
			SELECT id, filename, file_type, status,
			       COALESCE(total_transactions, 0),
			       COALESCE(processed_transactions, 0),
			       error_message, created_at, completed_at
			FROM finsight.import_jobs
			WHERE user_id = $1
			ORDER BY created_at DESC
		`
		args := []interface{}{req.UserID}
		if req.Limit != nil && *req.Limit > 0 {
			query += " LIMIT $2"
			args = append(args, *req.Limit)
		}

		rows, err := db.Query(query, args...)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		jobs := []ImportJobRow{}
		for rows.Next() {
			var job ImportJobRow
			if err := rows.Scan(&job.ID, &job.Filename, &job.FileType, &job.Status,
				&job.Total, &job.Processed, &job.ErrorMessage, &job.CreatedAt, &job.CompletedAt); err != nil {
				http.Error(w, constants.ErrDB, http.StatusInternalServerError)
				return
			}
			jobs = append(jobs, job)
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"imports": jobs,
		})
	})
}
