package categories

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"FinSightSaaS/api/constants"
)

// CategoryRow is the list projection of a category.
type CategoryRow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ParentID     *int64 `json:"parent_id,omitempty"`
	CategoryType string `json:"category_type"`
	IsSystem     bool   `json:"is_system"`
}

// ListCategories returns the user's categories plus the system set.
func ListCategories(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			UserID int64 `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, constants.ErrInvalidJSON, http.StatusBadRequest)
			return
		}
		if req.UserID <= 0 {
			http.Error(w, constants.ErrMissingUserID, http.StatusBadRequest)
			return
		}

		rows, err := db.Query(`
			SELECT id, name, parent_id, category_type, is_system
			FROM finsight.categories
			WHERE user_id = $1 OR user_id IS NULL
			ORDER BY is_system, parent_id NULLS FIRST, id
		`, req.UserID)
		if err != nil {
			http.Error(w, constants.ErrDB, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		categories := []CategoryRow{}
		for rows.Next() {
			var c CategoryRow
			if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.CategoryType, &c.IsSystem); err != nil {
				http.Error(w, constants.ErrDB, http.StatusInternalServerError)
				return
			}
			categories = append(categories, c)
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"categories": categories,
		})
	})
}
