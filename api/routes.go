package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"FinSightSaaS/pkg/loadbalancer"
)

var startedAt = time.Now()

// NewOpsRouter serves the gateway's operational surface: liveness,
// uptime, and the balancer's current target list.
func NewOpsRouter(lb *loadbalancer.LoadBalancer) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ops/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"status":  "ok",
		})
	}).Methods("GET")

	router.HandleFunc("/ops/uptime", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"started_at": startedAt.Format(time.RFC3339),
			"uptime":     time.Since(startedAt).String(),
		})
	}).Methods("GET")

	router.HandleFunc("/ops/targets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"targets": lb.Targets(),
		})
	}).Methods("GET")

	return router
}
