package finance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"FinSightSaaS/api/finance/anomalies"
	"FinSightSaaS/api/finance/categories"
	"FinSightSaaS/api/finance/imports"
	"FinSightSaaS/api/finance/transactions"
	"FinSightSaaS/internal/anomaly"
	"FinSightSaaS/internal/categorize"
	"FinSightSaaS/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartFinanceService mounts every finance surface on its own port:
// statement imports, transactions, categories and rules, anomalies.
func StartFinanceService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/finance/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Finance Service is active"))
	})

	engine := buildEngine()
	detector := buildDetector()

	mux.Handle("/finance/imports/upload", imports.UploadStatement(db, engine))
	mux.Handle("/finance/imports/list", imports.ListImports(db))

	mux.Handle("/finance/transactions/list", transactions.ListTransactions(db))
	mux.Handle("/finance/transactions/confirm", transactions.ConfirmTransactions(db))

	mux.Handle("/finance/categories/list", categories.ListCategories(db))
	mux.Handle("/finance/categories/rules/create", categories.CreateMerchantRule(db))
	mux.Handle("/finance/categories/rules/list", categories.ListMerchantRules(db))
	mux.Handle("/finance/categories/rules/deactivate", categories.DeactivateMerchantRule(db))
	mux.Handle("/finance/categories/uncategorized", categories.GetUncategorizedTransactionsHandler(db))

	mux.Handle("/finance/anomalies/list", anomalies.ListAnomalies(db, detector))
	mux.Handle("/finance/anomalies/recalculate", anomalies.RecalculateAnomalies(db, detector))

	// The manual trigger reuses the cron job path, which runs on a pgx
	// pool; build one from the same env the sql.DB came from.
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user != "" && pass != "" && host != "" && port != "" && name != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
		pgxPool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("failed to connect to pgxpool DB: %v", err)
		}
		mux.Handle("/finance/categories/trigger-categorization", categories.ManualCategorizationTriggerHandler(pgxPool, engine))
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Finance Service starting on :7143")
	}
	log.Println("Finance Service started on :7143")
	err := http.ListenAndServe(":7143", mux)
	if err != nil {
		log.Fatalf("Finance Service failed: %v", err)
	}
}

// buildEngine returns the categorization engine, honoring a taxonomy
// override file when configured.
func buildEngine() *categorize.Engine {
	if path := os.Getenv("TAXONOMY_FILE"); path != "" {
		engine, err := categorize.NewEngineFromFile(path)
		if err == nil {
			return engine
		}
		log.Printf("taxonomy file %s rejected, using built-in taxonomy: %v", path, err)
	}
	return categorize.NewEngine()
}

// buildDetector returns the anomaly detector used by the HTTP surfaces:
// isolation forest primary, z-score fallback, contamination from env.
func buildDetector() *anomaly.Detector {
	contamination := 0.10
	if c := os.Getenv("ANOMALY_CONTAMINATION"); c != "" {
		if parsed, err := strconv.ParseFloat(c, 64); err == nil && parsed > 0 && parsed <= 0.5 {
			contamination = parsed
		}
	}
	return anomaly.NewDetector(anomaly.WithStrategy(
		anomaly.NewIsolationStrategy(anomaly.WithContamination(contamination)),
	))
}
