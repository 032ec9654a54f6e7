package jobs

import (
	"fmt"
	"log"

	"FinSightSaaS/internal/anomaly"
	"FinSightSaaS/internal/categorize"
	"FinSightSaaS/internal/logger"
	"FinSightSaaS/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	catConfig := NewDefaultCategorizationConfig()
	if s.config != nil {
		if schedule, ok := s.config["categorization_schedule"].(string); ok && schedule != "" {
			catConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["categorization_batch_size"].(int); ok && batchSize > 0 {
			catConfig.BatchSize = batchSize
		}
	}

	engine := categorize.NewEngine()
	if path, ok := s.config["taxonomy_file"].(string); ok && path != "" {
		fileEngine, err := categorize.NewEngineFromFile(path)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Taxonomy file %s rejected, using built-in taxonomy: %v", path, err))
		} else {
			engine = fileEngine
		}
	}

	if err := RunCategorizationScheduler(catConfig, s.db, engine); err != nil {
		return fmt.Errorf("failed to start categorization scheduler: %v", err)
	}
	logger.GlobalLogger.LogAudit("Auto-categorization scheduler started")
	log.Println("Cron service started — Auto-Categorization Scheduler scheduled")

	anomalyConfig := NewDefaultAnomalyConfig()
	if s.config != nil {
		if schedule, ok := s.config["anomaly_schedule"].(string); ok && schedule != "" {
			anomalyConfig.Schedule = schedule
		}
		if months, ok := s.config["anomaly_months"].(int); ok && months > 0 {
			anomalyConfig.Months = months
		}
		if contamination, ok := s.config["anomaly_contamination"].(float64); ok && contamination > 0 {
			anomalyConfig.Contamination = contamination
		}
	}

	detector := anomaly.NewDetector(anomaly.WithStrategy(
		anomaly.NewIsolationStrategy(anomaly.WithContamination(anomalyConfig.Contamination)),
	))
	if err := RunAnomalyScheduler(anomalyConfig, s.db, detector); err != nil {
		return fmt.Errorf("failed to start anomaly rescore scheduler: %v", err)
	}
	logger.GlobalLogger.LogAudit("Anomaly rescore scheduler started")
	log.Println("Cron service started — Anomaly Rescore Scheduler scheduled")

	return nil
}

func (s *CronService) Stop() error {
	// The cron instances are owned by the Run* helpers; nothing holds
	// resources that outlive the process.
	log.Println("Cron service stopped.")
	return nil
}
