package config

const (
	DefaultTimeZone = "UTC"

	// Anomaly surfaces and rescore job
	DefaultAnomalyMonths = 3
	MaxAnomalyMonths     = 12

	// Background job defaults, overridable via env and services.yaml
	DefaultCategorizationSchedule = "0 18 * * *"
	DefaultAnomalySchedule        = "30 2 * * *"
	CategorizationBatchSize       = 500
)
