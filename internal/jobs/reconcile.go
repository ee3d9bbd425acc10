package jobs

import (
	"log/slog"

	"backbeat/internal/database"
	"backbeat/internal/events"
)

// ReconcileJob rebuilds page view counters from the event log. Counter
// increments on the ingestion path are best effort, so a crash between
// storing the event and bumping the counter leaves the counter behind.
// Periodic reconciliation repairs that drift.
type ReconcileJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewReconcileJob(dbManager *database.DBManager, logger *slog.Logger) *ReconcileJob {
	return &ReconcileJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

func (j *ReconcileJob) Run() error {
	j.logger.Debug("Reconciling page view counters")
	return events.RebuildPageViewCounters(j.dbManager, j.logger)
}
