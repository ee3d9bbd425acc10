package events

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// IncrementPageView bumps the counter for pagePath by one, creating the
// row if it does not exist. The upsert runs as a single statement so
// concurrent writers never overwrite each other's increments.
func IncrementPageView(dbManager cartridge.DBManager, logger *slog.Logger, pagePath string) error {
	if pagePath == "" {
		return fmt.Errorf("page path is required")
	}
	db := dbManager.GetConnection()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return incrementPageView(tx, pagePath)
	})
}

func incrementPageView(tx *gorm.DB, pagePath string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO page_view_counters (page_path, count, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (page_path) DO UPDATE SET
			count = page_view_counters.count + 1,
			updated_at = ?
	`
	return tx.Exec(query, pagePath, now, now, now).Error
}

// GetPageViewCount returns the current counter value for pagePath, or
// zero when the path has never been viewed.
func GetPageViewCount(dbManager cartridge.DBManager, pagePath string) (int64, error) {
	var counter PageViewCounter
	err := dbManager.GetConnection().
		Where("page_path = ?", pagePath).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read page view counter: %w", err)
	}
	return counter.Count, nil
}

// RebuildPageViewCounters recomputes every counter from the event log.
// Used by the reconcile job and bbctl to repair drift after partial
// failures on the ingestion path.
func RebuildPageViewCounters(dbManager cartridge.DBManager, logger *slog.Logger) error {
	db := dbManager.GetConnection()
	now := time.Now().UTC()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM page_view_counters").Error; err != nil {
			return err
		}
		query := `
			INSERT INTO page_view_counters (page_path, count, created_at, updated_at)
			SELECT page_path, COUNT(*), ?, ?
			FROM visitor_events
			GROUP BY page_path
		`
		return tx.Exec(query, now, now).Error
	})
	if err != nil {
		logger.Error("Failed to rebuild page view counters", slog.Any("error", err))
		return fmt.Errorf("failed to rebuild page view counters: %w", err)
	}
	logger.Info("Rebuilt page view counters from event log")
	return nil
}
