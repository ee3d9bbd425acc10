package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetTotalVisits counts every page view inside the time frame.
func GetTotalVisits(db *gorm.DB, params QueryParams) (int64, error) {
	var count int64

	query := `
        SELECT COUNT(*)
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
    `
	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error fetching total visits: %w", err)
	}

	return count, nil
}

// GetUniqueVisitors counts distinct visitor tokens inside the time
// frame. Events recorded without a token are excluded rather than
// collapsed into one phantom visitor.
func GetUniqueVisitors(db *gorm.DB, params QueryParams) (int64, error) {
	var count int64

	query := `
        SELECT COUNT(DISTINCT visitor_id)
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
          AND visitor_id <> ''
    `
	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error fetching unique visitors: %w", err)
	}

	return count, nil
}
