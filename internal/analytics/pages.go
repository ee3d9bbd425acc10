package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetTopPages returns the most viewed page paths inside the time frame,
// most viewed first. Ties break alphabetically by path so the ranking
// is stable across runs.
func GetTopPages(db *gorm.DB, params QueryParams, limit int) ([]PageStat, error) {
	if limit <= 0 {
		limit = TopPagesLimit
	}

	var results []PageStat

	query := `
        SELECT
            page_path AS path,
            COUNT(*) AS views
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
        GROUP BY page_path
        ORDER BY views DESC, page_path ASC
        LIMIT ?
    `
	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
		limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top pages: %w", err)
	}

	if results == nil {
		results = []PageStat{}
	}
	return results, nil
}
