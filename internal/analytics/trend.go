package analytics

import (
	"fmt"

	"gorm.io/gorm"

	"backbeat/internal/timeframe"
)

// GetDailyTrend returns per day visit counts inside the time frame,
// oldest day first. Days with no traffic are omitted.
func GetDailyTrend(db *gorm.DB, params QueryParams) ([]timeframe.DateStat, error) {
	var results []timeframe.DateStat

	query := fmt.Sprintf(`
        SELECT
            strftime('%s', created_at) AS date,
            COUNT(*) AS count
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
        GROUP BY date
        ORDER BY date ASC
    `, timeframe.SQLiteDateFormat)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching daily trend: %w", err)
	}

	if results == nil {
		results = []timeframe.DateStat{}
	}
	return results, nil
}
