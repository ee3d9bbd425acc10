package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetDeviceBreakdown returns page view counts grouped by device type.
func GetDeviceBreakdown(db *gorm.DB, params QueryParams) ([]BreakdownStat, error) {
	return breakdownByColumn(db, params, "device_type")
}

// GetBrowserBreakdown returns page view counts grouped by browser family.
func GetBrowserBreakdown(db *gorm.DB, params QueryParams) ([]BreakdownStat, error) {
	return breakdownByColumn(db, params, "browser")
}

// GetOSBreakdown returns page view counts grouped by operating system.
func GetOSBreakdown(db *gorm.DB, params QueryParams) ([]BreakdownStat, error) {
	return breakdownByColumn(db, params, "operating_system")
}

// GetCountryBreakdown returns page view counts grouped by ISO country
// code. Events with no resolved country are skipped.
func GetCountryBreakdown(db *gorm.DB, params QueryParams) ([]BreakdownStat, error) {
	var results []BreakdownStat

	query := `
        SELECT
            country AS name,
            COUNT(*) AS count
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
          AND country <> ''
        GROUP BY country
        ORDER BY count DESC, name ASC
    `
	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching country breakdown: %w", err)
	}

	if results == nil {
		results = []BreakdownStat{}
	}
	return results, nil
}

// column is always one of the fixed names above, never user input.
func breakdownByColumn(db *gorm.DB, params QueryParams, column string) ([]BreakdownStat, error) {
	var results []BreakdownStat

	query := fmt.Sprintf(`
        SELECT
            %s AS name,
            COUNT(*) AS count
        FROM visitor_events
        WHERE created_at >= ? AND created_at < ?
        GROUP BY %s
        ORDER BY count DESC, name ASC
    `, column, column)

	err := db.Raw(query,
		params.TimeFrame.From.UTC(),
		params.TimeFrame.To.UTC(),
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching %s breakdown: %w", column, err)
	}

	if results == nil {
		results = []BreakdownStat{}
	}
	return results, nil
}
