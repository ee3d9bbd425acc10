// Package analytics answers aggregate questions over the page view
// event log for a given time frame.
package analytics

import "backbeat/internal/timeframe"

// QueryParams scopes a stats query to a time frame.
type QueryParams struct {
	TimeFrame timeframe.TimeFrame
}

// PageStat is a page path with its view count.
type PageStat struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// BreakdownStat is a dimension value with its view count, used for
// device, browser and country breakdowns.
type BreakdownStat struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TopPagesLimit caps how many entries the top pages ranking returns.
const TopPagesLimit = 10

// DailyTrendDays is how many trailing days the visit trend spans.
const DailyTrendDays = 7
