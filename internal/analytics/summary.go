package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"backbeat/internal/pkg/async"
	"backbeat/internal/timeframe"
)

// StatsSummary bundles every aggregate the stats endpoint serves for a
// single time frame.
type StatsSummary struct {
	TotalVisits      int64
	UniqueVisitors   int64
	TopPages         []PageStat
	Devices          []BreakdownStat
	Browsers         []BreakdownStat
	OperatingSystems []BreakdownStat
	Countries        []BreakdownStat
	DailyTrend       []timeframe.DateStat
}

// GetStatsSummary fetches all summary metrics concurrently. The daily
// trend always covers the trailing week ending at the frame's upper
// bound, regardless of how wide the frame itself is.
func GetStatsSummary(ctx context.Context, db *gorm.DB, params QueryParams) (*StatsSummary, error) {
	trendParams := QueryParams{
		TimeFrame: timeframe.LastNDays(params.TimeFrame.To, DailyTrendDays),
	}

	tasks := []async.Task{
		{
			Name: "totalVisits",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetTotalVisits(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "uniqueVisitors",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetUniqueVisitors(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "topPages",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetTopPages(db.WithContext(taskCtx), params, TopPagesLimit)
			},
		},
		{
			Name: "devices",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetDeviceBreakdown(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "browsers",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetBrowserBreakdown(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "operatingSystems",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetOSBreakdown(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "countries",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetCountryBreakdown(db.WithContext(taskCtx), params)
			},
		},
		{
			Name: "dailyTrend",
			Execute: func(taskCtx context.Context) (interface{}, error) {
				return GetDailyTrend(db.WithContext(taskCtx), trendParams)
			},
		},
	}

	pool := async.NewPool(4)
	results := pool.Execute(ctx, tasks)

	for name, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("error fetching %s: %w", name, result.Err)
		}
	}
	if len(results) != len(tasks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("stats batch incomplete: got %d of %d results", len(results), len(tasks))
	}

	return &StatsSummary{
		TotalVisits:      results["totalVisits"].Data.(int64),
		UniqueVisitors:   results["uniqueVisitors"].Data.(int64),
		TopPages:         results["topPages"].Data.([]PageStat),
		Devices:          results["devices"].Data.([]BreakdownStat),
		Browsers:         results["browsers"].Data.([]BreakdownStat),
		OperatingSystems: results["operatingSystems"].Data.([]BreakdownStat),
		Countries:        results["countries"].Data.([]BreakdownStat),
		DailyTrend:       results["dailyTrend"].Data.([]timeframe.DateStat),
	}, nil
}
