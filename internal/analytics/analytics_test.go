package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backbeat/internal/analytics"
	"backbeat/internal/events"
	"backbeat/internal/testsupport"
	"backbeat/internal/timeframe"
)

func paramsForLastDays(n int) analytics.QueryParams {
	return analytics.QueryParams{TimeFrame: timeframe.LastNDays(time.Now().UTC(), n)}
}

func TestTotals(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("counts every visit in the frame", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		testsupport.CreateTestEvent(t, db, "v-1", "/home", now)
		testsupport.CreateTestEvent(t, db, "v-1", "/tour", now)
		testsupport.CreateTestEvent(t, db, "v-2", "/home", now)

		total, err := analytics.GetTotalVisits(db, paramsForLastDays(7))
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("excludes visits outside the frame", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		testsupport.CreateTestEvent(t, db, "v-1", "/home", now)
		testsupport.CreateTestEvent(t, db, "v-1", "/home", now.AddDate(0, 0, -30))

		total, err := analytics.GetTotalVisits(db, paramsForLastDays(7))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("unique visitors collapses repeat visits", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		testsupport.CreateTestEvent(t, db, "v-1", "/home", now)
		testsupport.CreateTestEvent(t, db, "v-1", "/tour", now)
		testsupport.CreateTestEvent(t, db, "v-2", "/home", now)

		unique, err := analytics.GetUniqueVisitors(db, paramsForLastDays(7))
		require.NoError(t, err)
		assert.Equal(t, int64(2), unique)
	})

	t.Run("unique visitors never exceeds total visits", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		for i := 0; i < 10; i++ {
			testsupport.CreateTestEvent(t, db, fmt.Sprintf("v-%d", i%3), "/home", now)
		}

		params := paramsForLastDays(7)
		total, err := analytics.GetTotalVisits(db, params)
		require.NoError(t, err)
		unique, err := analytics.GetUniqueVisitors(db, params)
		require.NoError(t, err)
		assert.LessOrEqual(t, unique, total)
		assert.Equal(t, int64(3), unique)
	})

	t.Run("empty frame returns zero", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		params := paramsForLastDays(7)
		total, err := analytics.GetTotalVisits(db, params)
		require.NoError(t, err)
		assert.Zero(t, total)

		unique, err := analytics.GetUniqueVisitors(db, params)
		require.NoError(t, err)
		assert.Zero(t, unique)
	})
}

func TestGetTopPages(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("ranks by views descending with stable ties", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		for i := 0; i < 3; i++ {
			testsupport.CreateTestEvent(t, db, "v-1", "/albums", now)
		}
		testsupport.CreateTestEvent(t, db, "v-1", "/tour", now)
		testsupport.CreateTestEvent(t, db, "v-1", "/news", now)

		pages, err := analytics.GetTopPages(db, paramsForLastDays(7), 10)
		require.NoError(t, err)
		require.Len(t, pages, 3)
		assert.Equal(t, analytics.PageStat{Path: "/albums", Views: 3}, pages[0])
		// /news and /tour tie on one view each, alphabetical order wins.
		assert.Equal(t, "/news", pages[1].Path)
		assert.Equal(t, "/tour", pages[2].Path)
	})

	t.Run("caps the ranking at the limit", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		for i := 0; i < 15; i++ {
			testsupport.CreateTestEvent(t, db, "v-1", fmt.Sprintf("/page-%02d", i), now)
		}

		pages, err := analytics.GetTopPages(db, paramsForLastDays(7), 10)
		require.NoError(t, err)
		assert.Len(t, pages, 10)
	})

	t.Run("returns empty slice when there is no traffic", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		pages, err := analytics.GetTopPages(db, paramsForLastDays(7), 10)
		require.NoError(t, err)
		assert.NotNil(t, pages)
		assert.Empty(t, pages)
	})
}

func TestBreakdowns(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	seed := func(t *testing.T) {
		testsupport.CleanAllTables(db)
		now := time.Now().UTC()
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-1", PagePath: "/home", DeviceType: "mobile",
			Browser: "safari", OperatingSystem: "ios", Country: "DE", CreatedAt: now,
		})
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-2", PagePath: "/home", DeviceType: "mobile",
			Browser: "chrome", OperatingSystem: "android", Country: "DE", CreatedAt: now,
		})
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-3", PagePath: "/home", DeviceType: "desktop",
			Browser: "firefox", OperatingSystem: "linux", CreatedAt: now,
		})
	}

	t.Run("devices grouped and ordered by count", func(t *testing.T) {
		seed(t)

		devices, err := analytics.GetDeviceBreakdown(db, paramsForLastDays(7))
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, analytics.BreakdownStat{Name: "mobile", Count: 2}, devices[0])
		assert.Equal(t, analytics.BreakdownStat{Name: "desktop", Count: 1}, devices[1])
	})

	t.Run("browsers grouped per family", func(t *testing.T) {
		seed(t)

		browsers, err := analytics.GetBrowserBreakdown(db, paramsForLastDays(7))
		require.NoError(t, err)
		assert.Len(t, browsers, 3)
		for _, b := range browsers {
			assert.Equal(t, int64(1), b.Count)
		}
	})

	t.Run("operating systems grouped per family", func(t *testing.T) {
		seed(t)

		systems, err := analytics.GetOSBreakdown(db, paramsForLastDays(7))
		require.NoError(t, err)
		require.Len(t, systems, 3)
		names := make([]string, 0, len(systems))
		for _, s := range systems {
			assert.Equal(t, int64(1), s.Count)
			names = append(names, s.Name)
		}
		assert.ElementsMatch(t, []string{"android", "ios", "linux"}, names)
	})

	t.Run("countries skip events without a resolved country", func(t *testing.T) {
		seed(t)

		countries, err := analytics.GetCountryBreakdown(db, paramsForLastDays(7))
		require.NoError(t, err)
		require.Len(t, countries, 1)
		assert.Equal(t, analytics.BreakdownStat{Name: "DE", Count: 2}, countries[0])
	})
}

func TestGetDailyTrend(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("buckets visits by calendar day and omits quiet days", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		testsupport.CreateTestEvent(t, db, "v-1", "/home", now)
		testsupport.CreateTestEvent(t, db, "v-2", "/home", now)
		twoDaysAgo := now.AddDate(0, 0, -2)
		testsupport.CreateTestEvent(t, db, "v-1", "/tour", twoDaysAgo)

		trend, err := analytics.GetDailyTrend(db, paramsForLastDays(7))
		require.NoError(t, err)
		require.Len(t, trend, 2)
		assert.Equal(t, twoDaysAgo.Format(timeframe.DayFormat), trend[0].Date)
		assert.Equal(t, 1, trend[0].Count)
		assert.Equal(t, now.Format(timeframe.DayFormat), trend[1].Date)
		assert.Equal(t, 2, trend[1].Count)
	})

	t.Run("empty frame yields empty trend", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		trend, err := analytics.GetDailyTrend(db, paramsForLastDays(7))
		require.NoError(t, err)
		assert.NotNil(t, trend)
		assert.Empty(t, trend)
	})
}

func TestGetStatsSummary(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("gathers every metric for the frame", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		now := time.Now().UTC()
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-1", PagePath: "/home", DeviceType: "desktop",
			Browser: "chrome", OperatingSystem: "windows", Country: "US", CreatedAt: now,
		})
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-1", PagePath: "/tour", DeviceType: "desktop",
			Browser: "chrome", OperatingSystem: "windows", Country: "US", CreatedAt: now,
		})
		testsupport.CreateTestEventFull(t, db, events.VisitorEvent{
			VisitorID: "v-2", PagePath: "/home", DeviceType: "mobile",
			Browser: "safari", OperatingSystem: "ios", Country: "DE", CreatedAt: now,
		})

		summary, err := analytics.GetStatsSummary(context.Background(), db, paramsForLastDays(7))
		require.NoError(t, err)

		assert.Equal(t, int64(3), summary.TotalVisits)
		assert.Equal(t, int64(2), summary.UniqueVisitors)
		require.NotEmpty(t, summary.TopPages)
		assert.Equal(t, "/home", summary.TopPages[0].Path)
		assert.Len(t, summary.Devices, 2)
		assert.Len(t, summary.Browsers, 2)
		assert.Len(t, summary.OperatingSystems, 2)
		assert.Len(t, summary.Countries, 2)
		assert.Len(t, summary.DailyTrend, 1)
	})

	t.Run("cancelled context is an error, not a panic", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary, err := analytics.GetStatsSummary(ctx, db, paramsForLastDays(7))
		require.Error(t, err)
		assert.Nil(t, summary)
	})

	t.Run("empty log produces zeroed summary with empty slices", func(t *testing.T) {
		testsupport.CleanAllTables(db)

		summary, err := analytics.GetStatsSummary(context.Background(), db, paramsForLastDays(7))
		require.NoError(t, err)

		assert.Zero(t, summary.TotalVisits)
		assert.Zero(t, summary.UniqueVisitors)
		assert.Empty(t, summary.TopPages)
		assert.Empty(t, summary.Devices)
		assert.Empty(t, summary.DailyTrend)
	})
}
