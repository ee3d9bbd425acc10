package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"backbeat/internal/analytics"
	"backbeat/internal/timeframe"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365
)

// DailyTrendPoint is one day of the visit trend in the stats response.
type DailyTrendPoint struct {
	Date   string `json:"date"`
	Visits int    `json:"visits"`
}

// StatsResponse is the payload served by the stats endpoint.
type StatsResponse struct {
	TotalVisits      int64                `json:"totalVisits"`
	UniqueVisitors   int64                `json:"uniqueVisitors"`
	TopPages         []analytics.PageStat `json:"topPages"`
	Devices          map[string]int64     `json:"devices"`
	Browsers         map[string]int64     `json:"browsers"`
	OperatingSystems map[string]int64     `json:"operatingSystems"`
	Countries        map[string]int64     `json:"countries"`
	DailyTrend       []DailyTrendPoint    `json:"dailyTrend"`
	Period           int                  `json:"period"`
}

// GetStatsHandler serves aggregate stats for the last N days.
func GetStatsHandler(ctx *cartridge.Context) error {
	days := parseDaysParam(ctx.Query("days"))

	params := analytics.QueryParams{
		TimeFrame: timeframe.LastNDays(time.Now().UTC(), days),
	}

	db := ctx.DBManager.GetConnection()
	summary, err := analytics.GetStatsSummary(context.Background(), db, params)
	if err != nil {
		ctx.Logger.Error("Failed to fetch stats summary", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	resp := StatsResponse{
		TotalVisits:      summary.TotalVisits,
		UniqueVisitors:   summary.UniqueVisitors,
		TopPages:         summary.TopPages,
		Devices:          breakdownToMap(summary.Devices),
		Browsers:         breakdownToMap(summary.Browsers),
		OperatingSystems: breakdownToMap(summary.OperatingSystems),
		Countries:        countryDisplayNames(summary.Countries),
		DailyTrend:       convertDailyTrend(summary.DailyTrend),
		Period:           days,
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"stats": resp,
	})
}

// parseDaysParam clamps the days query parameter into a sane window.
func parseDaysParam(raw string) int {
	if raw == "" {
		return defaultStatsDays
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return defaultStatsDays
	}
	if days > maxStatsDays {
		return maxStatsDays
	}
	return days
}

func convertDailyTrend(trend []timeframe.DateStat) []DailyTrendPoint {
	result := make([]DailyTrendPoint, len(trend))
	for i, stat := range trend {
		result[i] = DailyTrendPoint{Date: stat.Date, Visits: stat.Count}
	}
	return result
}

func breakdownToMap(items []analytics.BreakdownStat) map[string]int64 {
	result := make(map[string]int64, len(items))
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		result[name] += item.Count
	}
	return result
}

// countryDisplayNames maps ISO codes to human readable country names.
func countryDisplayNames(items []analytics.BreakdownStat) map[string]int64 {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make(map[string]int64, len(items))
	for _, item := range items {
		country, err := countries.FindCountryByAlpha(item.Name)
		if err != nil {
			result[caser.String(item.Name)] += item.Count
			continue
		}
		result[country.Name.Common] += item.Count
	}
	return result
}
