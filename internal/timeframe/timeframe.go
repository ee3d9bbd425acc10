package timeframe

import (
	"fmt"
	"time"
)

// DateStat is a count bucketed by calendar day.
type DateStat struct {
	Date  string
	Count int
}

// SQLiteDateFormat is the strftime format used to bucket event
// timestamps into calendar days.
const SQLiteDateFormat = "%Y-%m-%d"

// DayFormat is the Go layout matching SQLiteDateFormat.
const DayFormat = "2006-01-02"

// TimeFrame represents a half-open period [From, To) in UTC.
type TimeFrame struct {
	From time.Time
	To   time.Time
}

// NewTimeFrame builds a time frame from explicit bounds.
func NewTimeFrame(from, to time.Time) (TimeFrame, error) {
	if !to.After(from) {
		return TimeFrame{}, fmt.Errorf("invalid time frame: %s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return TimeFrame{From: from.UTC(), To: to.UTC()}, nil
}

// LastNDays returns a frame covering the last n calendar days in UTC,
// including today. The frame starts at midnight n-1 days ago and ends at
// the given moment.
func LastNDays(now time.Time, n int) TimeFrame {
	if n < 1 {
		n = 1
	}
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(n - 1))
	return TimeFrame{From: start, To: now}
}

// Days returns the number of calendar days the frame spans.
func (tf TimeFrame) Days() int {
	from := time.Date(tf.From.Year(), tf.From.Month(), tf.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(tf.To.Year(), tf.To.Month(), tf.To.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours()/24) + 1
}

// Contains reports whether t falls inside the frame.
func (tf TimeFrame) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(tf.From) && t.Before(tf.To)
}

// DayLabels returns the day keys covered by the frame, oldest first,
// formatted with DayFormat.
func (tf TimeFrame) DayLabels() []string {
	labels := make([]string, 0, tf.Days())
	day := time.Date(tf.From.Year(), tf.From.Month(), tf.From.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(tf.To) {
		labels = append(labels, day.Format(DayFormat))
		day = day.AddDate(0, 0, 1)
	}
	return labels
}
