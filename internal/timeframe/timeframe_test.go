package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeFrame(t *testing.T) {
	t.Run("accepts ordered bounds", func(t *testing.T) {
		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

		tf, err := NewTimeFrame(from, to)
		require.NoError(t, err)
		assert.Equal(t, from, tf.From)
		assert.Equal(t, to, tf.To)
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		from := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		_, err := NewTimeFrame(from, to)
		assert.Error(t, err)
	})

	t.Run("rejects equal bounds", func(t *testing.T) {
		at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		_, err := NewTimeFrame(at, at)
		assert.Error(t, err)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*3600)
		from := time.Date(2026, 8, 1, 10, 0, 0, 0, loc)
		to := time.Date(2026, 8, 2, 10, 0, 0, 0, loc)

		tf, err := NewTimeFrame(from, to)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, tf.From.Location())
		assert.Equal(t, time.UTC, tf.To.Location())
	})
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	t.Run("seven day window includes today", func(t *testing.T) {
		tf := LastNDays(now, 7)

		assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), tf.From)
		assert.Equal(t, now, tf.To)
		assert.Equal(t, 7, tf.Days())
	})

	t.Run("single day window starts at midnight today", func(t *testing.T) {
		tf := LastNDays(now, 1)

		assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), tf.From)
		assert.Equal(t, 1, tf.Days())
	})

	t.Run("clamps non positive n to one day", func(t *testing.T) {
		tf := LastNDays(now, 0)
		assert.Equal(t, 1, tf.Days())
	})

	t.Run("crosses month boundaries", func(t *testing.T) {
		tf := LastNDays(now, 31)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), tf.From)
	})
}

func TestTimeFrameContains(t *testing.T) {
	tf := LastNDays(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), 7)

	assert.True(t, tf.Contains(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)))
	assert.True(t, tf.Contains(time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC)))
	assert.False(t, tf.Contains(time.Date(2026, 8, 24, 23, 59, 59, 0, time.UTC)))
	assert.False(t, tf.Contains(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)))
}

func TestDayLabels(t *testing.T) {
	tf := LastNDays(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), 3)

	assert.Equal(t, []string{"2026-08-29", "2026-08-30", "2026-08-31"}, tf.DayLabels())
}
