// Package seeder populates the database with realistic demo traffic
// for development and screenshots.
package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"backbeat/internal/events"
	"backbeat/internal/visitors"
)

// Seeder handles the demo data seeding process.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

var seedPages = []struct {
	path   string
	weight int
}{
	{"/", 30},
	{"/albums", 18},
	{"/albums/blue-train", 10},
	{"/tour", 14},
	{"/news", 10},
	{"/merch", 8},
	{"/about", 6},
	{"/contact", 4},
}

var seedReferrers = []string{
	"",
	"",
	"https://google.com/search",
	"https://bandcamp.com",
	"https://instagram.com",
	"https://news.ycombinator.com",
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0",
}

// Seed generates EventCount page views spread over the last 30 days,
// reusing a pool of visitor identities so unique visitor stats look
// plausible. Counters are rebuilt at the end so they match the log.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo traffic...", slog.Int("eventCount", s.EventCount))

	visitorPool := make([]string, max(s.EventCount/8, 1))
	for i := range visitorPool {
		visitorPool[i] = visitors.MintVisitorID()
	}

	now := time.Now().UTC()
	for i := 0; i < s.EventCount; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		visitorID := visitorPool[rand.IntN(len(visitorPool))]
		input := &events.CollectPageViewInput{
			VisitorID:     visitorID,
			PagePath:      pickWeightedPage(),
			Referrer:      seedReferrers[rand.IntN(len(seedReferrers))],
			UserAgent:     seedUserAgents[rand.IntN(len(seedUserAgents))],
			IPFingerprint: visitors.Fingerprint(randomPublicIP(), "seed-key"),
			Timestamp:     now.Add(-time.Duration(rand.IntN(30*24*60)) * time.Minute),
		}
		if err := events.CollectPageView(ctx, s.DBManager, s.Logger, input); err != nil {
			return fmt.Errorf("failed to seed page view %d: %w", i, err)
		}
	}

	// Collect already bumps counters; rebuilding keeps them exact even
	// if a previous partial seed left drift behind.
	if err := events.RebuildPageViewCounters(s.DBManager, s.Logger); err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Int("events", s.EventCount),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func pickWeightedPage() string {
	total := 0
	for _, p := range seedPages {
		total += p.weight
	}
	n := rand.IntN(total)
	for _, p := range seedPages {
		if n < p.weight {
			return p.path
		}
		n -= p.weight
	}
	return seedPages[0].path
}

func randomPublicIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", 20+rand.IntN(180), rand.IntN(256), rand.IntN(256), 1+rand.IntN(254))
}
