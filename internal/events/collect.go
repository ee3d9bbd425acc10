package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"backbeat/internal/pkg/geoip"
	"backbeat/internal/useragent"
)

// CollectPageViewInput defines the input required to record a page view.
type CollectPageViewInput struct {
	VisitorID     string
	PagePath      string
	Referrer      string
	UserAgent     string
	IPFingerprint string
	IPAddress     string
	Timestamp     time.Time
}

// CollectPageView appends a page view to the event log and bumps the
// per path counter in the same transaction. The context bounds the
// write: once it expires the write is abandoned, not retried.
func CollectPageView(ctx context.Context, dbManager cartridge.DBManager, logger *slog.Logger, input *CollectPageViewInput) error {
	pagePath := strings.TrimSpace(input.PagePath)
	if pagePath == "" {
		return fmt.Errorf("page path is required")
	}

	classification := useragent.Classify(input.UserAgent)
	country := geoip.CountryCode(input.IPAddress)

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	event := &VisitorEvent{
		VisitorID:       input.VisitorID,
		PagePath:        pagePath,
		Referrer:        input.Referrer,
		UserAgent:       input.UserAgent,
		IPFingerprint:   input.IPFingerprint,
		DeviceType:      classification.DeviceType,
		Browser:         classification.Browser,
		OperatingSystem: classification.OS,
		Country:         country,
		CreatedAt:       timestamp.UTC(),
	}

	db := dbManager.GetConnection().WithContext(ctx)
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return incrementPageView(tx, pagePath)
	})
	if err != nil {
		logger.Error("Failed to store page view", slog.Any("error", err), slog.String("page_path", pagePath))
		return fmt.Errorf("failed to store page view: %w", err)
	}

	return nil
}
