package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"backbeat/internal/config"
	"backbeat/internal/events"
	"backbeat/internal/pkg/async"
	"backbeat/internal/visitors"
)

// VisitorCookieName is the cookie carrying the anonymous visitor token.
const VisitorCookieName = "visitor_id"

const (
	errInvalidRequest  = "Invalid request"
	errMissingPagePath = "pagePath is required"
)

// TrackPageViewParams is the request body for the tracking endpoint.
type TrackPageViewParams struct {
	PagePath string `json:"pagePath"`
	Referrer string `json:"referrer"`
}

var (
	dispatcherOnce sync.Once
	dispatcher     *async.Dispatcher
)

// ingestDispatcher lazily builds the shared ingestion queue so the
// request path never blocks on database writes.
func ingestDispatcher(logger *slog.Logger) *async.Dispatcher {
	dispatcherOnce.Do(func() {
		cfg := config.GetConfig()
		dispatcher = async.NewDispatcher(logger, cfg.IngestWorkers, cfg.IngestQueueSize, cfg.GetIngestTimeout())
	})
	return dispatcher
}

// FlushIngest blocks until every queued page view has been persisted.
// Used by tests and graceful shutdown.
func FlushIngest() {
	if dispatcher != nil {
		dispatcher.Flush()
	}
}

// StopIngest drains the queue and stops the workers.
func StopIngest() {
	if dispatcher != nil {
		dispatcher.Stop()
	}
}

// TrackPageViewHandler records a page view. The response only confirms
// the event was accepted; persistence happens on the ingestion queue.
func TrackPageViewHandler(ctx *cartridge.Context) error {
	var params TrackPageViewParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse track request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
		})
	}

	if strings.TrimSpace(params.PagePath) == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errMissingPagePath,
		})
	}

	cfg := config.GetConfig()
	clientIP := getClientIP(ctx.Ctx)
	identity := visitors.Resolve(ctx.Ctx.Cookies(VisitorCookieName), clientIP, cfg.PrivateKey)

	// Sliding window: refresh the cookie on every visit.
	ctx.Ctx.Cookie(&fiber.Cookie{
		Name:     VisitorCookieName,
		Value:    identity.VisitorID,
		MaxAge:   cfg.GetVisitorCookieMaxAge(),
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Strict",
		Secure:   cfg.IsProduction(),
	})

	userAgent := ctx.Get("User-Agent")
	input := &events.CollectPageViewInput{
		VisitorID:     identity.VisitorID,
		PagePath:      strings.TrimSpace(params.PagePath),
		Referrer:      params.Referrer,
		UserAgent:     userAgent,
		IPFingerprint: identity.IPFingerprint,
		IPAddress:     clientIP,
		Timestamp:     time.Now().UTC(),
	}

	dbManager := ctx.DBManager
	logger := ctx.Logger
	accepted := ingestDispatcher(logger).Dispatch(async.Job{
		Name: "collect_page_view",
		Execute: func(jobCtx context.Context) error {
			return events.CollectPageView(jobCtx, dbManager, logger, input)
		},
	})
	if !accepted {
		ctx.Logger.Warn("Ingestion queue full, page view dropped",
			slog.String("page_path", input.PagePath))
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
