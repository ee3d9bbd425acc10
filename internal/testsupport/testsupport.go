package testsupport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backbeat/internal"
	"backbeat/internal/config"
	"backbeat/internal/events"
)

// VisitorCookieName is the cookie the tracking endpoint uses to carry
// the anonymous visitor token. Must match the name set in the handler.
const VisitorCookieName = "visitor_id"

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with backbeat's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all backbeat models for migration
func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.VisitorEvent{},
		&events.PageViewCounter{},
	}
}

// SetupTestDB creates a test database with all backbeat models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test. Caches the
// database by root test name so subtests share one database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set BACKBEAT_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	logger := GetLogger()
	dbManager := NewTestDBManager(db)

	return dbManager, logger
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	var tables []string
	for _, name := range tableNames {
		if name != "migrations" && name != "schema_migrations" {
			tables = append(tables, name)
		}
	}

	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestApp creates a test Fiber app with all routes mounted
func CreateTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// CreateTestEvent inserts a page view directly into the event log
func CreateTestEvent(t *testing.T, db *gorm.DB, visitorID, pagePath string, timestamp time.Time) *events.VisitorEvent {
	t.Helper()

	event := &events.VisitorEvent{
		VisitorID:       visitorID,
		PagePath:        pagePath,
		UserAgent:       "Mozilla/5.0 Test Browser",
		IPFingerprint:   "0011223344556677",
		DeviceType:      "desktop",
		Browser:         "chrome",
		OperatingSystem: "windows",
		CreatedAt:       timestamp.UTC(),
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// CreateTestEventFull inserts a page view with explicit dimensions
func CreateTestEventFull(t *testing.T, db *gorm.DB, event events.VisitorEvent) *events.VisitorEvent {
	t.Helper()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.UserAgent == "" {
		event.UserAgent = "Mozilla/5.0 Test Browser"
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

// CollectTestPageView records a page view through the ingestion path
func CollectTestPageView(t *testing.T, dbManager cartridge.DBManager, logger *slog.Logger, visitorID, pagePath string) {
	t.Helper()

	input := &events.CollectPageViewInput{
		VisitorID:     visitorID,
		PagePath:      pagePath,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0",
		IPFingerprint: "0011223344556677",
		IPAddress:     "192.168.1.1",
		Timestamp:     time.Now().UTC(),
	}
	require.NoError(t, events.CollectPageView(context.Background(), dbManager, logger, input))
}
