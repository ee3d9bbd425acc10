// main.go - Admin control tool for backbeat
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"backbeat/internal"
	"backbeat/internal/config"
	"backbeat/internal/events"
	"backbeat/internal/pkg/logging"
	"backbeat/internal/seeder"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultSeedEvents      = 2000
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&SeedCommand{},
	&RebuildCountersCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	logger := logging.NewLogger(config.GetConfig(), "bbctl")
	defer logger.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		logger.Infof("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		logger.Warnf("Failed to initialize app: %v", err)
		logger.Warn("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, logger, args); err != nil {
		logger.Fatalf("Command failed: %v", err)
	}

	logger.Infof("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Unknown command.")
	fmt.Println("Usage: bbctl [command] [args...]")
	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
	os.Exit(1)
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Info("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Migrations completed successfully")
	return nil
}

// SeedCommand populates the database with demo traffic
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Populates the database with demo page views (optional arg: event count)" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot seed")
	}

	cfg := config.GetConfig()
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed a production database")
	}

	eventCount := defaultSeedEvents
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid event count %q", args[0])
		}
		eventCount = parsed
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	s := seeder.NewSeeder(app.DBManager, slog.Default(), eventCount)
	return s.Seed(ctx)
}

// RebuildCountersCommand recomputes page view counters from the event log
type RebuildCountersCommand struct{}

func (c *RebuildCountersCommand) Name() string { return "rebuild-counters" }
func (c *RebuildCountersCommand) Description() string {
	return "Recomputes page view counters from the event log"
}

func (c *RebuildCountersCommand) Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot rebuild counters")
	}

	log.Info("Rebuilding page view counters...")
	if err := events.RebuildPageViewCounters(app.DBManager, slog.Default()); err != nil {
		return err
	}

	log.Info("Counters rebuilt")
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	db := app.DBManager.GetConnection()

	var eventCount int64
	if err := db.Model(&events.VisitorEvent{}).Count(&eventCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	var counterCount int64
	if err := db.Model(&events.PageViewCounter{}).Count(&counterCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Info("System Status:")
	log.Info("- Database: Connected")
	log.Infof("- Page view events: %d", eventCount)
	log.Infof("- Tracked pages: %d", counterCount)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Infof("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Infof("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Infof("- In Use: %d", sqlDB.Stats().InUse)
	log.Infof("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, log *logging.Logger, args []string) error {
	fmt.Println("Usage: bbctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	return nil
}
