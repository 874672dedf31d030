package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"tasksync/internal/integrations"
	"tasksync/internal/integrations/applecal"
	"tasksync/internal/integrations/applereminders"
	"tasksync/internal/integrations/github"
	"tasksync/internal/integrations/googlecal"
	"tasksync/internal/schema"
	"tasksync/internal/settings"
	"tasksync/internal/status"
	"tasksync/internal/syncer"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	registerIntegrations()

	app := &cli.App{
		Name:  "tasksync",
		Usage: "Sync tasks and events from GitHub, Apple Reminders and calendars into a local task store.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Value: "settings.json", Usage: "Path to the settings file."},
		},
		Commands: []*cli.Command{
			syncCommand(),
			authCommand(),
			integrationsCommand(),
			validateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// registerIntegrations populates the process-wide registry. Runs once at
// startup; entries are never removed.
func registerIntegrations() {
	integrations.Register(github.Config())
	integrations.Register(applereminders.Config())
	integrations.Register(applecal.Config())
	integrations.Register(googlecal.Config())
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run the task synchronization process.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run the sync cycle once and exit."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be synced without making changes."},
			&cli.IntFlag{Name: "watch", Value: 300, Usage: "Run sync every N seconds and react to settings changes. Overrides --once."},
			&cli.StringFlag{Name: "store", Value: "tasks.json", Usage: "Path to the task store file."},
			&cli.StringFlag{Name: "state", Value: "sync-state.json", Usage: "Path to the sync state file."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))

			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			settingsStore := settings.NewStore(c.String("settings"), logger)
			cfg, err := settingsStore.Load()
			if err != nil {
				return err
			}

			evaluator := status.NewEvaluator(cfg, logger)
			taskStore, err := syncer.LoadTaskStore(c.String("store"))
			if err != nil {
				return err
			}

			s, err := syncer.New(integrations.DefaultRegistry, evaluator, taskStore, c.String("state"), c.Bool("dry-run"), logger)
			if err != nil {
				return fmt.Errorf("failed to create syncer: %w", err)
			}

			// --watch takes precedence, --once is the default otherwise.
			if c.IsSet("watch") {
				return watchLoop(c.Context, c, s, settingsStore, evaluator, cfg, logger)
			}

			logger.Info("Running a single sync cycle.")
			if err := s.Sync(c.Context, cfg); err != nil {
				return fmt.Errorf("single sync cycle failed: %w", err)
			}
			return nil
		},
	}
}

// watchLoop runs periodic sync cycles while reacting to settings file
// changes through the dispatcher.
func watchLoop(ctx context.Context, c *cli.Context, s *syncer.Syncer, settingsStore *settings.Store, evaluator *status.Evaluator, cfg settings.Settings, logger *slog.Logger) error {
	dispatcher := settings.NewDispatcher(logger)
	dispatcher.Register(status.NewSyncHandler(cfg, evaluator, logger))

	watcher := settings.NewWatcher(settingsStore, dispatcher, cfg, logger)
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := watcher.Run(watchCtx); err != nil && watchCtx.Err() == nil {
			logger.Error("Settings watcher stopped", "error", err)
		}
	}()

	interval := time.Duration(c.Int("watch")) * time.Second
	logger.Info("Starting watcher.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Sync(ctx, cfg); err != nil {
			logger.Error("Sync cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case updated := <-watcher.Updates():
			cfg = updated
		case <-ticker.C:
		}
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := googlecal.OAuthConfig(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter Authorization Code: ")
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := googlecal.ExchangeAuthCode(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := googlecal.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func integrationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "integrations",
		Usage: "List registered integrations and whether they are enabled.",
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))

			cfg, err := settings.NewStore(c.String("settings"), logger).Load()
			if err != nil {
				return err
			}

			for _, entry := range integrations.GetAll() {
				state := "disabled"
				if entry.IsEnabled(cfg) {
					state = "enabled"
				}
				fmt.Printf("%-18s %-18s %-9s %s\n", entry.Key, entry.Name, state, entry.SettingsPath())
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a JSON payload file against a record schema.",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Value: "events", Usage: "Record type: events, calendars, reminders or lists."},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one payload file argument")
			}

			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read payload file: %w", err)
			}

			var count int
			var verr error
			switch c.String("type") {
			case "events":
				parsed, err := schema.ParseCalendarEvents(data)
				count, verr = len(parsed), err
			case "calendars":
				parsed, err := schema.ParseCalendars(data)
				count, verr = len(parsed), err
			case "reminders":
				parsed, err := schema.ParseReminders(data)
				count, verr = len(parsed), err
			case "lists":
				parsed, err := schema.ParseReminderLists(data)
				count, verr = len(parsed), err
			default:
				return fmt.Errorf("unknown record type %q", c.String("type"))
			}

			if verr != nil {
				return verr
			}
			fmt.Printf("OK: %d valid records\n", count)
			return nil
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
