package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/itsmetohirr/JobFormBot/internal/flow"
	"github.com/itsmetohirr/JobFormBot/internal/lockfile"
	"github.com/itsmetohirr/JobFormBot/internal/messaging"
	"github.com/itsmetohirr/JobFormBot/internal/schema"
	"github.com/itsmetohirr/JobFormBot/internal/session"
	"github.com/itsmetohirr/JobFormBot/internal/sheets"
	"github.com/itsmetohirr/JobFormBot/internal/telegram"
	"github.com/itsmetohirr/JobFormBot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for JobFormBot state data.
	DefaultStateDir = "/var/lib/jobformbot"
	// DefaultDBFileName is the SQLite session database filename used when
	// $SESSION_DB_DSN is set to "sqlite" without a path.
	DefaultDBFileName = "jobformbot.db"
)

// Placeholder values the original deployment shipped in its sample config;
// treated as unset.
const (
	placeholderBotToken = "PASTE_YOUR_TELEGRAM_BOT_TOKEN_HERE"
	placeholderSheetID  = "PASTE_YOUR_SHEET_ID_HERE"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("JobFormBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("JobFormBot exited successfully")
}

// Config holds environment configuration.
type Config struct {
	BotToken        string
	SheetID         string
	SheetRange      string
	CredentialsFile string
	CredentialsJSON string
	AdminChatIDs    string
	AdminSMSNumbers string
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	FormFlow        string
	SessionDSN      string
	StateDir        string
}

// Flags holds command line flag values.
type Flags struct {
	botToken   *string
	sheetID    *string
	sheetRange *string
	credsFile  *string
	credsJSON  *string
	adminIDs   *string
	smsNumbers *string
	twilioSID  *string
	twilioTok  *string
	twilioFrom *string
	formFlow   *string
	sessionDSN *string
	stateDir   *string
}

// initializeLogger sets up structured logging; debug level is opt-in via
// $JOBFORM_DEBUG.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("JOBFORM_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and a
// .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		SheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		SheetRange:      os.Getenv("GOOGLE_SHEET_RANGE"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON_CONTENT"),
		AdminChatIDs:    os.Getenv("ADMIN_CHAT_IDS"),
		AdminSMSNumbers: os.Getenv("ADMIN_SMS_NUMBERS"),
		TwilioSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:      os.Getenv("TWILIO_FROM_NUMBER"),
		FormFlow:        os.Getenv("FORM_FLOW"),
		SessionDSN:      os.Getenv("SESSION_DB_DSN"),
		StateDir:        os.Getenv("JOBFORM_STATE_DIR"),
	}

	// Single-recipient fallback, as the original deployment supported.
	if config.AdminChatIDs == "" {
		config.AdminChatIDs = os.Getenv("ADMIN_CHAT_ID")
	}
	if config.SheetRange == "" {
		config.SheetRange = sheets.DefaultRange
	}
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No JOBFORM_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"BOT_TOKEN_SET", config.BotToken != "",
		"GOOGLE_SHEET_ID_SET", config.SheetID != "",
		"GOOGLE_SHEET_RANGE", config.SheetRange,
		"ADMIN_CHAT_IDS_SET", config.AdminChatIDs != "",
		"ADMIN_SMS_NUMBERS_SET", config.AdminSMSNumbers != "",
		"FORM_FLOW", config.FormFlow,
		"SESSION_DB_DSN_SET", config.SessionDSN != "",
		"JOBFORM_STATE_DIR", config.StateDir)

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults; flags win.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:   flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $BOT_TOKEN)"),
		sheetID:    flag.String("sheet-id", config.SheetID, "Google spreadsheet id (overrides $GOOGLE_SHEET_ID)"),
		sheetRange: flag.String("sheet-range", config.SheetRange, "spreadsheet append range (overrides $GOOGLE_SHEET_RANGE)"),
		credsFile:  flag.String("credentials-file", config.CredentialsFile, "service account key file (overrides $GOOGLE_SERVICE_ACCOUNT_JSON)"),
		credsJSON:  flag.String("credentials-json", config.CredentialsJSON, "inline service account key (overrides $GOOGLE_SERVICE_ACCOUNT_JSON_CONTENT)"),
		adminIDs:   flag.String("admin-chat-ids", config.AdminChatIDs, "comma-separated admin chat ids (overrides $ADMIN_CHAT_IDS)"),
		smsNumbers: flag.String("admin-sms-numbers", config.AdminSMSNumbers, "comma-separated admin SMS numbers (overrides $ADMIN_SMS_NUMBERS)"),
		twilioSID:  flag.String("twilio-sid", config.TwilioSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioTok:  flag.String("twilio-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom: flag.String("twilio-from", config.TwilioFrom, "Twilio sender number (overrides $TWILIO_FROM_NUMBER)"),
		formFlow:   flag.String("form-flow", config.FormFlow, "form flow variant (overrides $FORM_FLOW)"),
		sessionDSN: flag.String("session-dsn", config.SessionDSN, "session database DSN (overrides $SESSION_DB_DSN)"),
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for lock and SQLite data (overrides $JOBFORM_STATE_DIR)"),
	}
	flag.Parse()
	return flags
}

// validateFlags checks the startup configuration that must be present before
// any conversation is accepted.
func validateFlags(flags Flags) error {
	if *flags.botToken == "" || *flags.botToken == placeholderBotToken {
		return fmt.Errorf("BOT_TOKEN is not set")
	}
	if *flags.sheetID == "" || *flags.sheetID == placeholderSheetID {
		return fmt.Errorf("GOOGLE_SHEET_ID is not set")
	}
	if *flags.credsFile == "" && *flags.credsJSON == "" {
		return fmt.Errorf("Google service account credentials not configured: set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_JSON_CONTENT")
	}
	if len(util.ParseChatIDs(*flags.adminIDs)) == 0 && len(util.SplitList(*flags.smsNumbers)) == 0 {
		return fmt.Errorf("no administrator recipients configured: set ADMIN_CHAT_IDS or ADMIN_SMS_NUMBERS")
	}
	return nil
}

// buildSessionStore constructs the session store backend for the configured
// DSN, defaulting to in-memory. The shorthand "sqlite" selects an SQLite
// database in the state directory.
func buildSessionStore(dsn, stateDir string) (session.Store, error) {
	if dsn == "" {
		slog.Debug("No session DSN provided, using in-memory store")
		return session.NewInMemoryStore(), nil
	}
	if dsn == "sqlite" {
		dsn = filepath.Join(stateDir, DefaultDBFileName)
	}
	if session.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL session store")
		return session.NewPostgresStore(session.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite session store", "db_path", dsn)
	return session.NewSQLiteStore(session.WithSQLiteDSN(dsn))
}

// buildRecipients assembles the administrator delivery targets: Telegram
// chat ids and, when Twilio is configured, SMS phone numbers.
func buildRecipients(flags Flags, api *tgbotapi.BotAPI) []flow.Recipient {
	var recipients []flow.Recipient

	tgNotifier := messaging.NewTelegramNotifier(api)
	for _, chatID := range util.ParseChatIDs(*flags.adminIDs) {
		recipients = append(recipients, flow.Recipient{ID: strconv.FormatInt(chatID, 10), Channel: tgNotifier})
	}

	smsNumbers := util.SplitList(*flags.smsNumbers)
	if len(smsNumbers) > 0 {
		if *flags.twilioSID == "" || *flags.twilioTok == "" || *flags.twilioFrom == "" {
			slog.Warn("ADMIN_SMS_NUMBERS configured without Twilio credentials, skipping SMS recipients", "count", len(smsNumbers))
		} else {
			smsNotifier := messaging.NewSMSNotifier(*flags.twilioSID, *flags.twilioTok, *flags.twilioFrom)
			for _, number := range smsNumbers {
				recipients = append(recipients, flow.Recipient{ID: number, Channel: smsNotifier})
			}
		}
	}
	return recipients
}

func run(flags Flags) error {
	if err := validateFlags(flags); err != nil {
		return err
	}

	formFlow, err := schema.FlowByName(*flags.formFlow)
	if err != nil {
		return err
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	sessions, err := buildSessionStore(*flags.sessionDSN, *flags.stateDir)
	if err != nil {
		return fmt.Errorf("failed to build session store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := sheets.NewClient(ctx,
		sheets.WithSpreadsheetID(*flags.sheetID),
		sheets.WithRange(*flags.sheetRange),
		sheets.WithCredentialsFile(*flags.credsFile),
		sheets.WithCredentialsJSON(*flags.credsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to build sheets sink: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(*flags.botToken)
	if err != nil {
		return fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", api.Self.UserName, "flow", formFlow.Name)

	recipients := buildRecipients(flags, api)
	engine := flow.NewEngine(formFlow)
	finalizer := flow.NewFinalizer(formFlow, sink, sessions, recipients)
	bot := telegram.NewBot(api, engine, finalizer, sessions)

	slog.Info("Bootstrapping JobFormBot", "flow", formFlow.Name, "recipients", len(recipients), "session_store", *flags.sessionDSN != "")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
