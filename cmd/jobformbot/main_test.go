package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/itsmetohirr/JobFormBot/internal/session"
	"github.com/itsmetohirr/JobFormBot/internal/sheets"
)

func strPtr(s string) *string { return &s }

// validFlags returns a flag set that passes validation; tests override
// individual fields.
func validFlags() Flags {
	return Flags{
		botToken:   strPtr("123456:token"),
		sheetID:    strPtr("sheet-id"),
		sheetRange: strPtr(sheets.DefaultRange),
		credsFile:  strPtr("/etc/jobformbot/sa.json"),
		credsJSON:  strPtr(""),
		adminIDs:   strPtr("123456"),
		smsNumbers: strPtr(""),
		twilioSID:  strPtr(""),
		twilioTok:  strPtr(""),
		twilioFrom: strPtr(""),
		formFlow:   strPtr(""),
		sessionDSN: strPtr(""),
		stateDir:   strPtr("/var/lib/jobformbot"),
	}
}

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:token")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SHEET_RANGE", "")
	t.Setenv("ADMIN_CHAT_IDS", "")
	t.Setenv("ADMIN_CHAT_ID", "987654")
	t.Setenv("JOBFORM_STATE_DIR", "")

	config := loadEnvironmentConfig()

	if config.BotToken != "123456:token" || config.SheetID != "sheet-id" {
		t.Errorf("unexpected config: %+v", config)
	}
	if config.SheetRange != sheets.DefaultRange {
		t.Errorf("expected default sheet range, got %q", config.SheetRange)
	}
	// The legacy single-recipient variable backfills the list form.
	if config.AdminChatIDs != "987654" {
		t.Errorf("expected ADMIN_CHAT_ID fallback, got %q", config.AdminChatIDs)
	}
	if config.StateDir != DefaultStateDir {
		t.Errorf("expected default state dir, got %q", config.StateDir)
	}
}

func TestLoadEnvironmentConfigListWinsOverFallback(t *testing.T) {
	t.Setenv("ADMIN_CHAT_IDS", "111,222")
	t.Setenv("ADMIN_CHAT_ID", "987654")

	config := loadEnvironmentConfig()
	if config.AdminChatIDs != "111,222" {
		t.Errorf("expected ADMIN_CHAT_IDS to win, got %q", config.AdminChatIDs)
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Flags)
		expectErr bool
	}{
		{name: "valid", mutate: func(f *Flags) {}},
		{name: "missing token", mutate: func(f *Flags) { f.botToken = strPtr("") }, expectErr: true},
		{name: "placeholder token", mutate: func(f *Flags) { f.botToken = strPtr(placeholderBotToken) }, expectErr: true},
		{name: "missing sheet id", mutate: func(f *Flags) { f.sheetID = strPtr("") }, expectErr: true},
		{name: "placeholder sheet id", mutate: func(f *Flags) { f.sheetID = strPtr(placeholderSheetID) }, expectErr: true},
		{name: "missing credentials", mutate: func(f *Flags) { f.credsFile = strPtr("") }, expectErr: true},
		{name: "inline credentials suffice", mutate: func(f *Flags) {
			f.credsFile = strPtr("")
			f.credsJSON = strPtr("{}")
		}},
		{name: "no recipients", mutate: func(f *Flags) { f.adminIDs = strPtr("") }, expectErr: true},
		{name: "sms recipients suffice", mutate: func(f *Flags) {
			f.adminIDs = strPtr("")
			f.smsNumbers = strPtr("+998901234567")
		}},
		{name: "only invalid chat ids", mutate: func(f *Flags) { f.adminIDs = strPtr("abc,def") }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := validFlags()
			tt.mutate(&flags)
			err := validateFlags(flags)
			if tt.expectErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestBuildSessionStoreDefaultsToMemory(t *testing.T) {
	store, err := buildSessionStore("", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*session.InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", store)
	}
}

func TestBuildSessionStoreSQLiteShorthand(t *testing.T) {
	stateDir := t.TempDir()
	store, err := buildSessionStore("sqlite", stateDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := store.(*session.SQLiteStore)
	if !ok {
		t.Fatalf("expected SQLite store, got %T", store)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(stateDir, DefaultDBFileName)); err != nil {
		t.Errorf("expected database file in state dir: %v", err)
	}
}

func TestBuildSessionStoreExplicitPath(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "custom.db")
	store, err := buildSessionStore(dsn, "/unused")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := store.(*session.SQLiteStore)
	if !ok {
		t.Fatalf("expected SQLite store, got %T", store)
	}
	s.Close()
}
