package session

import (
	"path/filepath"
	"testing"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(WithSQLiteDSN(dsn))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	if got, err := store.Get(99); err != nil || got != nil {
		t.Fatalf("expected nil for absent session, got %+v err %v", got, err)
	}

	sess := models.NewSession(99)
	sess.CurrentStep = "address"
	sess.Answers["full_name"] = "Anvar Anvarov"
	sess.Answers["birthdate"] = "1995-08-21"
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(99)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.CurrentStep != "address" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Answers["full_name"] != "Anvar Anvarov" || got.Answers["birthdate"] != "1995-08-21" {
		t.Errorf("answers did not survive the round trip: %v", got.Answers)
	}

	// Upsert replaces rather than duplicates.
	sess.CurrentStep = "phone"
	sess.Answers["address"] = "Toshkent"
	if err := store.Save(sess); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Get(99)
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.CurrentStep != "phone" || len(got.Answers) != 3 {
		t.Errorf("upsert did not replace session: %+v", got)
	}

	if err := store.Clear(99); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := store.Get(99); got != nil {
		t.Errorf("expected session removed, got %+v", got)
	}
}

func TestNewSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected error when DSN is not set")
	}
}

func TestSQLiteStoreCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "deeper", "sessions.db")
	store, err := NewSQLiteStore(WithSQLiteDSN(dsn))
	if err != nil {
		t.Fatalf("expected directory to be created, got %v", err)
	}
	store.Close()
}
