package persistence

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/ledger"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aicity_test.db")
	db, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadAgentsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	a := agents.RoleDefaults(1, "Ada", agents.RoleBuilder, 0)
	a.Balance = 42
	pop := map[agents.ID]*agents.Agent{a.ID: a}

	if err := db.SaveAgents(pop); err != nil {
		t.Fatalf("save agents: %v", err)
	}
	loaded, err := db.LoadAgents()
	if err != nil {
		t.Fatalf("load agents: %v", err)
	}
	got, ok := loaded[a.ID]
	if !ok {
		t.Fatalf("agent %d missing after round trip", a.ID)
	}
	if got.DisplayName != a.DisplayName || got.Balance != a.Balance || got.Role != a.Role {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, a)
	}
}

func TestHasWorldStateFalseWhenEmpty(t *testing.T) {
	db := openTestDB(t)
	if db.HasWorldState() {
		t.Fatalf("expected no world state in a fresh database")
	}
}

func TestSaveTransactionsIsAppendOnly(t *testing.T) {
	db := openTestDB(t)
	txns := []ledger.Transaction{
		{Seq: 1, Day: 0, Kind: ledger.KindRegistration, From: ledger.VaultID, To: 1, Amount: 50},
	}
	if err := db.SaveTransactions(txns); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveTransactions(txns); err != nil {
		t.Fatalf("re-save should be a no-op via INSERT OR IGNORE: %v", err)
	}
	loaded, err := db.LoadTransactions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 transaction after duplicate save, got %d", len(loaded))
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("day", "7"); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	v, err := db.GetMeta("day")
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if v != "7" {
		t.Fatalf("expected 7, got %s", v)
	}
}
