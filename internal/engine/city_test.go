package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/decision"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/messaging"
)

func newTestCity(t *testing.T) *City {
	t.Helper()
	l := ledger.New(100000, 0.5, 5)
	c := NewCity(l, entropy.NewClient(""), nil, messaging.NewMemoryBus(0), zerolog.Nop(), Params{
		ColdCaseTimeoutDays:       14,
		BaseArrestProb:            0.3,
		GangFormationProbability:  0.3,
		GangExposureProbability:   0.4,
		ProjectAbandonTimeoutDays: 10,
		DailyTaxRate:              0.02,
		DailyBurnAmount:           3,
		ConvictionFineAmount:      150,
	})
	return c
}

func TestRunDayAdvancesAndConserves(t *testing.T) {
	c := newTestCity(t)
	a := agents.RoleDefaults(c.NextAgentID(), "Ada", agents.RoleBuilder, 0)
	c.Register(a)
	if _, err := c.Ledger.Apply(ledger.Transaction{Day: 0, Kind: ledger.KindRegistration, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: 0}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool := decision.NewPool(2)
	if err := c.RunDay(context.Background(), pool); err != nil {
		t.Fatalf("run day: %v", err)
	}
	if c.Day != 1 {
		t.Fatalf("expected day 1, got %d", c.Day)
	}
}

func TestDeathZeroesBalance(t *testing.T) {
	c := newTestCity(t)
	a := agents.RoleDefaults(c.NextAgentID(), "Bram", agents.RoleBuilder, 0)
	c.Register(a)
	l := c.Ledger
	if _, err := l.Apply(ledger.Transaction{Day: 1, Kind: ledger.KindRegistration, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: 40}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a.Balance = l.Balance(ledger.AgentID(a.ID))

	if err := c.Die(1, a.ID, "starvation"); err != nil {
		t.Fatalf("die: %v", err)
	}
	if a.Balance != 0 {
		t.Fatalf("expected zero balance after death, got %d", a.Balance)
	}
	if a.Status != agents.StatusDead {
		t.Fatalf("expected dead status")
	}
}
