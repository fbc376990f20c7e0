package behavior

import (
	"context"
	"testing"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/cases"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/eventlog"
	"github.com/aicity/aicity/internal/gangs"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/llm"
	"github.com/aicity/aicity/internal/messaging"
	"github.com/aicity/aicity/internal/projects"
	"github.com/aicity/aicity/internal/social"
)

func newDeps(t *testing.T, roster ...*agents.Agent) Deps {
	t.Helper()
	l := ledger.New(10000, 1.0, 0)
	reg := make(map[agents.ID]*agents.Agent)
	for _, a := range roster {
		reg[a.ID] = a
	}
	return Deps{
		Ledger:   l,
		Events:   eventlog.New(),
		Cases:    cases.New(5, 0.5),
		Gangs:    gangs.New(0.5, 0.5),
		Projects: projects.New(5),
		Bonds:    social.NewBonds(),
		RNG:      entropy.NewClient(""),
		Messages: messaging.NewMemoryBus(0),
		Agents:   reg,
	}
}

func TestWorkActionCreditsBalance(t *testing.T) {
	a := &agents.Agent{ID: 1, DisplayName: "Ada", Role: agents.RoleBuilder, Status: agents.StatusAlive}
	deps := newDeps(t, a)
	before := a.Balance
	Dispatch(context.Background(), deps, 1, a, llm.Decision{Action: "work"}, nil)
	if a.Balance <= before {
		t.Fatalf("expected balance to increase after work, got %d", a.Balance)
	}
}

func TestRestActionMutatesNothing(t *testing.T) {
	a := &agents.Agent{ID: 1, DisplayName: "Ada", Role: agents.RoleBuilder, Status: agents.StatusAlive}
	deps := newDeps(t, a)
	Dispatch(context.Background(), deps, 1, a, llm.Decision{Action: "rest"}, nil)
	if a.Balance != 0 {
		t.Fatalf("expected no balance change on rest, got %d", a.Balance)
	}
}

func TestTheftTransfersFromVictimNotVault(t *testing.T) {
	thief := &agents.Agent{ID: 1, DisplayName: "Rook", Role: agents.RoleThief, Status: agents.StatusAlive}
	victim := &agents.Agent{ID: 2, DisplayName: "Mara", Role: agents.RoleMerchant, Status: agents.StatusAlive}
	deps := newDeps(t, thief, victim)
	if _, err := deps.Ledger.Apply(ledger.Transaction{Day: 0, Kind: ledger.KindRegistration, From: ledger.VaultID, To: ledger.AgentID(victim.ID), Amount: 50}); err != nil {
		t.Fatalf("seed victim balance: %v", err)
	}
	victim.Balance = deps.Ledger.Balance(ledger.AgentID(victim.ID))

	vaultBefore := deps.Ledger.Vault()
	for i := 0; i < 20; i++ {
		Dispatch(context.Background(), deps, 1, thief, llm.Decision{Action: "steal"}, nil)
	}
	victimAfter := deps.Ledger.Balance(ledger.AgentID(victim.ID))
	vaultAfter := deps.Ledger.Vault()

	if victimAfter >= 50 {
		t.Fatalf("expected victim balance to drop from repeated theft, got %d", victimAfter)
	}
	if vaultAfter != vaultBefore {
		t.Fatalf("theft must not touch the vault, vault moved from %d to %d", vaultBefore, vaultAfter)
	}
}

func TestBlackmailDemandsPaymentFromVictim(t *testing.T) {
	blackmailer := &agents.Agent{ID: 1, DisplayName: "Vex", Role: agents.RoleBlackmailer, Status: agents.StatusAlive}
	victim := &agents.Agent{ID: 2, DisplayName: "Mara", Role: agents.RoleMerchant, Status: agents.StatusAlive}
	deps := newDeps(t, blackmailer, victim)
	if _, err := deps.Ledger.Apply(ledger.Transaction{Day: 0, Kind: ledger.KindRegistration, From: ledger.VaultID, To: ledger.AgentID(victim.ID), Amount: 50}); err != nil {
		t.Fatalf("seed victim balance: %v", err)
	}
	victim.Balance = deps.Ledger.Balance(ledger.AgentID(victim.ID))

	Dispatch(context.Background(), deps, 1, blackmailer, llm.Decision{Action: "blackmail"}, nil)

	if deps.Ledger.Balance(ledger.AgentID(blackmailer.ID)) == 0 {
		t.Fatalf("expected blackmailer to receive a payment")
	}
	if deps.Ledger.Balance(ledger.AgentID(victim.ID)) >= 50 {
		t.Fatalf("expected victim balance to drop after blackmail")
	}
	if victim.Mood >= 0 {
		t.Fatalf("expected victim mood to worsen after blackmail, got %f", victim.Mood)
	}
}

func TestTeachGraduatesNewbornAtThreshold(t *testing.T) {
	teacher := &agents.Agent{ID: 1, DisplayName: "Dio", Role: agents.RoleTeacher, Status: agents.StatusAlive}
	teacherID := teacher.ID
	student := &agents.Agent{ID: 2, DisplayName: "Kit", Role: agents.RoleNewborn, Status: agents.StatusAlive, AssignedTeacher: &teacherID, ComprehensionScore: 95}
	deps := newDeps(t, teacher, student)

	Dispatch(context.Background(), deps, 1, teacher, llm.Decision{Action: "teach"}, nil)

	if student.Role == agents.RoleNewborn {
		t.Fatalf("expected student to graduate out of newborn, comprehension %d", student.ComprehensionScore)
	}
}
