// Package decision implements the Decision Facade: per-agent context
// packing and the bounded reasoning worker pool that calls into
// internal/llm. Pool is grounded on the pack's golang.org/x/sync
// (semaphore), bounding concurrent in-flight reasoning calls rather than an
// unbounded goroutine-per-agent fan-out.
package decision

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/llm"
	"github.com/aicity/aicity/internal/social"
)

// RoleActionSet returns the closed action enum a role may choose from,
// driving both the prompt's valid-action list and the fallback action.
func RoleActionSet(r agents.Role) []string {
	switch r {
	case agents.RoleBuilder:
		return []string{"work", "contribute_project", "rest", "socialize"}
	case agents.RoleExplorer:
		return []string{"explore", "claim_lot", "rest", "socialize"}
	case agents.RoleMerchant:
		return []string{"trade", "rest", "socialize"}
	case agents.RolePolice:
		return []string{"investigate", "patrol", "rest"}
	case agents.RoleTeacher:
		return []string{"teach", "rest", "socialize"}
	case agents.RoleHealer:
		return []string{"heal", "rest", "socialize"}
	case agents.RoleMessenger:
		return []string{"deliver_message", "rest", "socialize"}
	case agents.RoleLawyer:
		return []string{"defend", "rest", "socialize"}
	case agents.RoleThief:
		return []string{"steal", "rest", "socialize"}
	case agents.RoleNewborn:
		return []string{"learn", "rest"}
	case agents.RoleGangLeader:
		return []string{"recruit", "extort", "rest", "socialize"}
	case agents.RoleBlackmailer:
		return []string{"blackmail", "rest", "socialize"}
	case agents.RoleSaboteur:
		return []string{"sabotage", "rest", "socialize"}
	default:
		return []string{"rest"}
	}
}

// RoleDefaultAction is the deterministic fallback used when the reasoning
// call fails or is disabled.
func RoleDefaultAction(r agents.Role) llm.Decision {
	actions := RoleActionSet(r)
	def := "rest"
	if len(actions) > 0 {
		def = actions[0]
	}
	return llm.Decision{Action: def, MoodSelf: "even-keeled", Rationale: "default role behavior"}
}

// Pool bounds concurrent in-flight reasoning calls to Size, per the
// concurrency model's "bounded worker pool for reasoning calls" source of
// parallelism.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// NewPool constructs a Pool bounding concurrency to size.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Submit runs fn with at most Pool.size concurrent in-flight calls,
// blocking until a slot frees or ctx is cancelled.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("decision: pool acquire: %w", err)
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// BuildContext packs one agent's decision context from its current state
// and the day's situational inputs.
func BuildContext(a *agents.Agent, day int, newspaper string, assets, inbox []string, bonds *social.Bonds, memories []string) llm.DecisionContext {
	bondTexts := make([]string, 0)
	for id, strength := range bonds.Of(social.AgentID(a.ID)) {
		bondTexts = append(bondTexts, fmt.Sprintf("agent %d (%s)", id, social.MoodText(strength)))
	}
	dc := llm.DecisionContext{
		Role:         a.Role.String(),
		MoodText:     social.MoodText(a.Mood),
		Balance:      a.Balance,
		AgeDays:      a.AgeDays,
		Day:          day,
		Newspaper:    newspaper,
		Assets:       assets,
		Inbox:        inbox,
		Bonds:        bondTexts,
		Memories:     memories,
		ValidActions: RoleActionSet(a.Role),
	}
	if a.Role == agents.RoleNewborn {
		switch {
		case a.ComprehensionScore < 33:
			dc.ComprehensionText = "still learning the basics"
		case a.ComprehensionScore < 66:
			dc.ComprehensionText = "growing more capable"
		default:
			dc.ComprehensionText = "nearly ready to take on a role"
		}
	}
	return dc
}
