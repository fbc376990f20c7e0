// Package gangs implements gang formation, mood-driven recruitment,
// membership earn multipliers, exposure on arrest, and collapse on
// leader conviction. Struct shape is grounded on the teacher's
// internal/social.Faction (ID/Name/Leader/Members/Treasury, with
// FactionCriminal a direct conceptual precedent); recruitment/collapse
// behavior is new, loosely patterned on internal/engine/factions.go's
// weekly-sweep style.
package gangs

import (
	"fmt"
	"sync"

	"github.com/aicity/aicity/internal/aicityerr"
	"github.com/aicity/aicity/internal/entropy"
)

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

// Status is the gang's lifecycle state.
type Status uint8

const (
	StatusActive Status = iota
	StatusCollapsed
)

func (s Status) String() string {
	if s == StatusCollapsed {
		return "collapsed"
	}
	return "active"
}

// Gang is a criminal organization.
type Gang struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	LeaderID  AgentID           `json:"leader_id"`
	Members   map[AgentID]bool  `json:"-"`
	Treasury  int64             `json:"treasury"`
	FormedDay int               `json:"formed_day"`
	Status    Status            `json:"status"`
}

// MemberIDs returns the gang's current membership as a slice, leader
// included.
func (g *Gang) MemberIDs() []AgentID {
	out := make([]AgentID, 0, len(g.Members)+1)
	out = append(out, g.LeaderID)
	for id := range g.Members {
		out = append(out, id)
	}
	return out
}

const (
	leaderEarnMultiplier = 1.5
	memberEarnMultiplier = 1.2
	soloEarnMultiplier   = 1.0
)

// EarnMultiplier returns the earning bonus id receives today given its
// membership role in g.
func (g *Gang) EarnMultiplier(id AgentID) float64 {
	if g.Status != StatusActive {
		return soloEarnMultiplier
	}
	if id == g.LeaderID {
		return leaderEarnMultiplier
	}
	if g.Members[id] {
		return memberEarnMultiplier
	}
	return soloEarnMultiplier
}

// Registry owns all gangs in the city.
type Registry struct {
	mu     sync.Mutex
	gangs  map[uint64]*Gang
	nextID uint64

	formationProbability float64
	exposureProbability  float64
}

// New constructs an empty Registry.
func New(formationProbability, exposureProbability float64) *Registry {
	return &Registry{
		gangs:                 make(map[uint64]*Gang),
		formationProbability:  formationProbability,
		exposureProbability:   exposureProbability,
	}
}

// Form rolls gang formation for a prospective leader; on success, creates a
// new active gang. Returns (nil, false) on a failed roll — not an error,
// since a failed formation roll is an expected outcome, not a fault.
func (r *Registry) Form(day int, leader AgentID, name string, rng *entropy.Client) (*Gang, bool) {
	if !entropy.Bool(rng, r.formationProbability) {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	g := &Gang{
		ID:        r.nextID,
		Name:      name,
		LeaderID:  leader,
		Members:   make(map[AgentID]bool),
		FormedDay: day,
		Status:    StatusActive,
	}
	r.gangs[g.ID] = g
	return g, true
}

// Recruit adds candidate to gang g, gated on the candidate's mood: a
// despairing or troubled agent (mood < -0.2) is more receptive to gang
// recruitment, per the specification's mood-driven recruitment rule.
func (r *Registry) Recruit(g *Gang, candidate AgentID, candidateMood float64, rng *entropy.Client) bool {
	if candidateMood >= -0.2 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.Status != StatusActive {
		return false
	}
	recruitProb := 0.5 * (1 + -candidateMood) // more despair, higher odds, capped below at 1
	if recruitProb > 1 {
		recruitProb = 1
	}
	if !entropy.Bool(rng, recruitProb) {
		return false
	}
	g.Members[candidate] = true
	return true
}

// Active returns every currently active gang.
func (r *Registry) Active() []*Gang {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Gang
	for _, g := range r.gangs {
		if g.Status == StatusActive {
			out = append(out, g)
		}
	}
	return out
}

// All returns every gang regardless of status, for persistence checkpoints.
func (r *Registry) All() []*Gang {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Gang, 0, len(r.gangs))
	for _, g := range r.gangs {
		out = append(out, g)
	}
	return out
}

// Restore reinserts a gang loaded from persistence, advancing nextID past
// its id so newly formed gangs never collide with a resumed one.
func (r *Registry) Restore(g *Gang) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gangs[g.ID] = g
	if g.ID >= r.nextID {
		r.nextID = g.ID
	}
}

// ExposeOnArrest rolls whether a member's arrest exposes the whole gang
// (emitting a crime event about the gang itself is the caller's
// responsibility — this just decides yes/no).
func (r *Registry) ExposeOnArrest(rng *entropy.Client) bool {
	return entropy.Bool(rng, r.exposureProbability)
}

// CollapseOnConviction transitions g to collapsed once its leader is
// convicted, per the specification's gang-collapse invariant: a gang
// cannot survive its leader's conviction.
func (r *Registry) CollapseOnConviction(g *Gang, convicted AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.LeaderID != convicted {
		return nil
	}
	if g.Status == StatusCollapsed {
		return fmt.Errorf("gangs: gang %d already collapsed: %w", g.ID, aicityerr.ErrConflict)
	}
	g.Status = StatusCollapsed
	for id := range g.Members {
		delete(g.Members, id)
	}
	return nil
}
