// Package agents defines the population's data model: the closed Role enum,
// Agent state, and status lifecycle. Field set and invariants follow the
// specification's Agent entity; struct shape and json-tag grouping follow
// the teacher's internal/agents/types.go.
package agents

// ID uniquely identifies an agent for the lifetime of the city.
type ID uint64

// Role is the closed set of persona archetypes an agent can hold. Unlike
// the teacher's open-ended Occupation enum, AIcity's role set is fixed by
// the specification and drives which actions the Decision Facade offers.
type Role uint8

const (
	RoleBuilder Role = iota
	RoleExplorer
	RoleMerchant
	RolePolice
	RoleTeacher
	RoleHealer
	RoleMessenger
	RoleLawyer
	RoleThief
	RoleNewborn
	RoleGangLeader
	RoleBlackmailer
	RoleSaboteur
)

func (r Role) String() string {
	switch r {
	case RoleBuilder:
		return "builder"
	case RoleExplorer:
		return "explorer"
	case RoleMerchant:
		return "merchant"
	case RolePolice:
		return "police"
	case RoleTeacher:
		return "teacher"
	case RoleHealer:
		return "healer"
	case RoleMessenger:
		return "messenger"
	case RoleLawyer:
		return "lawyer"
	case RoleThief:
		return "thief"
	case RoleNewborn:
		return "newborn"
	case RoleGangLeader:
		return "gang_leader"
	case RoleBlackmailer:
		return "blackmailer"
	case RoleSaboteur:
		return "saboteur"
	default:
		return "unknown"
	}
}

// Status is the agent's lifecycle stage. Dead is terminal: once set, no
// field on the agent (besides CauseOfDeath) may change again.
type Status uint8

const (
	StatusAlive Status = iota
	StatusImprisoned
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusImprisoned:
		return "imprisoned"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Skills tracks role-relevant scalar bonuses in [0,1], grounded on the
// teacher's SkillSet struct.
type Skills struct {
	Investigation float64 `json:"investigation"`
	Rhetoric      float64 `json:"rhetoric"`
	Craft         float64 `json:"craft"`
	Stealth       float64 `json:"stealth"`
}

// Agent is the core entity: a stable identity carrying economic, social,
// and judicial state across the city's days.
type Agent struct {
	ID          ID     `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Status      Status `json:"status"`

	// Economic — authoritative balance is derived from the ledger's
	// transaction log; this field is a cached read-model value refreshed
	// after every applied transaction.
	Balance int64 `json:"balance"`

	AgeDays int `json:"age_days"`

	// Mood is a scalar in [-1,1], never shown as a raw number to the
	// reasoning model — always converted to descriptive text first.
	Mood float64 `json:"mood"`

	// BribeSusceptibility in [0,1] conditions corruption rolls in the
	// Police Case Engine. It must NEVER appear in events, logs,
	// broadcasts, or persisted observer exports — only in
	// internal/cases' reasoning-prompt framing. Only meaningful for
	// RolePolice agents.
	BribeSusceptibility float64 `json:"-"`

	// ComprehensionScore in [0,100] gates newborn graduation. Only
	// meaningful for RoleNewborn agents.
	ComprehensionScore int `json:"comprehension_score,omitempty"`
	AssignedTeacher    *ID `json:"assigned_teacher,omitempty"`

	Skills Skills `json:"skills"`

	HomeLotID *uint64 `json:"home_lot_id,omitempty"`
	TileQ     *int    `json:"tile_q,omitempty"`
	TileR     *int    `json:"tile_r,omitempty"`

	CauseOfDeath string `json:"cause_of_death,omitempty"`

	BornDay int `json:"born_day"`
}

// IsAlive reports whether the agent can still take a turn.
func (a *Agent) IsAlive() bool { return a.Status == StatusAlive }

// Promote transitions a graduating newborn into role, clearing the
// newborn-only bookkeeping fields it no longer needs.
func (a *Agent) Promote(role Role) {
	a.Role = role
	a.ComprehensionScore = 0
	a.AssignedTeacher = nil
}

// Kill transitions the agent to dead, zeroing its balance per the
// status=dead⇒balance=0 invariant. The caller is responsible for routing
// the zeroed balance back through the ledger (inheritance/vault credit)
// before calling Kill, since Kill itself performs no ledger writes.
func (a *Agent) Kill(cause string) {
	a.Status = StatusDead
	a.Balance = 0
	a.CauseOfDeath = cause
}

// Imprison transitions the agent to imprisoned on a guilty verdict, taking
// it out of the per-agent turn rotation (IsAlive reports false) until this
// spec's scope resolves a sentence — no release mechanism exists yet.
func (a *Agent) Imprison() {
	a.Status = StatusImprisoned
}
