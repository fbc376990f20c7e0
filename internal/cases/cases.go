// Package cases implements the Police Case Engine: case lifecycle, daily
// investigation ticks, cold-case timeouts, reopen-on-new-evidence, and
// corruption weighting via bribe_susceptibility. Investigation-as-a-daily-
// loop is grounded on the teacher's internal/engine/crime.go per-tick
// deterministic-check style.
package cases

import (
	"context"
	"fmt"
	"sync"

	"github.com/aicity/aicity/internal/aicityerr"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/llm"
)

// arrestConfidenceThreshold is the reasoning model's minimum confidence
// before an arrest request is honored, grounded on eventlog's own
// publicThreshold const-gate style rather than threading a config value
// through every call site.
const arrestConfidenceThreshold = 0.6

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

// Status is the case lifecycle state.
type Status uint8

const (
	StatusOpen Status = iota
	StatusSolved
	StatusCold
	StatusReopened
	// StatusArrested marks a case where an arrest has been requested and
	// granted but no trial verdict has been recorded yet — decoupling the
	// investigation's arrest recommendation from the lawyer/trial phase
	// that eventually calls RecordVerdict.
	StatusArrested
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusSolved:
		return "solved"
	case StatusCold:
		return "cold"
	case StatusReopened:
		return "reopened"
	case StatusArrested:
		return "arrested"
	default:
		return "unknown"
	}
}

// Case is one police investigation.
type Case struct {
	ID                 uint64   `json:"id"`
	EventID            uint64   `json:"event_id"`
	Suspect            AgentID  `json:"suspect,omitempty"`
	AssignedOffice     AgentID  `json:"assigned_officer,omitempty"`
	Status             Status   `json:"status"`
	OpenedDay          int      `json:"opened_day"`
	LastActionDay      int      `json:"last_action_day"`
	InvestigationTicks int      `json:"investigation_ticks"`
	VerdictNote        string   `json:"verdict_note,omitempty"`
	Guilty             *bool    `json:"guilty,omitempty"`

	// Notes accumulates one case_note_text entry per investigation tick,
	// the daily investigator's log.
	Notes []string `json:"notes,omitempty"`
	// EvidenceRefs accumulates every evidence string handed to the
	// reasoning model across ticks, independent of the source event's own
	// eventlog.Event.EvidenceTrail (which the engine keeps in sync).
	EvidenceRefs []string `json:"evidence_refs,omitempty"`
}

// Engine owns the case store and the cold-case timeout policy.
type Engine struct {
	mu      sync.Mutex
	cases   map[uint64]*Case
	nextID  uint64

	coldCaseTimeoutDays int
	baseArrestProb      float64
}

// New constructs an Engine. coldCaseTimeoutDays is the number of days
// without progress before an open case goes cold; baseArrestProb is the
// uninfluenced probability an investigation tick results in an arrest.
func New(coldCaseTimeoutDays int, baseArrestProb float64) *Engine {
	return &Engine{
		cases:               make(map[uint64]*Case),
		coldCaseTimeoutDays: coldCaseTimeoutDays,
		baseArrestProb:      baseArrestProb,
	}
}

// Open starts a new case for a reported event, assigning officer as the
// investigator.
func (e *Engine) Open(day int, eventID uint64, suspect, officer AgentID) *Case {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	c := &Case{
		ID:             e.nextID,
		EventID:        eventID,
		Suspect:        suspect,
		AssignedOffice: officer,
		Status:         StatusOpen,
		OpenedDay:      day,
		LastActionDay:  day,
	}
	e.cases[c.ID] = c
	return c
}

// Get returns the case by id.
func (e *Engine) Get(id uint64) (*Case, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cases[id]
	return c, ok
}

// OpenCases returns all cases currently open or reopened, i.e. eligible for
// an investigation tick today.
func (e *Engine) OpenCases() []*Case {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Case
	for _, c := range e.cases {
		if c.Status == StatusOpen || c.Status == StatusReopened {
			out = append(out, c)
		}
	}
	return out
}

// ArrestedCases returns every case awaiting a trial verdict, the lawyer
// defense behavior's work queue.
func (e *Engine) ArrestedCases() []*Case {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Case
	for _, c := range e.cases {
		if c.Status == StatusArrested {
			out = append(out, c)
		}
	}
	return out
}

// All returns every case regardless of status, for persistence checkpoints.
func (e *Engine) All() []*Case {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Case, 0, len(e.cases))
	for _, c := range e.cases {
		out = append(out, c)
	}
	return out
}

// Restore reinserts a case loaded from persistence, advancing nextID past
// its id.
func (e *Engine) Restore(c *Case) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cases[c.ID] = c
	if c.ID >= e.nextID {
		e.nextID = c.ID
	}
}

// OfficerBribeSusceptibility abstracts the officer's corruption lookup so
// this package never imports the agents package directly and the field
// stays confined to its one legitimate reader.
type OfficerBribeSusceptibility func(officer AgentID) float64

// InvestigateParams bundles one day's investigation tick inputs: the
// deterministic fallback source, the corruption lookup, and the reasoning
// call's packed context. Reasoning may be nil/disabled, in which case the
// tick falls back to the teacher's original deterministic coin-flip.
type InvestigateParams struct {
	RNG          *entropy.Client
	OfficerSusc  OfficerBribeSusceptibility
	Reasoning    *llm.Client
	Accusation   string
	Evidence     []string
	LedgerWindow []string
}

// InvestigateTick advances one case by one day's investigation: it packs the
// accumulated evidence and a ledger activity window for the assigned
// officer's case file, asks the reasoning model (when enabled) for a
// confidence/suspect-rank/next-actions/case-note/arrest-request verdict, and
// falls back to the teacher's original deterministic coin-flip — weighted by
// the officer's bribe_susceptibility, which conditions but is never exposed
// by the corruption roll — when reasoning is disabled or fails to parse. An
// arrest is only granted once the result's confidence clears
// arrestConfidenceThreshold, moving the case to StatusArrested rather than
// straight to StatusSolved; a trial verdict later decides guilt via
// RecordVerdict.
func (e *Engine) InvestigateTick(ctx context.Context, day int, c *Case, p InvestigateParams) error {
	e.mu.Lock()
	if c.Status != StatusOpen && c.Status != StatusReopened {
		e.mu.Unlock()
		return fmt.Errorf("cases: case %d not investigable in status %s: %w", c.ID, c.Status, aicityerr.ErrConflict)
	}
	c.InvestigationTicks++
	c.LastActionDay = day

	susc := 0.0
	if p.OfficerSusc != nil {
		susc = p.OfficerSusc(c.AssignedOffice)
	}
	arrestProb := e.baseArrestProb * (1 - susc)
	e.mu.Unlock()

	arrest := entropy.Bool(p.RNG, arrestProb)
	fallback := llm.InvestigationResult{
		NextActions:  []string{"continue surveillance"},
		CaseNoteText: "no new leads today",
	}
	if arrest {
		fallback.Confidence = 1.0
		fallback.RequestArrest = true
		fallback.CaseNoteText = "sufficient evidence gathered; requesting arrest"
	}

	result := fallback
	if p.Reasoning != nil && p.Reasoning.Enabled() {
		ic := llm.InvestigationContext{
			Accusation:        p.Accusation,
			Evidence:          p.Evidence,
			LedgerWindow:      p.LedgerWindow,
			CorruptionFraming: susc,
		}
		r, err := llm.Investigate(ctx, p.Reasoning, ic, fallback)
		if err == nil {
			result = r
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if result.CaseNoteText != "" {
		c.Notes = append(c.Notes, result.CaseNoteText)
	}
	c.EvidenceRefs = append(c.EvidenceRefs, p.Evidence...)

	if result.RequestArrest && result.Confidence >= arrestConfidenceThreshold {
		c.Status = StatusArrested
		return nil
	}

	if day-c.OpenedDay >= e.coldCaseTimeoutDays {
		c.Status = StatusCold
	}
	return nil
}

// Reopen brings a cold case back to investigation on new evidence.
func (e *Engine) Reopen(day int, caseID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cases[caseID]
	if !ok {
		return fmt.Errorf("cases: no case %d", caseID)
	}
	if c.Status != StatusCold {
		return fmt.Errorf("cases: case %d is not cold (status %s): %w", caseID, c.Status, aicityerr.ErrConflict)
	}
	c.Status = StatusReopened
	c.OpenedDay = day
	c.LastActionDay = day
	return nil
}

// RecordVerdict stores the reasoning model's structured verdict note and
// guilt determination once a case reaches trial. A guilty verdict solves the
// case; a not-guilty verdict reopens it for continued investigation with the
// evidence re-weighed, per the case lifecycle's
// arrest+verdict(not guilty)->open transition — a verdict only closes the
// case when it finds guilt.
func (e *Engine) RecordVerdict(caseID uint64, guilty bool, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cases[caseID]
	if !ok {
		return fmt.Errorf("cases: no case %d", caseID)
	}
	c.Guilty = &guilty
	c.VerdictNote = note
	if guilty {
		c.Status = StatusSolved
	} else {
		c.Status = StatusOpen
	}
	return nil
}

// ColdCaseEligible reports whether a case has gone long enough without
// progress to be eligible for the cold-case transition — exposed
// separately from InvestigateTick for the testable-invariant suite.
func (e *Engine) ColdCaseEligible(day int, c *Case) bool {
	return day-c.LastActionDay >= e.coldCaseTimeoutDays
}
