// Package eventlog implements the five-state visibility machine that gates
// which consumer (agent, police, narrator, observer) may see which event,
// and the append-only store backing it. Fan-out shape (subscribe/publish
// over buffered channels, non-blocking send) is grounded on the teacher's
// internal/engine/simulation.go Subscribe/EmitEvent/eventSubs pattern.
package eventlog

import (
	"fmt"
	"sync"

	"github.com/aicity/aicity/internal/aicityerr"
)

// Visibility is the forward-only promotion ladder: private < witnessed <
// rumor < reported < public.
type Visibility uint8

const (
	VisibilityPrivate Visibility = iota
	VisibilityWitnessed
	VisibilityRumor
	VisibilityReported
	VisibilityPublic
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityWitnessed:
		return "witnessed"
	case VisibilityRumor:
		return "rumor"
	case VisibilityReported:
		return "reported"
	case VisibilityPublic:
		return "public"
	default:
		return "unknown"
	}
}

// publicThreshold is the number of independent witnesses that forces a
// promotion to public, per the specification (Open Question 3 in
// DESIGN.md: enforced here centrally rather than left to callers, unlike
// the teacher's historical behavior).
const publicThreshold = 5

// AgentID aliases a bare integer id to avoid an import cycle with the
// agents package.
type AgentID uint64

// Kind is the event category, used by consumer-specific query scopes.
type Kind string

const (
	KindCrime        Kind = "crime"
	KindEconomic     Kind = "economic"
	KindSocial       Kind = "social"
	KindPolitical    Kind = "political"
	KindConstruction Kind = "construction"
	KindDeath        Kind = "death"
)

// Event is one append-only log entry.
type Event struct {
	ID         uint64     `json:"id"`
	Day        int        `json:"day"`
	Kind       Kind       `json:"kind"`
	Visibility Visibility `json:"visibility"`
	Actor      AgentID    `json:"actor,omitempty"`
	Target     AgentID    `json:"target,omitempty"`
	Summary    string     `json:"summary"`

	witnesses     map[AgentID]struct{}
	CaseID        *uint64  `json:"case_id,omitempty"`
	EvidenceTrail []string `json:"evidence_trail,omitempty"`
}

// AddEvidence appends a piece of evidence text to the event's trail, for the
// daily investigation procedure to hand the reasoning model a growing dossier
// instead of re-deriving it from scratch every tick.
func (e *Event) AddEvidence(text string) {
	e.EvidenceTrail = append(e.EvidenceTrail, text)
}

// Witnesses returns the set of agents known to have observed the event.
func (e *Event) Witnesses() []AgentID {
	out := make([]AgentID, 0, len(e.witnesses))
	for id := range e.witnesses {
		out = append(out, id)
	}
	return out
}

// Log is the append-only event store plus its observer fan-out.
type Log struct {
	mu     sync.Mutex
	events []*Event
	nextID uint64

	subMu   sync.RWMutex
	subs    map[int]chan Event
	nextSub int
}

// New constructs an empty log.
func New() *Log {
	return &Log{subs: make(map[int]chan Event)}
}

// Record appends a new event at VisibilityPrivate (unless vis is given
// explicitly higher, e.g. a construction event that is public from
// creation) and returns it.
func (l *Log) Record(day int, kind Kind, actor, target AgentID, summary string, vis Visibility) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	e := &Event{
		ID:         l.nextID,
		Day:        day,
		Kind:       kind,
		Visibility: vis,
		Actor:      actor,
		Target:     target,
		Summary:    summary,
		witnesses:  make(map[AgentID]struct{}),
	}
	l.events = append(l.events, e)
	l.publish(*e)
	return e
}

// Witness marks id as having observed event eventID, promoting it to at
// least witnessed, and to public once publicThreshold independent
// witnesses have accumulated. Promotion is forward-only: a call that would
// lower visibility is a no-op.
func (l *Log) Witness(eventID uint64, id AgentID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.find(eventID)
	if e == nil {
		return fmt.Errorf("eventlog: no event %d", eventID)
	}
	e.witnesses[id] = struct{}{}
	if e.Visibility < VisibilityWitnessed {
		e.Visibility = VisibilityWitnessed
	}
	if len(e.witnesses) >= publicThreshold && e.Visibility < VisibilityPublic {
		e.Visibility = VisibilityPublic
		l.publish(*e)
	}
	return nil
}

// Promote moves an event forward to at least vis. Returns
// ErrInvariantViolation if vis is behind the event's current visibility,
// since visibility is monotone non-decreasing.
func (l *Log) Promote(eventID uint64, vis Visibility) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.find(eventID)
	if e == nil {
		return fmt.Errorf("eventlog: no event %d", eventID)
	}
	if vis < e.Visibility {
		return fmt.Errorf("eventlog: cannot demote event %d from %s to %s: %w", eventID, e.Visibility, vis, aicityerr.ErrInvariantViolation)
	}
	if vis > e.Visibility {
		e.Visibility = vis
		l.publish(*e)
	}
	return nil
}

// AttachCase links a reported event to the police case it spawned.
func (l *Log) AttachCase(eventID, caseID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.find(eventID)
	if e == nil {
		return fmt.Errorf("eventlog: no event %d", eventID)
	}
	e.CaseID = &caseID
	return nil
}

// AddEvidence appends text to eventID's evidence trail under the log's lock,
// for the investigation procedure to record what each day's tick turned up.
func (l *Log) AddEvidence(eventID uint64, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.find(eventID)
	if e == nil {
		return fmt.Errorf("eventlog: no event %d", eventID)
	}
	e.AddEvidence(text)
	return nil
}

// WitnessedBy returns every event witness has witnessed that is still
// promotable to rumor (strictly below VisibilityRumor), for the Meeting
// Matcher's gossip-intent handling to pick from.
func (l *Log) WitnessedBy(witness AgentID) []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Event
	for _, e := range l.events {
		if e.Visibility >= VisibilityRumor {
			continue
		}
		if _, ok := e.witnesses[witness]; ok {
			out = append(out, e)
		}
	}
	return out
}

// PromoteToRumor promotes eventID to VisibilityRumor if it is currently
// below it, the witnessed→rumor step the Meeting Matcher drives when a
// witness mentions what they saw in a message with gossip intent.
func (l *Log) PromoteToRumor(eventID uint64) error {
	l.mu.Lock()
	vis := VisibilityRumor
	e := l.find(eventID)
	if e == nil {
		l.mu.Unlock()
		return fmt.Errorf("eventlog: no event %d", eventID)
	}
	if vis <= e.Visibility {
		l.mu.Unlock()
		return nil
	}
	e.Visibility = vis
	l.mu.Unlock()
	return nil
}

// Restore reinserts an event loaded from persistence, together with its
// witness set, advancing nextID past its id. It does not republish to
// subscribers — those only ever see events as they happen live.
func (l *Log) Restore(e *Event, witnesses []AgentID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.witnesses == nil {
		e.witnesses = make(map[AgentID]struct{})
	}
	for _, w := range witnesses {
		e.witnesses[w] = struct{}{}
	}
	l.events = append(l.events, e)
	if e.ID >= l.nextID {
		l.nextID = e.ID
	}
}

// All returns every event recorded so far, for the persistence layer to
// checkpoint in full each save.
func (l *Log) All() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	for i, e := range l.events {
		out[i] = *e
	}
	return out
}

func (l *Log) find(id uint64) *Event {
	for _, e := range l.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// QueryScope names a consumer whose visibility floor differs.
type QueryScope uint8

const (
	// ScopeAgent sees only events it witnessed directly or that are public.
	ScopeAgent QueryScope = iota
	// ScopePolice sees witnessed, reported, and public events (the case
	// inbox plus what's been personally observed), never private events
	// or rumor (rumor is not yet in the book).
	ScopePolice
	// ScopeNarrator sees only public events — containment invariant:
	// narrator prose must never leak a rumor- or witnessed-only event.
	ScopeNarrator
	// ScopeObserver mirrors the narrator's public-only floor.
	ScopeObserver
)

// Query returns all events visible to scope as of the current state,
// filtered additionally to ones where witness is in the witness set when
// scope is ScopeAgent.
func (l *Log) Query(scope QueryScope, witness AgentID) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		switch scope {
		case ScopeAgent:
			if e.Visibility == VisibilityPublic {
				out = append(out, *e)
				continue
			}
			if _, ok := e.witnesses[witness]; ok {
				out = append(out, *e)
			}
		case ScopePolice:
			if e.Visibility == VisibilityWitnessed || e.Visibility == VisibilityReported || e.Visibility == VisibilityPublic {
				out = append(out, *e)
			}
		case ScopeNarrator, ScopeObserver:
			if e.Visibility == VisibilityPublic {
				out = append(out, *e)
			}
		}
	}
	return out
}

// Subscribe registers a bounded-buffer channel receiving every published
// event from this moment forward, mirroring the teacher's
// Simulation.Subscribe. Only VisibilityPublic events are ever published to
// subscribers (narrator containment, invariant 5) — see publish.
func (l *Log) Subscribe(bufSize int) (int, chan Event) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.nextSub++
	ch := make(chan Event, bufSize)
	l.subs[l.nextSub] = ch
	return l.nextSub, ch
}

// Unsubscribe removes and closes a subscription.
func (l *Log) Unsubscribe(id int) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if ch, ok := l.subs[id]; ok {
		close(ch)
		delete(l.subs, id)
	}
}

// publish fans e out to every subscriber, non-blocking: a full subscriber
// buffer means that subscriber drops the event (spec §5 drop-on-overflow),
// never blocking the writer. Only public events are ever fanned out, since
// subscribers represent narrator/observer-class consumers.
func (l *Log) publish(e Event) {
	if e.Visibility != VisibilityPublic {
		return
	}
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
			// Drop: slow consumer, per spec's broadcast overflow policy.
		}
	}
}
