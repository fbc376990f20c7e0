// Package social tracks agent mood and the symmetric Bond relation between
// pairs of agents. Mood trigger-delta handling follows the teacher's
// strengthenBond/boostRelationship find-or-update idiom in
// internal/engine/relationships.go; Bond storage is canonicalized by a
// normalized pair key (unlike the teacher's duplicated per-agent slice) to
// satisfy bond(a,b)=bond(b,a) as a storage-level invariant rather than a
// convention callers must maintain.
package social

import (
	"strings"
	"sync"
)

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MoodDelta is one named trigger in the documented mood-effect table.
type MoodDelta string

const (
	MoodWitnessedCrime   MoodDelta = "witnessed_crime"
	MoodRobbed           MoodDelta = "robbed"
	MoodArrested         MoodDelta = "arrested"
	MoodConvicted        MoodDelta = "convicted"
	MoodBondFormed       MoodDelta = "bond_formed"
	MoodProjectCompleted MoodDelta = "project_completed"
	MoodWelfareReceived  MoodDelta = "welfare_received"
	MoodStarvation       MoodDelta = "near_starvation"
)

// moodDeltaTable is the documented scalar nudge applied to an agent's mood
// for each trigger. Values are deliberately small: mood is meant to drift
// across many days, not swing on one event.
var moodDeltaTable = map[MoodDelta]float64{
	MoodWitnessedCrime:   -0.05,
	MoodRobbed:           -0.25,
	MoodArrested:         -0.3,
	MoodConvicted:        -0.4,
	MoodBondFormed:       0.1,
	MoodProjectCompleted: 0.2,
	MoodWelfareReceived:  0.05,
	MoodStarvation:       -0.2,
}

// ApplyMoodDelta returns the new mood value after applying trigger to
// current, clamped to [-1,1].
func ApplyMoodDelta(current float64, trigger MoodDelta) float64 {
	return clamp(current+moodDeltaTable[trigger], -1, 1)
}

// MoodText converts a raw scalar into the descriptive band shown to the
// reasoning model — raw numbers are never surfaced to it.
func MoodText(mood float64) string {
	switch {
	case mood <= -0.6:
		return "despairing"
	case mood <= -0.2:
		return "troubled"
	case mood < 0.2:
		return "even-keeled"
	case mood < 0.6:
		return "content"
	default:
		return "thriving"
	}
}

// pairKey normalizes an unordered agent pair so (a,b) and (b,a) hash
// identically.
type pairKey struct {
	lo, hi AgentID
}

func normalize(a, b AgentID) pairKey {
	if a <= b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// Bond is the symmetric relation strength between two agents, in [-1,1],
// with decay applied daily.
type Bond struct {
	Strength float64
	LastDay  int
}

const decayPerDay = 0.01

// Bonds is the canonical symmetric store.
type Bonds struct {
	mu    sync.Mutex
	store map[pairKey]*Bond
}

// NewBonds constructs an empty store.
func NewBonds() *Bonds {
	return &Bonds{store: make(map[pairKey]*Bond)}
}

// Get returns the current bond strength between a and b (0 if none exists).
func (b *Bonds) Get(a, x AgentID) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.store[normalize(a, x)]; ok {
		return bd.Strength
	}
	return 0
}

// Adjust nudges the bond between a and x by delta, creating it if absent,
// and returns the new strength. Because storage is keyed by the normalized
// pair, bond(a,b) and bond(b,a) are always the same value by construction.
func (b *Bonds) Adjust(a, x AgentID, delta float64, day int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := normalize(a, x)
	bd, ok := b.store[key]
	if !ok {
		bd = &Bond{}
		b.store[key] = bd
	}
	bd.Strength = clamp(bd.Strength+delta, -1, 1)
	bd.LastDay = day
	return bd.Strength
}

// DecayAll applies one day's decay toward zero to every tracked bond,
// called once per day from the tick scheduler's relationships phase.
func (b *Bonds) DecayAll(day int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bd := range b.store {
		if bd.LastDay == day {
			continue // Just touched today; don't also decay it.
		}
		if bd.Strength > 0 {
			bd.Strength = clamp(bd.Strength-decayPerDay, 0, 1)
		} else if bd.Strength < 0 {
			bd.Strength = clamp(bd.Strength+decayPerDay, -1, 0)
		}
	}
}

// Message is the minimal shape the Meeting Matcher inspects. Kept
// independent of internal/messaging.Message so this package stays
// dependency-free of the message bus.
type Message struct {
	Body string
}

// Intent is the small closed set of message intents the Meeting Matcher
// reacts to when scanning a day's message traffic for co-location
// substitutes.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentMeet
	IntentTrade
	IntentGossip
)

// IntentDetector classifies a message's intent for the Meeting Matcher.
// Pluggable so a reasoning-backed detector can be substituted without
// changing the scheduler.
type IntentDetector func(Message) Intent

var (
	meetKeywords   = []string{"meet", "let's meet", "come by", "see you at", "meeting"}
	tradeKeywords  = []string{"trade", "buy", "sell", "deal"}
	gossipKeywords = []string{"heard", "saw", "rumor", "happened to"}
)

// KeywordIntentDetector is the default IntentDetector: a plain keyword
// scan, grounded on the teacher's rule-based Tier0 decision style rather
// than a reasoning-model call, so the Meeting phase stays cheap and
// deterministic enough to run for every agent every day.
func KeywordIntentDetector(m Message) Intent {
	body := strings.ToLower(m.Body)
	for _, kw := range meetKeywords {
		if strings.Contains(body, kw) {
			return IntentMeet
		}
	}
	for _, kw := range tradeKeywords {
		if strings.Contains(body, kw) {
			return IntentTrade
		}
	}
	for _, kw := range gossipKeywords {
		if strings.Contains(body, kw) {
			return IntentGossip
		}
	}
	return IntentNone
}

// Of returns every bond partner of a, for decision-context packing.
func (b *Bonds) Of(a AgentID) map[AgentID]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[AgentID]float64)
	for k, bd := range b.store {
		switch a {
		case k.lo:
			out[k.hi] = bd.Strength
		case k.hi:
			out[k.lo] = bd.Strength
		}
	}
	return out
}
