// Package behavior is the Behavior Dispatcher: per-role mutation logic that
// turns a parsed Decision into ledger transactions and event-log entries.
// Dispatch shape is grounded on the teacher's internal/agents/behavior.go
// per-occupation switch, with internal/engine/crime.go informing the
// thief/police-adjacent paths.
package behavior

import (
	"context"
	"fmt"
	"sort"

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

// dailyEarnByRole is the base token yield for a successful work-type action
// before gang multipliers and role-specific scaling.
var dailyEarnByRole = map[agents.Role]int64{
	agents.RoleBuilder:    6,
	agents.RoleExplorer:   5,
	agents.RoleMerchant:   8,
	agents.RolePolice:     7,
	agents.RoleTeacher:    6,
	agents.RoleHealer:     6,
	agents.RoleMessenger:  4,
	agents.RoleLawyer:     7,
	agents.RoleGangLeader: 5,
}

// graduationRoles is the set of productive roles a comprehension-graduated
// newborn may be promoted into.
var graduationRoles = []agents.Role{
	agents.RoleBuilder, agents.RoleExplorer, agents.RoleMerchant, agents.RolePolice,
	agents.RoleHealer, agents.RoleMessenger, agents.RoleLawyer,
}

const (
	theftSuccessProbability = 0.45
	theftAmount             = int64(10)

	blackmailDemand = int64(20)

	patrolTheftScanProbability        = 0.25
	patrolTheftScanProbabilityGuarded = 0.30 // with an active watchtower standing

	comprehensionGainPerLesson = 8
	graduationThreshold        = 100

	healMoodBonus = 0.15

	merchantBaseEarn            = int64(8)
	merchantWealthyBonus        = int64(2)
	merchantWealthyBalanceFloor = int64(200)

	explorerDiscoveryProbability = 0.15
	explorerDiscoveryBonus       = int64(25)
)

func clampMood(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// Deps bundles the subsystems a behavior dispatch may mutate.
type Deps struct {
	Ledger   *ledger.Ledger
	Events   *eventlog.Log
	Cases    *cases.Engine
	Gangs    *gangs.Registry
	Projects *projects.Registry
	Bonds    *social.Bonds
	RNG      *entropy.Client
	LLM      *llm.Client
	Messages messaging.Bus

	// Agents is the full living roster, keyed by id, for behaviors that
	// need to pick a counterpart: theft/blackmail victim selection,
	// teacher-student lookup, healer recipient selection.
	Agents map[agents.ID]*agents.Agent

	// HasWatchtower reports whether an active watchtower asset currently
	// stands, raising the police patrol theft-scan probability.
	HasWatchtower bool

	// TaxRate is the fraction withheld from every earn-type credit at the
	// moment it is earned, credited to the vault, per spec §4.3.
	TaxRate float64

	// ConvictionFineAmount is transferred from a convicted agent to the
	// vault when a trial verdict finds guilt, clamped to whatever balance
	// remains.
	ConvictionFineAmount int64
}

// Dispatch applies one agent's parsed decision for the day, returning any
// events it produced for the caller to log/broadcast as needed (events are
// already recorded into Deps.Events; the return value is for test
// convenience).
func Dispatch(ctx context.Context, deps Deps, day int, a *agents.Agent, d llm.Decision, gang *gangs.Gang) []*eventlog.Event {
	var produced []*eventlog.Event

	switch d.Action {
	case "work":
		if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "worked as a "+a.Role.String()); e != nil {
			produced = append(produced, e)
		}

	case "trade":
		produced = append(produced, dispatchTrade(deps, day, a, gang)...)

	case "teach":
		produced = append(produced, dispatchTeach(deps, day, a, gang)...)

	case "heal":
		produced = append(produced, dispatchHeal(deps, day, a, gang)...)

	case "deliver_message":
		produced = append(produced, dispatchDeliverMessage(ctx, deps, day, a, gang)...)

	case "defend":
		produced = append(produced, dispatchDefend(ctx, deps, day, a)...)

	case "patrol":
		if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "patrolled the streets"); e != nil {
			produced = append(produced, e)
		}
		produced = append(produced, dispatchPatrol(deps, day, a)...)

	case "explore":
		produced = append(produced, dispatchExplore(deps, day, a, gang)...)

	case "extort":
		if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "extorted tribute"); e != nil {
			produced = append(produced, e)
		}

	case "steal":
		produced = append(produced, dispatchTheft(deps, day, a)...)

	case "blackmail":
		produced = append(produced, dispatchBlackmail(deps, day, a)...)

	case "investigate":
		produced = append(produced, dispatchInvestigate(ctx, deps, day, a)...)

	case "contribute_project":
		for _, p := range deps.Projects.InProgress() {
			_, completed, err := deps.Projects.Contribute(day, p, projects.AgentID(a.ID), projects.ContributionFull)
			if err == nil && completed {
				produced = append(produced, deps.Events.Record(day, eventlog.KindConstruction, eventlog.AgentID(a.ID), 0, p.Name+" was completed", eventlog.VisibilityPublic))
			}
			break
		}

	case "recruit":
		if gang != nil {
			deps.Gangs.Recruit(gang, gangs.AgentID(a.ID), a.Mood, deps.RNG)
		}

	case "sabotage":
		for _, asset := range deps.Projects.ActiveAssets() {
			_ = deps.Projects.Destroy(asset.ID)
			produced = append(produced, deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(a.ID), 0, asset.Name+" was sabotaged", eventlog.VisibilityWitnessed))
			break
		}

	case "rest", "socialize", "learn", "claim_lot":
		// No ledger/event mutation beyond mood, handled by the caller.
	}

	return produced
}

// creditEarn applies a gang-scaled earn transaction to a and records the
// witnessed economic event, the shared shape every flat-earn role action
// goes through.
func creditEarn(deps Deps, day int, a *agents.Agent, gang *gangs.Gang, base int64, summary string) *eventlog.Event {
	mult := 1.0
	if gang != nil {
		mult = gang.EarnMultiplier(gangs.AgentID(a.ID))
	}
	amount := int64(float64(base) * mult)
	if amount <= 0 {
		return nil
	}
	if _, err := deps.Ledger.Earn(day, ledger.AgentID(a.ID), amount, deps.TaxRate, summary); err != nil {
		return nil
	}
	a.Balance = deps.Ledger.Balance(ledger.AgentID(a.ID))
	return deps.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(a.ID), 0, a.DisplayName+" "+summary, eventlog.VisibilityWitnessed)
}

// dispatchTrade credits a merchant's daily earn, scaled by how many other
// agents in the city are currently wealthy enough to be worth trading with.
func dispatchTrade(deps Deps, day int, a *agents.Agent, gang *gangs.Gang) []*eventlog.Event {
	wealthy := 0
	for _, other := range deps.Agents {
		if other.IsAlive() && deps.Ledger.Balance(ledger.AgentID(other.ID)) >= merchantWealthyBalanceFloor {
			wealthy++
		}
	}
	base := merchantBaseEarn + int64(wealthy)*merchantWealthyBonus
	if e := creditEarn(deps, day, a, gang, base, "traded goods"); e != nil {
		return []*eventlog.Event{e}
	}
	return nil
}

// dispatchTeach advances comprehension for every newborn assigned to this
// teacher, graduating one into a productive role once its comprehension
// score clears graduationThreshold.
func dispatchTeach(deps Deps, day int, a *agents.Agent, gang *gangs.Gang) []*eventlog.Event {
	var produced []*eventlog.Event
	if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "taught a lesson"); e != nil {
		produced = append(produced, e)
	}
	for _, student := range deps.Agents {
		if student.Role != agents.RoleNewborn || student.AssignedTeacher == nil || *student.AssignedTeacher != a.ID {
			continue
		}
		student.ComprehensionScore += comprehensionGainPerLesson
		if student.ComprehensionScore < graduationThreshold {
			continue
		}
		idx := int(entropy.FloatFromSource(deps.RNG) * float64(len(graduationRoles)))
		if idx >= len(graduationRoles) {
			idx = len(graduationRoles) - 1
		}
		role := graduationRoles[idx]
		student.Promote(role)
		produced = append(produced, deps.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(student.ID), student.DisplayName+" graduated as a "+role.String(), eventlog.VisibilityPublic))
	}
	return produced
}

// dispatchHeal credits the healer's daily earn and raises the mood of the
// neediest living agent it can find.
func dispatchHeal(deps Deps, day int, a *agents.Agent, gang *gangs.Gang) []*eventlog.Event {
	var produced []*eventlog.Event
	if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "treated the sick"); e != nil {
		produced = append(produced, e)
	}
	var recipient *agents.Agent
	for _, other := range deps.Agents {
		if other.ID == a.ID || !other.IsAlive() {
			continue
		}
		if recipient == nil || other.Mood < recipient.Mood {
			recipient = other
		}
	}
	if recipient != nil {
		recipient.Mood = clampMood(recipient.Mood + healMoodBonus)
		produced = append(produced, deps.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(recipient.ID), a.DisplayName+" healed "+recipient.DisplayName, eventlog.VisibilityWitnessed))
	}
	return produced
}

// dispatchDeliverMessage credits the messenger's daily earn and, when the
// day produced any public news, asks the reasoning model for a short
// narrative recap and sends it to another living agent over the message
// bus.
func dispatchDeliverMessage(ctx context.Context, deps Deps, day int, a *agents.Agent, gang *gangs.Gang) []*eventlog.Event {
	var produced []*eventlog.Event
	if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "delivered messages"); e != nil {
		produced = append(produced, e)
	}
	if deps.Messages == nil {
		return produced
	}
	var summaries []string
	for _, ev := range deps.Events.Query(eventlog.ScopeNarrator, 0) {
		if ev.Day == day {
			summaries = append(summaries, ev.Summary)
		}
	}
	if len(summaries) == 0 {
		return produced
	}
	narrative, err := llm.WriteNarrative(ctx, deps.LLM, day, "news", summaries)
	if err != nil || narrative == "" {
		return produced
	}
	var recipient *agents.Agent
	for _, other := range deps.Agents {
		if other.ID != a.ID && other.IsAlive() {
			recipient = other
			break
		}
	}
	if recipient == nil {
		return produced
	}
	if err := deps.Messages.Send(ctx, messaging.Message{From: messaging.AgentID(a.ID), To: messaging.AgentID(recipient.ID), Body: narrative, SentDay: day}); err == nil {
		produced = append(produced, deps.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(recipient.ID), a.DisplayName+" delivered the day's news", eventlog.VisibilityWitnessed))
	}
	return produced
}

// dispatchDefend lets a lawyer argue every case currently awaiting trial,
// asking the reasoning model (via the same judge used for verdicts
// elsewhere) for a guilty/not-guilty determination, recording it, and
// collapsing any gang whose leader is convicted.
func dispatchDefend(ctx context.Context, deps Deps, day int, a *agents.Agent) []*eventlog.Event {
	var produced []*eventlog.Event
	for _, cs := range deps.Cases.ArrestedCases() {
		fallback := llm.Verdict{Guilty: entropy.Bool(deps.RNG, 0.5), Note: "insufficient evidence to decide firmly"}
		jc := llm.JudgeContext{
			Accusation: fmt.Sprintf("case %d against agent %d", cs.ID, cs.Suspect),
			Evidence:   cs.Notes,
			Defense:    a.DisplayName + " argues mitigating circumstances",
		}
		verdict, err := llm.Judge(ctx, deps.LLM, jc, fallback)
		if err != nil {
			verdict = fallback
		}
		if err := deps.Cases.RecordVerdict(cs.ID, verdict.Guilty, verdict.Note); err != nil {
			continue
		}
		// A judicial verdict makes the case's originating event public.
		_ = deps.Events.Promote(cs.EventID, eventlog.VisibilityPublic)
		vis := eventlog.VisibilityReported
		if verdict.Guilty {
			vis = eventlog.VisibilityPublic
		}
		produced = append(produced, deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(cs.Suspect), eventlog.AgentID(a.ID), "a verdict was rendered", vis))
		if verdict.Guilty {
			for _, g := range deps.Gangs.Active() {
				if g.LeaderID == gangs.AgentID(cs.Suspect) {
					_ = deps.Gangs.CollapseOnConviction(g, gangs.AgentID(cs.Suspect))
				}
			}
			if suspect, ok := deps.Agents[agents.ID(cs.Suspect)]; ok {
				if txn, err := deps.Ledger.Fine(day, ledger.AgentID(suspect.ID), deps.ConvictionFineAmount); err == nil {
					suspect.Balance = deps.Ledger.Balance(ledger.AgentID(suspect.ID))
					produced = append(produced, deps.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(suspect.ID), 0, suspect.DisplayName+fmt.Sprintf(" was fined %d tokens on conviction", txn.Amount), eventlog.VisibilityPublic))
				}
				suspect.Imprison()
			}
		}
	}
	return produced
}

// dispatchPatrol rolls the theft-scan probability (raised when an active
// watchtower stands) and, on success, opens a case from the first crime
// event in the police query scope (witnessed, reported or public) that has
// no case attached yet.
func dispatchPatrol(deps Deps, day int, officer *agents.Agent) []*eventlog.Event {
	scanProb := patrolTheftScanProbability
	if deps.HasWatchtower {
		scanProb = patrolTheftScanProbabilityGuarded
	}
	if !entropy.Bool(deps.RNG, scanProb) {
		return nil
	}
	for _, e := range deps.Events.Query(eventlog.ScopePolice, 0) {
		if e.Kind != eventlog.KindCrime || e.CaseID != nil {
			continue
		}
		cs := deps.Cases.Open(day, e.ID, cases.AgentID(e.Actor), cases.AgentID(officer.ID))
		if err := deps.Events.AttachCase(e.ID, cs.ID); err != nil {
			continue
		}
		return []*eventlog.Event{deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(officer.ID), e.Actor, officer.DisplayName+" opened a case from patrol", eventlog.VisibilityWitnessed)}
	}
	return nil
}

// dispatchExplore credits the explorer's daily earn and rolls a chance at a
// one-off discovery bonus.
func dispatchExplore(deps Deps, day int, a *agents.Agent, gang *gangs.Gang) []*eventlog.Event {
	var produced []*eventlog.Event
	if e := creditEarn(deps, day, a, gang, dailyEarnByRole[a.Role], "explored the frontier"); e != nil {
		produced = append(produced, e)
	}
	if !entropy.Bool(deps.RNG, explorerDiscoveryProbability) {
		return produced
	}
	if _, err := deps.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindEarn, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: explorerDiscoveryBonus, Note: "discovery"}); err == nil {
		a.Balance = deps.Ledger.Balance(ledger.AgentID(a.ID))
		produced = append(produced, deps.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(a.ID), 0, a.DisplayName+" discovered something valuable", eventlog.VisibilityPublic))
	}
	return produced
}

// dispatchInvestigate advances every case assigned to this officer one tick,
// packing the case's accumulated evidence and the suspect's recent ledger
// activity for the reasoning call.
func dispatchInvestigate(ctx context.Context, deps Deps, day int, a *agents.Agent) []*eventlog.Event {
	var produced []*eventlog.Event
	for _, cs := range deps.Cases.OpenCases() {
		if cs.AssignedOffice != cases.AgentID(a.ID) {
			continue
		}
		params := cases.InvestigateParams{
			RNG:          deps.RNG,
			OfficerSusc:  func(cases.AgentID) float64 { return a.BribeSusceptibility },
			Reasoning:    deps.LLM,
			Accusation:   fmt.Sprintf("agent %d is suspected in case %d", cs.Suspect, cs.ID),
			Evidence:     cs.Notes,
			LedgerWindow: ledgerWindowFor(deps.Ledger, ledger.AgentID(cs.Suspect), 5),
		}
		if err := deps.Cases.InvestigateTick(ctx, day, cs, params); err != nil {
			continue
		}
		if cs.Status == cases.StatusArrested {
			produced = append(produced, deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(cs.Suspect), eventlog.AgentID(a.ID), "an arrest was made", eventlog.VisibilityReported))
		}
	}
	return produced
}

// ledgerWindowFor returns up to n recent transaction descriptions touching
// id, most recent first, for the investigation prompt's ledger window.
func ledgerWindowFor(l *ledger.Ledger, id ledger.AgentID, n int) []string {
	log := l.Log()
	var out []string
	for i := len(log) - 1; i >= 0 && len(out) < n; i-- {
		t := log[i]
		if t.From == id || t.To == id {
			out = append(out, fmt.Sprintf("day %d %s amount %d", t.Day, t.Kind, t.Amount))
		}
	}
	return out
}

// dispatchTheft rolls a theft attempt against a selected victim: on
// success, tokens move directly from the victim to the thief (a real
// bilateral transfer, not a vault-backed credit), and always records a
// crime event at private visibility, letting the witness/report pipeline
// promote it.
func dispatchTheft(deps Deps, day int, thief *agents.Agent) []*eventlog.Event {
	victim := selectVictim(deps, thief)
	if victim == nil {
		e := deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(thief.ID), 0, thief.DisplayName+" found no one worth stealing from", eventlog.VisibilityPrivate)
		return []*eventlog.Event{e}
	}
	if !entropy.Bool(deps.RNG, theftSuccessProbability) {
		e := deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(thief.ID), eventlog.AgentID(victim.ID), thief.DisplayName+" attempted theft against "+victim.DisplayName+" and failed", eventlog.VisibilityPrivate)
		return []*eventlog.Event{e}
	}
	amount := theftAmount
	if bal := deps.Ledger.Balance(ledger.AgentID(victim.ID)); bal < amount {
		amount = bal
	}
	if amount <= 0 {
		return nil
	}
	if _, err := deps.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindTransfer, From: ledger.AgentID(victim.ID), To: ledger.AgentID(thief.ID), Amount: amount, Note: "theft"}); err != nil {
		return nil
	}
	thief.Balance = deps.Ledger.Balance(ledger.AgentID(thief.ID))
	victim.Balance = deps.Ledger.Balance(ledger.AgentID(victim.ID))
	e := deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(thief.ID), eventlog.AgentID(victim.ID), thief.DisplayName+" committed theft against "+victim.DisplayName, eventlog.VisibilityPrivate)
	return []*eventlog.Event{e}
}

// dispatchBlackmail demands a payment from a selected victim under threat
// of exposure, a real bilateral transfer with a mood and bond cost for the
// victim.
func dispatchBlackmail(deps Deps, day int, blackmailer *agents.Agent) []*eventlog.Event {
	victim := selectVictim(deps, blackmailer)
	if victim == nil {
		return nil
	}
	demand := blackmailDemand
	if bal := deps.Ledger.Balance(ledger.AgentID(victim.ID)); bal < demand {
		demand = bal
	}
	if demand <= 0 {
		e := deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(blackmailer.ID), eventlog.AgentID(victim.ID), blackmailer.DisplayName+" threatened "+victim.DisplayName+" but got nothing", eventlog.VisibilityPrivate)
		return []*eventlog.Event{e}
	}
	if _, err := deps.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindTransfer, From: ledger.AgentID(victim.ID), To: ledger.AgentID(blackmailer.ID), Amount: demand, Note: "blackmail payment"}); err != nil {
		return nil
	}
	blackmailer.Balance = deps.Ledger.Balance(ledger.AgentID(blackmailer.ID))
	victim.Balance = deps.Ledger.Balance(ledger.AgentID(victim.ID))
	victim.Mood = clampMood(victim.Mood - 0.2)
	deps.Bonds.Adjust(social.AgentID(blackmailer.ID), social.AgentID(victim.ID), -0.3, day)
	e := deps.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(blackmailer.ID), eventlog.AgentID(victim.ID), blackmailer.DisplayName+" extorted "+victim.DisplayName, eventlog.VisibilityPrivate)
	return []*eventlog.Event{e}
}

// selectVictim ranks living candidates by wealth (richest first) and bond
// with actor (weakest/most hostile first), excluding newborns and actor
// itself, for theft and blackmail target selection.
func selectVictim(deps Deps, actor *agents.Agent) *agents.Agent {
	var candidates []*agents.Agent
	for _, cand := range deps.Agents {
		if cand.ID == actor.ID || !cand.IsAlive() || cand.Role == agents.RoleNewborn {
			continue
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		wi := deps.Ledger.Balance(ledger.AgentID(candidates[i].ID))
		wj := deps.Ledger.Balance(ledger.AgentID(candidates[j].ID))
		if wi != wj {
			return wi > wj
		}
		bi := deps.Bonds.Get(social.AgentID(actor.ID), social.AgentID(candidates[i].ID))
		bj := deps.Bonds.Get(social.AgentID(actor.ID), social.AgentID(candidates[j].ID))
		return bi < bj
	})
	return candidates[0]
}
