// Package engine is the Tick Scheduler and City aggregate: the eight
// strictly-ordered day phases, and the single City value that replaces
// the teacher's scattered globals (per spec's design note "global state
// becomes a single City value"). Day-loop orchestration is grounded on the
// teacher's internal/engine/tick.go (Engine/Run/step) and
// internal/engine/simulation.go's TickDay, adapted from minute/hour/day/
// week/season cadence down to a single day-granularity tick decomposed
// into ordered internal phases.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/behavior"
	"github.com/aicity/aicity/internal/cases"
	"github.com/aicity/aicity/internal/decision"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/eventlog"
	"github.com/aicity/aicity/internal/gangs"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/llm"
	"github.com/aicity/aicity/internal/memory"
	"github.com/aicity/aicity/internal/messaging"
	"github.com/aicity/aicity/internal/projects"
	"github.com/aicity/aicity/internal/social"
)

// assetRoleBenefit is one standing asset kind's fixed daily payout to every
// living agent holding the matching role, per the Project & Asset System's
// benefit table.
type assetRoleBenefit struct {
	Role   agents.Role
	Amount int64
}

var assetBenefitTable = map[projects.AssetKind]assetRoleBenefit{
	projects.AssetWatchtower: {agents.RolePolice, 30},
	projects.AssetClinic:     {agents.RoleHealer, 40},
	projects.AssetSchool:     {agents.RoleTeacher, 30},
	projects.AssetScoutPost:  {agents.RoleExplorer, 25},
}

// marketStallPool is the fixed daily total a standing market stall splits
// evenly across every living merchant.
const marketStallPool = int64(50)

// Params bundles City's tunable policy knobs, replacing an ever-growing
// positional argument list in NewCity with one named struct.
type Params struct {
	ColdCaseTimeoutDays       int
	BaseArrestProb            float64
	GangFormationProbability  float64
	GangExposureProbability   float64
	ProjectAbandonTimeoutDays int
	// DailyTaxRate is the fraction withheld from every earn-type credit at
	// the moment an agent earns it (see ledger.Ledger.Earn), credited to
	// the vault — not a separate daily balance levy.
	DailyTaxRate            float64
	DailyBurnAmount         int64
	HeartAttackProbability  float64
	WindfallProbability     float64
	WindfallAmount          int64
	VaultSurplusThreshold   int64
	VaultRedistributionRate float64
	// ConvictionFineAmount is transferred from a convicted agent to the
	// vault on a guilty trial verdict, clamped to whatever balance remains.
	ConvictionFineAmount int64
}

// City is the single aggregate holding every subsystem, replacing the
// teacher's package-level Simulation fields.
type City struct {
	Day int

	Agents map[agents.ID]*agents.Agent

	Ledger   *ledger.Ledger
	Events   *eventlog.Log
	Cases    *cases.Engine
	Gangs    *gangs.Registry
	Projects *projects.Registry
	Bonds    *social.Bonds
	Memory   *memory.Store
	Messages messaging.Bus
	RNG      *entropy.Client
	LLM      *llm.Client

	Log zerolog.Logger

	nextAgentID agents.ID

	dailyTaxRate            float64
	dailyBurnAmount         int64
	heartAttackProbability  float64
	windfallProbability     float64
	windfallAmount          int64
	vaultSurplusThreshold   int64
	vaultRedistributionRate float64
	convictionFineAmount    int64
}

// NewCity constructs an empty City ready for genesis registration.
func NewCity(l *ledger.Ledger, rng *entropy.Client, reasoning *llm.Client, bus messaging.Bus, log zerolog.Logger, p Params) *City {
	return &City{
		Agents:   make(map[agents.ID]*agents.Agent),
		Ledger:   l,
		Events:   eventlog.New(),
		Cases:    cases.New(p.ColdCaseTimeoutDays, p.BaseArrestProb),
		Gangs:    gangs.New(p.GangFormationProbability, p.GangExposureProbability),
		Projects: projects.New(p.ProjectAbandonTimeoutDays),
		Bonds:    social.NewBonds(),
		Memory:   memory.New(32),
		Messages: bus,
		RNG:      rng,
		LLM:      reasoning,
		Log:      log,

		dailyTaxRate:            p.DailyTaxRate,
		dailyBurnAmount:         p.DailyBurnAmount,
		heartAttackProbability:  p.HeartAttackProbability,
		windfallProbability:     p.WindfallProbability,
		windfallAmount:          p.WindfallAmount,
		vaultSurplusThreshold:   p.VaultSurplusThreshold,
		vaultRedistributionRate: p.VaultRedistributionRate,
		convictionFineAmount:    p.ConvictionFineAmount,
	}
}

// Register adds a into the city's population.
func (c *City) Register(a *agents.Agent) {
	c.Agents[a.ID] = a
	if a.ID >= c.nextAgentID {
		c.nextAgentID = a.ID + 1
	}
}

// NextAgentID allocates the next unused agent id.
func (c *City) NextAgentID() agents.ID {
	c.nextAgentID++
	return c.nextAgentID
}

// AliveAgents returns every living agent ordered by descending token
// balance (ties broken by ascending ID), the per-agent turn order spec §4.1
// Phase 3 mandates and spec §5 guarantees as a totally-ordered sequence.
func (c *City) AliveAgents() []*agents.Agent {
	var out []*agents.Agent
	for _, a := range c.Agents {
		if a.IsAlive() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := c.Ledger.Balance(ledger.AgentID(out[i].ID)), c.Ledger.Balance(ledger.AgentID(out[j].ID))
		if bi != bj {
			return bi > bj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// gangOf returns the gang, if any, that agent id is a leader or member of.
func (c *City) gangOf(id agents.ID) *gangs.Gang {
	for _, g := range c.Gangs.Active() {
		if g.LeaderID == gangs.AgentID(id) || g.Members[gangs.AgentID(id)] {
			return g
		}
	}
	return nil
}

// hasActiveAsset reports whether any non-destroyed asset of kind currently
// stands.
func (c *City) hasActiveAsset(kind projects.AssetKind) bool {
	for _, a := range c.Projects.ActiveAssets() {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// RunDay executes the ordered phases of one simulated day, per the Tick
// Scheduler's specification. It is the engine's single entry point; callers
// never invoke a phase directly.
func (c *City) RunDay(ctx context.Context, pool *decision.Pool) error {
	c.Day++
	day := c.Day

	// Phase 1: asset benefits — standing assets pay out to role holders.
	c.phaseAssetBenefits(day)

	// Phase 2: per-agent turns — subsistence burn, stochastic life events,
	// then the Decision Facade + Behavior Dispatcher for every living
	// agent, in balance-desc/id-asc deterministic turn order. Tax is
	// withheld per agent at the moment each earn-type credit lands.
	if err := c.phasePerAgentTurns(ctx, day, pool); err != nil {
		return fmt.Errorf("engine: day %d per-agent turns: %w", day, err)
	}

	// Phase 3: meetings — message-bus traffic substitutes for co-location,
	// driving gang recruitment, debriefs, compromises, trades, and gossip.
	c.phaseMeetings(ctx, day)

	// Phase 4: investigations — open police cases advance one tick.
	c.phaseInvestigations(ctx, day)

	// Phase 5: projects — abandonment sweep for stalled joint projects.
	c.phaseProjectSweep(day)

	// Phase 6: relationships — bond decay across the whole population.
	c.Bonds.DecayAll(day)

	// Phase 7: vault policy — welfare top-up for agents below the floor,
	// then, once the vault clears its surplus threshold, fund an
	// in-progress project or grant a community bonus.
	c.phaseVaultPolicy(day)

	// Phase 8: persistence + broadcast is the caller's responsibility
	// (internal/persistence + internal/observer), since it is a distinct
	// bounded unit of work gating the next day's start per the
	// concurrency model — RunDay does not perform it itself.

	if err := c.Ledger.CheckConservation(); err != nil {
		return fmt.Errorf("engine: day %d conservation check: %w", day, err)
	}
	return nil
}

// phaseAssetBenefits pays every standing asset's daily benefit: a fixed
// per-role bonus for watchtower/clinic/school/scout-post assets, and an
// even split of the market stall pool across every living merchant.
func (c *City) phaseAssetBenefits(day int) {
	for _, asset := range c.Projects.ActiveAssets() {
		if asset.Kind == projects.AssetMarketStall {
			c.payMarketStall(day, asset.Name)
			continue
		}
		benefit, ok := assetBenefitTable[asset.Kind]
		if !ok {
			continue
		}
		for _, a := range c.AliveAgents() {
			if a.Role != benefit.Role {
				continue
			}
			if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindEarn, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: benefit.Amount, Note: "asset benefit: " + asset.Name}); err != nil {
				continue
			}
			a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
			c.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(a.ID), 0, a.DisplayName+" drew a benefit from "+asset.Name, eventlog.VisibilityPrivate)
		}
	}
}

func (c *City) payMarketStall(day int, assetName string) {
	var merchants []*agents.Agent
	for _, a := range c.AliveAgents() {
		if a.Role == agents.RoleMerchant {
			merchants = append(merchants, a)
		}
	}
	if len(merchants) == 0 {
		return
	}
	share := marketStallPool / int64(len(merchants))
	if share <= 0 {
		return
	}
	for _, a := range merchants {
		if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindEarn, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: share, Note: "asset benefit: " + assetName}); err != nil {
			continue
		}
		a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
	}
}

func (c *City) phasePerAgentTurns(ctx context.Context, day int, pool *decision.Pool) error {
	watchtower := c.hasActiveAsset(projects.AssetWatchtower)

	for _, a := range c.AliveAgents() {
		a.AgeDays++

		balBefore := c.Ledger.Balance(ledger.AgentID(a.ID))
		c.Ledger.ApplyDailyBurn(day, []ledger.AgentID{ledger.AgentID(a.ID)}, c.dailyBurnAmount)
		a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))

		if balBefore < c.dailyBurnAmount {
			a.Mood = social.ApplyMoodDelta(a.Mood, social.MoodStarvation)
		}
		if a.Balance == 0 {
			if err := c.Die(day, a.ID, "starvation"); err != nil {
				c.Log.Debug().Err(err).Uint64("agent_id", uint64(a.ID)).Msg("starvation death failed")
			}
			continue
		}

		if entropy.Bool(c.RNG, c.heartAttackProbability) {
			if err := c.Die(day, a.ID, "heart attack"); err != nil {
				c.Log.Debug().Err(err).Uint64("agent_id", uint64(a.ID)).Msg("heart attack death failed")
			}
			continue
		}

		if entropy.Bool(c.RNG, c.windfallProbability) && c.windfallAmount > 0 {
			if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindEarn, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: c.windfallAmount, Note: "windfall"}); err == nil {
				a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
				c.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(a.ID), 0, a.DisplayName+" came into a windfall", eventlog.VisibilityWitnessed)
			}
		}

		dc := decision.BuildContext(a, day, "", nil, nil, c.Bonds, nil)
		fallback := decision.RoleDefaultAction(a.Role)

		var d llm.Decision
		err := pool.Submit(ctx, func(callCtx context.Context) error {
			var innerErr error
			d, innerErr = llm.Decide(callCtx, c.LLM, dc, fallback)
			return innerErr
		})
		if err != nil {
			d = fallback
		}

		gang := c.gangOf(a.ID)
		deps := behavior.Deps{
			Ledger:               c.Ledger,
			Events:               c.Events,
			Cases:                c.Cases,
			Gangs:                c.Gangs,
			Projects:             c.Projects,
			Bonds:                c.Bonds,
			RNG:                  c.RNG,
			LLM:                  c.LLM,
			Messages:             c.Messages,
			Agents:               c.Agents,
			HasWatchtower:        watchtower,
			TaxRate:              c.dailyTaxRate,
			ConvictionFineAmount: c.convictionFineAmount,
		}
		behavior.Dispatch(ctx, deps, day, a, d, gang)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// phaseMeetings substitutes message-bus traffic for spatial co-location:
// every living agent's same-day inbox is scanned once, each sender/receiver
// pair handled at most once, and the message's keyword-classified intent
// drives a gang recruitment pitch, a debrief, a compromise, a trade, or a
// gossip hand-off.
func (c *City) phaseMeetings(ctx context.Context, day int) {
	seen := make(map[[2]agents.ID]bool)
	for _, a := range c.AliveAgents() {
		msgs, err := c.Messages.Inbox(ctx, messaging.AgentID(a.ID))
		if err != nil {
			continue
		}
		for _, m := range msgs {
			if m.SentDay != day {
				continue
			}
			other, ok := c.Agents[agents.ID(m.From)]
			if !ok || !other.IsAlive() || other.ID == a.ID {
				continue
			}
			key := pairKey(a.ID, other.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			switch social.KeywordIntentDetector(social.Message{Body: m.Body}) {
			case social.IntentMeet:
				c.resolveMeetingDebrief(day, a, other)
			case social.IntentTrade:
				c.resolveMeetingTrade(day, a, other)
			case social.IntentGossip:
				c.resolveMeetingGossip(day, a, other)
			default:
				c.resolveMeetingCompromise(day, a, other)
			}
		}
	}
}

func pairKey(a, b agents.ID) [2]agents.ID {
	if a <= b {
		return [2]agents.ID{a, b}
	}
	return [2]agents.ID{b, a}
}

const projectStartOnStrongBondProbability = 0.1

// resolveMeetingDebrief strengthens the bond between two agents who met,
// may pull one into the other's gang if the recruit's mood is receptive,
// and occasionally kicks off a new joint project once the bond is strong.
func (c *City) resolveMeetingDebrief(day int, a, b *agents.Agent) {
	c.Bonds.Adjust(social.AgentID(a.ID), social.AgentID(b.ID), 0.15, day)
	a.Mood = social.ApplyMoodDelta(a.Mood, social.MoodBondFormed)
	b.Mood = social.ApplyMoodDelta(b.Mood, social.MoodBondFormed)
	c.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(b.ID), a.DisplayName+" and "+b.DisplayName+" met and debriefed", eventlog.VisibilityWitnessed)

	if g := c.gangOf(a.ID); g != nil && g.LeaderID == gangs.AgentID(a.ID) {
		c.Gangs.Recruit(g, gangs.AgentID(b.ID), b.Mood, c.RNG)
	} else if g := c.gangOf(b.ID); g != nil && g.LeaderID == gangs.AgentID(b.ID) {
		c.Gangs.Recruit(g, gangs.AgentID(a.ID), a.Mood, c.RNG)
	}

	if c.Bonds.Get(social.AgentID(a.ID), social.AgentID(b.ID)) > 0.5 && entropy.Bool(c.RNG, projectStartOnStrongBondProbability) {
		p := c.Projects.Start(day, "a joint venture", projects.AssetGeneric)
		c.Events.Record(day, eventlog.KindConstruction, eventlog.AgentID(a.ID), eventlog.AgentID(b.ID), p.Name+" was started", eventlog.VisibilityWitnessed)
	}
}

const meetingTradeAmount = int64(5)

// resolveMeetingTrade moves a small payment from b to a, a lightweight
// stand-in for a completed barter now that spatial co-location is out of
// scope.
func (c *City) resolveMeetingTrade(day int, a, b *agents.Agent) {
	amount := meetingTradeAmount
	if bal := c.Ledger.Balance(ledger.AgentID(b.ID)); bal < amount {
		amount = bal
	}
	if amount <= 0 {
		return
	}
	if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindTransfer, From: ledger.AgentID(b.ID), To: ledger.AgentID(a.ID), Amount: amount, Note: "trade"}); err != nil {
		return
	}
	a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
	b.Balance = c.Ledger.Balance(ledger.AgentID(b.ID))
	c.Events.Record(day, eventlog.KindEconomic, eventlog.AgentID(b.ID), eventlog.AgentID(a.ID), a.DisplayName+" traded with "+b.DisplayName, eventlog.VisibilityWitnessed)
}

const compromiseBondThreshold = -0.3
const compromiseBondRepair = 0.1

// resolveMeetingCompromise softens a sufficiently hostile bond when two
// agents exchange a message without a recognized intent — small talk that
// still counts as contact.
func (c *City) resolveMeetingCompromise(day int, a, b *agents.Agent) {
	if c.Bonds.Get(social.AgentID(a.ID), social.AgentID(b.ID)) >= compromiseBondThreshold {
		return
	}
	c.Bonds.Adjust(social.AgentID(a.ID), social.AgentID(b.ID), compromiseBondRepair, day)
	c.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(b.ID), a.DisplayName+" and "+b.DisplayName+" reached a compromise", eventlog.VisibilityWitnessed)
}

// resolveMeetingGossip promotes the first event a witnessed (below rumor
// visibility) to a rumor and marks b as having heard it too, the
// witnessed-mentions-in-a-message -> rumor promotion trigger.
func (c *City) resolveMeetingGossip(day int, a, b *agents.Agent) {
	witnessed := c.Events.WitnessedBy(eventlog.AgentID(a.ID))
	if len(witnessed) == 0 {
		return
	}
	ev := witnessed[0]
	if err := c.Events.PromoteToRumor(ev.ID); err != nil {
		return
	}
	_ = c.Events.Witness(ev.ID, eventlog.AgentID(b.ID))
	c.Events.Record(day, eventlog.KindSocial, eventlog.AgentID(a.ID), eventlog.AgentID(b.ID), a.DisplayName+" passed along a rumor to "+b.DisplayName, eventlog.VisibilityWitnessed)
}

func (c *City) phaseInvestigations(ctx context.Context, day int) {
	for _, cse := range c.Cases.OpenCases() {
		officer, ok := c.Agents[agents.ID(cse.AssignedOffice)]
		susc := func(cases.AgentID) float64 {
			if ok {
				return officer.BribeSusceptibility
			}
			return 0
		}
		suspectName := fmt.Sprintf("agent %d", cse.Suspect)
		if sa, ok := c.Agents[agents.ID(cse.Suspect)]; ok {
			suspectName = sa.DisplayName
		}
		params := cases.InvestigateParams{
			RNG:          c.RNG,
			OfficerSusc:  susc,
			Reasoning:    c.LLM,
			Accusation:   fmt.Sprintf("%s is suspected in case %d", suspectName, cse.ID),
			Evidence:     cse.Notes,
			LedgerWindow: recentLedgerActivity(c.Ledger, ledger.AgentID(cse.Suspect), 5),
		}
		if err := c.Cases.InvestigateTick(ctx, day, cse, params); err != nil {
			c.Log.Debug().Err(err).Uint64("case_id", cse.ID).Msg("investigation tick skipped")
			continue
		}
		if cse.Status == cases.StatusArrested {
			c.Events.Record(day, eventlog.KindCrime, eventlog.AgentID(cse.Suspect), 0, "an arrest was made", eventlog.VisibilityReported)
			if sa, ok := c.Agents[agents.ID(cse.Suspect)]; ok {
				sa.Mood = social.ApplyMoodDelta(sa.Mood, social.MoodArrested)
			}
		}
	}
}

// recentLedgerActivity returns up to n recent transaction descriptions
// touching id, most recent first, for the investigation prompt's ledger
// window.
func recentLedgerActivity(l *ledger.Ledger, id ledger.AgentID, n int) []string {
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

func (c *City) phaseProjectSweep(day int) {
	for _, p := range c.Projects.InProgress() {
		if c.Projects.CheckAbandonment(day, p) {
			c.Events.Record(day, eventlog.KindConstruction, 0, 0, p.Name+" was abandoned", eventlog.VisibilityWitnessed)
		}
	}
}

// phaseVaultPolicy tops up every living agent below the welfare floor, then
// funds an in-progress project's contributors, or failing that grants an
// even community bonus to every living agent, once the vault clears
// VaultSurplusThreshold — the Vault's public-goods policy, spec §4.1 Phase
// 5, run after per-agent turns so welfare responds to the day's earn/burn
// activity rather than anticipating it.
func (c *City) phaseVaultPolicy(day int) {
	var ids []ledger.AgentID
	for _, a := range c.AliveAgents() {
		ids = append(ids, ledger.AgentID(a.ID))
	}
	welfare := c.Ledger.ApplyDailyWelfare(day, ids)
	for _, txn := range welfare {
		c.Events.Record(day, eventlog.KindEconomic, 0, eventlog.AgentID(txn.To), "welfare disbursed", eventlog.VisibilityPrivate)
		if a, ok := c.Agents[agents.ID(txn.To)]; ok {
			a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
			a.Mood = social.ApplyMoodDelta(a.Mood, social.MoodWelfareReceived)
		}
	}

	vault := c.Ledger.Vault()
	if vault <= c.vaultSurplusThreshold {
		return
	}
	surplus := vault - c.vaultSurplusThreshold
	grant := int64(float64(surplus) * c.vaultRedistributionRate)
	if grant <= 0 {
		return
	}

	for _, p := range c.Projects.InProgress() {
		if len(p.Contributors) == 0 {
			continue
		}
		share := grant / int64(len(p.Contributors))
		if share <= 0 {
			continue
		}
		for cid := range p.Contributors {
			if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindWelfare, From: ledger.VaultID, To: ledger.AgentID(cid), Amount: share, Note: "project funding bonus"}); err != nil {
				continue
			}
			if a, ok := c.Agents[agents.ID(cid)]; ok {
				a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
			}
		}
		c.Events.Record(day, eventlog.KindPolitical, 0, 0, "the vault funded "+p.Name, eventlog.VisibilityPublic)
		return
	}

	ids := c.AliveAgents()
	if len(ids) == 0 {
		return
	}
	share := grant / int64(len(ids))
	if share <= 0 {
		return
	}
	for _, a := range ids {
		if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindWelfare, From: ledger.VaultID, To: ledger.AgentID(a.ID), Amount: share, Note: "community bonus"}); err != nil {
			continue
		}
		a.Balance = c.Ledger.Balance(ledger.AgentID(a.ID))
		a.Mood = social.ApplyMoodDelta(a.Mood, social.MoodWelfareReceived)
	}
	c.Events.Record(day, eventlog.KindPolitical, 0, 0, "the vault distributed a community bonus", eventlog.VisibilityPublic)
}

// Die transitions agent id to dead, routing its remaining balance to the
// vault (simple escheat policy — an explicit inheritance split is a
// Behavior Dispatcher concern for roles that name an heir) before zeroing
// it, satisfying the status=dead⇒balance=0 invariant.
func (c *City) Die(day int, id agents.ID, cause string) error {
	a, ok := c.Agents[id]
	if !ok {
		return fmt.Errorf("engine: no agent %d", id)
	}
	if !a.IsAlive() {
		return nil
	}
	bal := c.Ledger.Balance(ledger.AgentID(id))
	if bal > 0 {
		if _, err := c.Ledger.Apply(ledger.Transaction{Day: day, Kind: ledger.KindInheritance, From: ledger.AgentID(id), To: ledger.VaultID, Amount: bal, Note: "escheat on death"}); err != nil {
			return fmt.Errorf("engine: escheat agent %d: %w", id, err)
		}
	}
	a.Kill(cause)
	c.Events.Record(day, eventlog.KindDeath, eventlog.AgentID(id), 0, a.DisplayName+" died: "+cause, eventlog.VisibilityPublic)
	if g := c.gangOf(id); g != nil && g.LeaderID == gangs.AgentID(id) {
		_ = c.Gangs.CollapseOnConviction(g, gangs.AgentID(id))
	}
	return nil
}
