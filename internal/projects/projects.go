// Package projects implements the joint-project and standing-asset system:
// multi-contributor daily progress, abandonment timeout, completion into a
// benefit-yielding Asset, and saboteur destruction. Progress-accumulation
// idiom is grounded on the teacher's internal/engine/factions.go weekly
// accumulation-and-threshold style.
package projects

import (
	"fmt"
	"sync"

	"github.com/aicity/aicity/internal/aicityerr"
)

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

// Status is the project's lifecycle state.
type Status uint8

const (
	StatusInProgress Status = iota
	StatusComplete
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusComplete:
		return "complete"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// ContributionFull and ContributionPartial are the amounts of progress one
// agent's daily contribution adds (full effort 1.0, partial effort 0.5);
// a project completes once its progress reaches completionThreshold.
const (
	ContributionFull    = 1.0
	ContributionPartial = 0.5
	completionThreshold = 10.0
)

// AssetKind names which role a completed project's standing asset yields a
// daily benefit to, driving the Tick Scheduler's asset-benefits phase.
type AssetKind string

const (
	AssetGeneric     AssetKind = ""             // no per-role benefit, e.g. a monument
	AssetWatchtower  AssetKind = "watchtower"    // police
	AssetClinic      AssetKind = "clinic"        // healer
	AssetMarketStall AssetKind = "market_stall"  // merchant
	AssetSchool      AssetKind = "school"        // teacher
	AssetScoutPost   AssetKind = "scout_post"    // explorer
)

// Project is a multi-contributor construction effort.
type Project struct {
	ID           uint64          `json:"id"`
	Name         string          `json:"name"`
	Kind         AssetKind       `json:"kind,omitempty"`
	Progress     float64         `json:"progress"`
	Contributors map[AgentID]int `json:"-"` // agent -> day of last contribution
	StartedDay   int             `json:"started_day"`
	LastProgress int             `json:"last_progress_day"`
	Status       Status          `json:"status"`
	AssetID      *uint64         `json:"asset_id,omitempty"`
}

// Asset is a completed project's standing benefit-yielding structure.
type Asset struct {
	ID           uint64    `json:"id"`
	ProjectID    uint64    `json:"project_id"`
	Name         string    `json:"name"`
	Kind         AssetKind `json:"kind,omitempty"`
	CompletedDay int       `json:"completed_day"`
	Destroyed    bool      `json:"destroyed"`
}

// DailyBenefit is the per-role benefit an active asset grants.
type DailyBenefit struct {
	RoleTokenBonus int64
}

// Registry owns every project and asset.
type Registry struct {
	mu              sync.Mutex
	projects        map[uint64]*Project
	assets          map[uint64]*Asset
	nextProjectID   uint64
	nextAssetID     uint64
	abandonTimeout  int
}

// New constructs an empty Registry. abandonTimeoutDays is how many days
// without any contribution before an in-progress project is abandoned.
func New(abandonTimeoutDays int) *Registry {
	return &Registry{
		projects:       make(map[uint64]*Project),
		assets:         make(map[uint64]*Asset),
		abandonTimeout: abandonTimeoutDays,
	}
}

// Start begins a new project that will yield kind's per-role benefit once
// completed (AssetGeneric for a project with no standing per-role payout).
func (r *Registry) Start(day int, name string, kind AssetKind) *Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextProjectID++
	p := &Project{
		ID:           r.nextProjectID,
		Name:         name,
		Kind:         kind,
		Contributors: make(map[AgentID]int),
		StartedDay:   day,
		LastProgress: day,
		Status:       StatusInProgress,
	}
	r.projects[p.ID] = p
	return p
}

// Contribute applies one agent's daily contribution, returning the
// project's new progress and whether this contribution completed it. The
// project transitions to StatusComplete (caller must then call Complete to
// mint the Asset) once progress reaches completionThreshold.
func (r *Registry) Contribute(day int, p *Project, agent AgentID, amount float64) (float64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Status != StatusInProgress {
		return p.Progress, false, fmt.Errorf("projects: project %d not in progress (status %s): %w", p.ID, p.Status, aicityerr.ErrConflict)
	}
	p.Progress += amount
	p.Contributors[agent] = day
	p.LastProgress = day
	if p.Progress >= completionThreshold {
		p.Status = StatusComplete
		return p.Progress, true, nil
	}
	return p.Progress, false, nil
}

// CheckAbandonment marks p abandoned if no contribution has landed within
// the abandon timeout.
func (r *Registry) CheckAbandonment(day int, p *Project) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Status != StatusInProgress {
		return false
	}
	if day-p.LastProgress >= r.abandonTimeout {
		p.Status = StatusAbandoned
		return true
	}
	return false
}

// Complete mints the standing Asset for a completed project.
func (r *Registry) Complete(day int, p *Project) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Status != StatusComplete {
		return nil, fmt.Errorf("projects: project %d is not complete (status %s): %w", p.ID, p.Status, aicityerr.ErrConflict)
	}
	r.nextAssetID++
	a := &Asset{
		ID:           r.nextAssetID,
		ProjectID:    p.ID,
		Name:         p.Name,
		Kind:         p.Kind,
		CompletedDay: day,
	}
	r.assets[a.ID] = a
	p.AssetID = &a.ID
	return a, nil
}

// InProgress returns every project currently in progress, for the daily
// contribution/abandonment sweep.
func (r *Registry) InProgress() []*Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Project
	for _, p := range r.projects {
		if p.Status == StatusInProgress {
			out = append(out, p)
		}
	}
	return out
}

// Destroy marks an asset destroyed by a saboteur action.
func (r *Registry) Destroy(assetID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[assetID]
	if !ok {
		return fmt.Errorf("projects: no asset %d", assetID)
	}
	a.Destroyed = true
	return nil
}

// ActiveAssets returns every non-destroyed asset, the set that yields daily
// benefits.
func (r *Registry) ActiveAssets() []*Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Asset
	for _, a := range r.assets {
		if !a.Destroyed {
			out = append(out, a)
		}
	}
	return out
}

// All returns every project regardless of status, for persistence
// checkpoints.
func (r *Registry) All() []*Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out
}

// AllAssets returns every asset regardless of destroyed state, for
// persistence checkpoints.
func (r *Registry) AllAssets() []*Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Asset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out
}

// Restore reinserts a project loaded from persistence, advancing
// nextProjectID past its id.
func (r *Registry) Restore(p *Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	if p.ID >= r.nextProjectID {
		r.nextProjectID = p.ID
	}
}

// RestoreAsset reinserts an asset loaded from persistence, advancing
// nextAssetID past its id.
func (r *Registry) RestoreAsset(a *Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[a.ID] = a
	if a.ID >= r.nextAssetID {
		r.nextAssetID = a.ID
	}
}
