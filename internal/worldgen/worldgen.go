// Package worldgen is the procedural Lot/Tile Assignment component:
// deterministic home-lot placement for newborn agents over a simplex-noise
// terrain grid. Noise-layering idiom (seeded opensimplex.NewNormalized,
// elevation threshold bands) is ported from the teacher's
// internal/world/generation.go, simplified from its hex-cube coordinate
// system down to a flat square Q/R grid spanning -Radius..Radius on both
// axes (Config.Radius), since AIcity has no settlement/terrain gameplay of its
// own — only a home-lot address per agent.
package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// TileType is the coarse terrain classification a lot sits on.
type TileType uint8

const (
	TileBuildable TileType = iota
	TileWater
	TileMountain
)

func (t TileType) String() string {
	switch t {
	case TileWater:
		return "water"
	case TileMountain:
		return "mountain"
	default:
		return "buildable"
	}
}

// Tile is one cell of the flat Q/R grid.
type Tile struct {
	Q, R         int
	Type         TileType
	BuiltAssetID *uint64
}

// Config parameterizes generation.
type Config struct {
	Radius      int
	Seed        int64
	SeaLevel    float64
	MountainLvl float64
}

// DefaultConfig mirrors the teacher's DefaultGenConfig band thresholds.
func DefaultConfig() Config {
	return Config{Radius: 16, Seed: 1, SeaLevel: 0.25, MountainLvl: 0.72}
}

// World is the generated tile grid plus lot-assignment bookkeeping.
type World struct {
	cfg   Config
	tiles map[[2]int]*Tile

	nextLotID   uint64
	claimedLots map[uint64][2]int
	occupied    map[[2]int]bool
}

// Generate builds a deterministic World from cfg: the same seed always
// yields the same tile classification, required for replay/resume fidelity.
func Generate(cfg Config) *World {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)

	w := &World{
		cfg:         cfg,
		tiles:       make(map[[2]int]*Tile),
		claimedLots: make(map[uint64][2]int),
		occupied:    make(map[[2]int]bool),
	}

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			elev := elevNoise.Eval2(float64(q)*0.1, float64(r)*0.1)
			tt := TileBuildable
			switch {
			case elev < cfg.SeaLevel:
				tt = TileWater
			case elev > cfg.MountainLvl:
				tt = TileMountain
			}
			w.tiles[[2]int{q, r}] = &Tile{Q: q, R: r, Type: tt}
		}
	}
	return w
}

// ClaimLot assigns the next free buildable tile, scanning Q then R in
// ascending order, to an agent, returning the lot ID and coordinates.
// Returns ok=false once the grid is exhausted.
func (w *World) ClaimLot(day int) (lotID uint64, q, r int, ok bool) {
	side := 2*w.cfg.Radius + 1
	for i := 0; i < side*side; i++ {
		coord := [2]int{i/side - w.cfg.Radius, i%side - w.cfg.Radius}
		t := w.tiles[coord]
		if t.Type != TileBuildable {
			continue
		}
		if w.occupied[coord] {
			continue
		}
		w.nextLotID++
		w.occupied[coord] = true
		w.claimedLots[w.nextLotID] = coord
		return w.nextLotID, coord[0], coord[1], true
	}
	return 0, 0, 0, false
}

// Tile returns the tile at (q, r), if generated.
func (w *World) Tile(q, r int) (*Tile, bool) {
	t, ok := w.tiles[[2]int{q, r}]
	return t, ok
}

// AllTiles returns every generated tile, for persistence snapshotting.
func (w *World) AllTiles() []*Tile {
	out := make([]*Tile, 0, len(w.tiles))
	for _, t := range w.tiles {
		out = append(out, t)
	}
	return out
}

// BuildAsset marks the tile at a claimed lot as carrying a standing asset.
func (w *World) BuildAsset(lotID uint64, assetID uint64) bool {
	coord, ok := w.claimedLots[lotID]
	if !ok {
		return false
	}
	w.tiles[coord].BuiltAssetID = &assetID
	return true
}
