package worldgen

import "testing"

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := Config{Radius: 4, Seed: 7, SeaLevel: 0.25, MountainLvl: 0.72}
	a := Generate(cfg)
	b := Generate(cfg)
	for coord, tileA := range a.tiles {
		tileB, ok := b.tiles[coord]
		if !ok || tileA.Type != tileB.Type {
			t.Fatalf("same seed produced different terrain at %v", coord)
		}
	}
}

func TestClaimLotSkipsNonBuildable(t *testing.T) {
	w := Generate(Config{Radius: 2, Seed: 1, SeaLevel: 0, MountainLvl: 1}) // force all-buildable
	lotID, q, r, ok := w.ClaimLot(0)
	if !ok {
		t.Fatalf("expected a claimable lot")
	}
	tile, found := w.Tile(q, r)
	if !found || tile.Type != TileBuildable {
		t.Fatalf("claimed lot must sit on a buildable tile")
	}
	if lotID == 0 {
		t.Fatalf("expected a nonzero lot id")
	}
}

func TestClaimLotDoesNotDoubleAssign(t *testing.T) {
	w := Generate(Config{Radius: 1, Seed: 2, SeaLevel: 0, MountainLvl: 1})
	seen := make(map[[2]int]bool)
	for i := 0; i < 9; i++ {
		_, q, r, ok := w.ClaimLot(0)
		if !ok {
			break
		}
		if seen[[2]int{q, r}] {
			t.Fatalf("lot (%d,%d) claimed twice", q, r)
		}
		seen[[2]int{q, r}] = true
	}
}
