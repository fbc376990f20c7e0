package projects

import "testing"

func TestCompletionAtThreshold(t *testing.T) {
	r := New(5)
	p := r.Start(1, "Granary", AssetGeneric)
	var done bool
	for day := 1; day <= 20 && !done; day++ {
		_, d, err := r.Contribute(day, p, AgentID(1), ContributionFull)
		if err != nil {
			t.Fatalf("contribute: %v", err)
		}
		done = d
	}
	if !done {
		t.Fatalf("expected project to complete")
	}
	asset, err := r.Complete(20, p)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if asset.ProjectID != p.ID {
		t.Fatalf("asset not linked to project")
	}
}

func TestAbandonmentTimeout(t *testing.T) {
	r := New(3)
	p := r.Start(1, "Wall", AssetGeneric)
	r.Contribute(1, p, AgentID(1), ContributionPartial)
	if abandoned := r.CheckAbandonment(5, p); !abandoned {
		t.Fatalf("expected abandonment after timeout")
	}
	if p.Status != StatusAbandoned {
		t.Fatalf("expected abandoned status")
	}
}

func TestDestroyedAssetExcludedFromActive(t *testing.T) {
	r := New(5)
	p := r.Start(1, "Granary", AssetGeneric)
	for i := 0; i < 10; i++ {
		r.Contribute(1, p, AgentID(1), ContributionFull)
	}
	asset, _ := r.Complete(1, p)
	if err := r.Destroy(asset.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if len(r.ActiveAssets()) != 0 {
		t.Fatalf("expected no active assets after destruction")
	}
}
