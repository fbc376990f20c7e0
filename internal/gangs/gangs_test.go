package gangs

import "testing"

func TestCollapseOnLeaderConviction(t *testing.T) {
	r := New(1.0, 1.0)
	g, ok := r.Form(1, 42, "Ashen Hand", nil)
	if !ok {
		t.Fatalf("expected formation to succeed with probability 1.0")
	}
	g.Members[7] = true
	if err := r.CollapseOnConviction(g, 42); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if g.Status != StatusCollapsed {
		t.Fatalf("expected collapsed status")
	}
	if len(g.Members) != 0 {
		t.Fatalf("expected membership cleared on collapse")
	}
}

func TestConvictingNonLeaderDoesNotCollapse(t *testing.T) {
	r := New(1.0, 1.0)
	g, _ := r.Form(1, 42, "Ashen Hand", nil)
	g.Members[7] = true
	if err := r.CollapseOnConviction(g, 7); err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if g.Status != StatusActive {
		t.Fatalf("expected gang to remain active when a member, not the leader, is convicted")
	}
}

func TestRecruitRequiresLowMood(t *testing.T) {
	r := New(1.0, 1.0)
	g, _ := r.Form(1, 42, "Ashen Hand", nil)
	if r.Recruit(g, 9, 0.5, nil) {
		t.Fatalf("expected recruitment to fail for a high-mood candidate")
	}
}
