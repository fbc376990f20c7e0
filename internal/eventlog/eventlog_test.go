package eventlog

import "testing"

func TestVisibilityMonotonicity(t *testing.T) {
	l := New()
	e := l.Record(1, KindCrime, 1, 2, "theft", VisibilityPrivate)
	if err := l.Promote(e.ID, VisibilityRumor); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := l.Promote(e.ID, VisibilityPrivate); err == nil {
		t.Fatalf("expected demotion to be rejected")
	}
}

func TestPublicPromotionAtFiveWitnesses(t *testing.T) {
	l := New()
	e := l.Record(1, KindCrime, 1, 2, "theft", VisibilityPrivate)
	for i := AgentID(10); i < 14; i++ {
		if err := l.Witness(e.ID, i); err != nil {
			t.Fatalf("witness: %v", err)
		}
	}
	got := l.find(e.ID)
	if got.Visibility == VisibilityPublic {
		t.Fatalf("expected not yet public at 4 witnesses")
	}
	if err := l.Witness(e.ID, 14); err != nil {
		t.Fatalf("witness: %v", err)
	}
	if got.Visibility != VisibilityPublic {
		t.Fatalf("expected public at 5 witnesses, got %s", got.Visibility)
	}
}

func TestNarratorContainment(t *testing.T) {
	l := New()
	l.Record(1, KindCrime, 1, 2, "private theft", VisibilityWitnessed)
	l.Record(1, KindCrime, 3, 4, "public brawl", VisibilityPublic)

	events := l.Query(ScopeNarrator, 0)
	if len(events) != 1 || events[0].Summary != "public brawl" {
		t.Fatalf("narrator scope leaked non-public event: %+v", events)
	}
}

func TestSubscribeOnlyReceivesPublic(t *testing.T) {
	l := New()
	_, ch := l.Subscribe(4)
	l.Record(1, KindCrime, 1, 2, "hidden", VisibilityWitnessed)
	l.Record(1, KindCrime, 1, 2, "announced", VisibilityPublic)

	select {
	case e := <-ch:
		if e.Summary != "announced" {
			t.Fatalf("expected only the public event, got %q", e.Summary)
		}
	default:
		t.Fatalf("expected a published event in the channel")
	}
}
