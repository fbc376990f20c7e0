package social

import "testing"

func TestBondSymmetric(t *testing.T) {
	b := NewBonds()
	b.Adjust(1, 2, 0.3, 1)
	if b.Get(1, 2) != b.Get(2, 1) {
		t.Fatalf("bond(1,2)=%v != bond(2,1)=%v", b.Get(1, 2), b.Get(2, 1))
	}
}

func TestMoodClamped(t *testing.T) {
	m := 0.9
	m = ApplyMoodDelta(m, MoodProjectCompleted)
	if m > 1 {
		t.Fatalf("mood should clamp at 1, got %v", m)
	}
}

func TestDecayDoesNotTouchSameDayAdjustment(t *testing.T) {
	b := NewBonds()
	b.Adjust(1, 2, 0.5, 5)
	b.DecayAll(5)
	if b.Get(1, 2) != 0.5 {
		t.Fatalf("expected no decay on the same day the bond was touched, got %v", b.Get(1, 2))
	}
	b.DecayAll(6)
	if b.Get(1, 2) >= 0.5 {
		t.Fatalf("expected decay on a later day, got %v", b.Get(1, 2))
	}
}
