package cases

import (
	"context"
	"testing"
)

func TestColdCaseAfterTimeout(t *testing.T) {
	e := New(5, 0.0) // zero arrest probability forces the timeout path
	c := e.Open(1, 100, 7, 9)
	for day := 2; day <= 6; day++ {
		if err := e.InvestigateTick(context.Background(), day, c, InvestigateParams{}); err != nil {
			t.Fatalf("investigate: %v", err)
		}
	}
	if c.Status != StatusCold {
		t.Fatalf("expected cold status after timeout, got %s", c.Status)
	}
}

func TestReopenOnlyFromCold(t *testing.T) {
	e := New(5, 1.0)
	c := e.Open(1, 100, 7, 9)
	if err := e.Reopen(2, c.ID); err == nil {
		t.Fatalf("expected reopen to fail on a non-cold case")
	}
}

func TestCorruptOfficerLowersArrestProbability(t *testing.T) {
	e := New(100, 1.0)
	c := e.Open(1, 100, 7, 9)
	// With susceptibility 1.0, effective arrest probability is 0, so the
	// case must not resolve on the first tick even with base prob 1.0.
	params := InvestigateParams{OfficerSusc: func(AgentID) float64 { return 1.0 }}
	if err := e.InvestigateTick(context.Background(), 2, c, params); err != nil {
		t.Fatalf("investigate: %v", err)
	}
	if c.Status == StatusArrested || c.Status == StatusSolved {
		t.Fatalf("fully susceptible officer should not have solved the case")
	}
}
