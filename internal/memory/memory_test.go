package memory

import "testing"

func TestRingEvictsLeastImportant(t *testing.T) {
	s := New(2)
	s.Remember(1, Entry{Day: 1, Content: "minor thing", Importance: 0.1})
	s.Remember(1, Entry{Day: 2, Content: "major thing", Importance: 0.9})
	s.Remember(1, Entry{Day: 3, Content: "another major", Importance: 0.8})

	recalled := s.Recall(1, "major", 3)
	if len(recalled) != 2 {
		t.Fatalf("expected ring capped at 2, got %d", len(recalled))
	}
	for _, e := range recalled {
		if e.Content == "minor thing" {
			t.Fatalf("expected least important entry to be evicted")
		}
	}
}

func TestQueryCityKeywordOverlap(t *testing.T) {
	s := New(10)
	s.PublishCity(Entry{Day: 1, Content: "a fire broke out near the market"})
	s.PublishCity(Entry{Day: 1, Content: "the harvest festival was joyful"})

	top := s.QueryCity("fire market", 1)
	if len(top) != 1 || top[0].Content != "a fire broke out near the market" {
		t.Fatalf("expected the fire entry to rank first, got %+v", top)
	}
}
