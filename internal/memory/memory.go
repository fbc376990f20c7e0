// Package memory implements the Memory Store contract
// (remember/recall/publish_city/query_city) as a concrete, bounded store:
// a per-agent importance-weighted ring plus a city-wide slice for shared
// memory. Treated by the specification as opaque to core logic; this
// expansion's minimal implementation is grounded on the teacher's
// agents.Memory/AddMemory per-agent memory slice.
package memory

import "sync"

// AgentID aliases a bare integer id, kept independent of the agents package.
type AgentID uint64

// Kind classifies a memory entry.
type Kind string

const (
	KindObservation Kind = "observation"
	KindConversation Kind = "conversation"
	KindCity        Kind = "city"
)

// Entry is one remembered item.
type Entry struct {
	Day        int     `json:"day"`
	Content    string  `json:"content"`
	Kind       Kind    `json:"kind"`
	Importance float64 `json:"importance"`
}

// Store holds per-agent bounded rings plus the city-wide log.
type Store struct {
	mu        sync.Mutex
	perAgent  map[AgentID][]Entry
	city      []Entry
	ringLimit int
}

// New constructs a Store. ringLimit bounds how many entries are kept per
// agent; the least important entry is evicted first once the ring is full.
func New(ringLimit int) *Store {
	return &Store{perAgent: make(map[AgentID][]Entry), ringLimit: ringLimit}
}

// Remember appends e to agent's ring, evicting the least-important entry
// if the ring is already at capacity.
func (s *Store) Remember(agent AgentID, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.perAgent[agent]
	entries = append(entries, e)
	if len(entries) > s.ringLimit {
		minIdx := 0
		for i, en := range entries {
			if en.Importance < entries[minIdx].Importance {
				minIdx = i
			}
		}
		entries = append(entries[:minIdx], entries[minIdx+1:]...)
	}
	s.perAgent[agent] = entries
}

// score returns a crude keyword-overlap score between a memory's content
// and a query, used by Recall/QueryCity in place of a vector index.
func score(content, query string) int {
	qWords := splitWords(query)
	cWords := splitWords(content)
	set := make(map[string]bool, len(cWords))
	for _, w := range cWords {
		set[w] = true
	}
	n := 0
	for _, w := range qWords {
		if set[w] {
			n++
		}
	}
	return n
}

func splitWords(s string) []string {
	var words []string
	cur := make([]rune, 0, 16)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '.' {
			flush()
			continue
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Recall returns the top k entries for agent best matching query by
// keyword overlap, most relevant first.
func (s *Store) Recall(agent AgentID, query string, k int) []Entry {
	s.mu.Lock()
	entries := append([]Entry(nil), s.perAgent[agent]...)
	s.mu.Unlock()
	return topK(entries, query, k)
}

// PublishCity appends e to the city-wide shared memory.
func (s *Store) PublishCity(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Kind = KindCity
	s.city = append(s.city, e)
}

// QueryCity returns the top k city-wide entries matching query.
func (s *Store) QueryCity(query string, k int) []Entry {
	s.mu.Lock()
	entries := append([]Entry(nil), s.city...)
	s.mu.Unlock()
	return topK(entries, query, k)
}

func topK(entries []Entry, query string, k int) []Entry {
	type scored struct {
		e Entry
		s int
	}
	ss := make([]scored, len(entries))
	for i, e := range entries {
		ss[i] = scored{e, score(e.Content, query)}
	}
	// Simple selection sort for the top k; memory rings are small.
	for i := 0; i < len(ss) && i < k; i++ {
		best := i
		for j := i + 1; j < len(ss); j++ {
			if ss[j].s > ss[best].s {
				best = j
			}
		}
		ss[i], ss[best] = ss[best], ss[i]
	}
	if k > len(ss) {
		k = len(ss)
	}
	out := make([]Entry, k)
	for i := 0; i < k; i++ {
		out[i] = ss[i].e
	}
	return out
}
