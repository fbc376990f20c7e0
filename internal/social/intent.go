package social

import "strings"

// Intent is the coarse classification the meeting phase uses to decide
// whether two agents in the same place should be matched into a
// conversation.
type Intent uint8

const (
	IntentNone Intent = iota
	IntentSocialize
	IntentTrade
	IntentReportCrime
	IntentRecruit
)

// Message is the minimal shape the intent detector inspects. Defined here
// rather than imported from internal/messaging to avoid a cycle; the
// messaging package's Message satisfies this shape structurally.
type Message struct {
	Body string
}

// IntentDetector classifies a message's intent. Per DESIGN.md's Open
// Question 2 decision, this is a small pluggable predicate — the default
// is a cheap keyword match, not a reasoning-model call, so the Meeting
// phase stays deterministic and cheap; callers may substitute a
// reasoning-backed detector without changing the scheduler.
type IntentDetector func(msg Message) Intent

var keywordIntents = []struct {
	words  []string
	intent Intent
}{
	{[]string{"stole", "thief", "robbed", "report"}, IntentReportCrime},
	{[]string{"join", "gang", "recruit"}, IntentRecruit},
	{[]string{"trade", "buy", "sell", "price"}, IntentTrade},
}

// KeywordIntentDetector is the default IntentDetector implementation.
func KeywordIntentDetector(msg Message) Intent {
	lower := strings.ToLower(msg.Body)
	for _, k := range keywordIntents {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.intent
			}
		}
	}
	if strings.TrimSpace(lower) == "" {
		return IntentNone
	}
	return IntentSocialize
}
