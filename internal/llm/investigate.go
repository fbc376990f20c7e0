package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// InvestigationContext packs one day's tick worth of case material for the
// reasoning call: the accusation, the evidence trail accumulated so far, a
// window of recent ledger activity for the suspect, and a corruption framing
// scalar (the officer's bribe_susceptibility) that nudges the model's
// willingness to recommend an arrest without ever being named as such in the
// prompt.
type InvestigationContext struct {
	Accusation        string
	Evidence          []string
	LedgerWindow      []string
	CorruptionFraming float64
}

// InvestigationResult is the daily investigation tick's structured output.
type InvestigationResult struct {
	Confidence    float64  `json:"confidence"`
	SuspectRank   []string `json:"suspect_rank"`
	NextActions   []string `json:"next_actions"`
	CaseNoteText  string   `json:"case_note_text"`
	RequestArrest bool     `json:"request_arrest"`
}

func buildInvestigateSystemPrompt() string {
	return "You are a police investigator in a small simulated city working one case, one day at a time.\n" +
		"Respond with ONLY a JSON object: {\"confidence\": 0..1, \"suspect_rank\": [names in order of suspicion], " +
		"\"next_actions\": [short next steps], \"case_note_text\": \"one sentence log entry\", \"request_arrest\": bool}.\n" +
		"Weigh the evidence and ledger activity given; request_arrest should only be true once confidence is high.\n"
}

func buildInvestigateUserPrompt(ic InvestigationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accusation: %s\n", ic.Accusation)
	if len(ic.Evidence) > 0 {
		fmt.Fprintf(&b, "Evidence so far: %s\n", strings.Join(ic.Evidence, "; "))
	}
	if len(ic.LedgerWindow) > 0 {
		fmt.Fprintf(&b, "Recent ledger activity: %s\n", strings.Join(ic.LedgerWindow, "; "))
	}
	fmt.Fprintf(&b, "Officer corruption framing: %.2f (higher means more reluctant to push for arrest)\n", ic.CorruptionFraming)
	return b.String()
}

// Investigate asks the reasoning model to advance one day's investigation,
// falling back to fallback on timeout or parse failure.
func Investigate(ctx context.Context, c *Client, ic InvestigationContext, fallback InvestigationResult) (InvestigationResult, error) {
	if !c.Enabled() {
		return fallback, nil
	}
	raw, err := c.Complete(ctx, buildInvestigateSystemPrompt(), buildInvestigateUserPrompt(ic), 300)
	if err != nil {
		return fallback, fmt.Errorf("llm: investigate: %w", err)
	}
	r, err := parseInvestigation(raw)
	if err != nil {
		return fallback, fmt.Errorf("llm: investigate parse: %w", err)
	}
	return r, nil
}

func parseInvestigation(raw string) (InvestigationResult, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < 0 || end < start {
		return InvestigationResult{}, fmt.Errorf("no JSON object found in response")
	}
	var r InvestigationResult
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &r); err != nil {
		return InvestigationResult{}, fmt.Errorf("unmarshal: %w", err)
	}
	return r, nil
}
