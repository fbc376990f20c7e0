package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DecisionContext packs everything the Decision Facade shows the reasoning
// model for one agent's turn: role/tokens/age/mood-text, situational day
// state, and a role-dependent closed action enum. Mirrors the teacher's
// Tier2Context/buildTier2UserPrompt shape, generalized from settlement
// flavor text to AIcity's role/action model.
type DecisionContext struct {
	Role            string
	MoodText        string
	ComprehensionText string // newborns only; empty otherwise
	Balance         int64
	AgeDays         int
	Day             int
	Newspaper       string
	Assets          []string
	Inbox           []string
	Bonds           []string
	Memories        []string
	ValidActions    []string
}

// Decision is the tolerant-parsed structured output of one Decide call.
type Decision struct {
	Action      string `json:"action"`
	Target      string `json:"target,omitempty"`
	MessageTo   string `json:"message_to,omitempty"`
	MessageBody string `json:"message_body,omitempty"`
	MoodSelf    string `json:"mood_self,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
}

func buildSystemPrompt(validActions []string) string {
	var b strings.Builder
	b.WriteString("You are an inhabitant of a small simulated city. Decide your single action for today.\n")
	b.WriteString("Respond with ONLY a JSON object, no markdown fences, no prose before or after.\n")
	b.WriteString("Valid actions: ")
	b.WriteString(strings.Join(validActions, ", "))
	b.WriteString("\nFields: action (required, one of the valid actions), target (optional agent name), ")
	b.WriteString("message_to/message_body (optional, when sending a message), mood_self (one word), rationale (one sentence).\n")
	return b.String()
}

func buildUserPrompt(ctx DecisionContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s, day %d of your life, feeling %s.\n", ctx.Role, ctx.AgeDays, ctx.MoodText)
	fmt.Fprintf(&b, "Balance: %d tokens.\n", ctx.Balance)
	if ctx.ComprehensionText != "" {
		fmt.Fprintf(&b, "Comprehension: %s.\n", ctx.ComprehensionText)
	}
	if ctx.Newspaper != "" {
		fmt.Fprintf(&b, "Today's news: %s\n", ctx.Newspaper)
	}
	if len(ctx.Assets) > 0 {
		fmt.Fprintf(&b, "City assets: %s\n", strings.Join(ctx.Assets, "; "))
	}
	if len(ctx.Inbox) > 0 {
		fmt.Fprintf(&b, "Messages waiting for you: %s\n", strings.Join(ctx.Inbox, "; "))
	}
	if len(ctx.Bonds) > 0 {
		fmt.Fprintf(&b, "People you know: %s\n", strings.Join(ctx.Bonds, "; "))
	}
	if len(ctx.Memories) > 0 {
		fmt.Fprintf(&b, "You recall: %s\n", strings.Join(ctx.Memories, "; "))
	}
	return b.String()
}

// Decide asks the reasoning model for one structured decision, tolerant of
// markdown-fence wrapping and surrounding prose, validated against
// ctx.ValidActions. Falls back to fallback when the client is disabled,
// the call times out, or the response cannot be parsed — the caller
// supplies fallback as the role-default action.
func Decide(ctx context.Context, c *Client, dc DecisionContext, fallback Decision) (Decision, error) {
	if !c.Enabled() {
		return fallback, nil
	}
	raw, err := c.Complete(ctx, buildSystemPrompt(dc.ValidActions), buildUserPrompt(dc), 400)
	if err != nil {
		return fallback, fmt.Errorf("llm: decide: %w", err)
	}
	d, err := parseDecision(raw, dc.ValidActions)
	if err != nil {
		return fallback, fmt.Errorf("llm: decide parse: %w", err)
	}
	return d, nil
}

// parseDecision extracts the first {...} JSON object in raw (tolerant of
// ```json fences and surrounding prose, grounded on the teacher's
// gardener/decide.go and llm/cognition.go extraction pattern) and validates
// the action against valid.
func parseDecision(raw string, valid []string) (Decision, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < 0 || end < start {
		return Decision{}, fmt.Errorf("no JSON object found in response")
	}

	var d Decision
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &d); err != nil {
		return Decision{}, fmt.Errorf("unmarshal: %w", err)
	}

	ok := false
	for _, v := range valid {
		if v == d.Action {
			ok = true
			break
		}
	}
	if !ok {
		return Decision{}, fmt.Errorf("action %q not in valid set", d.Action)
	}
	return d, nil
}
