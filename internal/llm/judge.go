package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the judge operation's structured output: a case resolution.
type Verdict struct {
	Guilty bool   `json:"guilty"`
	Note   string `json:"note"`
}

// JudgeContext packs a case's evidence for the judge reasoning call.
type JudgeContext struct {
	Accusation string
	Evidence   []string
	Defense    string
}

func buildJudgeSystemPrompt() string {
	return "You are a judge in a small simulated city. Weigh the evidence and render a verdict.\n" +
		"Respond with ONLY a JSON object: {\"guilty\": bool, \"note\": \"one sentence rationale\"}.\n"
}

func buildJudgeUserPrompt(jc JudgeContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accusation: %s\n", jc.Accusation)
	if len(jc.Evidence) > 0 {
		fmt.Fprintf(&b, "Evidence: %s\n", strings.Join(jc.Evidence, "; "))
	}
	if jc.Defense != "" {
		fmt.Fprintf(&b, "Defense: %s\n", jc.Defense)
	}
	return b.String()
}

// Judge asks the reasoning model for a case verdict, falling back to
// fallback on timeout or parse failure.
func Judge(ctx context.Context, c *Client, jc JudgeContext, fallback Verdict) (Verdict, error) {
	if !c.Enabled() {
		return fallback, nil
	}
	raw, err := c.Complete(ctx, buildJudgeSystemPrompt(), buildJudgeUserPrompt(jc), 200)
	if err != nil {
		return fallback, fmt.Errorf("llm: judge: %w", err)
	}
	v, err := parseVerdict(raw)
	if err != nil {
		return fallback, fmt.Errorf("llm: judge parse: %w", err)
	}
	return v, nil
}

func parseVerdict(raw string) (Verdict, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < 0 || end < start {
		return Verdict{}, fmt.Errorf("no JSON object found in response")
	}
	var v Verdict
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("unmarshal: %w", err)
	}
	return v, nil
}

// WriteNarrative asks the reasoning model for a short prose recap of
// public-only events (the caller is responsible for only ever passing
// already-public event summaries, enforcing narrator containment upstream
// in eventlog.Log.Query(ScopeNarrator, ...)).
func WriteNarrative(ctx context.Context, c *Client, day int, kind string, publicSummaries []string) (string, error) {
	if !c.Enabled() || len(publicSummaries) == 0 {
		return "", nil
	}
	system := "You are the city chronicler. Write a brief, vivid news recap from the given public events only.\n"
	user := fmt.Sprintf("Day %d %s recap. Events: %s", day, kind, strings.Join(publicSummaries, "; "))
	return c.Complete(ctx, system, user, 600)
}
