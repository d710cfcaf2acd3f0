// Package prompts renders the system prompts for the L1, L2 and handoff
// summary steps.
package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/l1_prompt.txt
var l1SystemPrompt string

//go:embed template/l2_prompt.txt
var l2SystemPrompt string

//go:embed template/summary_prompt.txt
var summarySystemPrompt string

// normalizeLanguage maps short language codes onto the names the templates use.
func normalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	switch l {
	case "", "en", "eng", "english":
		return "English"
	case "es", "spa", "spanish":
		return "Spanish"
	case "fr", "fra", "french":
		return "French"
	case "de", "deu", "german":
		return "German"
	case "hi", "hin", "hindi":
		return "Hindi"
	default:
		return language
	}
}

func render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderL1System renders the first-line support system prompt.
func RenderL1System(ctx context.Context, language string) (string, error) {
	return render(ctx, l1SystemPrompt, map[string]any{
		"Language": normalizeLanguage(language),
	})
}

// RenderL2System renders the senior support system prompt. The escalation
// summary may be empty when the session is already sticky at L2.
func RenderL2System(ctx context.Context, language, escalationSummary string) (string, error) {
	return render(ctx, l2SystemPrompt, map[string]any{
		"Language":          normalizeLanguage(language),
		"EscalationSummary": strings.TrimSpace(escalationSummary),
	})
}

// RenderSummarySystem renders the handoff summary system prompt.
func RenderSummarySystem(ctx context.Context, language string) (string, error) {
	return render(ctx, summarySystemPrompt, map[string]any{
		"Language": normalizeLanguage(language),
	})
}
