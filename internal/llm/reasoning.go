package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/llm/prompts"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// GeminiReasoner drives the L1, L2 and summary steps through the Gemini
// chat models.
type GeminiReasoner struct {
	models *ChatModels
}

func NewGeminiReasoner(models *ChatModels) *GeminiReasoner {
	return &GeminiReasoner{models: models}
}

// windowMessages converts recent turns into alternating user and assistant
// messages for the model context.
func windowMessages(window []workflow.TurnRecord) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(window)*2)
	for _, turn := range window {
		if turn.Input != "" {
			msgs = append(msgs, schema.UserMessage(turn.Input))
		}
		if turn.Output != "" {
			msgs = append(msgs, schema.AssistantMessage(turn.Output, nil))
		}
	}
	return msgs
}

// L1Respond runs the first-line model over the recent window and the query.
func (r *GeminiReasoner) L1Respond(ctx context.Context, in workflow.PromptInputs) (workflow.StepResult, error) {
	systemPrompt, err := prompts.RenderL1System(ctx, in.Language)
	if err != nil {
		return workflow.StepResult{}, err
	}

	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
	messages = append(messages, windowMessages(in.ChatWindow)...)
	messages = append(messages, schema.UserMessage(in.Query))

	out, err := r.models.L1.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", r.models.L1ModelName).Msg("L1 generation failed")
		return workflow.StepResult{}, fmt.Errorf("l1 generate: %w", err)
	}
	return workflow.StepResult{Text: out.Content}, nil
}

// L2Respond runs the tool-bound senior model. When the model asks for a tool,
// the first requested call is surfaced to the caller instead of text.
func (r *GeminiReasoner) L2Respond(ctx context.Context, in workflow.PromptInputs) (workflow.StepResult, error) {
	systemPrompt, err := prompts.RenderL2System(ctx, in.Language, in.EscalationSummary)
	if err != nil {
		return workflow.StepResult{}, err
	}

	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
	messages = append(messages, windowMessages(in.ChatWindow)...)
	messages = append(messages, schema.UserMessage(in.Query))

	out, err := r.models.L2.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", r.models.L2ModelName).Msg("L2 generation failed")
		return workflow.StepResult{}, fmt.Errorf("l2 generate: %w", err)
	}

	if len(out.ToolCalls) > 0 {
		tc := out.ToolCalls[0]
		if len(out.ToolCalls) > 1 {
			logx.Warn().Int("requested", len(out.ToolCalls)).Str("kept", tc.Function.Name).
				Msg("L2 model requested multiple tool calls, keeping the first")
		}
		return workflow.StepResult{
			Text: out.Content,
			ToolCall: &workflow.ToolCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}, nil
	}
	return workflow.StepResult{Text: out.Content}, nil
}

// SummarizeHandoff condenses the escalated conversation into a briefing for
// the senior agent.
func (r *GeminiReasoner) SummarizeHandoff(ctx context.Context, language string, history []workflow.TurnRecord) (string, error) {
	systemPrompt, err := prompts.RenderSummarySystem(ctx, language)
	if err != nil {
		return "", err
	}

	var transcript strings.Builder
	for _, turn := range history {
		if turn.Input != "" {
			transcript.WriteString("Customer: ")
			transcript.WriteString(turn.Input)
			transcript.WriteString("\n")
		}
		if turn.Output != "" {
			transcript.WriteString("Assistant: ")
			transcript.WriteString(turn.Output)
			transcript.WriteString("\n")
		}
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(transcript.String()),
	}

	out, err := r.models.L1.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", r.models.L1ModelName).Msg("handoff summary generation failed")
		return "", fmt.Errorf("handoff summary generate: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

var _ workflow.Reasoner = (*GeminiReasoner)(nil)
