package workflow

import "context"

// PromptInputs is everything a reasoning step needs for one turn.
type PromptInputs struct {
	Query             string
	UserID            string
	Language          string
	ChatWindow        []TurnRecord
	EscalationSummary string
}

// ToolCall is a structured tool-invocation request returned by a reasoning
// step. Arguments is the raw payload as produced by the model; it may be a
// JSON object or free text embedding one.
type ToolCall struct {
	Name      string
	Arguments string
}

// StepResult is the outcome of a single reasoning step: free text plus zero
// or one tool invocation.
type StepResult struct {
	Text     string
	ToolCall *ToolCall
}

// Reasoner runs the opaque L1/L2 reasoning steps and the escalation
// summarizer. Implementations own prompt wording, model choice, and any
// read-only tool use happening inside the step.
type Reasoner interface {
	L1Respond(ctx context.Context, in PromptInputs) (StepResult, error)
	L2Respond(ctx context.Context, in PromptInputs) (StepResult, error)
	SummarizeHandoff(ctx context.Context, language string, history []TurnRecord) (string, error)
}

// ToolInvoker executes a named side-effecting action and returns an
// observation string. The engine calls it inline for non-sensitive tools and
// from the approval gate for the sensitive mutation tool.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// ConversationLog is the durable conversation store: an append-only turn
// list per thread, read at turn start and written at turn end.
type ConversationLog interface {
	AppendTurn(ctx context.Context, threadID string, turn TurnRecord) error
	History(ctx context.Context, threadID string) ([]TurnRecord, error)
	Clear(ctx context.Context, threadID string) error
}
