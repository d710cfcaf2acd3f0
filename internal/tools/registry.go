// Package tools implements the support tools available to the senior agent:
// directory lookups, the guarded profile update, ticketing and email.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// Handler executes one tool call and returns the observation shown to the
// model (and, for data tools, to the customer).
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs the schema the model sees with the handler that serves it.
type Tool struct {
	Info *schema.ToolInfo
	Run  Handler
}

// Registry dispatches tool calls by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice panics, that is a
// wiring bug.
func (r *Registry) Register(t Tool) {
	name := t.Info.Name
	if _, exists := r.tools[name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", name))
	}
	r.tools[name] = t
	r.order = append(r.order, name)
}

// ToolInfos returns the schemas for model binding, in registration order.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].Info)
	}
	return infos
}

// Invoke runs the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		logx.Warn().Str("tool", name).Msg("unknown tool requested")
		return "", fmt.Errorf("unknown tool %q", name)
	}

	start := time.Now()
	out, err := t.Run(ctx, args)
	if err != nil {
		logx.Error().Err(err).Str("tool", name).Dur("took", time.Since(start)).Msg("tool call failed")
		return "", err
	}
	logx.Debug().Str("tool", name).Dur("took", time.Since(start)).Msg("tool call completed")
	return out, nil
}

var _ workflow.ToolInvoker = (*Registry)(nil)

// stringArg reads a string field from tool arguments, tolerating absence.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
