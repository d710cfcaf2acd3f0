package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// ToolUpdateUserData is the sensitive mutation tool. The L2 node never
// executes it directly; it is invoked only from the approval gate.
const ToolUpdateUserData = "update_user_data"

// Node names, used for logging and checkpoint markers.
const (
	nodeL1        = "l1"
	nodeSummarize = "summarize"
	nodeL2        = "l2"
	nodeGate      = "human_approval"
)

const (
	submittedForApprovalMessage = "Your update request has been submitted for review. I will confirm once it has been processed."
	alreadyPendingMessage       = "You already have an update request awaiting review. I will let you know as soon as it is processed, and we can take it from there."
	malformedUpdateMessage      = "I could not read the details of that update request. Could you repeat the exact change you would like to make?"
)

// runL1 executes the first-line node: one reasoning step, sentinel check,
// and either a completed turn or an escalation handoff.
func (e *Engine) runL1(ctx context.Context, st *ConversationState) error {
	res, err := e.reasoner.L1Respond(ctx, PromptInputs{
		Query:      st.Query,
		UserID:     st.UserID,
		Language:   st.Language,
		ChatWindow: ChatWindow(st.History, e.window),
	})
	if err != nil {
		return fmt.Errorf("%s node: %w", nodeL1, err)
	}

	st.AddResponse(res.Text)

	if IsEscalationSignal(res.Text) {
		logx.Debug().Str("thread_id", st.UserID).Str("node", nodeL1).Msg("escalation sentinel detected")
		st.RoutingDecision = RouteSummarize
		return nil
	}

	st.RoutingDecision = RouteEnd
	st.CommitTurn(false)
	return nil
}

// runSummarizer produces the handoff briefing. Escalation must never be
// blocked by a secondary text-generation failure, so errors degrade to an
// empty summary.
func (e *Engine) runSummarizer(ctx context.Context, st *ConversationState) error {
	handoff := make([]TurnRecord, 0, len(st.History)+1)
	handoff = append(handoff, st.History...)
	handoff = append(handoff, TurnRecord{Input: st.Query, Output: st.JoinedResponse()})

	summary, err := e.reasoner.SummarizeHandoff(ctx, st.Language, handoff)
	if err != nil {
		logx.Warn().Err(err).Str("thread_id", st.UserID).Str("node", nodeSummarize).
			Msg("handoff summary failed, escalating without briefing")
		summary = ""
	}

	st.EscalationSummary = summary
	st.RoutingDecision = RouteL2
	return nil
}

// runL2 executes the escalated node. On the resume leg (a resolved approval
// is present) it narrates the outcome instead of invoking the model.
func (e *Engine) runL2(ctx context.Context, st *ConversationState) error {
	if st.ResolvedApproval != nil {
		e.narrateResolution(st)
		return nil
	}

	res, err := e.reasoner.L2Respond(ctx, PromptInputs{
		Query:             st.Query,
		UserID:            st.UserID,
		Language:          st.Language,
		ChatWindow:        ChatWindow(st.History, e.window),
		EscalationSummary: st.EscalationSummary,
	})
	if err != nil {
		return fmt.Errorf("%s node: %w", nodeL2, err)
	}

	if res.ToolCall != nil && res.ToolCall.Name == ToolUpdateUserData {
		e.handleUpdateRequest(st, res)
		return nil
	}

	if res.ToolCall != nil {
		obs, err := e.tools.Invoke(ctx, res.ToolCall.Name, toolArgs(res.ToolCall.Arguments))
		if err != nil {
			return fmt.Errorf("%s node: tool %s: %w", nodeL2, res.ToolCall.Name, err)
		}
		if strings.TrimSpace(res.Text) != "" {
			st.AddResponse(res.Text)
		}
		st.AddResponse(obs)
		e.finishL2(st)
		return nil
	}

	st.AddResponse(res.Text)
	e.finishL2(st)
	return nil
}

// handleUpdateRequest processes a sensitive-update tool call. The mutation is
// never executed here: the parsed request is enqueued for human review, or
// dropped when the payload is malformed or a request is already pending.
func (e *Engine) handleUpdateRequest(st *ConversationState, res StepResult) {
	if st.ActivePending() {
		logx.Warn().Str("thread_id", st.UserID).Str("node", nodeL2).
			Msg("update request while another is pending, not enqueueing")
		st.AddResponse(alreadyPendingMessage)
		e.finishL2(st)
		return
	}

	changes, err := ExtractUpdateArgs(res.ToolCall.Arguments)
	if err != nil {
		// Fail closed: malformed payloads never reach the approval queue.
		logx.Warn().Err(err).Str("thread_id", st.UserID).Str("node", nodeL2).
			Msg("dropping malformed update request")
		if strings.TrimSpace(res.Text) != "" {
			st.AddResponse(res.Text)
		} else {
			st.AddResponse(malformedUpdateMessage)
		}
		e.finishL2(st)
		return
	}

	st.PendingApprovals = append(st.PendingApprovals, ApprovalRequest{
		UserID:           st.UserID,
		RequestedChanges: changes,
		CorrelationID:    uuid.NewString(),
		RequestedAt:      time.Now().UTC(),
	})
	st.AddResponse(submittedForApprovalMessage)
	st.IsLevel2Session = true
	st.EscalationSummary = ""
	st.RoutingDecision = RouteHumanApproval

	logx.Info().Str("thread_id", st.UserID).Str("node", nodeL2).
		Str("correlation_id", st.PendingApprovals[len(st.PendingApprovals)-1].CorrelationID).
		Msg("update request submitted for approval")
}

// runApprovalGate applies a human decision to the most recent pending
// request. An execution failure of the mutation tool is treated as a
// decline, never as a silent success.
func (e *Engine) runApprovalGate(ctx context.Context, st *ConversationState) error {
	n := len(st.PendingApprovals)
	req := st.PendingApprovals[n-1]
	st.PendingApprovals = st.PendingApprovals[:n-1]

	resolution := ApprovalResolution{Request: req, Decision: st.HumanApprovalStatus}

	if st.HumanApprovalStatus == DecisionApproved {
		args := make(map[string]any, len(req.RequestedChanges)+1)
		for k, v := range req.RequestedChanges {
			args[k] = v
		}
		args["user_id"] = req.UserID

		obs, err := e.tools.Invoke(ctx, ToolUpdateUserData, args)
		if err != nil {
			logx.Error().Err(err).Str("thread_id", st.UserID).Str("node", nodeGate).
				Str("correlation_id", req.CorrelationID).
				Msg("approved mutation failed, recording as declined")
			resolution.Decision = DecisionDeclined
			resolution.FailReason = err.Error()
			st.DeclinedApprovals = append(st.DeclinedApprovals, req)
		} else {
			resolution.Observation = obs
			st.ApprovedApprovals = append(st.ApprovedApprovals, req)
			logx.Info().Str("thread_id", st.UserID).Str("node", nodeGate).
				Str("correlation_id", req.CorrelationID).
				Msg("approved mutation applied")
		}
	} else {
		st.DeclinedApprovals = append(st.DeclinedApprovals, req)
		logx.Info().Str("thread_id", st.UserID).Str("node", nodeGate).
			Str("correlation_id", req.CorrelationID).
			Msg("update request declined")
	}

	st.HumanApprovalStatus = ""
	st.AwaitingDecision = false
	st.ResolvedApproval = &resolution
	return nil
}

// narrateResolution turns the gate's resolution into the closing user-facing
// fragment and completes the suspended turn.
func (e *Engine) narrateResolution(st *ConversationState) {
	resolution := st.ResolvedApproval
	st.ResolvedApproval = nil

	changes := describeChanges(resolution.Request.RequestedChanges)
	switch resolution.Decision {
	case DecisionApproved:
		st.AddResponse(fmt.Sprintf("Good news: your request to update %s was approved and has been applied to your account.", changes))
	default:
		st.AddResponse(fmt.Sprintf("Your request to update %s could not be approved. The change has not been applied. Is there anything else I can help you with?", changes))
	}

	e.finishL2(st)
}

// finishL2 completes an L2 turn: clear the consumed briefing, record the
// single history entry, and terminate the run.
func (e *Engine) finishL2(st *ConversationState) {
	st.EscalationSummary = ""
	st.RoutingDecision = RouteEnd
	st.CommitTurn(true)
}

// toolArgs parses non-sensitive tool arguments tolerantly. Read tools never
// fail the turn over a payload shape; the raw text is passed through when it
// is not JSON.
func toolArgs(payload string) map[string]any {
	if obj, err := firstJSONObject(payload); err == nil {
		return obj
	}
	return map[string]any{"input": strings.TrimSpace(payload)}
}

// describeChanges renders a requested change set as a short, stable phrase.
func describeChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return "your profile"
	}
	fields := make([]string, 0, len(changes))
	for k := range changes {
		fields = append(fields, strings.ReplaceAll(k, "_", " "))
	}
	sort.Strings(fields)
	return "your " + strings.Join(fields, ", ")
}
