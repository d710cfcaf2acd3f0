package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/checkpoint"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// StatusNoPendingRequests is returned when resume is called for a thread with
// nothing awaiting a decision.
const StatusNoPendingRequests = "no_pending_requests"

const stillAwaitingMessage = "Your previous request is still awaiting review. I will get back to you as soon as a decision has been made."

// ErrInvalidInput marks caller mistakes (empty thread id or query).
var ErrInvalidInput = errors.New("invalid workflow input")

// Config carries the engine's tunables, sourced from the environment.
type Config struct {
	// ChatWindow is the maximum number of past turns included in a
	// reasoning step's prompt context.
	ChatWindow int `envconfig:"WORKFLOW_CHAT_WINDOW" default:"5"`
}

// TurnInput is one inbound request within a thread.
type TurnInput struct {
	Query    string
	Language string
}

// TurnResult is everything a single invoke call produced. Responses holds
// all fragments of the current call; a suspended turn carries the interim
// fragment only.
type TurnResult struct {
	Responses []string
	IsLevel2  bool
}

// ResumeResult reports the effect of injecting a human decision.
type ResumeResult struct {
	Status    string
	Responses []string
}

// PendingApproval is a pending request annotated with its thread, for the
// review inbox.
type PendingApproval struct {
	ThreadID         string         `json:"thread_id"`
	UserID           string         `json:"user_id"`
	RequestedChanges map[string]any `json:"requested_changes"`
	CorrelationID    string         `json:"correlation_id"`
	Timestamp        time.Time      `json:"timestamp"`
}

// RequestStatus is a user's own view of one update request.
type RequestStatus struct {
	CorrelationID    string         `json:"correlation_id"`
	RequestedChanges map[string]any `json:"requested_changes"`
	Status           ApprovalStatus `json:"status"`
	RequestedAt      time.Time      `json:"requested_at"`
}

// ThreadLease serializes turns for one thread across process instances.
// Implementations block in Acquire until the lease is held or ctx ends.
type ThreadLease interface {
	Acquire(ctx context.Context, threadID string) (release func(), err error)
}

// Engine executes the conversation workflow: dispatch, node execution,
// checkpointing at every node boundary, and suspension at the approval gate.
// Turns for the same thread are serialized; different threads run
// independently.
type Engine struct {
	reasoner      Reasoner
	tools         ToolInvoker
	checkpoints   checkpoint.Store
	conversations ConversationLog
	window        int
	lease         ThreadLease

	locks sync.Map // thread id -> *sync.Mutex
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithThreadLease layers a cross-process lease on top of the engine's
// in-process locking, for deployments where several instances share one
// checkpoint store.
func WithThreadLease(l ThreadLease) EngineOption {
	return func(e *Engine) { e.lease = l }
}

// NewEngine wires the workflow engine with its collaborators.
func NewEngine(reasoner Reasoner, tools ToolInvoker, checkpoints checkpoint.Store, conversations ConversationLog, cfg Config, opts ...EngineOption) *Engine {
	window := cfg.ChatWindow
	if window <= 0 {
		window = 5
	}
	e := &Engine{
		reasoner:      reasoner,
		tools:         tools,
		checkpoints:   checkpoints,
		conversations: conversations,
		window:        window,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invoke starts or continues a turn for a thread. It returns the response
// fragments produced by this call; a turn suspended at the approval gate
// returns its interim fragment and completes later via Resume.
func (e *Engine) Invoke(ctx context.Context, threadID string, in TurnInput) (*TurnResult, error) {
	if threadID == "" {
		return nil, fmt.Errorf("%w: missing thread id", ErrInvalidInput)
	}
	if in.Query == "" {
		return nil, fmt.Errorf("%w: missing query", ErrInvalidInput)
	}

	unlock, err := e.lock(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.loadOrInit(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if st.AwaitingDecision {
		// The thread is suspended at the gate. The suspended turn has not
		// completed, so a new turn cannot start; answer without advancing.
		logx.Debug().Str("thread_id", threadID).Msg("turn received while awaiting approval decision")
		return &TurnResult{Responses: []string{stillAwaitingMessage}, IsLevel2: true}, nil
	}

	if st.ResolvedApproval != nil {
		// A resumed decision was recorded but its closing narration never
		// committed. Finish that turn before starting the new one.
		if _, err := e.finishResolution(ctx, threadID, st); err != nil {
			return nil, err
		}
	}

	st.BeginTurn(in.Query, in.Language)

	current := Dispatch(st.History)
	logx.Debug().Str("thread_id", threadID).Str("entry", current).Msg("dispatching turn")

	for {
		var nodeErr error
		switch current {
		case EntryL1:
			nodeErr = e.runL1(ctx, st)
		case nodeSummarize:
			nodeErr = e.runSummarizer(ctx, st)
		case EntryL2:
			nodeErr = e.runL2(ctx, st)
		default:
			nodeErr = fmt.Errorf("unknown node %q", current)
		}
		if nodeErr != nil {
			// The checkpoint stays at the last committed node boundary, so a
			// retry resumes from consistent state.
			return nil, nodeErr
		}

		if st.RoutingDecision == RouteHumanApproval {
			st.AwaitingDecision = true
		}

		if err := e.commit(ctx, threadID, st, current); err != nil {
			return nil, err
		}

		switch st.RoutingDecision {
		case RouteSummarize:
			current = nodeSummarize
		case RouteL2:
			current = EntryL2
		case RouteHumanApproval:
			// Suspension point: state is checkpointed before the gate and
			// control returns without completing the turn.
			return &TurnResult{Responses: st.NewResponses, IsLevel2: st.IsLevel2Session}, nil
		case RouteEnd:
			e.appendTurnLog(ctx, threadID, st)
			return &TurnResult{Responses: st.NewResponses, IsLevel2: st.IsLevel2Session}, nil
		default:
			return nil, fmt.Errorf("node %s left no routing decision", current)
		}
	}
}

// Resume injects a human decision and advances the thread past the approval
// gate. Resuming a thread with nothing pending is a no-op, which also makes
// a repeated resume for an already-resolved request harmless.
func (e *Engine) Resume(ctx context.Context, threadID string, decision Decision) (*ResumeResult, error) {
	if threadID == "" {
		return nil, fmt.Errorf("%w: missing thread id", ErrInvalidInput)
	}

	unlock, err := e.lock(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return &ResumeResult{Status: StatusNoPendingRequests}, nil
	}
	if err != nil {
		return nil, err
	}

	if !st.ActivePending() {
		if st.ResolvedApproval != nil {
			// A prior resume recorded the outcome but failed before the
			// closing narration was committed. Finish that turn now instead
			// of reporting nothing pending.
			return e.finishResolution(ctx, threadID, st)
		}
		logx.Debug().Str("thread_id", threadID).Msg("resume with no pending request")
		return &ResumeResult{Status: StatusNoPendingRequests}, nil
	}

	st.HumanApprovalStatus = decision
	if err := e.runApprovalGate(ctx, st); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, threadID, st, nodeGate); err != nil {
		return nil, err
	}

	return e.finishResolution(ctx, threadID, st)
}

// finishResolution narrates a resolved approval through L2, commits the
// completed turn, and logs it. Callers hold the thread lock and guarantee
// st.ResolvedApproval is set.
func (e *Engine) finishResolution(ctx context.Context, threadID string, st *ConversationState) (*ResumeResult, error) {
	// The gate may downgrade an approval whose mutation failed; report the
	// actual outcome, not the injected decision.
	outcome := st.ResolvedApproval.Decision

	if err := e.runL2(ctx, st); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, threadID, st, EntryL2); err != nil {
		return nil, err
	}
	e.appendTurnLog(ctx, threadID, st)

	return &ResumeResult{Status: string(outcome), Responses: st.NewResponses}, nil
}

// ApprovalStatus inspects a thread's approval queues.
func (e *Engine) ApprovalStatus(ctx context.Context, threadID string) (ApprovalStatus, error) {
	st, err := e.load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return StatusNoHistory, nil
	}
	if err != nil {
		return "", err
	}
	return st.Status(), nil
}

// PendingApprovals lists every thread's pending update requests for the
// review inbox. Threads with unreadable checkpoints are skipped.
func (e *Engine) PendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	threadIDs, err := e.checkpoints.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingApproval, 0)
	for _, threadID := range threadIDs {
		st, err := e.load(ctx, threadID)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", threadID).Msg("skipping unreadable checkpoint")
			continue
		}
		for _, req := range st.PendingApprovals {
			pending = append(pending, PendingApproval{
				ThreadID:         threadID,
				UserID:           req.UserID,
				RequestedChanges: req.RequestedChanges,
				CorrelationID:    req.CorrelationID,
				Timestamp:        req.RequestedAt,
			})
		}
	}
	return pending, nil
}

// UserRequests returns the user's own update requests across all queues.
func (e *Engine) UserRequests(ctx context.Context, threadID string) ([]RequestStatus, error) {
	st, err := e.load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return []RequestStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	requests := make([]RequestStatus, 0,
		len(st.PendingApprovals)+len(st.ApprovedApprovals)+len(st.DeclinedApprovals))
	appendAll := func(queue []ApprovalRequest, status ApprovalStatus) {
		for _, req := range queue {
			requests = append(requests, RequestStatus{
				CorrelationID:    req.CorrelationID,
				RequestedChanges: req.RequestedChanges,
				Status:           status,
				RequestedAt:      req.RequestedAt,
			})
		}
	}
	appendAll(st.PendingApprovals, StatusPending)
	appendAll(st.ApprovedApprovals, StatusApproved)
	appendAll(st.DeclinedApprovals, StatusDeclined)
	return requests, nil
}

// History returns the thread's persisted turn log.
func (e *Engine) History(ctx context.Context, threadID string) ([]TurnRecord, error) {
	return e.conversations.History(ctx, threadID)
}

// Reset clears a thread's history, approval queues, and checkpoint. This is
// the only way state is ever deleted.
func (e *Engine) Reset(ctx context.Context, threadID string) error {
	unlock, err := e.lock(ctx, threadID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.conversations.Clear(ctx, threadID); err != nil {
		return err
	}
	return e.checkpoints.Delete(ctx, threadID)
}

// lock serializes turns per thread id. The in-process mutex always applies;
// a configured lease extends the serialization across process instances.
func (e *Engine) lock(ctx context.Context, threadID string) (func(), error) {
	v, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	if e.lease == nil {
		return mu.Unlock, nil
	}
	release, err := e.lease.Acquire(ctx, threadID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	return func() {
		release()
		mu.Unlock()
	}, nil
}

func (e *Engine) load(ctx context.Context, threadID string) (*ConversationState, error) {
	data, err := e.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	var st ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode checkpoint for %s: %w", threadID, err)
	}
	return &st, nil
}

func (e *Engine) loadOrInit(ctx context.Context, threadID string) (*ConversationState, error) {
	st, err := e.load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return NewConversationState(threadID), nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// commit persists a fully-formed state transition. Only complete node
// results ever reach the store; a crash mid-node leaves the previous
// checkpoint intact.
func (e *Engine) commit(ctx context.Context, threadID string, st *ConversationState, node string) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", threadID, err)
	}
	if err := e.checkpoints.Save(ctx, threadID, data); err != nil {
		return fmt.Errorf("save checkpoint for %s: %w", threadID, err)
	}
	logx.Debug().Str("thread_id", threadID).Str("node", node).Int("size_bytes", len(data)).Msg("checkpoint committed")
	return nil
}

// appendTurnLog writes the just-committed turn to the conversation store.
// The checkpoint is the source of truth; a log write failure is recorded
// but does not fail the turn.
func (e *Engine) appendTurnLog(ctx context.Context, threadID string, st *ConversationState) {
	if len(st.History) == 0 {
		return
	}
	turn := st.History[len(st.History)-1]
	if err := e.conversations.AppendTurn(ctx, threadID, turn); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to append turn to conversation store")
	}
}
