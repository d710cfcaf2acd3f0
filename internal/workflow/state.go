package workflow

import (
	"strings"
	"time"
)

// RoutingDecision is the explicit signal a node sets so edge selection never
// has to re-derive intent from free text.
type RoutingDecision string

const (
	RouteSummarize     RoutingDecision = "summarize"
	RouteL2            RoutingDecision = "l2"
	RouteEnd           RoutingDecision = "end"
	RouteHumanApproval RoutingDecision = "human_approval"
)

// Decision is an out-of-band human verdict on a pending update request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDeclined Decision = "declined"
)

// ParseDecision normalises an externally supplied decision string.
func ParseDecision(v string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(v))) {
	case DecisionApproved:
		return DecisionApproved, true
	case DecisionDeclined:
		return DecisionDeclined, true
	default:
		return "", false
	}
}

// ApprovalStatus is the read-only view over a thread's approval queues.
type ApprovalStatus string

const (
	StatusPending   ApprovalStatus = "pending"
	StatusApproved  ApprovalStatus = "approved"
	StatusDeclined  ApprovalStatus = "declined"
	StatusNoHistory ApprovalStatus = "no_history"
)

// TurnRecord is one completed request/response cycle. History is append-only;
// IsLevel2Session on the last entry is the sole stickiness signal.
type TurnRecord struct {
	Input           string `json:"input"`
	Output          string `json:"output"`
	IsLevel2Session bool   `json:"is_level2_session"`
}

// ApprovalRequest is a sensitive profile update awaiting, or resolved by, a
// human decision. Entries move from the pending queue to exactly one of the
// approved/declined queues and are never duplicated.
type ApprovalRequest struct {
	UserID           string         `json:"user_id"`
	RequestedChanges map[string]any `json:"requested_changes"`
	CorrelationID    string         `json:"correlation_id"`
	RequestedAt      time.Time      `json:"requested_at"`
}

// ApprovalResolution is the gate's hand-back to the L2 node after a decision
// has been applied, so the outcome is always narrated to the user.
type ApprovalResolution struct {
	Request     ApprovalRequest `json:"request"`
	Decision    Decision        `json:"decision"`
	Observation string          `json:"observation,omitempty"`
	FailReason  string          `json:"fail_reason,omitempty"`
}

// ConversationState is the full per-thread workflow state. It is checkpointed
// at every node boundary and is the unit of suspension and resumption.
type ConversationState struct {
	// Transient per turn.
	Query string `json:"query"`

	// Identity and configuration carried through every node.
	UserID   string `json:"user_id"`
	Language string `json:"language"`

	// Append-only turn log. Exactly one entry per completed turn.
	History []TurnRecord `json:"history"`

	// Produced once per escalation event, consumed by the L2 node.
	EscalationSummary string `json:"escalation_summary"`

	// Response fragments of the current turn. Reset on every new turn, kept
	// across a suspend/resume pair so the interim and closing fragments join
	// into a single history entry.
	NewResponses []string `json:"new_responses"`

	// Whether the current turn was handled by L2.
	IsLevel2Session bool `json:"is_level2_session"`

	RoutingDecision RoutingDecision `json:"routing_decision"`

	PendingApprovals  []ApprovalRequest `json:"pending_approvals"`
	ApprovedApprovals []ApprovalRequest `json:"approved_approvals"`
	DeclinedApprovals []ApprovalRequest `json:"declined_approvals"`

	// Set externally via the approval API, consumed and cleared by the gate.
	HumanApprovalStatus Decision `json:"human_approval_status,omitempty"`

	// Persisted interrupt marker: true while the thread is suspended at the
	// approval gate.
	AwaitingDecision bool `json:"awaiting_decision"`

	// Set by the gate, consumed by the L2 node on the resume leg.
	ResolvedApproval *ApprovalResolution `json:"resolved_approval,omitempty"`
}

// NewConversationState returns the default state for a thread's first turn.
func NewConversationState(threadID string) *ConversationState {
	return &ConversationState{UserID: threadID, Language: "en"}
}

// BeginTurn merges a new inbound turn into the state. New responses are
// turn-scoped and reset here; history and approval queues carry over.
func (s *ConversationState) BeginTurn(query, language string) {
	s.Query = query
	if language != "" {
		s.Language = language
	}
	s.NewResponses = nil
	s.RoutingDecision = ""
}

// AddResponse appends a response fragment for the current turn.
func (s *ConversationState) AddResponse(fragment string) {
	s.NewResponses = append(s.NewResponses, fragment)
}

// JoinedResponse collapses the current turn's fragments into the single
// output string recorded in history.
func (s *ConversationState) JoinedResponse() string {
	return strings.Join(s.NewResponses, "\n")
}

// CommitTurn appends exactly one history entry for the current turn and
// returns it. Fragments never leak into history individually.
func (s *ConversationState) CommitTurn(level2 bool) TurnRecord {
	turn := TurnRecord{
		Input:           s.Query,
		Output:          s.JoinedResponse(),
		IsLevel2Session: level2,
	}
	s.History = append(s.History, turn)
	s.IsLevel2Session = level2
	return turn
}

// ActivePending reports whether an update request is already awaiting a
// decision. A pending request blocks any new enqueue.
func (s *ConversationState) ActivePending() bool {
	return len(s.PendingApprovals) > 0
}

// Status inspects the approval queues; precedence is
// declined > pending > approved > no_history.
func (s *ConversationState) Status() ApprovalStatus {
	switch {
	case len(s.DeclinedApprovals) > 0:
		return StatusDeclined
	case len(s.PendingApprovals) > 0:
		return StatusPending
	case len(s.ApprovedApprovals) > 0:
		return StatusApproved
	default:
		return StatusNoHistory
	}
}
