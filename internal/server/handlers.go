package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// decodeJSON reads a small JSON request body.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

type chatResponse struct {
	Responses []string `json:"responses"`
	Response  string   `json:"response"`
	UserID    string   `json:"user_id"`
	IsLevel2  bool     `json:"is_l2"`
}

// turnView is the public shape of one logged turn. Engine-internal flags on
// the stored record are not exposed.
type turnView struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type approveRequest struct {
	Decision string `json:"decision"`
}

// handleChat runs one conversation turn. The user id doubles as the thread id,
// one conversation per user.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "user_id and query are required")
		return
	}

	result, err := s.engine.Invoke(r.Context(), req.UserID, workflow.TurnInput{
		Query:    req.Query,
		Language: req.Language,
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Responses: result.Responses,
		Response:  strings.Join(result.Responses, "\n"),
		UserID:    req.UserID,
		IsLevel2:  result.IsLevel2,
	})
}

// handlePendingApprovals lists every update request awaiting review.
func (s *Server) handlePendingApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.engine.PendingApprovals(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pending_approvals": pending})
}

// handleApproveUpdate injects the reviewer's decision and resumes the thread.
func (s *Server) handleApproveUpdate(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	decision, ok := workflow.ParseDecision(req.Decision)
	if !ok {
		respondError(w, http.StatusBadRequest, "decision must be \"approved\" or \"declined\"")
		return
	}

	result, err := s.engine.Resume(r.Context(), threadID, decision)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    result.Status,
		"responses": result.Responses,
		"response":  strings.Join(result.Responses, "\n"),
	})
}

// handleApprovalStatus reports where a thread's latest update request stands.
func (s *Server) handleApprovalStatus(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	status, err := s.engine.ApprovalStatus(r.Context(), threadID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": status})
}

// handleUserRequests returns the user's own update requests with outcomes.
func (s *Server) handleUserRequests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	requests, err := s.engine.UserRequests(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// handleChatHistory returns the user's persisted conversation log.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	history, err := s.engine.History(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	views := make([]turnView, 0, len(history))
	for _, turn := range history {
		views = append(views, turnView{Input: turn.Input, Output: turn.Output})
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": views})
}

// handleReset clears the user's conversation and checkpoint, the fresh-login
// behavior.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := s.engine.Reset(r.Context(), userID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// respondEngineError maps engine failures onto HTTP responses. Anything that
// is not a caller mistake or a classified application error is reported as
// the service being briefly unavailable.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, workflow.ErrInvalidInput) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		respondError(w, appErr.Status, appErr.Message)
		return
	}

	logx.Error().Err(err).Msg("workflow engine call failed")
	respondError(w, http.StatusServiceUnavailable, errx.UpstreamBusyMessage)
}
