package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/server"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
)

// fakeEngine scripts each engine operation per test.
type fakeEngine struct {
	invokeFn           func(threadID string, in workflow.TurnInput) (*workflow.TurnResult, error)
	resumeFn           func(threadID string, decision workflow.Decision) (*workflow.ResumeResult, error)
	approvalStatusFn   func(threadID string) (workflow.ApprovalStatus, error)
	pendingApprovalsFn func() ([]workflow.PendingApproval, error)
	userRequestsFn     func(threadID string) ([]workflow.RequestStatus, error)
	historyFn          func(threadID string) ([]workflow.TurnRecord, error)
	resetFn            func(threadID string) error
}

func (f *fakeEngine) Invoke(_ context.Context, threadID string, in workflow.TurnInput) (*workflow.TurnResult, error) {
	return f.invokeFn(threadID, in)
}

func (f *fakeEngine) Resume(_ context.Context, threadID string, decision workflow.Decision) (*workflow.ResumeResult, error) {
	return f.resumeFn(threadID, decision)
}

func (f *fakeEngine) ApprovalStatus(_ context.Context, threadID string) (workflow.ApprovalStatus, error) {
	return f.approvalStatusFn(threadID)
}

func (f *fakeEngine) PendingApprovals(context.Context) ([]workflow.PendingApproval, error) {
	return f.pendingApprovalsFn()
}

func (f *fakeEngine) UserRequests(_ context.Context, threadID string) ([]workflow.RequestStatus, error) {
	return f.userRequestsFn(threadID)
}

func (f *fakeEngine) History(_ context.Context, threadID string) ([]workflow.TurnRecord, error) {
	return f.historyFn(threadID)
}

func (f *fakeEngine) Reset(_ context.Context, threadID string) error {
	return f.resetFn(threadID)
}

func newTestServer(engine *fakeEngine) *httptest.Server {
	srv := server.NewServer(engine, server.Config{RequestTimeout: 5 * time.Second})
	return httptest.NewServer(srv.Handler())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHandleChat(t *testing.T) {
	engine := &fakeEngine{
		invokeFn: func(threadID string, in workflow.TurnInput) (*workflow.TurnResult, error) {
			assert.Equal(t, "user123", threadID)
			assert.Equal(t, "hello", in.Query)
			return &workflow.TurnResult{Responses: []string{"hi there", "anything else?"}, IsLevel2: false}, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/chat", map[string]string{"user_id": "user123", "query": "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Responses []string `json:"responses"`
		Response  string   `json:"response"`
		UserID    string   `json:"user_id"`
		IsLevel2  bool     `json:"is_l2"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "hi there\nanything else?", body.Response)
	assert.Len(t, body.Responses, 2)
	assert.Equal(t, "user123", body.UserID)
	assert.False(t, body.IsLevel2)
}

func TestHandleChat_Validation(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/chat", map[string]string{"query": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/chat", map[string]string{"user_id": "user123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	r, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	r.Body.Close()
}

func TestHandleChat_UpstreamFailure(t *testing.T) {
	engine := &fakeEngine{
		invokeFn: func(string, workflow.TurnInput) (*workflow.TurnResult, error) {
			return nil, errors.New("model timeout")
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/chat", map[string]string{"user_id": "user123", "query": "hello"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, errx.UpstreamBusyMessage, body["error"])
}

func TestHandleChat_AppErrorStatusPassedThrough(t *testing.T) {
	engine := &fakeEngine{
		invokeFn: func(string, workflow.TurnInput) (*workflow.TurnResult, error) {
			return nil, errx.New(errors.New("down"), http.StatusBadGateway, errx.RedisErrorMessage)
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/chat", map[string]string{"user_id": "user123", "query": "hello"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, errx.RedisErrorMessage, body["error"])
}

func TestHandleApproveUpdate(t *testing.T) {
	engine := &fakeEngine{
		resumeFn: func(threadID string, decision workflow.Decision) (*workflow.ResumeResult, error) {
			assert.Equal(t, "user123", threadID)
			assert.Equal(t, workflow.DecisionApproved, decision)
			return &workflow.ResumeResult{Status: "approved", Responses: []string{"done"}}, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/approve-update/user123", map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status    string   `json:"status"`
		Responses []string `json:"responses"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "approved", body.Status)
	assert.Equal(t, []string{"done"}, body.Responses)
}

func TestHandleApproveUpdate_InvalidDecision(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/approve-update/user123", map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHandlePendingApprovals(t *testing.T) {
	engine := &fakeEngine{
		pendingApprovalsFn: func() ([]workflow.PendingApproval, error) {
			return []workflow.PendingApproval{{
				ThreadID:         "user123",
				UserID:           "user123",
				RequestedChanges: map[string]any{"email": "new@example.com"},
				CorrelationID:    "corr-1",
			}}, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/pending-approvals")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PendingApprovals []workflow.PendingApproval `json:"pending_approvals"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.PendingApprovals, 1)
	assert.Equal(t, "user123", body.PendingApprovals[0].ThreadID)
}

func TestHandleApprovalStatus(t *testing.T) {
	engine := &fakeEngine{
		approvalStatusFn: func(threadID string) (workflow.ApprovalStatus, error) {
			assert.Equal(t, "user123", threadID)
			return workflow.StatusPending, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/approval-status/user123")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "pending", body["status"])
}

func TestHandleChatHistory(t *testing.T) {
	engine := &fakeEngine{
		historyFn: func(string) ([]workflow.TurnRecord, error) {
			return []workflow.TurnRecord{{Input: "hi", Output: "hello", IsLevel2Session: true}}, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/chat/history/user123")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		History []map[string]any `json:"history"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.History, 1)
	assert.Equal(t, "hi", body.History[0]["input"])
	assert.Equal(t, "hello", body.History[0]["output"])

	// Engine-internal flags on the stored record stay out of the response.
	assert.NotContains(t, body.History[0], "is_level2_session")
	assert.Len(t, body.History[0], 2)
}

func TestHandleChatHistory_Empty(t *testing.T) {
	engine := &fakeEngine{
		historyFn: func(string) ([]workflow.TurnRecord, error) { return nil, nil },
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/chat/history/ghost")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		History []map[string]any `json:"history"`
	}
	decodeBody(t, resp, &body)
	require.NotNil(t, body.History)
	assert.Empty(t, body.History)
}

func TestHandleUserRequests(t *testing.T) {
	engine := &fakeEngine{
		userRequestsFn: func(threadID string) ([]workflow.RequestStatus, error) {
			assert.Equal(t, "user123", threadID)
			return []workflow.RequestStatus{{CorrelationID: "corr-1", Status: workflow.StatusApproved}}, nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/user-requests/user123")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Requests []workflow.RequestStatus `json:"requests"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Requests, 1)
	assert.Equal(t, workflow.StatusApproved, body.Requests[0].Status)
}

func TestHandleReset(t *testing.T) {
	var resetThread string
	engine := &fakeEngine{
		resetFn: func(threadID string) error {
			resetThread = threadID
			return nil
		},
	}
	ts := newTestServer(engine)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/reset/user123", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "user123", resetThread)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&fakeEngine{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}
