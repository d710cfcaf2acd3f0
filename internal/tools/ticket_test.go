package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/tools"
)

func TestTicketClient_Create(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tickets", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user123", body["user_id"])

		json.NewEncoder(w).Encode(tools.Ticket{
			TicketID: "TCK-1",
			UserID:   body["user_id"],
			Subject:  body["subject"],
			Status:   "open",
		})
	}))
	defer srv.Close()

	client := tools.NewTicketClient(tools.TicketConfig{
		BaseURL:  srv.URL,
		APIToken: "secret",
		Timeout:  5 * time.Second,
	})

	ticket, err := client.Create(context.Background(), "user123", "claim stuck", "claim POL-1001 pending 3 weeks")
	require.NoError(t, err)
	assert.Equal(t, "TCK-1", ticket.TicketID)
	assert.Equal(t, "open", ticket.Status)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestTicketClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "user123", r.URL.Query().Get("user_id"))
		assert.Equal(t, "TCK-1", r.URL.Query().Get("ticket_id"))

		json.NewEncoder(w).Encode([]tools.Ticket{{TicketID: "TCK-1", Status: "resolved"}})
	}))
	defer srv.Close()

	client := tools.NewTicketClient(tools.TicketConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	tickets, err := client.Search(context.Background(), "user123", "TCK-1")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "resolved", tickets[0].Status)
}

func TestTicketClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := tools.NewTicketClient(tools.TicketConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := client.Create(context.Background(), "user123", "subject", "")
	assert.ErrorContains(t, err, "status 500")
}

func TestTicketClient_Unconfigured(t *testing.T) {
	client := tools.NewTicketClient(tools.TicketConfig{})

	_, err := client.Search(context.Background(), "user123", "")
	assert.ErrorContains(t, err, "not configured")
}
