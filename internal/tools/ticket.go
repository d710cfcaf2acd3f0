package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cloudwego/eino/schema"

	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// TicketConfig configures the external ticketing system client.
type TicketConfig struct {
	BaseURL  string        `envconfig:"TICKET_BASE_URL"`
	APIToken string        `envconfig:"TICKET_API_TOKEN"`
	Timeout  time.Duration `envconfig:"TICKET_TIMEOUT" default:"10s"`
}

// TicketClient talks to the ticketing system's REST API.
type TicketClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewTicketClient(cfg TicketConfig) *TicketClient {
	return &TicketClient{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Ticket is the subset of the ticketing system's record the agent needs.
type Ticket struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Subject  string `json:"subject"`
	Status   string `json:"status"`
	Created  string `json:"created,omitempty"`
}

func (c *TicketClient) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("ticketing system is not configured")
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode ticket request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build ticket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("method", method).Str("path", path).Msg("ticket API request failed")
		return fmt.Errorf("ticket API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logx.Error().Int("status", resp.StatusCode).Str("path", path).Msg("ticket API returned an error")
		return fmt.Errorf("ticket API status %d: %s", resp.StatusCode, snippet)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode ticket response: %w", err)
		}
	}
	return nil
}

// Create opens a new ticket.
func (c *TicketClient) Create(ctx context.Context, userID, subject, description string) (Ticket, error) {
	var t Ticket
	err := c.do(ctx, http.MethodPost, "/tickets", map[string]string{
		"user_id":     userID,
		"subject":     subject,
		"description": description,
	}, &t)
	return t, err
}

// Search finds tickets for a user, optionally filtered by ticket id.
func (c *TicketClient) Search(ctx context.Context, userID, ticketID string) ([]Ticket, error) {
	q := url.Values{"user_id": {userID}}
	if ticketID != "" {
		q.Set("ticket_id", ticketID)
	}
	var tickets []Ticket
	err := c.do(ctx, http.MethodGet, "/tickets?"+q.Encode(), nil, &tickets)
	return tickets, err
}

// NewCreateTicketTool opens a support ticket for follow-up work.
func NewCreateTicketTool(client *TicketClient) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "create_ticket",
			Desc: "Open a support ticket when the customer's issue needs follow-up work that cannot be finished in chat, such as claim disputes or document verification.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {
					Type:     "string",
					Desc:     "The customer's user id.",
					Required: true,
				},
				"subject": {
					Type:     "string",
					Desc:     "One-line summary of the issue.",
					Required: true,
				},
				"description": {
					Type: "string",
					Desc: "Details the follow-up team needs.",
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID := stringArg(args, "user_id")
			subject := stringArg(args, "subject")
			if userID == "" || subject == "" {
				return "", fmt.Errorf("user_id and subject are required")
			}
			t, err := client.Create(ctx, userID, subject, stringArg(args, "description"))
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(t)
			if err != nil {
				return "", fmt.Errorf("encode ticket: %w", err)
			}
			return string(b), nil
		},
	}
}

// NewSearchTicketTool looks up the customer's existing tickets.
func NewSearchTicketTool(client *TicketClient) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "search_ticket",
			Desc: "Look up the customer's existing support tickets and their status. Pass a ticket id to check one specific ticket.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {
					Type:     "string",
					Desc:     "The customer's user id.",
					Required: true,
				},
				"ticket_id": {
					Type: "string",
					Desc: "Optional ticket id to narrow the search.",
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID := stringArg(args, "user_id")
			if userID == "" {
				return "", fmt.Errorf("user_id is required")
			}
			tickets, err := client.Search(ctx, userID, stringArg(args, "ticket_id"))
			if err != nil {
				return "", err
			}
			if len(tickets) == 0 {
				return "No tickets found for this customer.", nil
			}
			b, err := json.Marshal(tickets)
			if err != nil {
				return "", fmt.Errorf("encode tickets: %w", err)
			}
			return string(b), nil
		},
	}
}
