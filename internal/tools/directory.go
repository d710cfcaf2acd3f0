package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/directory"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
)

// NewFAQSearchTool looks up answers in the FAQ knowledge base.
func NewFAQSearchTool(store *directory.Store) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "faq_search",
			Desc: "Search the internal FAQ knowledge base for answers to common insurance questions: claims, premiums, cancellations, lapsed policies, account changes. Use before answering any procedural question.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Keywords describing the customer's question, e.g. 'file a claim', 'premium due date'.",
					Required: true,
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			query := stringArg(args, "query")
			if query == "" {
				return "", fmt.Errorf("query is required")
			}
			entries, err := store.SearchFAQ(ctx, query, 3)
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return "No FAQ entries matched the query.", nil
			}
			b, err := json.Marshal(entries)
			if err != nil {
				return "", fmt.Errorf("encode faq results: %w", err)
			}
			return string(b), nil
		},
	}
}

// NewGetUserDataTool fetches the customer's account record.
func NewGetUserDataTool(store *directory.Store) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "get_user_data",
			Desc: "Fetch the customer's account record: name, email, phone and address. Use when the customer asks what details are on file.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {
					Type:     "string",
					Desc:     "The customer's user id.",
					Required: true,
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID := stringArg(args, "user_id")
			if userID == "" {
				return "", fmt.Errorf("user_id is required")
			}
			user, err := store.GetUser(ctx, userID)
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(user)
			if err != nil {
				return "", fmt.Errorf("encode user record: %w", err)
			}
			return string(b), nil
		},
	}
}

// NewGetPolicyDataTool fetches the customer's insurance policies.
func NewGetPolicyDataTool(store *directory.Store) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: "get_policy_data",
			Desc: "Fetch all insurance policies held by the customer, including type, premium, coverage amount, term and status.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {
					Type:     "string",
					Desc:     "The customer's user id.",
					Required: true,
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID := stringArg(args, "user_id")
			if userID == "" {
				return "", fmt.Errorf("user_id is required")
			}
			policies, err := store.GetPolicies(ctx, userID)
			if err != nil {
				return "", err
			}
			if len(policies) == 0 {
				return "The customer has no policies on file.", nil
			}
			b, err := json.Marshal(policies)
			if err != nil {
				return "", fmt.Errorf("encode policies: %w", err)
			}
			return string(b), nil
		},
	}
}

// NewUpdateUserDataTool applies an approved change to the customer's account
// record. The workflow engine only calls it after a reviewer approves the
// change; the model never triggers the write directly.
func NewUpdateUserDataTool(store *directory.Store) Tool {
	return Tool{
		Info: &schema.ToolInfo{
			Name: workflow.ToolUpdateUserData,
			Desc: "Request a change to the customer's account record. Pass only the fields to change: name, email, phone or address. Every change is reviewed by a human before it is applied.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {
					Type: "string",
					Desc: "New full name, if the customer asked to change it.",
				},
				"email": {
					Type: "string",
					Desc: "New email address, if the customer asked to change it.",
				},
				"phone": {
					Type: "string",
					Desc: "New phone number, if the customer asked to change it.",
				},
				"address": {
					Type: "string",
					Desc: "New postal address, if the customer asked to change it.",
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			userID := stringArg(args, "user_id")
			if userID == "" {
				return "", fmt.Errorf("user_id is required")
			}
			changes := make(map[string]any, len(args))
			for k, v := range args {
				if k == "user_id" {
					continue
				}
				changes[k] = v
			}
			if err := store.UpdateUser(ctx, userID, changes); err != nil {
				return "", err
			}
			b, err := json.Marshal(map[string]any{
				"status":  "updated",
				"user_id": userID,
				"fields":  changes,
			})
			if err != nil {
				return "", fmt.Errorf("encode update result: %w", err)
			}
			return string(b), nil
		},
	}
}
