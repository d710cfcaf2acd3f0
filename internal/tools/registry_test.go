package tools_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/directory"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/tools"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
)

func newTestRegistry(t *testing.T) (*tools.Registry, *directory.Store) {
	t.Helper()
	store, err := directory.Open(filepath.Join(t.TempDir(), "helpdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))

	registry := tools.NewSupportRegistry(
		store,
		tools.NewTicketClient(tools.TicketConfig{}),
		tools.NewEmailSender(tools.EmailConfig{}),
	)
	return registry, store
}

func TestRegistry_ToolInfos(t *testing.T) {
	registry, _ := newTestRegistry(t)

	names := make([]string, 0)
	for _, info := range registry.ToolInfos() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		"faq_search",
		"get_user_data",
		"get_policy_data",
		workflow.ToolUpdateUserData,
		"create_ticket",
		"search_ticket",
		"send_email",
	}, names)
}

func TestRegistry_UnknownTool(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Invoke(context.Background(), "format_disk", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	registry, store := newTestRegistry(t)
	_ = registry

	r := tools.NewRegistry()
	r.Register(tools.NewFAQSearchTool(store))
	assert.Panics(t, func() {
		r.Register(tools.NewFAQSearchTool(store))
	})
}

func TestFAQSearchTool(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	out, err := registry.Invoke(ctx, "faq_search", map[string]any{"query": "claim"})
	require.NoError(t, err)

	var entries []directory.FAQEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.NotEmpty(t, entries)

	out, err = registry.Invoke(ctx, "faq_search", map[string]any{"query": "zeppelin"})
	require.NoError(t, err)
	assert.Contains(t, out, "No FAQ entries")

	_, err = registry.Invoke(ctx, "faq_search", map[string]any{})
	assert.Error(t, err)
}

func TestGetUserDataTool(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	out, err := registry.Invoke(ctx, "get_user_data", map[string]any{"user_id": "user123"})
	require.NoError(t, err)

	var user directory.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "Ravi Sharma", user.Name)

	_, err = registry.Invoke(ctx, "get_user_data", map[string]any{"user_id": "nobody"})
	assert.Error(t, err)
}

func TestGetPolicyDataTool(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	out, err := registry.Invoke(ctx, "get_policy_data", map[string]any{"user_id": "user123"})
	require.NoError(t, err)

	var policies []directory.Policy
	require.NoError(t, json.Unmarshal([]byte(out), &policies))
	assert.Len(t, policies, 2)

	out, err = registry.Invoke(ctx, "get_policy_data", map[string]any{"user_id": "nobody"})
	require.NoError(t, err)
	assert.Contains(t, out, "no policies")
}

func TestUpdateUserDataTool(t *testing.T) {
	registry, store := newTestRegistry(t)
	ctx := context.Background()

	out, err := registry.Invoke(ctx, workflow.ToolUpdateUserData, map[string]any{
		"user_id": "user123",
		"email":   "updated@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "updated")

	user, err := store.GetUser(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "updated@example.com", user.Email)

	t.Run("requires user_id", func(t *testing.T) {
		_, err := registry.Invoke(ctx, workflow.ToolUpdateUserData, map[string]any{"email": "x@example.com"})
		assert.Error(t, err)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := registry.Invoke(ctx, workflow.ToolUpdateUserData, map[string]any{
			"user_id": "user123",
			"premium": "0",
		})
		assert.Error(t, err)
	})
}

func TestSendEmailTool_Unconfigured(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Invoke(context.Background(), "send_email", map[string]any{
		"to":      "customer@example.com",
		"subject": "hello",
		"body":    "world",
	})
	assert.ErrorContains(t, err, "not configured")
}
