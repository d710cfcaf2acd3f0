package tools

import "github.com/AbhaySolanki007/Insurance-helpdesk/internal/directory"

// NewSupportRegistry wires the full senior-agent tool set.
func NewSupportRegistry(store *directory.Store, tickets *TicketClient, email *EmailSender) *Registry {
	r := NewRegistry()
	r.Register(NewFAQSearchTool(store))
	r.Register(NewGetUserDataTool(store))
	r.Register(NewGetPolicyDataTool(store))
	r.Register(NewUpdateUserDataTool(store))
	r.Register(NewCreateTicketTool(tickets))
	r.Register(NewSearchTicketTool(tickets))
	r.Register(NewSendEmailTool(email))
	return r
}
