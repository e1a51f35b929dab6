package outbound

import "context"

// ThreadStore is the conversation side of the messaging platform.
type ThreadStore interface {
	CreateThread(ctx context.Context) (*Thread, error)
	DeleteThread(ctx context.Context, threadID string) error
	FetchThread(ctx context.Context, threadID string) (*Thread, error)
	ListParticipants(ctx context.Context, threadID string) ([]Participant, error)
	// AddBinding returns a *BindingConflictError when the address pair is
	// already bound to another active thread.
	AddBinding(ctx context.Context, threadID string, binding Binding) (*Participant, error)
	UpdateAttributes(ctx context.Context, threadID string, attrs ThreadAttributes) error
	AttachWebhook(ctx context.Context, threadID string, hook Webhook) error
	PostMessage(ctx context.Context, threadID string, msg Message) error
}

// RoutingDirectory is read-only access to routing tasks and workers.
type RoutingDirectory interface {
	ListTasks(ctx context.Context, workspaceID, filter string) ([]RoutingTask, error)
	ListWorkers(ctx context.Context, workspaceID, friendlyName string) ([]Worker, error)
}

type InteractionService interface {
	CreateInteraction(ctx context.Context, req InteractionRequest) (*Interaction, error)
}

// Platform bundles the three collaborators. The twilio adapter implements
// all of them.
type Platform interface {
	ThreadStore
	RoutingDirectory
	InteractionService
}
