// Package mock is an in-memory messaging platform. It enforces the one
// active binding per address pair rule the real platform enforces, which
// makes it usable for dry runs and tests.
package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/outbound-messaging-backend/internal/domain/outbound"
)

var ErrNotFound = errors.New("mock: resource not found")

const (
	OpCreateThread      = "CreateThread"
	OpDeleteThread      = "DeleteThread"
	OpFetchThread       = "FetchThread"
	OpListParticipants  = "ListParticipants"
	OpAddBinding        = "AddBinding"
	OpUpdateAttributes  = "UpdateAttributes"
	OpAttachWebhook     = "AttachWebhook"
	OpPostMessage       = "PostMessage"
	OpListTasks         = "ListTasks"
	OpListWorkers       = "ListWorkers"
	OpCreateInteraction = "CreateInteraction"
)

type threadState struct {
	thread       outbound.Thread
	participants []outbound.Participant
	webhooks     []outbound.Webhook
	messages     []outbound.Message
	deleted      bool
}

type Platform struct {
	mu sync.Mutex

	seq          int
	threads      map[string]*threadState
	bindings     map[string]string
	tasks        map[string][]outbound.RoutingTask
	workers      []outbound.Worker
	interactions []outbound.InteractionRequest
	failures     map[string]error
	calls        map[string]int
	lastFilter   string

	// ReassignThread makes CreateInteraction answer with a fresh thread id.
	ReassignThread bool
	// UnparseableConflicts drops the existing thread id from conflicts.
	UnparseableConflicts bool
}

func New() *Platform {
	return &Platform{
		threads:  map[string]*threadState{},
		bindings: map[string]string{},
		tasks:    map[string][]outbound.RoutingTask{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

var _ outbound.Platform = (*Platform)(nil)

func bindingKey(b outbound.Binding) string {
	return strings.ToLower(strings.TrimSpace(b.Address)) + "|" + strings.ToLower(strings.TrimSpace(b.ProxyAddress))
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s%032d", prefix, p.seq)
}

// enter records the call and returns any injected failure. Callers hold mu.
func (p *Platform) enter(op string) error {
	p.calls[op]++
	return p.failures[op]
}

// Fail injects err for every later call of op. A nil err clears it.
func (p *Platform) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, op)
		return
	}
	p.failures[op] = err
}

// SeedThread creates a thread with the customer bound and, when agentIdentity
// is set, an agent participant.
func (p *Platform) SeedThread(address, proxy, agentIdentity string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID("CH")
	st := &threadState{thread: outbound.Thread{ID: id, State: "active"}}
	b := outbound.Binding{Address: address, ProxyAddress: proxy}
	st.participants = append(st.participants, outbound.Participant{ID: p.nextID("MB"), Binding: &b})
	if agentIdentity != "" {
		st.participants = append(st.participants, outbound.Participant{ID: p.nextID("MB"), Identity: agentIdentity})
	}
	p.threads[id] = st
	p.bindings[bindingKey(b)] = id
	return id
}

func (p *Platform) AddTask(threadID string, dir outbound.Direction) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addTaskLocked(threadID, dir)
}

func (p *Platform) addTaskLocked(threadID string, dir outbound.Direction) string {
	id := p.nextID("WT")
	p.tasks[threadID] = append(p.tasks[threadID], outbound.RoutingTask{
		ID:               id,
		AssignmentStatus: "assigned",
		Attributes:       outbound.TaskAttributes{ConversationSid: threadID, Direction: dir},
	})
	return id
}

func (p *Platform) AddWorker(w outbound.Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w.ID == "" {
		w.ID = p.nextID("WK")
	}
	p.workers = append(p.workers, w)
}

func (p *Platform) CreateThread(ctx context.Context) (*outbound.Thread, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpCreateThread); err != nil {
		return nil, err
	}
	id := p.nextID("CH")
	p.threads[id] = &threadState{thread: outbound.Thread{ID: id, State: "active"}}
	t := p.threads[id].thread
	return &t, nil
}

func (p *Platform) DeleteThread(ctx context.Context, threadID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpDeleteThread); err != nil {
		return err
	}
	st, ok := p.live(threadID)
	if !ok {
		return ErrNotFound
	}
	st.deleted = true
	for k, id := range p.bindings {
		if id == threadID {
			delete(p.bindings, k)
		}
	}
	return nil
}

func (p *Platform) FetchThread(ctx context.Context, threadID string) (*outbound.Thread, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpFetchThread); err != nil {
		return nil, err
	}
	st, ok := p.live(threadID)
	if !ok {
		return nil, ErrNotFound
	}
	t := st.thread
	return &t, nil
}

func (p *Platform) ListParticipants(ctx context.Context, threadID string) ([]outbound.Participant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListParticipants); err != nil {
		return nil, err
	}
	st, ok := p.live(threadID)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]outbound.Participant(nil), st.participants...), nil
}

func (p *Platform) AddBinding(ctx context.Context, threadID string, binding outbound.Binding) (*outbound.Participant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpAddBinding); err != nil {
		return nil, err
	}
	st, ok := p.live(threadID)
	if !ok {
		return nil, ErrNotFound
	}
	key := bindingKey(binding)
	if existing, bound := p.bindings[key]; bound && existing != threadID {
		conflict := &outbound.BindingConflictError{
			ExistingThreadID: existing,
			Err:              fmt.Errorf("A binding for this participant and proxy address already exists in Conversation %s", existing),
		}
		if p.UnparseableConflicts {
			conflict.ExistingThreadID = ""
			conflict.Err = errors.New("A binding for this participant and proxy address already exists")
		}
		return nil, conflict
	}
	p.bindings[key] = threadID
	b := binding
	part := outbound.Participant{ID: p.nextID("MB"), Binding: &b}
	st.participants = append(st.participants, part)
	return &part, nil
}

func (p *Platform) UpdateAttributes(ctx context.Context, threadID string, attrs outbound.ThreadAttributes) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpUpdateAttributes); err != nil {
		return err
	}
	st, ok := p.live(threadID)
	if !ok {
		return ErrNotFound
	}
	st.thread.Attributes = attrs
	return nil
}

func (p *Platform) AttachWebhook(ctx context.Context, threadID string, hook outbound.Webhook) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpAttachWebhook); err != nil {
		return err
	}
	st, ok := p.live(threadID)
	if !ok {
		return ErrNotFound
	}
	st.webhooks = append(st.webhooks, hook)
	return nil
}

func (p *Platform) PostMessage(ctx context.Context, threadID string, msg outbound.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpPostMessage); err != nil {
		return err
	}
	st, ok := p.live(threadID)
	if !ok {
		return ErrNotFound
	}
	st.messages = append(st.messages, msg)
	return nil
}

func (p *Platform) ListTasks(ctx context.Context, workspaceID, filter string) ([]outbound.RoutingTask, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListTasks); err != nil {
		return nil, err
	}
	p.lastFilter = filter
	var out []outbound.RoutingTask
	for threadID, tasks := range p.tasks {
		if filter == fmt.Sprintf(`conversationSid == "%s"`, threadID) {
			out = append(out, tasks...)
		}
	}
	return out, nil
}

func (p *Platform) ListWorkers(ctx context.Context, workspaceID, friendlyName string) ([]outbound.Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpListWorkers); err != nil {
		return nil, err
	}
	var out []outbound.Worker
	for _, w := range p.workers {
		if w.FriendlyName == friendlyName {
			out = append(out, w)
		}
	}
	return out, nil
}

func (p *Platform) CreateInteraction(ctx context.Context, req outbound.InteractionRequest) (*outbound.Interaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(OpCreateInteraction); err != nil {
		return nil, err
	}
	if _, ok := p.live(req.MediaThreadID); !ok {
		return nil, ErrNotFound
	}
	p.interactions = append(p.interactions, req)
	threadID := req.MediaThreadID
	if p.ReassignThread {
		threadID = p.nextID("CH")
		p.threads[threadID] = &threadState{thread: outbound.Thread{ID: threadID, State: "active"}}
	}
	p.addTaskLocked(threadID, req.Attributes.Direction)
	return &outbound.Interaction{ID: p.nextID("KD"), ThreadID: threadID}, nil
}

func (p *Platform) live(threadID string) (*threadState, bool) {
	st, ok := p.threads[threadID]
	if !ok || st.deleted {
		return nil, false
	}
	return st, true
}

// Inspection helpers.

func (p *Platform) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

func (p *Platform) Exists(threadID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live(threadID)
	return ok
}

func (p *Platform) LiveThreads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, st := range p.threads {
		if !st.deleted {
			n++
		}
	}
	return n
}

func (p *Platform) BoundThread(address, proxy string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindings[bindingKey(outbound.Binding{Address: address, ProxyAddress: proxy})]
}

func (p *Platform) Messages(threadID string) []outbound.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.threads[threadID]; ok {
		return append([]outbound.Message(nil), st.messages...)
	}
	return nil
}

func (p *Platform) Webhooks(threadID string) []outbound.Webhook {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.threads[threadID]; ok {
		return append([]outbound.Webhook(nil), st.webhooks...)
	}
	return nil
}

func (p *Platform) Attributes(threadID string) outbound.ThreadAttributes {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.threads[threadID]; ok {
		return st.thread.Attributes
	}
	return outbound.ThreadAttributes{}
}

func (p *Platform) Interactions() []outbound.InteractionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]outbound.InteractionRequest(nil), p.interactions...)
}

func (p *Platform) LastTaskFilter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFilter
}
