package pack

import (
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline binds a Store to the compile and extract operations and carries
// the shared observability surface: an event bus for run and entry events,
// and a structured logger. One Pipeline drives one open store; runs are
// single-writer and are not guarded against concurrent use of the same store.
type Pipeline struct {
	store         Store
	bus           *events.TypedEventBus[PackEvent]
	logger        *zap.Logger
	subscriptions map[string]*SubscriptionInfo // To store unsubscribe functions
	subMu         sync.RWMutex                 // Mutex to protect subscriptions map
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger installs a structured logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Pipeline over an already-open store. It initializes the
// event bus used for run observability.
func New(store Store, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("store must not be nil")
	}

	bus, err := events.NewTypedEventBus[PackEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	p := &Pipeline{
		store:         store,
		bus:           bus,
		logger:        zap.NewNop(),
		subscriptions: make(map[string]*SubscriptionInfo),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RegisterSubscription registers a callback for a specific pipeline event. It
// returns a unique ID that can be used to unregister the subscription later.
func (p *Pipeline) RegisterSubscription(options RegisterSubscriptionOptions) string {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	unsubscribe := p.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	p.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (p *Pipeline) UnregisterSubscription(id string) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	if info, ok := p.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(p.subscriptions, id)
	}
}

// Subscriptions returns a list of all currently active subscriptions.
func (p *Pipeline) Subscriptions() []SubscriptionInfo {
	p.subMu.RLock()
	defer p.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}

// emitEvent is a helper method to emit events.
func (p *Pipeline) emitEvent(event PackEvent) {
	if p.bus != nil {
		p.bus.Emit(string(event.Type), event)
	}
}

// withRunEvents wraps a pipeline run with start, success, and failure events.
func (p *Pipeline) withRunEvents(
	operation string,
	startType, successType, failedType PackEventType,
	path string,
	fn func(run string) error,
) error {
	run := uuid.New().String()
	startTime := time.Now()

	p.emitEvent(createEvent(startType, operation, run, nil, &path, nil, startTime))

	err := fn(run)
	if err != nil {
		msg := err.Error()
		p.emitEvent(createEvent(failedType, operation, run, nil, &path, &msg, startTime))
		p.logger.Error("pipeline run failed",
			zap.String("operation", operation),
			zap.String("run", run),
			zap.Error(err),
		)
		return err
	}

	p.emitEvent(createEvent(successType, operation, run, nil, &path, nil, startTime))
	return nil
}
