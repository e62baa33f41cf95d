package dbots

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event names dispatched by a Poster. Payload types:
//
//	EventPost         *HTTPResponse  a single service accepted the stats
//	EventPostFail     error          a single service post failed
//	EventAutoPost     Results        a timed fan-out completed
//	EventAutoPostFail error          a timed fan-out produced no success
const (
	EventPost         = "post"
	EventPostFail     = "post_fail"
	EventAutoPost     = "auto_post"
	EventAutoPostFail = "auto_post_fail"
)

// Handler reacts to a dispatched event. Returned errors are logged by the
// Emitter and never reach the dispatching code path.
type Handler func(ctx context.Context, payload any) error

// Emitter is a small pub/sub hub. Dispatch is fire-and-forget: every handler
// runs on its own goroutine, and a failing or panicking handler can neither
// block siblings nor surface into the dispatcher.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]Handler
	hooks     map[string]Handler
	log       zerolog.Logger
}

// NewEmitter returns an Emitter logging through log.
func NewEmitter(log zerolog.Logger) *Emitter {
	return &Emitter{
		listeners: make(map[string][]Handler),
		hooks:     make(map[string]Handler),
		log:       log,
	}
}

// On registers h for event and returns it, so call sites can keep the same
// value they registered. Handlers run in registration order relative to
// scheduling, with no completion-order guarantee. A nil handler is rejected
// with InvalidHandlerError.
func (e *Emitter) On(event string, h Handler) (Handler, error) {
	if h == nil {
		return nil, &InvalidHandlerError{Event: event}
	}
	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], h)
	e.mu.Unlock()
	e.log.Debug().Str("event", event).Msg("event handler registered")
	return h, nil
}

// Bind installs the owner's reserved hook for event, replacing any previous
// one. The hook runs on every dispatch of event, after registered listeners
// are scheduled, with the same isolation. A nil handler clears the hook.
func (e *Emitter) Bind(event string, h Handler) {
	e.mu.Lock()
	if h == nil {
		delete(e.hooks, event)
	} else {
		e.hooks[event] = h
	}
	e.mu.Unlock()
}

// Dispatch schedules every handler registered for event and returns
// immediately. Dispatching an event nobody listens to is a no-op.
func (e *Emitter) Dispatch(ctx context.Context, event string, payload any) {
	e.mu.Lock()
	handlers := make([]Handler, 0, len(e.listeners[event])+1)
	handlers = append(handlers, e.listeners[event]...)
	if hook, ok := e.hooks[event]; ok {
		handlers = append(handlers, hook)
	}
	e.mu.Unlock()

	if len(handlers) == 0 {
		return
	}
	e.log.Debug().Str("event", event).Int("handlers", len(handlers)).Msg("dispatching event")
	for _, h := range handlers {
		go e.run(ctx, event, h, payload)
	}
}

// run executes one handler, containing every failure mode.
func (e *Emitter) run(ctx context.Context, event string, h Handler, payload any) {
	task := uuid.NewString()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("event", event).
				Str("task", task).
				Any("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("event handler panicked")
		}
	}()
	if ctx.Err() != nil {
		return
	}
	if err := h(ctx, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		e.log.Error().Str("event", event).Str("task", task).Err(err).Msg("event handler failed")
	}
}
