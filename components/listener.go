package components

import (
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ErrNilHandler is returned when a listener is registered without a callback.
var ErrNilHandler = errors.New("components: listener has no handler")

// Handler is the callback invoked when a component interaction passes a
// listener's filters.
type Handler func(ctx *Context) error

// Filter is an arbitrary predicate evaluated against the interaction after
// the structural filters matched.
type Filter func(ctx *Context) bool

// Listener reacts to component interactions carrying a specific custom id.
// All set filters must match; zero-valued filters match everything.
type Listener struct {
	// CustomID selects the component. Required.
	CustomID string

	// Messages restricts the listener to components on these message ids.
	Messages []string

	// Users restricts the listener to interactions by these user ids.
	Users []string

	// Kind restricts the listener to one component type. Zero matches all.
	Kind discordgo.ComponentType

	// Check is an optional predicate evaluated last.
	Check Filter

	Handler Handler
}

// matches evaluates the filters in order: message, user, kind, check. The
// first failing filter short-circuits.
func (l *Listener) matches(ctx *Context) bool {
	if l.CustomID != ctx.CustomID {
		return false
	}
	if len(l.Messages) > 0 && !contains(l.Messages, messageID(ctx)) {
		return false
	}
	if len(l.Users) > 0 && (ctx.User == nil || !contains(l.Users, ctx.User.ID)) {
		return false
	}
	if l.Kind != 0 && ctx.Kind != l.Kind {
		return false
	}
	if l.Check != nil && !l.Check(ctx) {
		return false
	}
	return true
}

func messageID(ctx *Context) string {
	if ctx.Message == nil {
		return ""
	}
	return ctx.Message.ID
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Table holds the registered component listeners. Listeners can be added and
// removed at runtime, also from inside a running handler, so access is
// guarded.
type Table struct {
	mu        sync.RWMutex
	listeners []*Listener
	messages  map[string]Handler
}

// NewTable returns an empty listener table.
func NewTable() *Table {
	return &Table{messages: make(map[string]Handler)}
}

// Add registers a listener. Listeners sharing a custom id all fire; each one
// applies its own filters.
func (t *Table) Add(l *Listener) error {
	if l == nil || l.Handler == nil {
		return ErrNilHandler
	}
	if l.CustomID == "" {
		return errors.New("components: listener needs a custom id")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
	return nil
}

// On is shorthand for a listener with only a custom id filter.
func (t *Table) On(customID string, h Handler) error {
	return t.Add(&Listener{CustomID: customID, Handler: h})
}

// Remove drops every listener registered for the custom id.
func (t *Table) Remove(customID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.listeners[:0]
	for _, l := range t.listeners {
		if l.CustomID != customID {
			kept = append(kept, l)
		}
	}
	t.listeners = kept
}

// RemoveListener drops one listener by identity.
func (t *Table) RemoveListener(l *Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.listeners {
		if existing == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// AttachToMessage registers a handler for every component interaction on one
// message, regardless of custom id. One handler per message; attaching again
// replaces it.
func (t *Table) AttachToMessage(messageID string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[messageID] = h
	return nil
}

// DetachMessage removes the message-scoped handler.
func (t *Table) DetachMessage(messageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.messages, messageID)
}

// Dispatch invokes every matching custom-id listener, then the message-scoped
// handler when one is attached. Listener errors are collected, never
// short-circuited, so one failing listener cannot starve the others. The
// returned count is the number of handlers invoked.
func (t *Table) Dispatch(ctx *Context) (int, error) {
	t.mu.RLock()
	matched := make([]Handler, 0, 2)
	for _, l := range t.listeners {
		if l.matches(ctx) {
			matched = append(matched, l.Handler)
		}
	}
	if h, ok := t.messages[messageID(ctx)]; ok {
		matched = append(matched, h)
	}
	t.mu.RUnlock()

	var errs []error
	for _, h := range matched {
		if err := h(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return len(matched), errors.Join(errs...)
}
