package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// ListenerFunc consumes one free-text message addressed to the listener's
// owner. It reports whether the awaited input was accepted; a false return
// keeps the listener installed so the user can retry.
type ListenerFunc func(ctx context.Context, msg models.Message) (bool, error)

type listener struct {
	name  string
	owner int64
	seq   uint64
	fn    ListenerFunc
}

// ListenerRegistry manages one-shot free-text listeners keyed by name.
//
// A workflow that awaits typed input registers a listener for the asking
// user. When that user next sends text, the most recently added of their
// listeners fires. Listeners never fire for other users' messages.
type ListenerRegistry struct {
	mu        sync.Mutex
	listeners map[string]*listener
	seq       uint64
}

// NewListenerRegistry creates an empty listener registry.
func NewListenerRegistry() *ListenerRegistry {
	return &ListenerRegistry{
		listeners: make(map[string]*listener),
	}
}

// Add installs a listener under the given name for the owner's next text
// message. Re-adding an existing name replaces the previous listener and
// refreshes its recency.
func (r *ListenerRegistry) Add(name string, ownerID int64, fn ListenerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.listeners[name] = &listener{name: name, owner: ownerID, seq: r.seq, fn: fn}
	slog.Debug("ListenerRegistry added listener", "name", name, "ownerID", ownerID)
}

// Remove uninstalls the named listener. Removing an unknown name is a no-op.
func (r *ListenerRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listeners[name]; ok {
		delete(r.listeners, name)
		slog.Debug("ListenerRegistry removed listener", "name", name)
	}
}

// Len returns the number of installed listeners.
func (r *ListenerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// DispatchText routes a text message to the sender's most recently added
// listener. It reports whether any listener fired. The listener is removed
// only when it accepts the input, so a validation retry reuses the same
// listener.
func (r *ListenerRegistry) DispatchText(ctx context.Context, msg models.Message) (bool, error) {
	r.mu.Lock()
	var best *listener
	for _, l := range r.listeners {
		if l.owner != msg.From.ID {
			continue
		}
		if best == nil || l.seq > best.seq {
			best = l
		}
	}
	r.mu.Unlock()

	if best == nil {
		return false, nil
	}

	done, err := best.fn(ctx, msg)
	if err != nil {
		slog.Error("ListenerRegistry listener failed", "error", err, "name", best.name, "ownerID", best.owner)
		return true, err
	}
	if done {
		r.Remove(best.name)
	}
	slog.Debug("ListenerRegistry dispatched text", "name", best.name, "ownerID", best.owner, "done", done)
	return true, nil
}
