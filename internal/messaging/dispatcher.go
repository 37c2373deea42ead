package messaging

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DenDmitriev/ConciergeChatBot/internal/callback"
	"github.com/DenDmitriev/ConciergeChatBot/internal/models"
)

// DefaultWorkerLimit bounds the number of updates processed concurrently.
const DefaultWorkerLimit = 8

// CommandFunc handles a slash command message.
type CommandFunc func(ctx context.Context, msg models.Message) error

// CallbackFunc handles a callback query whose data matched a registered
// pattern.
type CallbackFunc func(ctx context.Context, cq models.CallbackQuery, payload callback.Payload) error

// Dispatcher consumes transport updates and routes them to command handlers,
// callback handlers and free-text listeners.
//
// Updates from different users run concurrently up to the worker limit, but
// updates from the same user are serialized so a workflow observes them in
// order.
type Dispatcher struct {
	service   Service
	listeners *ListenerRegistry

	mu        sync.RWMutex
	commands  map[string]CommandFunc
	callbacks map[string]CallbackFunc
	fallback  CommandFunc

	userMu    sync.Mutex
	userLocks map[int64]*sync.Mutex

	limit int
}

// NewDispatcher creates a dispatcher over the transport and listener
// registry.
func NewDispatcher(service Service, listeners *ListenerRegistry) *Dispatcher {
	return &Dispatcher{
		service:   service,
		listeners: listeners,
		commands:  make(map[string]CommandFunc),
		callbacks: make(map[string]CallbackFunc),
		userLocks: make(map[int64]*sync.Mutex),
		limit:     DefaultWorkerLimit,
	}
}

// SetWorkerLimit overrides the concurrent update limit. Values below one
// fall back to the default. Call before Run.
func (d *Dispatcher) SetWorkerLimit(limit int) {
	if limit < 1 {
		limit = DefaultWorkerLimit
	}
	d.limit = limit
}

// HandleCommand registers a handler for a slash command, e.g. "/start".
func (d *Dispatcher) HandleCommand(command string, fn CommandFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[command] = fn
	slog.Debug("Dispatcher registered command", "command", command)
}

// HandleCallback registers a handler for callback data with the given
// pattern.
func (d *Dispatcher) HandleCallback(pattern string, fn CallbackFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks[pattern] = fn
	slog.Debug("Dispatcher registered callback pattern", "pattern", pattern)
}

// HandleFallback registers the handler for text messages no listener or
// command consumed. Dialogs use it to re-offer the menu.
func (d *Dispatcher) HandleFallback(fn CommandFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = fn
}

// Run consumes the transport's update channel until the context is canceled
// or the channel closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)

	updates := d.service.Updates()
	slog.Info("Dispatcher started", "workerLimit", d.limit)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case u, ok := <-updates:
			if !ok {
				break loop
			}
			update := u
			g.Go(func() error {
				d.dispatch(ctx, update)
				return nil
			})
		}
	}
	err := g.Wait()
	slog.Info("Dispatcher stopped")
	return err
}

// dispatch routes one update while holding the sending user's lock.
func (d *Dispatcher) dispatch(ctx context.Context, u models.Update) {
	userID := u.UserID()
	if userID != 0 {
		lock := d.userLock(userID)
		lock.Lock()
		defer lock.Unlock()
	}

	switch {
	case u.Callback != nil:
		d.dispatchCallback(ctx, *u.Callback)
	case u.Message != nil:
		d.dispatchMessage(ctx, *u.Message)
	}
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, msg models.Message) {
	if cmd, ok := parseCommand(msg.Text); ok {
		d.mu.RLock()
		fn, exists := d.commands[cmd]
		d.mu.RUnlock()
		if !exists {
			slog.Debug("Dispatcher ignoring unknown command", "command", cmd, "userID", msg.From.ID)
			return
		}
		if err := fn(ctx, msg); err != nil {
			slog.Error("Dispatcher command handler failed", "error", err, "command", cmd, "userID", msg.From.ID)
		}
		return
	}

	handled, err := d.listeners.DispatchText(ctx, msg)
	if err != nil {
		slog.Error("Dispatcher listener failed", "error", err, "userID", msg.From.ID)
		return
	}
	if handled {
		return
	}

	d.mu.RLock()
	fallback := d.fallback
	d.mu.RUnlock()
	if fallback == nil || msg.Chat.Type != models.ChatTypePrivate {
		return
	}
	if err := fallback(ctx, msg); err != nil {
		slog.Error("Dispatcher fallback handler failed", "error", err, "userID", msg.From.ID)
	}
}

func (d *Dispatcher) dispatchCallback(ctx context.Context, cq models.CallbackQuery) {
	payload, err := callback.Parse(cq.Data)
	if err != nil {
		slog.Error("Dispatcher callback data unparseable", "error", err, "userID", cq.From.ID)
		return
	}

	d.mu.RLock()
	fn, exists := d.callbacks[payload.Pattern]
	d.mu.RUnlock()
	if !exists {
		slog.Debug("Dispatcher ignoring unknown callback pattern", "pattern", payload.Pattern, "userID", cq.From.ID)
		return
	}
	if err := fn(ctx, cq, payload); err != nil {
		slog.Error("Dispatcher callback handler failed", "error", err, "pattern", payload.Pattern, "userID", cq.From.ID)
	}
	// Acknowledge the press so the client stops showing a spinner.
	if err := d.service.AnswerCallback(ctx, cq.ID, ""); err != nil {
		slog.Error("Dispatcher callback acknowledgement failed", "error", err, "userID", cq.From.ID)
	}
}

// userLock returns the mutex serializing one user's updates.
func (d *Dispatcher) userLock(userID int64) *sync.Mutex {
	d.userMu.Lock()
	defer d.userMu.Unlock()
	lock, ok := d.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		d.userLocks[userID] = lock
	}
	return lock
}

// parseCommand extracts a slash command from message text, stripping a bot
// mention suffix ("/start@SomeBot" becomes "/start").
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := text
	if i := strings.IndexAny(cmd, " \n"); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, true
}
