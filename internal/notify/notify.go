// Package notify is the user-facing notification channel. The API client
// raises notifications here; the portal server hands them back to the browser
// as toasts and the CLI prints them.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Level is the severity of a notification.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Notification is a single toast.
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// New builds a notification with a fresh ID.
func New(level Level, message string) Notification {
	return Notification{
		ID:      ulid.Make().String(),
		Level:   level,
		Message: message,
		At:      time.Now().UTC(),
	}
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Error is shorthand for notifying an error message.
func Error(ctx context.Context, to Notifier, message string) {
	to.Notify(ctx, New(LevelError, message))
}

// Success is shorthand for notifying a success message.
func Success(ctx context.Context, to Notifier, message string) {
	to.Notify(ctx, New(LevelSuccess, message))
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, Notification) {}

// Collector accumulates the notifications raised while serving one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Items returns a copy of the collected notifications, oldest first.
func (c *Collector) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

type collectorKey struct{}

// WithCollector attaches a fresh Collector to ctx.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// CollectorFrom returns the Collector attached to ctx, if any.
func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

// ContextNotifier routes notifications to the Collector carried by the
// context, or to Fallback when there is none.
type ContextNotifier struct {
	Fallback Notifier
}

func (n ContextNotifier) Notify(ctx context.Context, item Notification) {
	if c, ok := CollectorFrom(ctx); ok {
		c.Notify(ctx, item)
		return
	}
	if n.Fallback != nil {
		n.Fallback.Notify(ctx, item)
	}
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, item Notification) {
	event := n.Logger.Info()
	if item.Level == LevelError {
		event = n.Logger.Warn()
	}
	event.
		Str("notification_id", item.ID).
		Str("level", string(item.Level)).
		Msg(item.Message)
}

// WriterNotifier prints notifications as single lines, for terminals.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterNotifier creates a WriterNotifier writing to out.
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

func (n *WriterNotifier) Notify(_ context.Context, item Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	symbol := "•"
	switch item.Level {
	case LevelError:
		symbol = "✗"
	case LevelSuccess:
		symbol = "✓"
	}
	fmt.Fprintf(n.out, "%s %s\n", symbol, item.Message)
}
