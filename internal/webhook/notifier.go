package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const retryTick = time.Second

// Notifier forwards published events to a webhook. Publish never blocks: events are
// queued and delivered by Run, failed deliveries are retried with exponential backoff
// and dropped after MaxAttempts.
type Notifier struct {
	cfg    Config
	sender *Sender
	logger *slog.Logger
	events map[domain.EventType]bool
	queue  chan job
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	pending []job
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}

	var events map[domain.EventType]bool
	if len(cfg.Events) > 0 {
		events = make(map[domain.EventType]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			events[domain.EventType(e)] = true
		}
	}

	return &Notifier{
		cfg:    cfg,
		sender: NewSender(cfg),
		logger: logger,
		events: events,
		queue:  make(chan job, cfg.QueueSize),
		tick:   retryTick,
		now:    time.Now,
	}
}

func (n *Notifier) Publish(sessionID string, eventType domain.EventType, data interface{}) {
	if n.events != nil && !n.events[eventType] {
		return
	}

	event := EventPayload{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: n.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal webhook event", "event", eventType, "error", err)
		return
	}

	select {
	case n.queue <- job{id: event.ID, eventType: eventType, payload: payload}:
	default:
		n.logger.Warn("webhook queue full, event dropped", "event", eventType, "delivery_id", event.ID)
	}
}

func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.tick)
	defer ticker.Stop()

	n.logger.Info("webhook notifier started", "url", n.cfg.URL)

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook notifier stopped", "pending", n.Pending())
			return
		case j := <-n.queue:
			n.deliver(ctx, j)
		case <-ticker.C:
			n.processRetries(ctx)
		}
	}
}

// Pending returns how many deliveries wait for a retry
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	j.attempts++
	err := n.sender.Send(ctx, j)
	if err == nil {
		n.logger.Debug("webhook delivered", "event", j.eventType, "delivery_id", j.id, "attempts", j.attempts)
		return
	}
	if ctx.Err() != nil {
		return
	}
	n.scheduleRetry(j, err)
}

func (n *Notifier) scheduleRetry(j job, err error) {
	if j.attempts >= n.cfg.MaxAttempts {
		n.logger.Warn("webhook delivery failed",
			"event", j.eventType,
			"delivery_id", j.id,
			"attempts", j.attempts,
			"error", err,
		)
		return
	}

	delay := n.cfg.Backoff * time.Duration(1<<(j.attempts-1))
	j.nextRetryAt = n.now().Add(delay)

	n.mu.Lock()
	n.pending = append(n.pending, j)
	n.mu.Unlock()

	n.logger.Info("webhook delivery scheduled for retry",
		"delivery_id", j.id,
		"attempts", j.attempts,
		"next_retry", j.nextRetryAt,
		"error", err,
	)
}

func (n *Notifier) processRetries(ctx context.Context) {
	now := n.now()

	n.mu.Lock()
	var due []job
	kept := n.pending[:0]
	for _, j := range n.pending {
		if !j.nextRetryAt.After(now) {
			due = append(due, j)
		} else {
			kept = append(kept, j)
		}
	}
	n.pending = kept
	n.mu.Unlock()

	for _, j := range due {
		n.deliver(ctx, j)
	}
}
