package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/Domenick1991/partnerbooking/pkg/metrics"
	"github.com/google/uuid"
)

// Channel delivers a rendered message. Expected delivery failures are returned as errors.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type Dispatcher struct {
	primary   Channel
	secondary Channel
	timeout   time.Duration
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewDispatcher wires the durable primary channel and the best-effort secondary one. Either may be nil.
func NewDispatcher(primary, secondary Channel, timeout time.Duration, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// Dispatch attempts both channels and never fails. Per-channel problems end up in the Result and the logs.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) Result {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = d.now().UTC()
	}
	if msg.TemplateID == "" {
		msg.TemplateID = string(msg.Event)
	}

	return Result{
		Event:     msg.Event,
		Success:   true,
		Primary:   d.attempt(ctx, d.primary, "primary", msg),
		Secondary: d.attempt(ctx, d.secondary, "secondary", msg),
	}
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, role string, msg Message) (out Outcome) {
	if ch == nil {
		out = Outcome{Channel: role, Message: "channel not configured"}
		d.record(msg, out)
		return out
	}
	out.Channel = ch.Name()

	defer func() {
		if r := recover(); r != nil {
			out.Succeeded = false
			out.Message = fmt.Sprintf("channel panicked: %v", r)
			d.record(msg, out)
		}
	}()

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := ch.Send(sendCtx, msg); err != nil {
		out.Message = err.Error()
	} else {
		out.Succeeded = true
		out.Message = "sent"
	}
	d.record(msg, out)
	return out
}

func (d *Dispatcher) record(msg Message, out Outcome) {
	d.metrics.NotificationSent(string(msg.Event), out.Channel, out.Succeeded)
	if out.Succeeded {
		d.log.Debug("notification sent", "event", msg.Event, "channel", out.Channel, "message_id", msg.ID)
		return
	}
	d.log.Warn("notification channel failed",
		"event", msg.Event,
		"channel", out.Channel,
		"message_id", msg.ID,
		"key", msg.Key(),
		"error", out.Message)
}
