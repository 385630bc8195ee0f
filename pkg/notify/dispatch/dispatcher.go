package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nimburion/notify/pkg/notify"
	"github.com/nimburion/notify/pkg/observability/logger"
	"github.com/nimburion/notify/pkg/observability/metrics"
)

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	log     logger.Logger
	metrics *metrics.DispatchMetrics
	timeout time.Duration
	now     func() time.Time
	factory Factory
}

// WithLogger sets the logger used for delivery results.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics records delivery results in m.
func WithMetrics(m *metrics.DispatchMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTimeout bounds each backend request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFactory replaces the backend adapter constructor.
func WithFactory(f Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

type target struct {
	index    int
	entry    notify.ServiceEntry
	notifier Notifier
}

// Dispatcher fans events out to the entries of a document in order.
// It is safe for concurrent use.
type Dispatcher struct {
	targets []target
	log     logger.Logger
	metrics *metrics.DispatchMetrics
	now     func() time.Time
}

// New builds one notifier per document entry.
func New(doc *notify.Document, opts ...Option) (*Dispatcher, error) {
	if doc == nil {
		return nil, errors.New("notify document is required")
	}
	o := options{
		log:     logger.NewNop(),
		timeout: 10 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = func(entry notify.ServiceEntry) (Notifier, error) {
			return NewNotifier(entry, o.timeout, o.log)
		}
	}

	d := &Dispatcher{log: o.log, metrics: o.metrics, now: o.now}
	for i, entry := range doc.Services() {
		n, err := o.factory(entry)
		if err != nil {
			closeErr := d.Close()
			return nil, errors.Join(fmt.Errorf("services[%d] (%s): %w", i, entry.Service, err), closeErr)
		}
		d.targets = append(d.targets, target{index: i, entry: entry, notifier: n})
	}
	return d, nil
}

// Len returns the number of configured backends.
func (d *Dispatcher) Len() int {
	return len(d.targets)
}

// Dispatch sends event to every entry subscribed to its type, in document
// order. A failing backend does not stop delivery to the rest; every failure
// is returned as a *DeliveryError joined into the result.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	if err := event.validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = d.now()
	}

	ctx = logger.ContextWithEventID(ctx, event.ID)
	log := d.log.WithContext(ctx)

	var errs []error
	delivered := 0
	for _, t := range d.targets {
		service := string(t.entry.Service)
		if !t.entry.Subscribed(event.Type) {
			d.metrics.ObserveSkipped(service, string(event.Type))
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, &DeliveryError{Index: t.index, Service: t.entry.Service, Err: err})
			continue
		}

		start := time.Now()
		err := t.notifier.Send(ctx, event)
		d.metrics.ObserveDelivery(service, string(event.Type), time.Since(start), err)
		if err != nil {
			log.Error("notification delivery failed", "index", t.index, "service", service, "event_type", event.Type, "error", err)
			errs = append(errs, &DeliveryError{Index: t.index, Service: t.entry.Service, Err: err})
			continue
		}
		delivered++
	}

	log.Info("notification dispatched", "event_type", event.Type, "delivered", delivered, "failed", len(errs))
	return errors.Join(errs...)
}

// Close closes every notifier and reports all failures.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, t := range d.targets {
		if err := t.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close services[%d] (%s): %w", t.index, t.entry.Service, err))
		}
	}
	return errors.Join(errs...)
}
