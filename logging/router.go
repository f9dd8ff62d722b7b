package logging

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/ShangTsung3/battle-city-pro/internal/telemetry"
)

// ErrNoSinks is returned when a router is built without any usable sink.
var ErrNoSinks = errors.New("logging: no sinks configured")

// Counter keys reported through Config.Metrics.
const (
	MetricEventsTotal  = "logging_events_total"
	MetricDroppedTotal = "logging_dropped_total"
	MetricSinkDropped  = "logging_sink_dropped_total"
	MetricSinkFailures = "logging_sink_failures_total"
)

const (
	defaultBufferSize   = 512
	defaultDropInterval = 5 * time.Second
	maxSinkBackoff      = 32 * time.Second
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router fans events out to sinks on background workers. Publish never blocks;
// events are dropped when the queue is full.
type Router struct {
	queue    chan Event
	workers  []*sinkWorker
	clock    Clock
	minimum  Severity
	fields   map[string]any
	metrics  telemetry.Metrics
	drops    *dropReporter
	stop     context.CancelFunc
	stopped  <-chan struct{}
	closed   atomic.Bool
	wg       sync.WaitGroup
	forwards atomic.Uint64
}

type RouterStats struct {
	EventsTotal  uint64 `json:"eventsTotal"`
	DroppedTotal uint64 `json:"droppedTotal"`
	SinkFailures uint64 `json:"sinkFailures"`
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	interval := cfg.DropWarnInterval
	if interval <= 0 {
		interval = defaultDropInterval
	}
	fallback := charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "logging", ReportTimestamp: true})

	var workers []*sinkWorker
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		workers = append(workers, &sinkWorker{
			name:     named.Name,
			sink:     named.Sink,
			events:   make(chan Event, min(max(size, 32), 1024)),
			fallback: fallback,
			metrics:  metrics,
			drops:    newDropReporter("sink backlog full, dropping event", MetricSinkDropped, interval, fallback, metrics),
		})
	}
	if len(workers) == 0 {
		return nil, ErrNoSinks
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		queue:   make(chan Event, size),
		workers: workers,
		clock:   clock,
		minimum: cfg.MinimumSeverity,
		fields:  cfg.CloneFields(),
		metrics: metrics,
		drops:   newDropReporter("dropping event", MetricDroppedTotal, interval, fallback, metrics),
		stop:    cancel,
		stopped: ctx.Done(),
	}
	r.wg.Add(1 + len(workers))
	go r.dispatch()
	for _, w := range workers {
		go func(w *sinkWorker) {
			defer r.wg.Done()
			w.run()
		}(w)
	}
	return r, nil
}

// dispatch moves queued events to the sink workers until the router stops,
// then flushes whatever is still queued and closes the worker channels.
func (r *Router) dispatch() {
	defer r.wg.Done()
	defer func() {
		for _, w := range r.workers {
			close(w.events)
		}
	}()
	for {
		select {
		case event := <-r.queue:
			r.forward(event)
		case <-r.stopped:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Severity < r.minimum {
		return
	}
	event = r.decorate(event)
	r.forwards.Add(1)
	r.metrics.Add(MetricEventsTotal, 1)
	for _, w := range r.workers {
		w.enqueue(event)
	}
}

// decorate stamps the time and merges the router fields without overriding
// values the event already carries.
func (r *Router) decorate(event Event) Event {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) == 0 {
		return event
	}
	event = cloneForFields(event)
	if event.Extra == nil {
		event.Extra = make(map[string]any, len(r.fields))
	}
	for k, v := range r.fields {
		if _, exists := event.Extra[k]; !exists {
			event.Extra[k] = v
		}
	}
	return event
}

func (r *Router) Publish(ctx context.Context, event Event) {
	if r == nil || event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.drops.report(event, "")
	}
}

// Close stops the dispatcher, drains queued events into the sinks and closes
// them. It returns the first sink close error.
func (r *Router) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.stop()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var errs []error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

func (r *Router) Stats() RouterStats {
	if r == nil {
		return RouterStats{}
	}
	stats := RouterStats{
		EventsTotal:  r.forwards.Load(),
		DroppedTotal: r.drops.total.Load(),
	}
	for _, w := range r.workers {
		stats.SinkFailures += w.failedWrites.Load()
	}
	return stats
}

func (r *Router) Sink(name string) Sink {
	if r == nil {
		return nil
	}
	for _, w := range r.workers {
		if w.name == name {
			return w.sink
		}
	}
	return nil
}

// dropReporter counts dropped events and rate-limits the matching warning.
type dropReporter struct {
	message  string
	key      string
	interval time.Duration
	fallback *charmlog.Logger
	metrics  telemetry.Metrics
	total    atomic.Uint64
	nextWarn atomic.Int64
}

func newDropReporter(message, key string, interval time.Duration, fallback *charmlog.Logger, metrics telemetry.Metrics) *dropReporter {
	return &dropReporter{message: message, key: key, interval: interval, fallback: fallback, metrics: metrics}
}

func (d *dropReporter) report(event Event, sink string) {
	dropped := d.total.Add(1)
	d.metrics.Add(d.key, 1)
	now := time.Now().UnixNano()
	next := d.nextWarn.Load()
	if now < next || !d.nextWarn.CompareAndSwap(next, now+d.interval.Nanoseconds()) {
		return
	}
	if sink != "" {
		d.fallback.Warn(d.message, "sink", sink, "type", event.Type, "dropped", dropped)
		return
	}
	d.fallback.Warn(d.message, "type", event.Type, "tick", event.Tick, "dropped", dropped)
}

type sinkWorker struct {
	name     string
	sink     Sink
	events   chan Event
	fallback *charmlog.Logger
	metrics  telemetry.Metrics
	drops    *dropReporter

	// failures counts consecutive write errors and drives the backoff.
	failures     int
	retryAt      time.Time
	failedWrites atomic.Uint64
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.events <- cloneForFields(event):
	default:
		w.drops.report(event, w.name)
	}
}

func (w *sinkWorker) run() {
	for event := range w.events {
		if w.failures > 0 {
			if wait := time.Until(w.retryAt); wait > 0 {
				time.Sleep(wait)
			}
		}
		if err := w.sink.Write(event); err != nil {
			w.backoff(err)
			continue
		}
		if w.failures > 0 {
			w.fallback.Info("sink recovered", "sink", w.name, "after", w.failures)
		}
		w.failures = 0
		w.retryAt = time.Time{}
	}
}

// backoff doubles the retry delay per consecutive failure up to maxSinkBackoff.
func (w *sinkWorker) backoff(err error) {
	w.failures++
	w.failedWrites.Add(1)
	w.metrics.Add(MetricSinkFailures, 1)
	delay := time.Second << min(w.failures, 5)
	if delay > maxSinkBackoff {
		delay = maxSinkBackoff
	}
	w.retryAt = time.Now().Add(delay)
	w.fallback.Error("sink failed", "sink", w.name, "err", err, "retry", delay)
}
