package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
	"golang.org/x/sync/semaphore"
)

var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Sender is the best-effort side channel used by workflows. Dispatch never
// blocks on delivery and never reports delivery failures to the caller.
type Sender interface {
	Dispatch(ctx context.Context, msg Message)
}

type Dispatcher struct {
	mailer  Mailer
	logger  *slog.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, logger *slog.Logger, maxInFlight int64, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		mailer:  mailer,
		logger:  logger,
		sem:     semaphore.NewWeighted(maxInFlight),
		timeout: timeout,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "notification dropped", "component", "notify", "kind", string(msg.Kind), "error", ErrDispatcherClosed.Error())
		observability.RecordNotification(ctx, string(msg.Kind), "dropped")
		return
	}
	if !d.sem.TryAcquire(1) {
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "notification dropped", "component", "notify", "kind", string(msg.Kind), "reason", "max_in_flight")
		observability.RecordNotification(ctx, string(msg.Kind), "dropped")
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	// Detach from request cancellation but keep trace and request values.
	bg := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		sendCtx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		start := time.Now()
		err := d.mailer.Send(sendCtx, msg)
		if err != nil {
			d.logger.ErrorContext(bg, "notification delivery failed",
				"component", "notify",
				"kind", string(msg.Kind),
				"to", msg.To,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err.Error(),
			)
			observability.RecordNotification(bg, string(msg.Kind), "failure")
			return
		}
		d.logger.InfoContext(bg, "notification delivered",
			"component", "notify",
			"kind", string(msg.Kind),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		observability.RecordNotification(bg, string(msg.Kind), "success")
	}()
}

// Wait blocks until every accepted message has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting messages and waits for in-flight sends or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
