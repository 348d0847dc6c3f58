package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
	"github.com/KRTNP/line-fire-alert-system/internal/line"
)

// Pusher sends one message to a known user id. line.Client implements it.
type Pusher interface {
	Push(ctx context.Context, to string, msgs ...line.Message) error
}

// job is one committed alert awaiting fan-out to its recipient snapshot.
type job struct {
	id         string
	alert      domain.Alert
	recipients []string
}

// Broadcaster fans alerts out to subscribers through a worker pool. A send
// failure for one recipient is logged and never stops delivery to the rest,
// and nothing is retried: reaching the most recipients beats strict
// delivery accounting for a life-safety alert.
type Broadcaster struct {
	sender  Pusher
	log     *zap.Logger
	limiter *rate.Limiter
	jobs    chan job
	wg      sync.WaitGroup
}

// NewBroadcaster starts `workers` goroutines draining the job queue.
// perSec caps push calls per second across all workers; 0 means no cap.
func NewBroadcaster(sender Pusher, log *zap.Logger, workers, perSec int) *Broadcaster {
	if workers < 1 {
		workers = 1
	}
	b := &Broadcaster{
		sender: sender,
		log:    log,
		jobs:   make(chan job, 64),
	}
	if perSec > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(perSec), perSec)
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	return b
}

// Enqueue queues a broadcast and returns its job id. The caller is not
// blocked: if the queue is full the job is dropped with a warning.
func (b *Broadcaster) Enqueue(alert domain.Alert, recipients []string) string {
	j := job{id: uuid.NewString(), alert: alert, recipients: recipients}
	select {
	case b.jobs <- j:
	default:
		b.log.Warn("broadcast queue full; dropping job",
			zap.String("job", j.id),
			zap.Int64("alert", alert.ID),
			zap.Int("recipients", len(recipients)),
		)
	}
	return j.id
}

// Close stops accepting jobs and waits for queued broadcasts to finish.
func (b *Broadcaster) Close() {
	close(b.jobs)
	b.wg.Wait()
}

func (b *Broadcaster) worker() {
	defer b.wg.Done()
	for j := range b.jobs {
		b.run(j)
	}
}

// run delivers one alert to its recipient snapshot in snapshot order.
func (b *Broadcaster) run(j job) {
	// Broadcast outlives any request; it carries its own context.
	ctx := context.Background()
	start := time.Now()
	msg := line.AlertMessage(j.alert)

	failed := 0
	for _, to := range j.recipients {
		if b.limiter != nil {
			_ = b.limiter.Wait(ctx)
		}
		if err := b.sender.Push(ctx, to, msg); err != nil {
			failed++
			b.log.Error("alert push failed",
				zap.String("job", j.id),
				zap.Int64("alert", j.alert.ID),
				zap.String("user", to),
				zap.Error(err),
			)
		}
	}

	fields := []zap.Field{
		zap.String("job", j.id),
		zap.Int64("alert", j.alert.ID),
		zap.Int("total", len(j.recipients)),
		zap.Int("failed", failed),
		zap.Duration("dur", time.Since(start)),
	}
	if failed > 0 {
		b.log.Warn("broadcast finished with failures", fields...)
	} else {
		b.log.Info("broadcast finished", fields...)
	}
}
