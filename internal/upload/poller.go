package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/metrics"
)

// ErrStillProcessing reports that the polling budget ran out with items
// still pending. Not a failure of the items themselves; the user should
// refresh later.
var ErrStillProcessing = errors.New("items still processing")

// Poll budget defaults. The budget bounds background timers: when it is
// exhausted the poller gives up instead of polling forever.
const (
	DefaultInitialInterval = time.Second
	DefaultMaxInterval     = 15 * time.Second
	DefaultMaxElapsed      = 10 * time.Minute
	DefaultMaxAttempts     = 30
)

// ItemStatus is the settled outcome of one polled item.
type ItemStatus struct {
	ItemID string
	Status string // api.StatusCompleted or api.StatusFailed
}

// Poller waits for pending uploads to finish server-side processing with
// an exponential-interval, bounded-budget poll loop.
type Poller struct {
	client *api.Client
	log    *slog.Logger
	stats  *metrics.Collector

	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
	MaxAttempts     int
}

// NewPoller creates a poller with the default budget.
func NewPoller(client *api.Client, log *slog.Logger, stats *metrics.Collector) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		client:          client,
		log:             log,
		stats:           stats,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		MaxElapsed:      DefaultMaxElapsed,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

// Wait polls each pending item's detail until every item settles to
// completed or failed, the context is cancelled, or the budget runs out.
// Settled statuses gathered so far are always returned. On budget
// exhaustion the pending set is abandoned and the error wraps
// ErrStillProcessing with the ids still pending.
func (p *Poller) Wait(ctx context.Context, ids []string) ([]ItemStatus, error) {
	pending := make([]string, len(ids))
	copy(pending, ids)

	var settled []ItemStatus
	if len(pending) == 0 {
		return settled, nil
	}

	bo := p.newBackOff()

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		start := time.Now()
		pending = p.pollOnce(ctx, pending, &settled)
		if p.stats != nil {
			p.stats.RecordTiming(metrics.OpPoll, time.Since(start))
		}
		if len(pending) == 0 {
			return settled, nil
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			return settled, ctx.Err()
		case <-time.After(wait):
		}
	}

	p.log.Warn("poll budget exhausted", "pending", pending)
	return settled, fmt.Errorf("%w: %d pending (%v)", ErrStillProcessing, len(pending), pending)
}

// newBackOff builds the poll schedule: intervals double from
// InitialInterval up to MaxInterval, bounded by MaxElapsed overall.
func (p *Poller) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.Multiplier = 2
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = p.MaxElapsed
	bo.Reset()
	return bo
}

// pollOnce fetches each pending id once, appending settled outcomes and
// returning the ids still pending. Fetch errors leave the id pending for
// the next round.
func (p *Poller) pollOnce(ctx context.Context, pending []string, settled *[]ItemStatus) []string {
	var still []string
	for _, id := range pending {
		detail, err := p.client.ItemDetail(ctx, id)
		if err != nil {
			p.log.Debug("poll fetch failed", "item_id", id, "error", err)
			still = append(still, id)
			continue
		}
		switch detail.Status {
		case api.StatusCompleted, api.StatusFailed:
			*settled = append(*settled, ItemStatus{ItemID: id, Status: detail.Status})
		default:
			still = append(still, id)
		}
	}
	return still
}
