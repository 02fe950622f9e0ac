package ticker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/repositories"
	"github.com/ugcstudio/backend/internal/requests"
)

// Lister selects the rows eligible for progress advancement.
type Lister interface {
	ListByStatus(ctx context.Context, kind models.RequestKind, statuses []string) ([]models.Request, error)
}

// Advancer applies one progress step to a request.
type Advancer interface {
	AdvanceProgress(ctx context.Context, request models.Request) (models.Request, error)
}

// Ticker periodically advances progress on requests of one kind. Each kind
// runs its own ticker with its own interval and status predicate. A pass that
// fails is simply retried on the next interval.
type Ticker struct {
	kind     models.RequestKind
	statuses []string
	interval time.Duration
	store    Lister
	engine   Advancer
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New constructs and starts a ticker for the given kind. The first pass runs
// immediately, then once per interval until Shutdown.
func New(kind models.RequestKind, interval time.Duration, store Lister, engine Advancer, logger *slog.Logger) *Ticker {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	policy, ok := requests.PolicyFor(kind)
	if !ok {
		panic("ticker: unknown request kind")
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &Ticker{
		kind:     kind,
		statuses: policy.TickStatuses,
		interval: interval,
		store:    store,
		engine:   engine,
		logger:   logger.With(slog.String("ticker", string(kind))),
		ctx:      ctx,
		cancel:   cancel,
	}

	t.wg.Add(1)
	go t.run()

	return t
}

// Shutdown stops the ticker and waits for an in-flight pass to finish.
func (t *Ticker) Shutdown(ctx context.Context) error {
	t.once.Do(t.cancel)

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (t *Ticker) run() {
	defer t.wg.Done()

	t.pass()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.pass()
		}
	}
}

func (t *Ticker) pass() {
	ctx, cancel := context.WithTimeout(t.ctx, t.interval)
	defer cancel()

	rows, err := t.store.ListByStatus(ctx, t.kind, t.statuses)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			t.logger.Error("list requests for advancement", "error", err)
		}
		return
	}

	for _, row := range rows {
		updated, err := t.engine.AdvanceProgress(ctx, row)
		if err != nil {
			// A version conflict means fulfillment won the race; the row is
			// picked up again next pass if it still qualifies.
			if errors.Is(err, repositories.ErrVersionConflict) {
				t.logger.Info("skipped request due to concurrent update", "requestId", row.ID)
				continue
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			t.logger.Error("advance request progress", "requestId", row.ID, "error", err)
			continue
		}

		t.logger.Info("advanced request progress",
			slog.String("requestId", updated.ID),
			slog.Int("progress", updated.Progress),
			slog.String("status", updated.Status),
		)
	}
}
