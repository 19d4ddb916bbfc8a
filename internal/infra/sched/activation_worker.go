package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/logging"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	red "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/redis"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/worker"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

// ActivationWorker periodically scans for paid payments whose activation flag
// is set but whose subscription link never landed (the collaborator failed
// after the paid transition committed) and replays the activation. This is
// the outbox side of the at-most-once contract: the flag flips exactly once
// with the paid transition, the call itself is retried until it sticks.
type ActivationWorker struct {
	engine   usecase.ReconcileUseCase
	payments repository.PaymentRepository
	pool     *worker.Pool
	locker   red.Locker
	interval time.Duration
	batch    int
	log      *zerolog.Logger
}

func NewActivationWorker(
	engine usecase.ReconcileUseCase,
	payments repository.PaymentRepository,
	pool *worker.Pool,
	locker red.Locker,
	interval time.Duration,
	batch int,
	logger *zerolog.Logger,
) *ActivationWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &ActivationWorker{
		engine:   engine,
		payments: payments,
		pool:     pool,
		locker:   locker,
		interval: interval,
		batch:    batch,
		log:      logger,
	}
}

func (w *ActivationWorker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *ActivationWorker) tick(ctx context.Context) {
	backlog, err := w.payments.ListActivationBacklog(ctx, nil, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("activation-worker: list backlog failed")
		return
	}
	for _, p := range backlog {
		paymentID := p.ID
		if err := w.pool.Submit(func(ctx context.Context) error {
			return w.replay(ctx, paymentID)
		}); err != nil {
			w.log.Warn().Err(err).Str("payment_id", paymentID).Msg("activation-worker: submit failed")
		}
	}
}

func (w *ActivationWorker) replay(ctx context.Context, paymentID string) error {
	ctx = logging.WithPaymentID(ctx, paymentID)
	log := logging.With(ctx, w.log)

	lockKey := "activation:" + paymentID
	token, err := w.locker.TryLock(ctx, lockKey, 30*time.Second)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil // another worker holds the lease
		}
		return err
	}
	defer func() { _ = w.locker.Unlock(ctx, lockKey, token) }()

	if err := w.engine.ReplayActivation(ctx, paymentID); err != nil {
		metrics.IncActivation("error")
		log.Error().Err(err).Msg("activation-worker: replay failed")
		return err
	}
	metrics.IncActivation("replayed")
	log.Info().Msg("activation-worker: activation replayed")
	return nil
}
