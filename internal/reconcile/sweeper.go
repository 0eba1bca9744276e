// Package reconcile resolves rent payments stranded in pending: rows whose
// charge submission crashed or timed out before an outcome was recorded.
// The sweep asks the processor what happened to each row's idempotency key
// and settles the ledger either way.
package reconcile

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	internal "github.com/rentably/rent-collection/internal"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	"github.com/rentably/rent-collection/internal/metrics"
	"github.com/rentably/rent-collection/internal/processor"
)

const failureNeverSubmitted = "charge never reached processor"

// Ledger is the slice of the rent payment service the sweep writes through.
type Ledger interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*rentpayment.RentPayment, error)
	MarkSubmitted(ctx context.Context, id int64, processorRef, initialStatus string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// ChargeLookup resolves a charge by the idempotency key we minted for it.
type ChargeLookup interface {
	GetChargeByIdempotencyKey(ctx context.Context, idempotencyKey string) (*processortypes.Charge, error)
}

type worker struct {
	id         int
	workerPool chan chan *rentpayment.RentPayment
	jobChannel chan *rentpayment.RentPayment
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan *rentpayment.RentPayment, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan *rentpayment.RentPayment),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, resolve func(context.Context, *rentpayment.RentPayment)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case payment := <-w.jobChannel:
				w.logger.Debug("worker resolving stale payment",
					"worker_id", w.id,
					"rent_payment_id", payment.ID)
				resolve(ctx, payment)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type Sweeper struct {
	ledger     Ledger
	lookup     ChargeLookup
	interval   time.Duration
	pendingAge time.Duration
	batchSize  int
	logger     *slog.Logger

	jobQueue   chan *rentpayment.RentPayment
	workerPool chan chan *rentpayment.RentPayment
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewSweeper(cfg internal.ReconcileConfig, ledger Ledger, lookup ChargeLookup, logger *slog.Logger) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	return &Sweeper{
		ledger:     ledger,
		lookup:     lookup,
		interval:   cfg.Interval,
		pendingAge: cfg.PendingAge,
		batchSize:  batchSize,
		logger:     logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan *rentpayment.RentPayment, batchSize),
		workerPool: make(chan chan *rentpayment.RentPayment, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the worker pool and the periodic sweep loop.
func (s *Sweeper) Start() {
	s.once.Do(func() {
		for i := 0; i < s.maxWorkers; i++ {
			newWorker(i, s.workerPool, s.logger).start(s.ctx, &s.wg, s.Resolve)
		}

		go s.dispatch()
		go s.loop()

		s.logger.Info("reconciliation sweeper started",
			"interval", s.interval,
			"pending_age", s.pendingAge,
			"max_workers", s.maxWorkers)
	})
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SweepOnce(s.ctx); err != nil {
				s.logger.Error("reconciliation sweep failed", "error", err)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Sweeper) dispatch() {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case payment := <-s.jobQueue:
			select {
			case jobChannel := <-s.workerPool:
				select {
				case jobChannel <- payment:
				case <-s.ctx.Done():
					return
				}
			case <-s.ctx.Done():
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// SweepOnce queues one batch of stale pending payments for resolution.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.pendingAge)

	stale, err := s.ledger.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return err
	}

	if len(stale) > 0 {
		s.logger.Info("reconciliation sweep found stale payments", "count", len(stale))
	}

	for _, payment := range stale {
		select {
		case s.jobQueue <- payment:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	metrics.ReconcileSweepsTotal.Inc()
	return nil
}

// Resolve settles one stale pending payment from the processor's record of
// its idempotency key. No record means the charge never got through, so
// the row fails; an existing charge is folded in exactly as the synchronous
// submission path would have done.
func (s *Sweeper) Resolve(ctx context.Context, payment *rentpayment.RentPayment) {
	charge, err := s.lookup.GetChargeByIdempotencyKey(ctx, payment.IdempotencyKey)
	if err != nil {
		if stderrors.Is(err, processor.ErrNotFound) {
			if err := s.ledger.MarkFailed(ctx, payment.ID, failureNeverSubmitted); err != nil {
				s.logger.Error("failed to fail unsubmitted payment",
					"error", err,
					"rent_payment_id", payment.ID)
				return
			}
			metrics.ReconciledPaymentsTotal.WithLabelValues("never_submitted").Inc()
			s.logger.Info("stale payment failed, charge never submitted",
				"rent_payment_id", payment.ID)
			return
		}

		s.logger.Warn("charge lookup failed, will retry next sweep",
			"error", err,
			"rent_payment_id", payment.ID)
		return
	}

	if charge.Status == processortypes.ChargeStatusFailed {
		if err := s.ledger.MarkFailed(ctx, payment.ID, charge.FailureReason); err != nil {
			s.logger.Error("failed to record charge failure",
				"error", err,
				"rent_payment_id", payment.ID)
			return
		}
		metrics.ReconciledPaymentsTotal.WithLabelValues("failed").Inc()
		return
	}

	if err := s.ledger.MarkSubmitted(ctx, payment.ID, charge.OperationRef, charge.Status); err != nil {
		s.logger.Error("failed to attach recovered charge",
			"error", err,
			"rent_payment_id", payment.ID,
			"processor_ref", charge.OperationRef)
		return
	}
	metrics.ReconciledPaymentsTotal.WithLabelValues("recovered").Inc()
	s.logger.Info("stale payment reconciled",
		"rent_payment_id", payment.ID,
		"processor_ref", charge.OperationRef,
		"charge_status", charge.Status)
}

func (s *Sweeper) Shutdown() {
	s.logger.Info("shutting down reconciliation sweeper")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("reconciliation sweeper shutdown complete")
}
