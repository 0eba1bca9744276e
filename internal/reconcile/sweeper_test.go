package reconcile_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/rentably/rent-collection/internal"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	"github.com/rentably/rent-collection/internal/processor"
	"github.com/rentably/rent-collection/internal/reconcile"
)

func TestReconcile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconcile Suite")
}

type mockLedger struct {
	mu              sync.Mutex
	stale           []*rentpayment.RentPayment
	markedFailed    map[int64]string
	markedSubmitted map[int64]string
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		markedFailed:    make(map[int64]string),
		markedSubmitted: make(map[int64]string),
	}
}

func (m *mockLedger) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*rentpayment.RentPayment, error) {
	return m.stale, nil
}

func (m *mockLedger) MarkSubmitted(ctx context.Context, id int64, processorRef, initialStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedSubmitted[id] = processorRef
	return nil
}

func (m *mockLedger) MarkFailed(ctx context.Context, id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedFailed[id] = reason
	return nil
}

func (m *mockLedger) resolvedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markedFailed) + len(m.markedSubmitted)
}

type mockLookup struct {
	charges map[string]*processortypes.Charge
	err     error
}

func (m *mockLookup) GetChargeByIdempotencyKey(ctx context.Context, idempotencyKey string) (*processortypes.Charge, error) {
	if m.err != nil {
		return nil, m.err
	}
	charge, exists := m.charges[idempotencyKey]
	if !exists {
		return nil, processor.ErrNotFound
	}
	return charge, nil
}

var _ = Describe("Sweeper", func() {
	var (
		sweeper *reconcile.Sweeper
		ledger  *mockLedger
		lookup  *mockLookup
		ctx     context.Context
	)

	stalePayment := func(id int64, key string) *rentpayment.RentPayment {
		return &rentpayment.RentPayment{
			ID:             id,
			Status:         rentpayment.StatusPending,
			IdempotencyKey: key,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		ledger = newMockLedger()
		lookup = &mockLookup{charges: make(map[string]*processortypes.Charge)}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		sweeper = reconcile.NewSweeper(internal.ReconcileConfig{
			Interval:   time.Minute,
			PendingAge: 15 * time.Minute,
			BatchSize:  10,
			MaxWorkers: 2,
		}, ledger, lookup, logger)
	})

	Describe("Resolve", func() {
		It("fails a payment whose charge never reached the processor", func() {
			sweeper.Resolve(ctx, stalePayment(1, "key-1"))

			Expect(ledger.markedFailed).To(HaveKey(int64(1)))
			Expect(ledger.markedSubmitted).To(BeEmpty())
		})

		It("recovers a charge the processor accepted", func() {
			lookup.charges["key-2"] = &processortypes.Charge{
				OperationRef: "op_found",
				Status:       processortypes.ChargeStatusPending,
			}

			sweeper.Resolve(ctx, stalePayment(2, "key-2"))

			Expect(ledger.markedSubmitted).To(HaveKeyWithValue(int64(2), "op_found"))
			Expect(ledger.markedFailed).To(BeEmpty())
		})

		It("records a rejection the processor reported", func() {
			lookup.charges["key-3"] = &processortypes.Charge{
				OperationRef:  "op_rejected",
				Status:        processortypes.ChargeStatusFailed,
				FailureReason: "account_closed",
			}

			sweeper.Resolve(ctx, stalePayment(3, "key-3"))

			Expect(ledger.markedFailed).To(HaveKeyWithValue(int64(3), "account_closed"))
		})

		It("leaves the payment for the next sweep when the lookup errors", func() {
			lookup.err = stderrors.New("connection refused")

			sweeper.Resolve(ctx, stalePayment(4, "key-4"))

			Expect(ledger.markedFailed).To(BeEmpty())
			Expect(ledger.markedSubmitted).To(BeEmpty())
		})
	})

	Describe("SweepOnce", func() {
		It("queues every stale payment for resolution", func() {
			ledger.stale = []*rentpayment.RentPayment{
				stalePayment(1, "key-1"),
				stalePayment(2, "key-2"),
			}
			lookup.charges["key-2"] = &processortypes.Charge{
				OperationRef: "op_2",
				Status:       processortypes.ChargeStatusPending,
			}

			sweeper.Start()
			defer sweeper.Shutdown()

			Expect(sweeper.SweepOnce(ctx)).To(Succeed())

			Eventually(ledger.resolvedCount).Should(Equal(2))
		})
	})
})
