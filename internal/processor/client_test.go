package processor_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rentably/rent-collection/internal"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/processor"
)

func TestProcessorClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Processor Client Suite")
}

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		client *processor.Client
		ctx    context.Context

		seenIdempotencyKeys []string
		chargeResponse      processortypes.Charge
		chargeStatus        int
	)

	chargeReq := func() *processortypes.ChargeRequest {
		return &processortypes.ChargeRequest{
			CustomerRef:   "cus_1",
			InstrumentRef: "ba_1",
			AmountMinor:   150000,
			Currency:      "usd",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		seenIdempotencyKeys = nil
		chargeStatus = http.StatusOK
		chargeResponse = processortypes.Charge{
			OperationRef: "op_1",
			Status:       processortypes.ChargeStatusPending,
		}

		mux := http.NewServeMux()
		mux.HandleFunc("POST /v1/charges", func(w http.ResponseWriter, r *http.Request) {
			seenIdempotencyKeys = append(seenIdempotencyKeys, r.Header.Get("Idempotency-Key"))
			w.WriteHeader(chargeStatus)
			json.NewEncoder(w).Encode(chargeResponse)
		})
		mux.HandleFunc("GET /v1/instruments/{ref}", func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("ref") != "ba_known" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(processortypes.Instrument{
				InstrumentRef: "ba_known",
				Type:          "bank_account",
				BankName:      "First National",
				LastFour:      "6789",
			})
		})

		server = httptest.NewServer(mux)

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = processor.NewClient(internal.ProcessorConfig{
			BaseURL: server.URL,
			APIKey:  "sk_test",
		}, logger)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Charge", func() {
		It("sends the idempotency key with every submission", func() {
			charge, err := client.Charge(ctx, chargeReq(), "idem-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(charge.OperationRef).To(Equal("op_1"))
			Expect(seenIdempotencyKeys).To(ConsistOf("idem-1"))
		})

		It("refuses to submit without an idempotency key", func() {
			_, err := client.Charge(ctx, chargeReq(), "")

			Expect(err).To(HaveOccurred())
			Expect(seenIdempotencyKeys).To(BeEmpty())
		})

		It("maps a failed charge to a rejection with the verbatim reason", func() {
			chargeResponse = processortypes.Charge{
				OperationRef:  "op_2",
				Status:        processortypes.ChargeStatusFailed,
				FailureReason: "insufficient_funds",
			}

			_, err := client.Charge(ctx, chargeReq(), "idem-2")

			var rejection *processor.RejectionError
			Expect(stderrors.As(err, &rejection)).To(BeTrue())
			Expect(rejection.Reason).To(Equal("insufficient_funds"))
		})

		It("returns a plain error for server failures", func() {
			chargeStatus = http.StatusBadGateway

			_, err := client.Charge(ctx, chargeReq(), "idem-3")

			Expect(err).To(HaveOccurred())
			var rejection *processor.RejectionError
			Expect(stderrors.As(err, &rejection)).To(BeFalse())
		})
	})

	Describe("GetInstrument", func() {
		It("fetches instrument metadata", func() {
			instrument, err := client.GetInstrument(ctx, "ba_known")

			Expect(err).NotTo(HaveOccurred())
			Expect(instrument.BankName).To(Equal("First National"))
			Expect(instrument.LastFour).To(Equal("6789"))
		})

		It("maps 404 to ErrNotFound", func() {
			_, err := client.GetInstrument(ctx, "ba_missing")

			Expect(stderrors.Is(err, processor.ErrNotFound)).To(BeTrue())
		})
	})
})
