package settlement

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/metrics"
	"github.com/rentably/rent-collection/internal/transport"
	"github.com/rentably/rent-collection/pkg/logger"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives the processor's settlement event stream. The
// endpoint is unauthenticated in the session sense; the HMAC signature
// over the raw body is the only trust anchor.
type WebhookHandler struct {
	*transport.BaseHandler
	coordinator *Coordinator
	secret      string
}

func NewWebhookHandler(coordinator *Coordinator, webhookSecret string) *WebhookHandler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(lg),
		coordinator: coordinator,
		secret:      webhookSecret,
	}
}

func (h *WebhookHandler) HandleSettlementEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("unreadable").Inc()
		h.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		metrics.WebhookRequestsTotal.WithLabelValues("bad_signature").Inc()
		h.Logger.Warn("webhook signature verification failed",
			"remote_addr", r.RemoteAddr)
		h.WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event processortypes.SettlementEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("malformed").Inc()
		h.WriteError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	if event.OperationRef == "" || event.Outcome == "" {
		metrics.WebhookRequestsTotal.WithLabelValues("malformed").Inc()
		h.WriteError(w, http.StatusBadRequest, "operation_ref and outcome are required")
		return
	}

	if err := h.coordinator.HandleEvent(r.Context(), &event); err != nil {
		// A 5xx makes the processor redeliver, which is what we want
		// for transient storage failures.
		metrics.WebhookRequestsTotal.WithLabelValues("retryable").Inc()
		h.Logger.Error("failed to apply settlement event",
			"error", err,
			"event_id", event.EventID)
		h.WriteError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	metrics.WebhookRequestsTotal.WithLabelValues("accepted").Inc()
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
