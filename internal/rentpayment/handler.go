package rentpayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/rentably/rent-collection/internal/auth"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	"github.com/rentably/rent-collection/internal/transport"
	"github.com/rentably/rent-collection/pkg/logger"
)

// Originator submits a new payment end to end: ledger row first, then the
// processor charge.
type Originator interface {
	Originate(ctx context.Context, landlordID int64, dto *CreateRentPaymentDTO) (*rentpayment.RentPayment, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    *Service
	Originator Originator
}

func NewHandler(service *Service, originator Originator) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Originator:  originator,
	}
}

func (h *Handler) CreateRentPayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("CreateRentPayment: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRentPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRentPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.Originator.Originate(r.Context(), landlord.ID, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateRentPayment: origination accepted",
		"rent_payment_id", payment.ID,
		"landlord_id", landlord.ID,
		"status", payment.Status)

	h.WriteJSON(w, http.StatusAccepted, &OriginationResponse{
		ID:           payment.ID,
		Status:       payment.Status,
		AmountMinor:  payment.AmountMinor,
		FeeMinor:     payment.FeeMinor,
		ChargedMinor: payment.ChargedMinor,
		NetMinor:     payment.NetMinor,
		FeePayer:     payment.FeePayer,
	})
}

func (h *Handler) GetRentPayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("GetRentPayment: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid rent payment id")
		return
	}

	payment, err := h.Service.GetForLandlord(r.Context(), landlord.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payment)
}

func (h *Handler) ListRentPayments(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("ListRentPayments: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := ListFilter{LandlordID: landlord.ID}

	query := r.URL.Query()
	if raw := query.Get("tenant_id"); raw != "" {
		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid tenant_id")
			return
		}
		filter.TenantID = &tenantID
	}
	if raw := query.Get("property_id"); raw != "" {
		propertyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid property_id")
			return
		}
		filter.PropertyID = &propertyID
	}
	if raw := query.Get("status"); raw != "" {
		status := raw
		filter.Status = &status
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, list)
}
