package paymentmethod

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/rentably/rent-collection/internal/auth"
	"github.com/rentably/rent-collection/internal/transport"
	"github.com/rentably/rent-collection/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("Link: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("Link: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Link(r.Context(), landlord.ID, &req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Link: verification started",
		"landlord_id", landlord.ID,
		"tenant_id", req.TenantID)

	h.WriteJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("Confirm: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("Confirm: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	method, err := h.Service.Confirm(r.Context(), landlord.ID, &req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, method)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("List: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID, err := strconv.ParseInt(r.URL.Query().Get("tenant_id"), 10, 64)
	if err != nil || tenantID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "tenant_id query parameter is required")
		return
	}

	methods, err := h.Service.List(r.Context(), landlord.ID, tenantID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payment_methods": methods,
	})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("Remove: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	methodID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment method id")
		return
	}

	if err := h.Service.Remove(r.Context(), landlord.ID, methodID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
