package landlord

import (
	"log/slog"
	"net/http"

	"github.com/rentably/rent-collection/internal/auth"
	"github.com/rentably/rent-collection/internal/transport"
	"github.com/rentably/rent-collection/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentLandlord handles GET /landlords/me
func (h *Handler) GetCurrentLandlord(w http.ResponseWriter, r *http.Request) {
	landlord, ok := auth.LandlordFromContext(r.Context())
	if !ok || landlord == nil {
		h.Logger.Error("GetCurrentLandlord: landlord not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.Service.GetProfile(landlord.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}
