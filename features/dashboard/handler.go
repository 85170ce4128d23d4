package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"estudio/internal/middleware"
	"estudio/internal/web"
)

type Handler struct {
	service *Service
	render  *web.Renderer
}

func NewHandler(service *Service, render *web.Renderer) *Handler {
	return &Handler{service: service, render: render}
}

type bar struct {
	MonthPoint
	Height int
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load dashboard", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	peak := 0
	for _, p := range stats.Serie {
		peak = max(peak, p.Count)
	}
	bars := make([]bar, len(stats.Serie))
	for i, p := range stats.Serie {
		bars[i] = bar{MonthPoint: p}
		if peak > 0 {
			bars[i].Height = p.Count * 100 / peak
		}
	}

	h.render.HTML(w, r, http.StatusOK, "dashboard", web.Page{
		Title: "Panel",
		Data:  map[string]any{"Stats": stats, "Barras": bars},
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute stats", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to compute stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": stats}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "login", web.Page{Title: "Iniciar sesión"})
}

// Logout only returns to the login page; there is no session to end.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
