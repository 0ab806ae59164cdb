package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/service"
)

// WidgetHandler serves the public review widget. Raw HTTP handlers:
// the widget returns HTML and JavaScript, not JSON.
type WidgetHandler struct {
	widgetSvc *service.WidgetService
	logger    *slog.Logger
}

// NewWidgetHandler creates a new widget handler.
func NewWidgetHandler(widgetSvc *service.WidgetService, logger *slog.Logger) *WidgetHandler {
	return &WidgetHandler{
		widgetSvc: widgetSvc,
		logger:    logger.With("component", "widget"),
	}
}

// Render serves one page of the published reviews as HTML.
// GET /api/v1/widget/{productID}?page=N
func (h *WidgetHandler) Render(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	widget, err := h.widgetSvc.Render(r.Context(), productID, page)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "no published reviews", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to render widget", "product_id", productID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	fmt.Fprint(w, widget.HTML)
}

// InjectScript serves the embed script storefronts include in their theme.
// GET /api/v1/widget/reviews-inject.js?token=<productID>
func (h *WidgetHandler) InjectScript(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	fmt.Fprint(w, h.widgetSvc.InjectScript(token))
}
