package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"citechat/internal/models"
	"citechat/internal/share"
)

type shareRequest struct {
	Messages        []models.Message      `json:"messages"`
	ContextFromURLs *models.ContextBundle `json:"contextFromUrls,omitempty"`
}

type shareResponse struct {
	ShareID string `json:"shareId"`
}

// ShareHandler stores and serves shared conversations. Share routes are
// deliberately outside the rate limiter: reading a shared link costs no
// scraping and no model tokens.
type ShareHandler struct {
	store  *share.Store
	logger *zap.Logger
}

func NewShareHandler(store *share.Store, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{store: store, logger: logger}
}

func (h *ShareHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/share", h.handleCreate)
	mux.HandleFunc("/api/share/", h.handleGet)
}

func (h *ShareHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"}, h.logger)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid conversation data"}, h.logger)
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid conversation data"}, h.logger)
		return
	}

	id, err := h.store.Put(r.Context(), req.Messages, req.ContextFromURLs)
	if err != nil {
		h.logger.Error("failed to store shared conversation", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to share conversation"}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, shareResponse{ShareID: id}, h.logger)
}

func (h *ShareHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"}, h.logger)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/share/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid share id"}, h.logger)
		return
	}

	conv, err := h.store.Get(r.Context(), id)
	if errors.Is(err, share.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"}, h.logger)
		return
	}
	if err != nil {
		h.logger.Error("failed to load shared conversation", zap.String("share_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load conversation"}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, conv, h.logger)
}
