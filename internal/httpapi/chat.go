// Package httpapi exposes the chat and share endpoints over plain
// net/http. Handlers own no business logic; they decode, delegate, and
// encode, logging through the injected zap logger.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"citechat/internal/citations"
	"citechat/internal/contextacc"
	"citechat/internal/llm"
	"citechat/internal/metrics"
	"citechat/internal/models"
	"citechat/internal/prompt"
	"citechat/internal/ratelimit"
	"citechat/internal/render"
)

type chatRequest struct {
	Message string           `json:"message"`
	History []models.Message `json:"history"`
}

type chatResponse struct {
	Message         string               `json:"message"`
	HTMLContent     string               `json:"htmlContent"`
	ContextFromURLs models.ContextBundle `json:"contextFromUrls"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ChatHandler runs one conversational turn: fold history context, scrape
// new URLs, prompt the model, annotate and render the reply.
type ChatHandler struct {
	accumulator *contextacc.Accumulator
	model       llm.Client
	renderer    *render.Renderer
	limiter     *ratelimit.Limiter
	genCfg      llm.GenerationConfig
	logger      *zap.Logger
}

func NewChatHandler(
	accumulator *contextacc.Accumulator,
	model llm.Client,
	renderer *render.Renderer,
	limiter *ratelimit.Limiter,
	genCfg llm.GenerationConfig,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		accumulator: accumulator,
		model:       model,
		renderer:    renderer,
		limiter:     limiter,
		genCfg:      genCfg,
		logger:      logger,
	}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/api/chat", RateLimit(h.limiter, h.logger)(http.HandlerFunc(h.handleChat)))
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"}, h.logger)
		return
	}

	start := time.Now()
	defer func() {
		metrics.ChatRequestDuration.Observe(time.Since(start).Seconds())
	}()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ChatRequests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"}, h.logger)
		return
	}
	if req.Message == "" {
		metrics.ChatRequests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"}, h.logger)
		return
	}

	ctx := r.Context()
	acc := h.accumulator.Accumulate(ctx, req.History, req.Message)

	promptText := prompt.Build(req.Message, acc.FullContext())
	reply, err := h.model.Generate(ctx, promptText, h.genCfg)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("upstream_error").Inc()
		h.logger.Error("model call failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process request",
			Details: "language model unavailable",
		}, h.logger)
		return
	}

	annotated := citations.Annotate(reply, acc.MergedCitations())
	htmlContent, err := h.renderer.ToHTML(annotated)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("upstream_error").Inc()
		h.logger.Error("failed to render reply", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process request",
			Details: "rendering failed",
		}, h.logger)
		return
	}

	metrics.ChatRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, chatResponse{
		Message:     reply,
		HTMLContent: htmlContent,
		ContextFromURLs: models.ContextBundle{
			Content:   acc.NewContext,
			Citations: acc.NewCitations,
		},
	}, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
