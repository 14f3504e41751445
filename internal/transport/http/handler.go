package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"newsdigest/internal/domain"
)

const defaultRunsLimit = 20

type digestPreviewer interface {
	GetDigest(ctx context.Context, categories []string) *domain.Digest
	RenderDigest(ctx context.Context, categories []string) (string, string, error)
}

type runLister interface {
	RecentRuns(ctx context.Context, n int) ([]domain.RunResult, error)
}

type Handler struct {
	log     *slog.Logger
	preview digestPreviewer
	runs    runLister
}

// NewHandler создает обработчик API. runs может быть nil, если журнал запусков не ведется.
func NewHandler(log *slog.Logger, preview digestPreviewer, runs runLister) *Handler {
	return &Handler{
		log:     log,
		preview: preview,
		runs:    runs,
	}
}

// getDigest - хендлер для эндпоинта GET /api/digest[?category=a,b]
func (h *Handler) getDigest(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getDigest"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	digest := h.preview.GetDigest(r.Context(), parseCategories(r))
	log.Info("Digest built", slog.Int("items", digest.ItemCount()))
	respondWithJSON(w, http.StatusOK, digest)
}

// previewDigest - хендлер для эндпоинта GET /preview: письмо в том виде, в каком оно уйдет.
func (h *Handler) previewDigest(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/previewDigest"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	subject, html, err := h.preview.RenderDigest(r.Context(), parseCategories(r))
	if err != nil {
		log.Error("Failed to render preview", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Digest-Subject", subject)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// getRuns - хендлер для эндпоинта GET /api/runs?limit=n
func (h *Handler) getRuns(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getRuns"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if h.runs == nil {
		respondWithError(w, http.StatusNotFound, "Run journal is disabled")
		return
	}
	limitStr := r.URL.Query().Get("limit")
	limit := defaultRunsLimit
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}
	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get runs", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseCategories читает ?category=a,b (параметр можно повторять).
func parseCategories(r *http.Request) []string {
	var categories []string
	for _, raw := range r.URL.Query()["category"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}
	return categories
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
