package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"knowledgehub/internal/retrieval"
)

type Handler struct {
	service *retrieval.Service
}

func NewHandler(service *retrieval.Service) *Handler {
	return &Handler{service: service}
}

// FullText serves exact keyword search over the lexical index.
func (h *Handler) FullText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	results, err := h.service.FullTextSearch(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "full text search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeResults(r.Context(), w, results)
}

// Semantic serves vector search in the mode the service was built with.
func (h *Handler) Semantic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	results, err := h.service.SemanticSearch(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "semantic search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeResults(r.Context(), w, results)
}

// Graph serves knowledge-graph traversal with a synthesized answer. An
// unmatched query returns an empty answer with status 200.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.SearchGraph(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "graph search failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(r.Context(), w, map[string]interface{}{"data": map[string]string{"answer": answer}})
}

type askRequest struct {
	Query string `json:"query"`
}

// Ask forwards the question straight to the language model, bypassing
// retrieval.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "query is required", http.StatusBadRequest)
		return
	}

	answer, err := h.service.AskOverDoc(r.Context(), req.Query)
	if err != nil {
		slog.ErrorContext(r.Context(), "ask failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(r.Context(), w, map[string]interface{}{"data": map[string]string{"answer": answer}})
}

func (h *Handler) writeResults(ctx context.Context, w http.ResponseWriter, results []retrieval.SearchResult) {
	if results == nil {
		results = []retrieval.SearchResult{}
	}
	h.writeJSON(ctx, w, map[string]interface{}{"data": results})
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]interface{}{"error": map[string]string{"code": code, "message": message}}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
