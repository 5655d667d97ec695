package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ingestRequest struct {
	Text     string   `json:"text"`
	DocID    string   `json:"doc_id,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Create ingests a document into the lexical and vector indexes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "text is required", http.StatusBadRequest)
		return
	}

	doc, err := h.service.InsertIndex(r.Context(), req.Text, req.DocID, req.Metadata)
	if err != nil {
		slog.ErrorContext(r.Context(), "ingestion failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": doc}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// CreateGraph ingests a document into the knowledge graph.
func (h *Handler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "text is required", http.StatusBadRequest)
		return
	}

	if err := h.service.HandleGraphDocument(r.Context(), req.Text, req.Metadata); err != nil {
		slog.ErrorContext(r.Context(), "graph ingestion failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list documents failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": records}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "get document failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": rec}); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
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
