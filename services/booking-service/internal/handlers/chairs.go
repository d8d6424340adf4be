package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
)

type ChairHandler struct {
	chairs *storage.ChairRepository
}

func NewChairHandler(chairs *storage.ChairRepository) *ChairHandler {
	return &ChairHandler{chairs: chairs}
}

type chairItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Chairs serves GET (list) and POST (create) on /api/v1/chairs.
func (h *ChairHandler) Chairs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChairHandler) list(w http.ResponseWriter, r *http.Request) {
	chairs, err := h.chairs.List(r.Context(), 200)
	if err != nil {
		http.Error(w, "failed to list chairs", http.StatusInternalServerError)
		return
	}
	items := make([]chairItem, 0, len(chairs))
	for _, c := range chairs {
		items = append(items, chairItem{
			ID:        c.ID,
			Name:      c.Name,
			Location:  c.Location,
			Status:    string(c.Status),
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

func (h *ChairHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	status := model.ChairActive
	if req.Status != "" {
		parsed, err := model.ParseChairStatus(req.Status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = parsed
	}

	id, err := h.chairs.Create(r.Context(), req.Name, req.Location, status)
	if err != nil {
		http.Error(w, "failed to create chair", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *ChairHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		http.Error(w, "id and name are required", http.StatusBadRequest)
		return
	}
	status, err := model.ParseChairStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.chairs.Update(r.Context(), req.ID, req.Name, strings.TrimSpace(req.Location), status); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "chair not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update chair", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete retires a chair rather than dropping the row; appointments keep
// their chair reference for history.
func (h *ChairHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.chairs.SetStatus(r.Context(), id, model.ChairInactive); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "chair not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete chair", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
