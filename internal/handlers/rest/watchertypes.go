package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

type createWatcherTypeRequest struct {
	OperatorID  string          `json:"operatorId"`
	ExecutorID  string          `json:"executorId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

func (h *handler) createWatcherType(w http.ResponseWriter, r *http.Request) {
	var req createWatcherTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	wt, err := h.marketplace.CreateWatcherType(r.Context(), marketplace.CreateWatcherTypeInput{
		OperatorID:  req.OperatorID,
		ExecutorID:  req.ExecutorID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, wt)
}

func (h *handler) getWatcherType(w http.ResponseWriter, r *http.Request) {
	wt, err := h.marketplace.GetWatcherType(r.Context(), chi.URLParam(r, "watcherTypeID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, wt)
}

func (h *handler) listWatcherTypes(w http.ResponseWriter, r *http.Request) {
	filter := marketplace.WatcherTypeFilter{
		OperatorID: r.URL.Query().Get("operatorId"),
		Category:   r.URL.Query().Get("category"),
		Status:     marketplace.WatcherTypeStatus(r.URL.Query().Get("status")),
	}

	watcherTypes, err := h.marketplace.ListWatcherTypes(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, watcherTypes)
}

func (h *handler) deprecateWatcherType(w http.ResponseWriter, r *http.Request) {
	if err := h.marketplace.DeprecateWatcherType(r.Context(), chi.URLParam(r, "watcherTypeID")); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listEvaluators(w http.ResponseWriter, r *http.Request) {
	ids := h.evaluators.List()

	metadata := make([]any, 0, len(ids))
	for _, id := range ids {
		if ev, ok := h.evaluators.Resolve(id); ok {
			metadata = append(metadata, ev.Describe())
		}
	}

	respondJSON(w, http.StatusOK, metadata)
}
