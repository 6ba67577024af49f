package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

type createWatcherRequest struct {
	TypeID  string         `json:"typeId"`
	Config  map[string]any `json:"config"`
	Webhook string         `json:"webhook"`
}

type createWatcherResponse struct {
	Watcher  marketplace.Watcher `json:"watcher"`
	Payment  marketplace.Payment `json:"payment"`
	Receipt  fulfillment.Receipt `json:"receipt"`
	Replayed bool                `json:"replayed"`
}

func (h *handler) createWatcher(w http.ResponseWriter, r *http.Request) {
	var req createWatcherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	out, err := h.marketplace.CreateWatcher(r.Context(), marketplace.CreateWatcherInput{
		TypeID:     req.TypeID,
		CustomerID: r.Header.Get(customerIDHeader),
		Config:     req.Config,
		Webhook:    req.Webhook,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	// A replayed fulfillment returns the original resources, not new ones.
	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}

	respondJSON(w, status, createWatcherResponse{
		Watcher:  out.Watcher,
		Payment:  out.Payment,
		Receipt:  out.Receipt,
		Replayed: out.Replayed,
	})
}

func (h *handler) getWatcher(w http.ResponseWriter, r *http.Request) {
	watcher, err := h.marketplace.GetWatcher(r.Context(), chi.URLParam(r, "watcherID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, watcher)
}

func (h *handler) listWatchers(w http.ResponseWriter, r *http.Request) {
	filter := marketplace.WatcherFilter{
		CustomerID: r.URL.Query().Get("customerId"),
		TypeID:     r.URL.Query().Get("typeId"),
		Status:     marketplace.WatcherStatus(r.URL.Query().Get("status")),
	}

	watchers, err := h.marketplace.ListWatchers(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, watchers)
}

func (h *handler) pauseWatcher(w http.ResponseWriter, r *http.Request) {
	h.setWatcherStatus(w, r, marketplace.WatcherStatusPaused)
}

func (h *handler) resumeWatcher(w http.ResponseWriter, r *http.Request) {
	h.setWatcherStatus(w, r, marketplace.WatcherStatusActive)
}

func (h *handler) expireWatcher(w http.ResponseWriter, r *http.Request) {
	h.setWatcherStatus(w, r, marketplace.WatcherStatusExpired)
}

func (h *handler) setWatcherStatus(w http.ResponseWriter, r *http.Request, status marketplace.WatcherStatus) {
	if err := h.marketplace.SetWatcherStatus(r.Context(), chi.URLParam(r, "watcherID"), status); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
