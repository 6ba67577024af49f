package rest

import (
	"encoding/json"
	"net/http"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

type registerOperatorRequest struct {
	Name          string `json:"name"`
	PayoutAddress string `json:"payoutAddress"`
}

func (h *handler) registerOperator(w http.ResponseWriter, r *http.Request) {
	var req registerOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	op, err := h.marketplace.RegisterOperator(r.Context(), marketplace.RegisterOperatorInput{
		Name:          req.Name,
		PayoutAddress: req.PayoutAddress,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, op)
}

func (h *handler) listOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.marketplace.ListOperators(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, operators)
}
