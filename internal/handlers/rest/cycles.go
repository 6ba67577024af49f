package rest

import "net/http"

// runCycle executes one trigger cycle synchronously and returns its report.
// A cycle already running elsewhere yields 409.
func (h *handler) runCycle(w http.ResponseWriter, r *http.Request) {
	report, err := h.trigger.RunCycle(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
