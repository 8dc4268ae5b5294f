package handlers

import (
	"net/http"
	"strconv"
)

// GetStats returns totals, remaining daily headroom and the live custody
// balance
func GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := Bridge.Stats()
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	responseJSON(w, stats, http.StatusOK)
}

// GetValidationStatus reports quorum progress for one
// (recipient, amount, proof) tuple
func GetValidationStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recipient := q.Get("recipient")
	proof := q.Get("proof")

	amount, err := strconv.ParseUint(q.Get("amount"), 10, 64)
	if err != nil || recipient == "" || proof == "" {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "recipient, amount and proof query parameters are required",
		}, http.StatusBadRequest)
		return
	}

	responseJSON(w, Bridge.ValidationStatus(recipient, amount, proof), http.StatusOK)
}
