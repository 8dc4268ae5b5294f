package handlers

import (
	"net/http"
)

// liveness probe for the relay service and monitoring
func State(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, &APIStateResponse{
		Status: "ok",
	}, http.StatusOK)
}
