package handlers

import (
	"net/http"
	"strconv"

	"goassetbridge/redis"
	"goassetbridge/types"
)

// GetTransactions lists recorded bridge transactions, optionally filtered
// by direction (?direction=LOCK|RELEASE)
func GetTransactions(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")

	directions := []string{types.DirectionLock, types.DirectionRelease}
	if direction != "" {
		directions = []string{direction}
	}

	txs := make([]*types.BridgeTransaction, 0)
	for _, d := range directions {
		found, err := redis.FindAllTransactions(d)
		if err != nil {
			responseJSON(w, nil, http.StatusInternalServerError)
			return
		}
		txs = append(txs, found...)
	}

	responseJSON(w, txs, http.StatusOK)
}

// GetAuditEvents returns the tail of the append-only audit stream
// (?limit=N, default 100)
func GetAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			responseJSON(w, &APIResponse{
				Status:  "error",
				Field:   "limit",
				Message: "limit must be a non-negative integer",
			}, http.StatusBadRequest)
			return
		}
		limit = v
	}

	events, err := redis.GetAuditEvents(limit)
	if err != nil {
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	responseJSON(w, events, http.StatusOK)
}
