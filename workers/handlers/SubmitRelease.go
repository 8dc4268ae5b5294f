package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

type ReleaseRequest struct {
	Address   string `json:"address"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Proof     string `json:"proof"`
	Signature string `json:"signature"`
}

// SubmitRelease credits the recipient once the attestation quorum is met,
// consuming the proof. The signature over
// "release:<recipient>:<amount>:<proof>" identifies the relayer.
func SubmitRelease(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req ReleaseRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	msg := fmt.Sprintf("release:%s:%d:%s", req.Recipient, req.Amount, req.Proof)
	caller, err := recoverCaller(req.Address, msg, req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	nonce, err := Bridge.Release(caller, req.Recipient, req.Amount, req.Proof)
	if err != nil {
		log.Printf("Error releasing %d to %s by %s: %s", req.Amount, req.Recipient, caller, err.Error())
		responseBridgeError(w, err, "")
		return
	}

	log.Printf("Released %d to %s, proof %s, nonce %d", req.Amount, req.Recipient, req.Proof, nonce)

	responseJSON(w, &APITransactionResponse{
		Status: "ok",
		Nonce:  nonce,
	}, http.StatusOK)
}
