package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"goassetbridge/bridge"
)

type AttestationRequest struct {
	Address   string `json:"address"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Proof     string `json:"proof"`
	Signature string `json:"signature"`
}

// SubmitAttestation records a validator's vouch for a destination-side
// event. The signature over "attest:<recipient>:<amount>:<proof>"
// identifies the validator.
func SubmitAttestation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req AttestationRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	msg := fmt.Sprintf("attest:%s:%d:%s", req.Recipient, req.Amount, req.Proof)
	caller, err := recoverCaller(req.Address, msg, req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	count, err := Bridge.Attest(caller, req.Recipient, req.Amount, req.Proof)
	if err != nil {
		log.Printf("Error attesting key for %s/%d by %s: %s", req.Recipient, req.Amount, caller, err.Error())
		responseBridgeError(w, err, "")
		return
	}

	key := bridge.ValidationKey(req.Recipient, req.Amount, req.Proof)
	log.Printf("Attestation recorded for key %s by %s, %d signers", key, caller, count)

	responseJSON(w, &APIAttestationResponse{
		Status:      "ok",
		Key:         key,
		SignerCount: count,
	}, http.StatusOK)
}
