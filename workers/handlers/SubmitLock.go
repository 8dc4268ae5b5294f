package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

type LockRequest struct {
	Address            string `json:"address"`
	Amount             uint64 `json:"amount"`
	DestinationAddress string `json:"destinationAddress"`
	Signature          string `json:"signature"`
}

// SubmitLock takes custody of the caller's funds on this side and records
// the transfer intent. The signature over "lock:<amount>:<destination>"
// identifies the locker.
func SubmitLock(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req LockRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	if err := ethav.Validate(common.HexToAddress(req.DestinationAddress).Hex()); err != nil {
		log.Printf("Error validating destination address '%s': %s\n", req.DestinationAddress, err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "destinationAddress",
			Message: "No destination address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	msg := fmt.Sprintf("lock:%d:%s", req.Amount, req.DestinationAddress)
	caller, err := recoverCaller(req.Address, msg, req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	nonce, err := Bridge.Lock(caller, req.Amount, req.DestinationAddress)
	if err != nil {
		log.Printf("Error locking %d from %s: %s", req.Amount, caller, err.Error())
		responseBridgeError(w, err, "")
		return
	}

	log.Printf("Locked %d from %s for %s, nonce %d", req.Amount, caller, req.DestinationAddress, nonce)

	responseJSON(w, &APITransactionResponse{
		Status: "ok",
		Nonce:  nonce,
	}, http.StatusOK)
}
