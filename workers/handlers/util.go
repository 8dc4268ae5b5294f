package handlers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"goassetbridge/bridge"
	"goassetbridge/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// responseBridgeError maps the control-plane error taxonomy to HTTP codes,
// keeping the error text so operators see the live state values
func responseBridgeError(w http.ResponseWriter, err error, field string) {
	code := http.StatusBadRequest

	switch {
	case errors.Is(err, bridge.ErrUnauthorized):
		code = http.StatusForbidden
	case errors.Is(err, bridge.ErrRateLimitExceeded):
		code = http.StatusTooManyRequests
	case errors.Is(err, bridge.ErrAlreadyProcessed),
		errors.Is(err, bridge.ErrDuplicateAttestation),
		errors.Is(err, bridge.ErrQuorumNotMet),
		errors.Is(err, bridge.ErrAlreadyDecided),
		errors.Is(err, bridge.ErrNotApproved),
		errors.Is(err, bridge.ErrAlreadyExecuted),
		errors.Is(err, bridge.ErrBridgePaused):
		code = http.StatusConflict
	case errors.Is(err, bridge.ErrUnknownProposal):
		code = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientBalance):
		code = http.StatusUnprocessableEntity
	}

	responseJSON(w, &APIResponse{
		Status:  "error",
		Field:   field,
		Message: err.Error(),
	}, code)
}

func prefixHash(data []byte) common.Hash {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)
	return crypto.Keccak256Hash([]byte(msg))
}

func publicKeyBytesToAddress(publicKey []byte) *common.Address {
	if len(publicKey) < 1 {
		return nil
	}

	hash := crypto.Keccak256Hash(publicKey[1:]).Bytes()
	address := hash[12:]

	addr := common.HexToAddress(hex.EncodeToString(address))
	return &addr
}

func validateMsgSignature(msg string, sig string) (*common.Address, error) {

	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		log.Printf("Invalid signature '%s' hex: %s", sig, err.Error())
		return nil, fmt.Errorf("invalid signature hex")
	}

	if len(sigBytes) != 65 {
		log.Printf("Wrong signature '%s' length: %d", sig, len(sigBytes))
		return nil, fmt.Errorf("wrong signature length")
	}

	if sigBytes[64] != 27 && sigBytes[64] != 28 && sigBytes[64] != 0 && sigBytes[64] != 1 {
		log.Printf("Wrong signature '%s' checksum: %v", sig, sigBytes[64])
		return nil, fmt.Errorf("wrong signature checksum")
	}

	if sigBytes[64] == 27 || sigBytes[64] == 28 {
		sigBytes[64] = sigBytes[64] - 27
	}

	msgHash := prefixHash([]byte(msg))
	sigPublicKey, err := crypto.Ecrecover(msgHash.Bytes(), sigBytes)
	if err != nil {
		log.Printf("Cannot decode public key: %s", err.Error())
		return nil, fmt.Errorf("cannot decode public key")
	}

	address := publicKeyBytesToAddress(sigPublicKey)

	return address, nil
}

// recoverCaller verifies that sig over msg was produced by claimed and
// returns the normalized caller address
func recoverCaller(claimed, msg, sig string) (string, error) {
	address, err := validateMsgSignature(msg, sig)
	if err != nil || address == nil {
		return "", fmt.Errorf("no signature or malformed signature provided")
	}
	if common.HexToAddress(claimed) != *address {
		log.Printf("Recovered sig address '%s', provided '%s'", address.Hex(), claimed)
		return "", fmt.Errorf("signature does not match the address provided")
	}
	return address.Hex(), nil
}
