package handlers

import "goassetbridge/bridge"

// Bridge is the control-plane instance the handlers act on, set at startup
var Bridge *bridge.Bridge

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type APITransactionResponse struct {
	Status string `json:"status"`
	Nonce  uint64 `json:"nonce"`
}

type APIAttestationResponse struct {
	Status      string `json:"status"`
	Key         string `json:"key"`
	SignerCount int    `json:"signerCount"`
}

type APIProposalResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type APIStateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
