package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"goassetbridge/redis"
)

type ProposalRequest struct {
	Address   string `json:"address"`
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Value     string `json:"value"`
	Rationale string `json:"rationale"`
	Signature string `json:"signature"`
}

type ProposalDecisionRequest struct {
	Address   string `json:"address"`
	ID        string `json:"id"`
	Signature string `json:"signature"`
}

// SubmitProposal submits a parameter or role change for ratification.
// Signed message: "propose:<kind>:<target>:<value>".
func SubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg := fmt.Sprintf("propose:%s:%s:%s", req.Kind, req.Target, req.Value)
	caller, err := recoverCaller(req.Address, msg, req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	id, err := Bridge.Propose(caller, req.Kind, req.Target, req.Value, req.Rationale)
	if err != nil {
		log.Printf("Error creating %s proposal by %s: %s", req.Kind, caller, err.Error())
		responseBridgeError(w, err, "")
		return
	}

	log.Printf("Created proposal %s (%s) by %s", id, req.Kind, caller)

	responseJSON(w, &APIProposalResponse{
		Status: "ok",
		ID:     id,
	}, http.StatusOK)
}

// ApproveProposal ratifies a pending proposal. Signed message: "approve:<id>".
func ApproveProposal(w http.ResponseWriter, r *http.Request) {
	decideProposal(w, r, "approve")
}

// RejectProposal declines a pending proposal. Signed message: "reject:<id>".
func RejectProposal(w http.ResponseWriter, r *http.Request) {
	decideProposal(w, r, "reject")
}

func decideProposal(w http.ResponseWriter, r *http.Request, verb string) {
	var req ProposalDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	caller, err := recoverCaller(req.Address, fmt.Sprintf("%s:%s", verb, req.ID), req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	if verb == "approve" {
		err = Bridge.Approve(caller, req.ID)
	} else {
		err = Bridge.Reject(caller, req.ID)
	}
	if err != nil {
		log.Printf("Error on %s of proposal %s by %s: %s", verb, req.ID, caller, err.Error())
		responseBridgeError(w, err, "id")
		return
	}

	log.Printf("Proposal %s %sd by %s", req.ID, verb, caller)

	responseJSON(w, &APIProposalResponse{
		Status: "ok",
		ID:     req.ID,
	}, http.StatusOK)
}

// ExecuteProposal applies an approved proposal to the live parameters.
// Signed message: "execute:<id>".
func ExecuteProposal(w http.ResponseWriter, r *http.Request) {
	var req ProposalDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	caller, err := recoverCaller(req.Address, fmt.Sprintf("execute:%s", req.ID), req.Signature)
	if err != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "signature",
			Message: err.Error(),
		}, http.StatusBadRequest)
		return
	}

	if err := Bridge.Execute(caller, req.ID); err != nil {
		log.Printf("Error executing proposal %s by %s: %s", req.ID, caller, err.Error())
		responseBridgeError(w, err, "id")
		return
	}

	log.Printf("Proposal %s executed by %s", req.ID, caller)

	responseJSON(w, &APIProposalResponse{
		Status: "ok",
		ID:     req.ID,
	}, http.StatusOK)
}

// GetProposals lists proposals in one lifecycle status (default "proposed")
func GetProposals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "proposed"
	}

	proposals, err := redis.FindAllProposalsByStatus(status)
	if err != nil {
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	responseJSON(w, proposals, http.StatusOK)
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return false
	}

	return true
}
