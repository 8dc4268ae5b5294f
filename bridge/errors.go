package bridge

import "errors"

// Sentinel errors, call sites wrap them with the live state values
// and callers test with errors.Is.
var (
	// validation errors, rejected before any state mutation
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrInvalidDest      = errors.New("invalid destination reference")
	ErrInvalidProof     = errors.New("invalid proof")
	ErrInvalidProposal  = errors.New("invalid proposal")
	ErrUnknownProposal  = errors.New("unknown proposal")

	// authorization
	ErrUnauthorized = errors.New("caller not authorized")

	// state conflicts, the operation is well-formed but the state refuses it
	ErrAlreadyProcessed     = errors.New("proof already processed")
	ErrDuplicateAttestation = errors.New("duplicate attestation")
	ErrQuorumNotMet         = errors.New("quorum not met")
	ErrAlreadyDecided       = errors.New("proposal already decided")
	ErrNotApproved          = errors.New("proposal not approved")
	ErrAlreadyExecuted      = errors.New("proposal already executed")
	ErrBridgePaused         = errors.New("bridge is paused")

	// limit errors, retry after the window resets
	ErrRateLimitExceeded = errors.New("daily rate limit exceeded")
)
