package types

// Transaction direction, origin-side custody vs destination-side credit
const (
	DirectionLock    = "LOCK"
	DirectionRelease = "RELEASE"
)

// Audit event types, the observable history of the bridge
const (
	EventLockRecorded        = "LockRecorded"
	EventAttestationRecorded = "AttestationRecorded"
	EventReleaseRecorded     = "ReleaseRecorded"
	EventProposalCreated     = "ProposalCreated"
	EventProposalApproved    = "ProposalApproved"
	EventProposalRejected    = "ProposalRejected"
	EventProposalExecuted    = "ProposalExecuted"
)

// Governance proposal kinds
const (
	ProposalSetDailyLimit = "set_daily_limit"
	ProposalSetQuorum     = "set_quorum"
	ProposalGrantRole     = "grant_role"
	ProposalRevokeRole    = "revoke_role"
	ProposalSetPaused     = "set_paused"
)

// BridgeTransaction is a single recorded custody movement.
// Immutable once written, amounts are in base units.
type BridgeTransaction struct {
	Nonce        uint64
	Counterparty string // locker address for LOCK, recipient for RELEASE
	Amount       uint64
	Direction    string
	Timestamp    int64
	Completed    bool
	Reference    string // destination address for LOCK, consumed proof id for RELEASE
}

// ValidationRecord accumulates attestations for one (recipient, amount, proof)
// tuple. Signer set grows only, each signer appears at most once.
type ValidationRecord struct {
	Key       string // hex of keccak256(recipient || amount || proof)
	Recipient string
	Amount    uint64
	Proof     string
	Signers   []string // lowercased, insertion order
}

// BridgeProposal is a governance-gated parameter or role change
type BridgeProposal struct {
	ID        string
	Proposer  string
	Kind      string
	Target    string // address for role kinds, unused otherwise
	Value     string // capability name for role kinds, encoded value otherwise
	Rationale string
	Approved  bool
	Rejected  bool
	Executed  bool
	TsCreated int64
	TsDecided int64
}

// Status maps proposal flags to the redis status set it lives in
func (p *BridgeProposal) Status() string {
	switch {
	case p.Executed:
		return "executed"
	case p.Rejected:
		return "rejected"
	case p.Approved:
		return "approved"
	default:
		return "proposed"
	}
}

// AuditEvent is one entry of the append-only audit stream
type AuditEvent struct {
	Type        string `json:"type"`
	Ts          int64  `json:"ts"`
	Caller      string `json:"caller,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Key         string `json:"key,omitempty"`
	SignerCount int    `json:"signerCount,omitempty"`
	ProposalID  string `json:"proposalId,omitempty"`
	Nonce       uint64 `json:"nonce"`
}

// BridgeStats is the read-only operator view of the bridge counters
type BridgeStats struct {
	TotalLocked     uint64 `json:"totalLocked"`
	TotalReleased   uint64 `json:"totalReleased"`
	DailyLimit      uint64 `json:"dailyLimit"`
	DailyHeadroom   uint64 `json:"dailyHeadroom"`
	CustodyBalance  uint64 `json:"custodyBalance"`
	NextNonce       uint64 `json:"nextNonce"`
	QuorumThreshold int    `json:"quorumThreshold"`
	Paused          bool   `json:"paused"`
}

// ValidationStatus reports quorum progress for one validation key
type ValidationStatus struct {
	Key        string `json:"key"`
	Signers    int    `json:"signers"`
	Required   int    `json:"required"`
	Consumable bool   `json:"consumable"`
}

// BridgeSnapshot is the durable counter/parameter state written to redis
// so the bridge restarts where it left off. Window start is the unix time
// of the UTC day the rate window was last reset to.
type BridgeSnapshot struct {
	Nonce         uint64
	TotalLocked   uint64
	TotalReleased uint64
	WindowStart   int64
	WindowVolume  uint64
	DailyLimit    uint64
	Quorum        int
	Paused        bool
	Roles         map[string][]string // capability -> member addresses
}

// RestoredState is everything the store hands back at startup
type RestoredState struct {
	Snapshot    *BridgeSnapshot
	Proofs      []string
	Validations []*ValidationRecord
	Proposals   []*BridgeProposal
}
