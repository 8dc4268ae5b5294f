package bridge

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"goassetbridge/ledger"
	"goassetbridge/types"

	"github.com/ethereum/go-ethereum/crypto"
)

// Bridge is the control plane: lock accounting, quorum-gated release with
// replay protection, the daily volume circuit breaker and governance over
// the live parameters. All public operations serialize on one mutex; no
// operation yields while holding it, so every state transition is atomic
// with respect to every other.
type Bridge struct {
	mu sync.Mutex

	auth    AuthPolicy
	ledger  ledger.TokenLedger
	store   Store
	custody string

	nonce         uint64
	totalLocked   uint64
	totalReleased uint64
	paused        bool
	quorum        int
	limiter       rateWindow

	validations map[string]*types.ValidationRecord // validation key hex -> record
	consumed    map[string]bool                    // proof ledger
	proposals   map[string]*types.BridgeProposal

	now func() time.Time
}

func New(auth AuthPolicy, lgr ledger.TokenLedger, store Store, custody string, dailyLimit uint64, quorum int) *Bridge {
	b := &Bridge{
		auth:        auth,
		ledger:      lgr,
		store:       store,
		custody:     strings.ToLower(custody),
		quorum:      quorum,
		validations: map[string]*types.ValidationRecord{},
		consumed:    map[string]bool{},
		proposals:   map[string]*types.BridgeProposal{},
		now:         time.Now,
	}
	b.limiter = rateWindow{ceiling: dailyLimit, windowStart: dayStart(b.now())}
	return b
}

// ValidationKey derives the attestation key for a (recipient, amount, proof)
// tuple: keccak256(recipient || amount_be8 || proof), hex encoded.
func ValidationKey(recipient string, amount uint64, proof string) string {
	var amt [8]byte
	binary.BigEndian.PutUint64(amt[:], amount)
	return crypto.Keccak256Hash(
		[]byte(strings.ToLower(recipient)),
		amt[:],
		[]byte(normalizeProof(proof)),
	).Hex()
}

func normalizeProof(proof string) string {
	return strings.ToLower(strings.TrimSpace(proof))
}

// Lock takes custody of amount from caller on the origin side and records
// the intent to release it at destRef on the destination side. All-or-nothing:
// a failed transfer rolls back the rate reservation and allocates no nonce.
func (b *Bridge) Lock(caller string, amount uint64, destRef string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return 0, ErrBridgePaused
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if destRef == "" {
		return 0, fmt.Errorf("%w: empty reference", ErrInvalidDest)
	}

	if err := b.limiter.checkAndReserve(b.now(), amount); err != nil {
		return 0, err
	}

	if err := b.ledger.Transfer(caller, b.custody, amount); err != nil {
		b.limiter.unreserve(amount)
		return 0, err
	}

	nonce := b.nonce
	b.nonce++
	b.totalLocked += amount

	tx := &types.BridgeTransaction{
		Nonce:        nonce,
		Counterparty: strings.ToLower(caller),
		Amount:       amount,
		Direction:    types.DirectionLock,
		Timestamp:    b.now().Unix(),
		Completed:    true,
		Reference:    destRef,
	}
	b.persistTransaction(tx)
	b.emit(&types.AuditEvent{
		Type:      types.EventLockRecorded,
		Ts:        tx.Timestamp,
		Caller:    tx.Counterparty,
		Amount:    amount,
		Reference: destRef,
		Nonce:     nonce,
	})
	b.persistSnapshot()

	return nonce, nil
}

// Attest records that caller vouches for the destination-side event behind
// proof. Bookkeeping only, no funds move.
func (b *Bridge) Attest(caller, recipient string, amount uint64, proof string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.auth.Can(caller, CapValidator) {
		return 0, fmt.Errorf("%w: %s lacks %s capability", ErrUnauthorized, caller, CapValidator)
	}
	if b.paused {
		return 0, ErrBridgePaused
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if recipient == "" {
		return 0, fmt.Errorf("%w: empty recipient", ErrInvalidRecipient)
	}
	proof = normalizeProof(proof)
	if proof == "" {
		return 0, fmt.Errorf("%w: empty proof", ErrInvalidProof)
	}
	if b.consumed[proof] {
		return 0, fmt.Errorf("%w: proof %s", ErrAlreadyProcessed, proof)
	}

	key := ValidationKey(recipient, amount, proof)
	rec := b.validations[key]
	if rec == nil {
		rec = &types.ValidationRecord{
			Key:       key,
			Recipient: strings.ToLower(recipient),
			Amount:    amount,
			Proof:     proof,
		}
		b.validations[key] = rec
	}

	signer := strings.ToLower(caller)
	for _, s := range rec.Signers {
		if s == signer {
			return len(rec.Signers), fmt.Errorf("%w: %s already attested key %s", ErrDuplicateAttestation, signer, key)
		}
	}
	rec.Signers = append(rec.Signers, signer)

	b.persistValidation(rec)
	b.emit(&types.AuditEvent{
		Type:        types.EventAttestationRecorded,
		Ts:          b.now().Unix(),
		Caller:      signer,
		Recipient:   rec.Recipient,
		Amount:      amount,
		Key:         key,
		SignerCount: len(rec.Signers),
	})

	return len(rec.Signers), nil
}

// Release credits recipient on this side once the attestation quorum for
// (recipient, amount, proof) is met, consuming the proof exactly once.
// Internal state is mutated before the external transfer; a failed transfer
// rolls the whole mutation back so consumption and credit stay one atomic
// unit.
func (b *Bridge) Release(caller, recipient string, amount uint64, proof string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.auth.Can(caller, CapRelayer) {
		return 0, fmt.Errorf("%w: %s lacks %s capability", ErrUnauthorized, caller, CapRelayer)
	}
	if b.paused {
		return 0, ErrBridgePaused
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if recipient == "" {
		return 0, fmt.Errorf("%w: empty recipient", ErrInvalidRecipient)
	}
	proof = normalizeProof(proof)
	if proof == "" {
		return 0, fmt.Errorf("%w: empty proof", ErrInvalidProof)
	}
	if b.consumed[proof] {
		return 0, fmt.Errorf("%w: proof %s", ErrAlreadyProcessed, proof)
	}

	key := ValidationKey(recipient, amount, proof)
	signers := 0
	if rec := b.validations[key]; rec != nil {
		signers = len(rec.Signers)
	}
	if signers < b.quorum {
		return 0, fmt.Errorf("%w: have %d of %d attestations for key %s", ErrQuorumNotMet, signers, b.quorum, key)
	}

	if err := b.limiter.checkAndReserve(b.now(), amount); err != nil {
		return 0, err
	}

	// effects before interactions: consume the proof and commit the record
	// ahead of the external transfer
	b.consumed[proof] = true
	nonce := b.nonce
	b.nonce++
	b.totalReleased += amount

	if err := b.ledger.Transfer(b.custody, recipient, amount); err != nil {
		delete(b.consumed, proof)
		b.nonce = nonce
		b.totalReleased -= amount
		b.limiter.unreserve(amount)
		return 0, err
	}

	tx := &types.BridgeTransaction{
		Nonce:        nonce,
		Counterparty: strings.ToLower(recipient),
		Amount:       amount,
		Direction:    types.DirectionRelease,
		Timestamp:    b.now().Unix(),
		Completed:    true,
		Reference:    proof,
	}
	b.persistProof(proof)
	b.persistTransaction(tx)
	b.emit(&types.AuditEvent{
		Type:      types.EventReleaseRecorded,
		Ts:        tx.Timestamp,
		Recipient: tx.Counterparty,
		Amount:    amount,
		Reference: proof,
		Nonce:     nonce,
	})
	b.persistSnapshot()

	return nonce, nil
}

// Stats is the read-only operator view; it never mutates the window
func (b *Bridge) Stats() (*types.BridgeStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance, err := b.ledger.Balance(b.custody)
	if err != nil {
		return nil, fmt.Errorf("error reading custody balance: %w", err)
	}

	return &types.BridgeStats{
		TotalLocked:     b.totalLocked,
		TotalReleased:   b.totalReleased,
		DailyLimit:      b.limiter.ceiling,
		DailyHeadroom:   b.limiter.headroom(b.now()),
		CustodyBalance:  balance,
		NextNonce:       b.nonce,
		QuorumThreshold: b.quorum,
		Paused:          b.paused,
	}, nil
}

// ValidationStatus reports quorum progress for one tuple
func (b *Bridge) ValidationStatus(recipient string, amount uint64, proof string) *types.ValidationStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	proof = normalizeProof(proof)
	key := ValidationKey(recipient, amount, proof)
	signers := 0
	if rec := b.validations[key]; rec != nil {
		signers = len(rec.Signers)
	}
	return &types.ValidationStatus{
		Key:        key,
		Signers:    signers,
		Required:   b.quorum,
		Consumable: signers >= b.quorum && !b.consumed[proof],
	}
}

// PersistSnapshot flushes the counters to the store, used by the snapshot
// worker
func (b *Bridge) PersistSnapshot() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.store == nil {
		return nil
	}
	return b.store.SaveSnapshot(b.snapshotLocked())
}

func (b *Bridge) snapshotLocked() *types.BridgeSnapshot {
	roles := map[string][]string{}
	for _, capability := range []string{CapValidator, CapRelayer, CapProposer, CapApprover, CapAdmin} {
		roles[capability] = b.auth.Members(capability)
	}
	return &types.BridgeSnapshot{
		Nonce:         b.nonce,
		TotalLocked:   b.totalLocked,
		TotalReleased: b.totalReleased,
		WindowStart:   b.limiter.windowStart.Unix(),
		WindowVolume:  b.limiter.volume,
		DailyLimit:    b.limiter.ceiling,
		Quorum:        b.quorum,
		Paused:        b.paused,
		Roles:         roles,
	}
}

// Restore replays persisted state into memory, called once at startup
// before the bridge serves traffic.
func (b *Bridge) Restore(state *types.RestoredState) error {
	if state == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if s := state.Snapshot; s != nil {
		b.nonce = s.Nonce
		b.totalLocked = s.TotalLocked
		b.totalReleased = s.TotalReleased
		b.limiter.ceiling = s.DailyLimit
		b.limiter.volume = s.WindowVolume
		b.limiter.windowStart = time.Unix(s.WindowStart, 0).UTC()
		b.quorum = s.Quorum
		b.paused = s.Paused
		if s.Roles != nil {
			if err := b.reconcileRoles(s.Roles); err != nil {
				return err
			}
		}
	}
	for _, proof := range state.Proofs {
		b.consumed[normalizeProof(proof)] = true
	}
	for _, rec := range state.Validations {
		b.validations[rec.Key] = rec
	}
	for _, p := range state.Proposals {
		b.proposals[p.ID] = p
	}
	return nil
}

// reconcileRoles makes the policy's membership exactly the snapshot's: role
// grants and revokes ratified through governance override the config seed,
// so a revoked member must not regain the capability on restart.
func (b *Bridge) reconcileRoles(roles map[string][]string) error {
	for _, capability := range []string{CapValidator, CapRelayer, CapProposer, CapApprover, CapAdmin} {
		desired := map[string]bool{}
		for _, addr := range roles[capability] {
			desired[strings.ToLower(addr)] = true
		}
		for _, addr := range b.auth.Members(capability) {
			if !desired[addr] {
				if err := b.auth.Revoke(addr, capability); err != nil {
					return fmt.Errorf("error reconciling %s revoke for %s: %w", capability, addr, err)
				}
			}
		}
		for addr := range desired {
			if err := b.auth.Grant(addr, capability); err != nil {
				return fmt.Errorf("error restoring %s grant for %s: %w", capability, addr, err)
			}
		}
	}
	return nil
}
