package bridge

import (
	"testing"
	"time"

	"goassetbridge/ledger"
	"goassetbridge/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice      = "alice"
	bob        = "bob"
	custody    = "bridge-custody"
	validator1 = "validator-1"
	validator2 = "validator-2"
	validator3 = "validator-3"
	relayer1   = "relayer-1"
	proposer1  = "proposer-1"
	approver1  = "approver-1"
	admin1     = "admin-1"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestBridge(t *testing.T, dailyLimit uint64, quorum int) (*Bridge, *ledger.Book, *testClock) {
	t.Helper()

	roles := NewRoleBook()
	for _, v := range []string{validator1, validator2, validator3} {
		require.NoError(t, roles.Grant(v, CapValidator))
	}
	require.NoError(t, roles.Grant(relayer1, CapRelayer))
	require.NoError(t, roles.Grant(proposer1, CapProposer))
	require.NoError(t, roles.Grant(approver1, CapApprover))
	require.NoError(t, roles.Grant(admin1, CapAdmin))

	book := ledger.NewBook()
	book.Credit(alice, 100_000_000)

	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	b := New(roles, book, nil, custody, dailyLimit, quorum)
	b.now = clock.now
	b.limiter.windowStart = dayStart(clock.t)

	return b, book, clock
}

// attestQuorum gets two distinct validators to vouch for the tuple
func attestQuorum(t *testing.T, b *Bridge, recipient string, amount uint64, proof string) {
	t.Helper()
	_, err := b.Attest(validator1, recipient, amount, proof)
	require.NoError(t, err)
	_, err = b.Attest(validator2, recipient, amount, proof)
	require.NoError(t, err)
}

func TestLockRecordsAndDebits(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	nonce, err := b.Lock(alice, 1_000_000, "0xdest")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	balance, err := book.Balance(custody)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balance)

	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), stats.TotalLocked)
	assert.Equal(t, uint64(0), stats.TotalReleased)
	assert.Equal(t, uint64(1), stats.NextNonce)
	assert.Equal(t, uint64(9_000_000), stats.DailyHeadroom)
}

func TestLockValidation(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	before, err := b.Stats()
	require.NoError(t, err)

	_, err = b.Lock(alice, 0, "0xdest")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = b.Lock(alice, 1_000, "")
	require.ErrorIs(t, err, ErrInvalidDest)

	// rejected operations leave the state byte-identical
	after, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	balance, err := book.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), balance)
}

func TestLockInsufficientBalance(t *testing.T) {
	b, _, _ := newTestBridge(t, 1_000_000_000, 2)

	_, err := b.Lock(bob, 500, "0xdest")
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// the rate reservation must be rolled back with the failed transfer
	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), stats.DailyHeadroom)
	assert.Equal(t, uint64(0), stats.NextNonce)
}

func TestConservation(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	check := func() {
		t.Helper()
		stats, err := b.Stats()
		require.NoError(t, err)
		balance, err := book.Balance(custody)
		require.NoError(t, err)
		assert.Equal(t, stats.TotalLocked-stats.TotalReleased, balance)
	}

	_, err := b.Lock(alice, 3_000_000, "0xdest")
	require.NoError(t, err)
	check()

	_, err = b.Lock(alice, 2_000_000, "0xdest")
	require.NoError(t, err)
	check()

	attestQuorum(t, b, bob, 1_500_000, "proof-1")
	check()

	_, err = b.Release(relayer1, bob, 1_500_000, "proof-1")
	require.NoError(t, err)
	check()

	attestQuorum(t, b, bob, 500_000, "proof-2")
	_, err = b.Release(relayer1, bob, 500_000, "proof-2")
	require.NoError(t, err)
	check()
}

func TestReplaySafety(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	_, err := b.Lock(alice, 5_000_000, "0xdest")
	require.NoError(t, err)

	attestQuorum(t, b, bob, 1_000_000, "proof-1")
	_, err = b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.NoError(t, err)

	// a consumed proof can never release again
	_, err = b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// nor accept further attestations
	_, err = b.Attest(validator3, bob, 1_000_000, "proof-1")
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestDuplicateAttestation(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	count, err := b.Attest(validator1, bob, 1_000, "proof-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = b.Attest(validator1, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrDuplicateAttestation)
	assert.Equal(t, 1, count)

	// same validator on a different tuple is a fresh key
	count, err = b.Attest(validator1, bob, 2_000, "proof-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQuorumEnforcement(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)
	book.Credit(custody, 1_000_000)

	_, err := b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.ErrorIs(t, err, ErrQuorumNotMet)

	_, err = b.Attest(validator1, bob, 1_000_000, "proof-1")
	require.NoError(t, err)

	_, err = b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.ErrorIs(t, err, ErrQuorumNotMet)

	status := b.ValidationStatus(bob, 1_000_000, "proof-1")
	assert.Equal(t, 1, status.Signers)
	assert.Equal(t, 2, status.Required)
	assert.False(t, status.Consumable)

	_, err = b.Attest(validator2, bob, 1_000_000, "proof-1")
	require.NoError(t, err)

	status = b.ValidationStatus(bob, 1_000_000, "proof-1")
	assert.True(t, status.Consumable)

	_, err = b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.NoError(t, err)

	status = b.ValidationStatus(bob, 1_000_000, "proof-1")
	assert.False(t, status.Consumable)
}

func TestCapabilityChecks(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	_, err := b.Attest(alice, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	attestQuorum(t, b, bob, 1_000, "proof-1")

	_, err = b.Release(alice, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestNonceUniqueness(t *testing.T) {
	b, _, _ := newTestBridge(t, 100_000_000, 2)

	const n = 10
	seen := map[uint64]bool{}
	for i := 0; i < n; i++ {
		nonce, err := b.Lock(alice, 1_000, "0xdest")
		require.NoError(t, err)
		require.False(t, seen[nonce], "nonce %d repeated", nonce)
		seen[nonce] = true
	}
	for i := uint64(0); i < n; i++ {
		assert.True(t, seen[i], "nonce %d missing", i)
	}
}

func TestReleaseRollbackOnTransferFailure(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	// quorum met but custody holds nothing, so the credit must fail
	attestQuorum(t, b, bob, 2_000_000, "proof-1")
	_, err := b.Release(relayer1, bob, 2_000_000, "proof-1")
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// consumption and credit are one atomic unit: the proof is not consumed,
	// no nonce was spent and the rate reservation is rolled back
	status := b.ValidationStatus(bob, 2_000_000, "proof-1")
	assert.True(t, status.Consumable)

	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalReleased)
	assert.Equal(t, uint64(0), stats.NextNonce)
	assert.Equal(t, uint64(10_000_000), stats.DailyHeadroom)

	balance, err := book.Balance(bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	// once custody is funded the same release goes through
	_, err = b.Lock(alice, 2_000_000, "0xdest")
	require.NoError(t, err)

	nonce, err := b.Release(relayer1, bob, 2_000_000, "proof-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestPausedBlocksOperations(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)
	b.paused = true

	_, err := b.Lock(alice, 1_000, "0xdest")
	require.ErrorIs(t, err, ErrBridgePaused)

	_, err = b.Attest(validator1, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrBridgePaused)

	_, err = b.Release(relayer1, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrBridgePaused)
}

func TestValidationKeyDistinguishesTuples(t *testing.T) {
	k1 := ValidationKey(bob, 1_000, "proof-1")
	assert.Equal(t, k1, ValidationKey("BOB", 1_000, " PROOF-1 "))
	assert.NotEqual(t, k1, ValidationKey(bob, 1_001, "proof-1"))
	assert.NotEqual(t, k1, ValidationKey(bob, 1_000, "proof-2"))
	assert.NotEqual(t, k1, ValidationKey(alice, 1_000, "proof-1"))
}

func TestRestoreRoundTrip(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	_, err := b.Lock(alice, 3_000_000, "0xdest")
	require.NoError(t, err)
	attestQuorum(t, b, bob, 1_000_000, "proof-1")
	_, err = b.Release(relayer1, bob, 1_000_000, "proof-1")
	require.NoError(t, err)

	snap := b.snapshotLocked()
	var validations []*types.ValidationRecord
	for _, rec := range b.validations {
		validations = append(validations, rec)
	}

	// a fresh bridge with empty roles picks everything up from the restore
	restored := New(NewRoleBook(), book, nil, custody, 1, 99)
	restored.now = b.now
	require.NoError(t, restored.Restore(&types.RestoredState{
		Snapshot:    snap,
		Proofs:      []string{"proof-1"},
		Validations: validations,
	}))

	stats, err := restored.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), stats.TotalLocked)
	assert.Equal(t, uint64(1_000_000), stats.TotalReleased)
	assert.Equal(t, uint64(2), stats.NextNonce)
	assert.Equal(t, 2, stats.QuorumThreshold)
	assert.Equal(t, uint64(10_000_000), stats.DailyLimit)

	// the consumed proof stays consumed across the restart
	_, err = restored.Attest(validator1, bob, 1_000_000, "proof-1")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// role membership came back with the snapshot
	_, err = restored.Attest(validator3, bob, 500, "proof-2")
	require.NoError(t, err)

	nonce, err := restored.Lock(alice, 1_000, "0xdest")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)
}

func TestRestoreRevokedRoleStaysRevoked(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalRevokeRole, validator3, CapValidator, "key rotation")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	snap := b.snapshotLocked()

	// the restarted process seeds roles from config, which still lists the
	// revoked validator; the snapshot's membership must win
	restored, _, _ := newTestBridge(t, 10_000_000, 2)
	restored.ledger = book
	require.NoError(t, restored.Restore(&types.RestoredState{Snapshot: snap}))

	_, err = restored.Attest(validator3, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	// members the snapshot does list keep working
	_, err = restored.Attest(validator1, bob, 1_000, "proof-1")
	require.NoError(t, err)
}
