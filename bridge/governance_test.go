package bridge

import (
	"testing"

	"goassetbridge/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalLifecycle(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetDailyLimit, "", "20000000", "more volume expected")
	require.NoError(t, err)

	p, err := b.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, "proposed", p.Status())

	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000_000), stats.DailyLimit)

	// the executed flag blocks re-entry
	err = b.Execute(proposer1, id)
	require.ErrorIs(t, err, ErrAlreadyExecuted)

	p, err = b.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, "executed", p.Status())
}

func TestExecuteBeforeApprove(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "3", "")
	require.NoError(t, err)

	err = b.Execute(proposer1, id)
	require.ErrorIs(t, err, ErrNotApproved)
}

func TestDecisionIsFinal(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "3", "")
	require.NoError(t, err)

	require.NoError(t, b.Approve(approver1, id))
	require.ErrorIs(t, b.Reject(approver1, id), ErrAlreadyDecided)
	require.ErrorIs(t, b.Approve(approver1, id), ErrAlreadyDecided)

	id2, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "3", "")
	require.NoError(t, err)

	require.NoError(t, b.Reject(approver1, id2))
	require.ErrorIs(t, b.Approve(approver1, id2), ErrAlreadyDecided)

	// rejected is terminal, execution can never happen
	require.ErrorIs(t, b.Execute(proposer1, id2), ErrNotApproved)
}

func TestProposeValidation(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	_, err := b.Propose(proposer1, "set_fee", "", "5", "")
	require.ErrorIs(t, err, ErrInvalidProposal)

	_, err = b.Propose(proposer1, types.ProposalSetQuorum, "", "", "")
	require.ErrorIs(t, err, ErrInvalidProposal)

	_, err = b.Propose(proposer1, types.ProposalGrantRole, "", CapValidator, "")
	require.ErrorIs(t, err, ErrInvalidProposal)

	_, err = b.Propose(alice, types.ProposalSetQuorum, "", "3", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.ErrorIs(t, b.Approve(alice, "nope"), ErrUnauthorized)
	require.ErrorIs(t, b.Approve(approver1, "nope"), ErrUnknownProposal)
	require.ErrorIs(t, b.Execute(admin1, "nope"), ErrUnknownProposal)
}

func TestExecuteAuthorization(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "3", "")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))

	// neither proposer nor admin
	require.ErrorIs(t, b.Execute(alice, id), ErrUnauthorized)

	// an unauthorized caller cannot probe whether a proposal id exists
	require.ErrorIs(t, b.Execute(alice, "nope"), ErrUnauthorized)

	// admin may execute on the proposer's behalf
	require.NoError(t, b.Execute(admin1, id))

	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.QuorumThreshold)
}

func TestGrantRoleProposal(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	newValidator := "validator-4"
	_, err := b.Attest(newValidator, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	id, err := b.Propose(proposer1, types.ProposalGrantRole, newValidator, CapValidator, "onboarding")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	_, err = b.Attest(newValidator, bob, 1_000, "proof-1")
	require.NoError(t, err)

	// and the reverse
	id, err = b.Propose(proposer1, types.ProposalRevokeRole, validator3, CapValidator, "key rotation")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	_, err = b.Attest(validator3, bob, 1_000, "proof-1")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSetQuorumProposal(t *testing.T) {
	b, book, _ := newTestBridge(t, 10_000_000, 2)
	book.Credit(custody, 1_000)

	id, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "1", "reduced validator set")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	// a single attestation now clears the threshold
	_, err = b.Attest(validator1, bob, 1_000, "proof-1")
	require.NoError(t, err)
	_, err = b.Release(relayer1, bob, 1_000, "proof-1")
	require.NoError(t, err)
}

func TestSetPausedProposal(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetPaused, "", "true", "incident response")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	_, err = b.Lock(alice, 1_000, "0xdest")
	require.ErrorIs(t, err, ErrBridgePaused)

	// governance still runs while paused, otherwise the bridge could never
	// be unpaused
	id, err = b.Propose(proposer1, types.ProposalSetPaused, "", "false", "incident resolved")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))
	require.NoError(t, b.Execute(proposer1, id))

	_, err = b.Lock(alice, 1_000, "0xdest")
	require.NoError(t, err)
}

func TestMalformedValueFailsExecution(t *testing.T) {
	b, _, _ := newTestBridge(t, 10_000_000, 2)

	id, err := b.Propose(proposer1, types.ProposalSetQuorum, "", "zero", "")
	require.NoError(t, err)
	require.NoError(t, b.Approve(approver1, id))

	err = b.Execute(proposer1, id)
	require.ErrorIs(t, err, ErrInvalidProposal)

	// a failed application leaves the proposal approved and un-executed
	p, err := b.Proposal(id)
	require.NoError(t, err)
	assert.True(t, p.Approved)
	assert.False(t, p.Executed)
	assert.Equal(t, "approved", p.Status())

	// and the live parameter untouched
	stats, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.QuorumThreshold)
}
