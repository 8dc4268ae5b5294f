package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"goassetbridge/types"

	"github.com/google/uuid"
)

func validProposalKind(kind string) bool {
	switch kind {
	case types.ProposalSetDailyLimit, types.ProposalSetQuorum,
		types.ProposalGrantRole, types.ProposalRevokeRole, types.ProposalSetPaused:
		return true
	}
	return false
}

// Propose submits a parameter or role change for ratification
func (b *Bridge) Propose(caller, kind, target, value, rationale string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.auth.Can(caller, CapProposer) {
		return "", fmt.Errorf("%w: %s lacks %s capability", ErrUnauthorized, caller, CapProposer)
	}
	if !validProposalKind(kind) {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidProposal, kind)
	}
	if value == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidProposal)
	}
	if (kind == types.ProposalGrantRole || kind == types.ProposalRevokeRole) && target == "" {
		return "", fmt.Errorf("%w: role change needs a target address", ErrInvalidProposal)
	}

	p := &types.BridgeProposal{
		ID:        uuid.New().String(),
		Proposer:  strings.ToLower(caller),
		Kind:      kind,
		Target:    target,
		Value:     value,
		Rationale: rationale,
		TsCreated: b.now().Unix(),
	}
	b.proposals[p.ID] = p

	b.persistProposal(p, "")
	b.emit(&types.AuditEvent{
		Type:       types.EventProposalCreated,
		Ts:         p.TsCreated,
		Caller:     p.Proposer,
		ProposalID: p.ID,
		Reference:  kind,
	})

	return p.ID, nil
}

// Approve ratifies a pending proposal, at most one decision per proposal
func (b *Bridge) Approve(caller, id string) error {
	return b.decide(caller, id, true)
}

// Reject declines a pending proposal, terminal
func (b *Bridge) Reject(caller, id string) error {
	return b.decide(caller, id, false)
}

func (b *Bridge) decide(caller, id string, approve bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.auth.Can(caller, CapApprover) {
		return fmt.Errorf("%w: %s lacks %s capability", ErrUnauthorized, caller, CapApprover)
	}
	p := b.proposals[id]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	if p.Approved || p.Rejected {
		return fmt.Errorf("%w: proposal %s is %s", ErrAlreadyDecided, id, p.Status())
	}

	eventType := types.EventProposalApproved
	if approve {
		p.Approved = true
	} else {
		p.Rejected = true
		eventType = types.EventProposalRejected
	}
	p.TsDecided = b.now().Unix()

	b.persistProposal(p, "proposed")
	b.emit(&types.AuditEvent{
		Type:       eventType,
		Ts:         p.TsDecided,
		Caller:     strings.ToLower(caller),
		ProposalID: id,
	})

	return nil
}

// Execute applies an approved proposal to the live parameters. The executed
// flag blocks re-entry; a failed application leaves the proposal approved
// and un-executed for an explicit retry.
func (b *Bridge) Execute(caller, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// authorization first, an unauthorized caller must not learn whether
	// the proposal id exists
	p := b.proposals[id]
	if !b.auth.Can(caller, CapAdmin) && (p == nil || !strings.EqualFold(caller, p.Proposer)) {
		return fmt.Errorf("%w: %s is neither proposer nor admin", ErrUnauthorized, caller)
	}
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	if p.Executed {
		return fmt.Errorf("%w: proposal %s", ErrAlreadyExecuted, id)
	}
	if !p.Approved {
		return fmt.Errorf("%w: proposal %s is %s", ErrNotApproved, id, p.Status())
	}

	if err := b.applyProposal(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProposal, err.Error())
	}
	p.Executed = true

	b.persistProposal(p, "approved")
	b.emit(&types.AuditEvent{
		Type:       types.EventProposalExecuted,
		Ts:         b.now().Unix(),
		Caller:     strings.ToLower(caller),
		ProposalID: id,
		Reference:  p.Kind,
	})
	b.persistSnapshot()

	return nil
}

func (b *Bridge) applyProposal(p *types.BridgeProposal) error {
	switch p.Kind {
	case types.ProposalSetDailyLimit:
		v, err := strconv.ParseUint(p.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse daily limit %q", p.Value)
		}
		b.limiter.ceiling = v
	case types.ProposalSetQuorum:
		v, err := strconv.Atoi(p.Value)
		if err != nil || v < 1 {
			return fmt.Errorf("cannot parse quorum threshold %q", p.Value)
		}
		b.quorum = v
	case types.ProposalGrantRole:
		return b.auth.Grant(p.Target, p.Value)
	case types.ProposalRevokeRole:
		return b.auth.Revoke(p.Target, p.Value)
	case types.ProposalSetPaused:
		v, err := strconv.ParseBool(p.Value)
		if err != nil {
			return fmt.Errorf("cannot parse paused flag %q", p.Value)
		}
		b.paused = v
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	return nil
}

// Proposal returns a copy of one proposal for the read surface
func (b *Bridge) Proposal(id string) (*types.BridgeProposal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.proposals[id]
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	cp := *p
	return &cp, nil
}
