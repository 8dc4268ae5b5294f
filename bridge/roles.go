package bridge

import (
	"fmt"
	"sort"
	"strings"
)

// Capability names resolved by the authorization policy
const (
	CapValidator = "validator"
	CapRelayer   = "relayer"
	CapProposer  = "proposer"
	CapApprover  = "approver"
	CapAdmin     = "admin"
)

// AuthPolicy is the external access-control collaborator. Grant and Revoke
// exist so governance execution can change membership; a deployment backed
// by an outside system may reject them.
type AuthPolicy interface {
	Can(caller, capability string) bool
	Grant(address, capability string) error
	Revoke(address, capability string) error
	Members(capability string) []string
}

// RoleBook is the in-process policy. It is not self-locking: all reads and
// writes happen under the bridge mutex.
type RoleBook struct {
	members map[string]map[string]bool // capability -> lowercase address set
}

func NewRoleBook() *RoleBook {
	return &RoleBook{members: map[string]map[string]bool{}}
}

func validCapability(capability string) bool {
	switch capability {
	case CapValidator, CapRelayer, CapProposer, CapApprover, CapAdmin:
		return true
	}
	return false
}

func (b *RoleBook) Can(caller, capability string) bool {
	set, ok := b.members[capability]
	if !ok {
		return false
	}
	return set[strings.ToLower(caller)]
}

func (b *RoleBook) Grant(address, capability string) error {
	if !validCapability(capability) {
		return fmt.Errorf("unknown capability %q", capability)
	}
	if address == "" {
		return fmt.Errorf("empty address")
	}
	if b.members[capability] == nil {
		b.members[capability] = map[string]bool{}
	}
	b.members[capability][strings.ToLower(address)] = true
	return nil
}

func (b *RoleBook) Revoke(address, capability string) error {
	if !validCapability(capability) {
		return fmt.Errorf("unknown capability %q", capability)
	}
	delete(b.members[capability], strings.ToLower(address))
	return nil
}

func (b *RoleBook) Members(capability string) []string {
	addrs := make([]string, 0, len(b.members[capability]))
	for addr := range b.members[capability] {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
