// Package ledger is the fungible-asset transfer collaborator the bridge
// control plane debits and credits through. The control plane only ever
// sees this interface; the balances live elsewhere.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type TokenLedger interface {
	Transfer(from, to string, amount uint64) error
	Balance(account string) (uint64, error)
}

// Book is the in-process ledger, used in memory mode and by tests.
// Accounts are case-insensitive.
type Book struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func NewBook() *Book {
	return &Book{balances: map[string]uint64{}}
}

// Credit mints amount onto account, the seeding/faucet path
func (b *Book) Credit(account string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[strings.ToLower(account)] += amount
}

func (b *Book) Transfer(from, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	from = strings.ToLower(from)
	to = strings.ToLower(to)
	if b.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, b.balances[from], amount)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

func (b *Book) Balance(account string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[strings.ToLower(account)], nil
}
