package redis

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"goassetbridge/ledger"

	"github.com/gomodule/redigo/redis"
)

// BalanceBook keeps the asset balances in a redis hash, the ledger mode for
// deployments where the balances must survive restarts but no external
// ledger node exists. The bridge serializes all Transfer calls, so the
// check-then-move here does not race.
type BalanceBook struct{}

func NewBalanceBook() *BalanceBook {
	return &BalanceBook{}
}

func balanceField(account string) string {
	return strings.ToLower(account)
}

func (b *BalanceBook) Transfer(from, to string, amount uint64) error {
	conn := pool.Get()
	defer conn.Close()

	have, err := redis.Uint64(conn.Do("HGET", "bridge:balances", balanceField(from)))
	if err != nil && !errors.Is(err, redis.ErrNil) {
		log.Printf("error Redis HGET: %s", err.Error())
		return err
	}
	if have < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ledger.ErrInsufficientBalance, balanceField(from), have, amount)
	}

	// debit and credit inside one transaction, a half-applied move would
	// break conservation with no recovery path
	if err := conn.Send("MULTI"); err != nil {
		log.Printf("error Redis MULTI: %s", err.Error())
		return err
	}
	if err := conn.Send("HINCRBY", "bridge:balances", balanceField(from), -int64(amount)); err != nil {
		log.Printf("error Redis HINCRBY: %s", err.Error())
		return err
	}
	if err := conn.Send("HINCRBY", "bridge:balances", balanceField(to), int64(amount)); err != nil {
		log.Printf("error Redis HINCRBY: %s", err.Error())
		return err
	}
	if _, err := conn.Do("EXEC"); err != nil {
		log.Printf("error Redis EXEC: %s", err.Error())
		return err
	}

	return nil
}

func (b *BalanceBook) Balance(account string) (uint64, error) {
	conn := pool.Get()
	defer conn.Close()

	balance, err := redis.Uint64(conn.Do("HGET", "bridge:balances", balanceField(account)))
	if err != nil && !errors.Is(err, redis.ErrNil) {
		log.Printf("error Redis HGET: %s", err.Error())
		return 0, err
	}
	return balance, nil
}

// Credit mints amount onto account, used to seed balances
func (b *BalanceBook) Credit(account string, amount uint64) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("HINCRBY", "bridge:balances", balanceField(account), int64(amount))
	if err != nil {
		log.Printf("error Redis HINCRBY: %s", err.Error())
		return err
	}
	return nil
}
