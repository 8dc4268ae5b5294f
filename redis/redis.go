package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"goassetbridge/config"
	"goassetbridge/types"

	"github.com/gomodule/redigo/redis"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

// Store is the redis-backed durability sink for the bridge control plane
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SaveTransaction(tx *types.BridgeTransaction) error {
	conn := pool.Get()
	defer conn.Close()

	if tx == nil {
		return errors.New("null object to store")
	}

	setKey, ok := config.RedisTransactionSets[tx.Direction]
	if !ok {
		return fmt.Errorf("redis key not found for direction %q", tx.Direction)
	}
	recordKey := fmt.Sprintf("bridgetx:%d", tx.Nonce)

	txJSON, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("cannot marshal bridge transaction to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey, txJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", setKey, recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func (s *Store) MarkProofConsumed(proof string) error {
	conn := pool.Get()
	defer conn.Close()

	if proof == "" {
		return errors.New("empty proof")
	}

	_, err := conn.Do("SADD", "bridge:proofs", strings.ToLower(proof))
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func (s *Store) SaveValidationRecord(rec *types.ValidationRecord) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}
	if rec.Key == "" {
		return errors.New("validation record cannot have empty key")
	}

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal validation record to JSON: %s", err.Error())
	}

	recordKey := fmt.Sprintf("validation:%s", rec.Key)

	_, err = conn.Do("SET", recordKey, recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", "bridge:validations", recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

// SaveProposal writes the proposal under its status-scoped key and moves it
// between status sets when prevStatus differs (empty prevStatus means a new
// proposal).
func (s *Store) SaveProposal(p *types.BridgeProposal, prevStatus string) error {
	conn := pool.Get()
	defer conn.Close()

	if p == nil {
		return errors.New("null object to store")
	}
	if p.ID == "" {
		return errors.New("proposal cannot have empty id")
	}

	status := p.Status()
	recordKey := fmt.Sprintf("proposal:%s:%s", status, p.ID)

	pJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cannot marshal proposal to JSON: %s", err.Error())
	}

	if prevStatus != "" && prevStatus != status {
		prevRecordKey := fmt.Sprintf("proposal:%s:%s", prevStatus, p.ID)

		_, err = conn.Do("SREM", config.RedisProposalSets[prevStatus], prevRecordKey)
		if err != nil {
			log.Printf("error Redis SREM: %s", err.Error())
			return err
		}

		_, err = conn.Do("DEL", prevRecordKey)
		if err != nil {
			log.Printf("error Redis DEL: %s", err.Error())
			return err
		}
	}

	_, err = conn.Do("SET", recordKey, pJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", config.RedisProposalSets[status], recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func (s *Store) AppendAuditEvent(ev *types.AuditEvent) error {
	conn := pool.Get()
	defer conn.Close()

	if ev == nil {
		return errors.New("null object to store")
	}

	evJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("cannot marshal audit event to JSON: %s", err.Error())
	}

	_, err = conn.Do("RPUSH", "bridge:audit", evJSON)
	if err != nil {
		log.Printf("error Redis RPUSH: %s", err.Error())
		return err
	}

	return nil
}

func (s *Store) SaveSnapshot(snap *types.BridgeSnapshot) error {
	conn := pool.Get()
	defer conn.Close()

	if snap == nil {
		return errors.New("null object to store")
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cannot marshal bridge snapshot to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", "bridge:snapshot", snapJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	return nil
}

// LoadState rebuilds the full restore payload: the counter snapshot, the
// consumed proof set, all validation records and all proposals.
func (s *Store) LoadState() (*types.RestoredState, error) {
	state := &types.RestoredState{}

	snap, err := getSnapshot()
	if err != nil {
		return nil, err
	}
	state.Snapshot = snap

	proofs, err := getConsumedProofs()
	if err != nil {
		return nil, err
	}
	state.Proofs = proofs

	if err := scanSet("bridge:validations", func(raw []byte) error {
		var rec types.ValidationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		state.Validations = append(state.Validations, &rec)
		return nil
	}); err != nil {
		return nil, err
	}

	for status := range config.RedisProposalSets {
		if err := scanSet(config.RedisProposalSets[status], func(raw []byte) error {
			var p types.BridgeProposal
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			state.Proposals = append(state.Proposals, &p)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func getSnapshot() (*types.BridgeSnapshot, error) {
	conn := pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", "bridge:snapshot"))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis GET: %s", err.Error())
		return nil, err
	}

	var snap types.BridgeSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func getConsumedProofs() ([]string, error) {
	conn := pool.Get()
	defer conn.Close()

	proofs, err := redis.Strings(conn.Do("SMEMBERS", "bridge:proofs"))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis SMEMBERS: %s", err.Error())
		return nil, err
	}
	return proofs, nil
}

// scanSet SSCANs a set of record keys and feeds each record's JSON to fn
func scanSet(setKey string, fn func(raw []byte) error) error {
	conn := pool.Get()
	defer conn.Close()

	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", setKey, cursor))
		if err != nil {
			return err
		}

		var recordKeys []string
		values, err = redis.Scan(values, &cursor, &recordKeys)
		if err != nil {
			return err
		}

		for _, key := range recordKeys {
			raw, err := redis.Bytes(conn.Do("GET", key))
			if errors.Is(err, redis.ErrNil) {
				// a record can be missing, don't crash
				continue
			}
			if err != nil {
				log.Printf("error Redis GET: %s", err.Error())
				return err
			}
			if err := fn(raw); err != nil {
				return err
			}
		}

		if cursor == 0 {
			break
		}
	}

	return nil
}

// FindAllTransactions returns every recorded transaction for a direction,
// used by the read surface
func FindAllTransactions(direction string) ([]*types.BridgeTransaction, error) {
	setKey, ok := config.RedisTransactionSets[direction]
	if !ok {
		return nil, errors.New("redis key not found for direction")
	}

	txs := make([]*types.BridgeTransaction, 0)
	err := scanSet(setKey, func(raw []byte) error {
		var tx types.BridgeTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return err
		}
		txs = append(txs, &tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// FindAllProposalsByStatus returns every proposal currently in a status set
func FindAllProposalsByStatus(status string) ([]*types.BridgeProposal, error) {
	setKey, ok := config.RedisProposalSets[status]
	if !ok {
		return nil, errors.New("redis key not found for status")
	}

	proposals := make([]*types.BridgeProposal, 0)
	err := scanSet(setKey, func(raw []byte) error {
		var p types.BridgeProposal
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		proposals = append(proposals, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// GetAuditEvents returns the most recent limit entries of the audit stream,
// oldest first; limit <= 0 returns the whole stream
func GetAuditEvents(limit int) ([]*types.AuditEvent, error) {
	conn := pool.Get()
	defer conn.Close()

	start := 0
	if limit > 0 {
		start = -limit
	}

	raws, err := redis.ByteSlices(conn.Do("LRANGE", "bridge:audit", start, -1))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		log.Printf("error Redis LRANGE: %s", err.Error())
		return nil, err
	}

	events := make([]*types.AuditEvent, 0, len(raws))
	for _, raw := range raws {
		var ev types.AuditEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	return events, nil
}
