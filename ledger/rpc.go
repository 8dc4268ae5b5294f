package ledger

import (
	"encoding/base64"
	"fmt"

	"github.com/ybbus/jsonrpc"
)

// insufficient-funds error code surfaced by the ledger node
const rpcErrInsufficientFunds = -6

// RPCLedger speaks JSON-RPC to a remote ledger node that owns the balances.
type RPCLedger struct {
	client jsonrpc.RPCClient
}

func NewRPCLedger(host string, port int, user, password string) *RPCLedger {
	endpoint := fmt.Sprintf("http://%s:%d", host, port)
	opts := &jsonrpc.RPCClientOpts{}
	if user != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
		opts.CustomHeaders = map[string]string{"Authorization": "Basic " + auth}
	}
	return &RPCLedger{client: jsonrpc.NewClientWithOpts(endpoint, opts)}
}

func (l *RPCLedger) Transfer(from, to string, amount uint64) error {
	resp, err := l.client.Call("ledger_transfer", from, to, amount)
	if err != nil {
		return fmt.Errorf("error calling ledger_transfer: %s", err.Error())
	}
	if resp.Error != nil {
		if resp.Error.Code == rpcErrInsufficientFunds {
			return fmt.Errorf("%w: %s", ErrInsufficientBalance, resp.Error.Message)
		}
		return fmt.Errorf("ledger_transfer rejected: %s", resp.Error.Message)
	}
	return nil
}

func (l *RPCLedger) Balance(account string) (uint64, error) {
	resp, err := l.client.Call("ledger_balance", account)
	if err != nil {
		return 0, fmt.Errorf("error calling ledger_balance: %s", err.Error())
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("ledger_balance rejected: %s", resp.Error.Message)
	}
	balance, err := resp.GetInt()
	if err != nil || balance < 0 {
		return 0, fmt.Errorf("cannot read balance from response: %v", err)
	}
	return uint64(balance), nil
}
