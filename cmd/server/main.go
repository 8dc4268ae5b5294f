package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"goassetbridge/bridge"
	"goassetbridge/config"
	"goassetbridge/ledger"
	"goassetbridge/redis"
	"goassetbridge/workers"
	"goassetbridge/workers/handlers"
)

func main() {
	log.Print("Starting asset bridge control plane")

	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	config.Init()

	// connect to Redis, without persistence do not continue
	redis.Init()

	roles := bridge.NewRoleBook()
	seedRoles(roles)

	store := redis.NewStore()

	b := bridge.New(
		roles,
		buildLedger(),
		store,
		config.Config.Bridge.CustodyAccount,
		config.Config.Bridge.DailyLimit,
		config.Config.Bridge.QuorumThreshold,
	)

	// replay persisted state; role grants made through governance override
	// the config seed
	state, err := store.LoadState()
	if err != nil {
		log.Fatalf("error loading persisted bridge state: %v", err)
	}
	if err := b.Restore(state); err != nil {
		log.Fatalf("error restoring bridge state: %v", err)
	}

	handlers.Bridge = b

	// two worker threads:
	// * periodic snapshot/stats loop
	// * API serving HTTP server (serves as main worker thread)
	go workers.Worker_snapshot(b)

	workers.Worker_HTTP()
}

func seedRoles(roles *bridge.RoleBook) {
	seed := func(capability string, addrs []string) {
		for _, addr := range addrs {
			if err := roles.Grant(addr, capability); err != nil {
				log.Fatalf("error seeding %s role for %s: %v", capability, addr, err)
			}
		}
	}
	seed(bridge.CapValidator, config.Config.Bridge.Validators)
	seed(bridge.CapRelayer, config.Config.Bridge.Relayers)
	seed(bridge.CapProposer, config.Config.Bridge.Proposers)
	seed(bridge.CapApprover, config.Config.Bridge.Approvers)
	seed(bridge.CapAdmin, config.Config.Bridge.Admins)
}

func buildLedger() ledger.TokenLedger {
	switch config.Config.Ledger.Mode {
	case "rpc":
		return ledger.NewRPCLedger(
			config.Config.Ledger.Host,
			config.Config.Ledger.Port,
			config.Config.Ledger.RPCUser,
			config.Config.Ledger.RPCPassword,
		)
	case "redis":
		return redis.NewBalanceBook()
	case "", "memory":
		return ledger.NewBook()
	default:
		log.Fatalf("unknown ledger mode %q", config.Config.Ledger.Mode)
		return nil
	}
}
