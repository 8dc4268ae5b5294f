package config

type Configuration struct {
	// Server config
	Server struct {
		UseSSL    bool   `yaml:"ssl"`
		Port      int    `yaml:"port"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
	} `yaml:"server"`
	// Bridge policy defaults, governance can change daily_limit, quorum
	// and role membership at runtime
	Bridge struct {
		DailyLimit      uint64   `yaml:"daily_limit"`
		QuorumThreshold int      `yaml:"quorum_threshold"`
		CustodyAccount  string   `yaml:"custody_account"`
		Validators      []string `yaml:"validators"`
		Relayers        []string `yaml:"relayers"`
		Proposers       []string `yaml:"proposers"`
		Approvers       []string `yaml:"approvers"`
		Admins          []string `yaml:"admins"`
	} `yaml:"bridge"`
	// Asset-transfer collaborator config
	Ledger struct {
		Mode string `yaml:"mode"` // "memory", "redis" or "rpc"
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		// important private stuff
		RPCUser     string `yaml:"rpc_user"`
		RPCPassword string `yaml:"rpc_pass"`
	} `yaml:"ledger"`
}

var Config Configuration

// how often the snapshot worker persists counters
const SNAPSHOT_INTERVAL_SECONDS = 5

// redis sets holding proposal record keys, one per lifecycle status
var RedisProposalSets = map[string]string{
	"proposed": "bridge:proposals:proposed", // submitted, awaiting decision
	"approved": "bridge:proposals:approved", // ratified, not yet executed
	"rejected": "bridge:proposals:rejected", // declined, terminal
	"executed": "bridge:proposals:executed", // applied to live parameters, terminal
}

// redis sets holding transaction record keys, one per direction
var RedisTransactionSets = map[string]string{
	"LOCK":    "bridge:txs:lock",
	"RELEASE": "bridge:txs:release",
}
