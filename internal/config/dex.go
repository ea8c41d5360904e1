// Package config also contains DEX and custody configuration surfaces.
package config

import "fmt"

// Dex defines network endpoints and defaults for decentralized execution.
type Dex struct {
	RpcURL      string `yaml:"rpc_url"`
	WsURL       string `yaml:"ws_url"`       // optional; enables websocket confirmation
	Commitment  string `yaml:"commitment"`   // processed|confirmed|finalized
	JupiterBase string `yaml:"jupiter_base"` // https://quote-api.jup.ag
	SlippageBps int    `yaml:"slippage_bps"`
}

const (
	KeyBackendLocal  = "local"
	KeyBackendRemote = "remote"

	KeyStoreFile   = "file"
	KeyStoreSQLite = "sqlite"
	KeyStoreRedis  = "redis"
)

// Keys selects where signing material lives. The backend is a deployment choice.
type Keys struct {
	Backend       string `yaml:"backend"` // local|remote
	MasterSecret  string `yaml:"-"`       // environment only
	Store         string `yaml:"store"`   // file|sqlite|redis
	StorePath     string `yaml:"store_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
	RemoteURL     string `yaml:"remote_url"`
	RemoteToken   string `yaml:"-"`
}

func (k Keys) validate() error {
	switch k.Backend {
	case KeyBackendLocal:
		switch k.Store {
		case KeyStoreFile, KeyStoreSQLite:
			if k.StorePath == "" {
				return fmt.Errorf("KEY_STORE_PATH is required for %s key store", k.Store)
			}
		case KeyStoreRedis:
			if k.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR is required for redis key store")
			}
		default:
			return fmt.Errorf("unknown key store %q", k.Store)
		}
	case KeyBackendRemote:
		if k.RemoteURL == "" {
			return fmt.Errorf("REMOTE_SIGNER_URL is required for remote key backend")
		}
	default:
		return fmt.Errorf("unknown key backend %q", k.Backend)
	}
	return nil
}
