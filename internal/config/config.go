package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/example/crowdfund/internal/crowdfund"
)

const (
	BackendRPC    = "rpc"
	BackendMemory = "memory"
)

// Config holds environment-driven configuration.
type Config struct {
	Port               string
	RPCURL             string
	WalletPath         string
	ProgramID          string
	SolCommitment      string
	Backend            string
	MongoURI           string
	MongoDB            string
	RateLimitRPM       int
	WriteLimitRPM      int
	CacheTTL           time.Duration
	KeyCacheTTL        time.Duration
	RPCTimeout         time.Duration
	ConfirmTimeout     time.Duration
	MaxConcurrency     int
	AdminToken         string
	DevAirdropLamports uint64
	LogLevel           string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getuint(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func defaultWalletPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "solana", "id.json")
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// Load reads .env and .env.local when present, then the environment, falling
// back to defaults. Variables already set in the environment win over the files.
func Load() Config {
	_ = godotenv.Load(".env", ".env.local")

	return Config{
		Port:               getenv("PORT", "8080"),
		RPCURL:             getenv("ANCHOR_PROVIDER_URL", "http://127.0.0.1:8899"),
		WalletPath:         getenv("ANCHOR_WALLET", defaultWalletPath()),
		ProgramID:          getenv("CROWDFUND_PROGRAM_ID", crowdfund.ProgramID.String()),
		SolCommitment:      getenv("SOL_COMMITMENT", "confirmed"),
		Backend:            strings.ToLower(getenv("CHAIN_BACKEND", BackendRPC)),
		MongoURI:           getenv("MONGO_URI", ""),
		MongoDB:            getenv("MONGO_DB", "crowdfund"),
		RateLimitRPM:       getint("RATE_LIMIT_RPM", 60),
		WriteLimitRPM:      getint("WRITE_LIMIT_RPM", 10),
		CacheTTL:           getdur("CACHE_TTL", 5*time.Second),
		KeyCacheTTL:        getdur("KEY_CACHE_TTL", 60*time.Second),
		RPCTimeout:         getdur("RPC_TIMEOUT", 5*time.Second),
		ConfirmTimeout:     getdur("CONFIRM_TIMEOUT", 30*time.Second),
		MaxConcurrency:     getint("MAX_CONCURRENCY", 16),
		AdminToken:         getenv("ADMIN_TOKEN", ""),
		DevAirdropLamports: getuint("DEV_AIRDROP_LAMPORTS", 10*crowdfund.LamportsPerSOL),
		LogLevel:           getenv("LOG_LEVEL", "info"),
	}
}

// Normalize fills empty values with defaults and lowercases enumerations, so
// flag overrides get the same treatment as the environment.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = "8080"
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendRPC
	}
	c.SolCommitment = strings.ToLower(strings.TrimSpace(c.SolCommitment))
	if c.SolCommitment == "" {
		c.SolCommitment = "confirmed"
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRPC, BackendMemory:
	default:
		return errors.Errorf("unknown CHAIN_BACKEND %q", c.Backend)
	}
	switch c.SolCommitment {
	case "processed", "confirmed", "finalized":
	default:
		return errors.Errorf("unknown SOL_COMMITMENT %q", c.SolCommitment)
	}
	if _, err := c.Program(); err != nil {
		return err
	}
	if c.RateLimitRPM <= 0 || c.WriteLimitRPM <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return errors.New("MAX_CONCURRENCY must be positive")
	}
	if c.CacheTTL <= 0 || c.RPCTimeout <= 0 || c.ConfirmTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// Program parses ProgramID.
func (c Config) Program() (sol.PublicKey, error) {
	pk, err := sol.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return sol.PublicKey{}, errors.Wrapf(err, "invalid CROWDFUND_PROGRAM_ID %q", c.ProgramID)
	}
	return pk, nil
}
