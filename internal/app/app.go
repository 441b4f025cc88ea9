// Package app assembles a crowdfund client from configuration. It is shared
// by the server and the CLI.
package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/config"
	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/ledger"
	"github.com/example/crowdfund/internal/solana"
)

// Backend is a chain that can also fund wallets.
type Backend interface {
	crowdfund.Chain
	crowdfund.Faucet
}

// Env is a wallet-bound client together with the backend it runs on.
type Env struct {
	Client  *crowdfund.Client
	Backend Backend
	Wallet  sol.PrivateKey
}

// NewBackend returns the JSON-RPC client or a fresh in-memory ledger.
func NewBackend(cfg config.Config, log *zap.Logger) (Backend, error) {
	program, err := cfg.Program()
	if err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendMemory:
		return ledger.New(ledger.WithProgramID(program), ledger.WithLogger(log)), nil
	case config.BackendRPC:
		cl := solana.NewClient(cfg.RPCURL, cfg.SolCommitment,
			solana.WithLogger(log),
			solana.WithConfirmTimeout(cfg.ConfirmTimeout),
		)
		log.Info("rpc_backend",
			zap.String("url", cfg.RPCURL),
			zap.String("commitment", string(cl.Commitment())),
		)
		return cl, nil
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Backend)
}

// Open loads the wallet and binds it to a new backend. On the memory backend a
// missing wallet file is generated and the wallet is funded with
// cfg.DevAirdropLamports.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Env, error) {
	backend, err := NewBackend(cfg, log)
	if err != nil {
		return nil, err
	}
	memory := cfg.Backend == config.BackendMemory

	wallet, err := LoadWallet(cfg.WalletPath, memory)
	if err != nil {
		return nil, err
	}
	program, err := cfg.Program()
	if err != nil {
		return nil, err
	}

	if memory && cfg.DevAirdropLamports > 0 {
		if _, err := backend.Airdrop(ctx, wallet.PublicKey(), cfg.DevAirdropLamports); err != nil {
			return nil, errors.Wrap(err, "fund dev wallet")
		}
	}

	log.Info("wallet_loaded",
		zap.String("wallet", wallet.PublicKey().String()),
		zap.String("program", program.String()),
		zap.String("backend", cfg.Backend),
	)
	return &Env{
		Client:  crowdfund.NewClient(backend, wallet, crowdfund.WithProgramID(program)),
		Backend: backend,
		Wallet:  wallet,
	}, nil
}

// LoadWallet reads a solana-keygen JSON keypair. When create is set and the
// file does not exist, a new keypair is written there.
func LoadWallet(path string, create bool) (sol.PrivateKey, error) {
	key, err := sol.PrivateKeyFromSolanaKeygenFile(path)
	if err == nil {
		return key, nil
	}
	if !create {
		return nil, errors.Wrapf(err, "load wallet %s", path)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		return nil, errors.Wrapf(err, "load wallet %s", path)
	}

	key, err = sol.NewRandomPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate wallet")
	}
	if err := WriteWallet(path, key); err != nil {
		return nil, err
	}
	return key, nil
}

// WriteWallet stores key in the solana-keygen format: a JSON array of the 64
// secret key bytes.
func WriteWallet(path string, key sol.PrivateKey) error {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return errors.Wrap(err, "encode wallet")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create wallet dir")
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return errors.Wrapf(err, "write wallet %s", path)
	}
	return nil
}
