package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/config"
	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/ledger"
	"github.com/example/crowdfund/internal/solana"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Backend:            config.BackendMemory,
		WalletPath:         filepath.Join(t.TempDir(), "keys", "id.json"),
		ProgramID:          crowdfund.ProgramID.String(),
		DevAirdropLamports: 3 * crowdfund.LamportsPerSOL,
	}
}

func TestWallet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	key := sol.NewWallet().PrivateKey
	require.NoError(t, WriteWallet(path, key))

	got, err := LoadWallet(path, false)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadWallet_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadWallet(path, false)
	require.Error(t, err)

	created, err := LoadWallet(path, true)
	require.NoError(t, err)
	again, err := LoadWallet(path, true)
	require.NoError(t, err)
	assert.Equal(t, created.PublicKey(), again.PublicKey())
}

func TestLoadWallet_CorruptNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	_, err := LoadWallet(path, true)
	require.Error(t, err)
	raw, _ := os.ReadFile(path)
	assert.Equal(t, "garbage", string(raw))
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	env, err := Open(ctx, memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &ledger.Ledger{}, env.Backend)

	bal, err := env.Client.Balance(ctx, env.Client.Wallet())
	require.NoError(t, err)
	assert.EqualValues(t, 3*crowdfund.LamportsPerSOL, bal)

	_, address, err := env.Client.Create(ctx, "Roof", "Fix it")
	require.NoError(t, err)
	c, _, err := env.Client.FetchCampaign(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, "Roof", c.Name)
}

func TestNewBackend(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Backend = config.BackendRPC
	cfg.RPCURL = "http://127.0.0.1:1"
	cfg.SolCommitment = "confirmed"
	b, err := NewBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &solana.Client{}, b)

	cfg.Backend = "carrier-pigeon"
	_, err = NewBackend(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.Backend = config.BackendMemory
	cfg.ProgramID = "bad"
	_, err = NewBackend(cfg, zap.NewNop())
	assert.Error(t, err)
}
