// Package crowdfund binds the solana_cloud_funding Anchor program: account
// layouts, instruction encoding, program errors and a wallet-bound client.
package crowdfund

import (
	"context"

	sol "github.com/gagliardetto/solana-go"
)

// ProgramID is the address the program is declared under.
var ProgramID = sol.MustPublicKeyFromBase58("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

var (
	SystemProgramID = sol.SystemProgramID

	// CampaignSeed prefixes the per-owner campaign PDA.
	CampaignSeed = []byte("CAMPAIGN_DEMO")
)

const (
	// CampaignAccountSpace is the allocation requested by create.
	CampaignAccountSpace = 9000

	// MaxTransactionSize is the packet limit a serialized transaction must fit in.
	MaxTransactionSize = 1232

	LamportsPerSOL = 1_000_000_000
)

// AccountInfo is the chain-agnostic view of an account.
type AccountInfo struct {
	Lamports   uint64
	Owner      sol.PublicKey
	Data       []byte
	Executable bool
}

// Chain is the minimum a backend must offer for Client to drive the program.
// internal/solana implements it over JSON-RPC and internal/ledger in memory.
type Chain interface {
	// Submit signs the instructions with payer, sends them as a single
	// transaction and blocks until it reaches the backend's commitment.
	Submit(ctx context.Context, payer sol.PrivateKey, instructions ...sol.Instruction) (sol.Signature, error)

	// Account returns ErrAccountNotFound when nothing lives at address.
	Account(ctx context.Context, address sol.PublicKey) (*AccountInfo, error)

	Balance(ctx context.Context, address sol.PublicKey) (uint64, error)

	MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Faucet is implemented by chains that can mint lamports: local validators
// and the in-memory ledger.
type Faucet interface {
	Airdrop(ctx context.Context, address sol.PublicKey, lamports uint64) (sol.Signature, error)
}

func programOrDefault(program sol.PublicKey) sol.PublicKey {
	if program.IsZero() {
		return ProgramID
	}
	return program
}
