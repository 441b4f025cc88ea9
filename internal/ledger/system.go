package ledger

import (
	"math"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/pkg/errors"

	"github.com/example/crowdfund/internal/crowdfund"
)

// executeSystem supports the one system instruction the program relies on.
func executeSystem(txn *txn, metas []*sol.AccountMeta, data []byte) error {
	if len(metas) < 2 {
		return crowdfund.ErrNotEnoughAccountKeys
	}
	decoded, err := system.DecodeInstruction(metas, data)
	if err != nil {
		return errors.Wrap(crowdfund.ErrInvalidInstruction, err.Error())
	}

	transfer, ok := decoded.Impl.(*system.Transfer)
	if !ok {
		return errors.Wrapf(crowdfund.ErrInvalidInstruction, "unsupported system instruction %d", decoded.TypeID.Uint32())
	}
	if transfer.Lamports == nil {
		return crowdfund.ErrInvalidInstruction
	}

	from := transfer.GetFundingAccount()
	to := transfer.GetRecipientAccount()
	if !from.IsSigner {
		return crowdfund.ErrMissingSigner
	}
	return transferLamports(txn, from.PublicKey, to.PublicKey, *transfer.Lamports)
}

func transferLamports(txn *txn, from, to sol.PublicKey, lamports uint64) error {
	src := txn.load(from)
	if len(src.data) > 0 || !src.owner.Equals(sol.SystemProgramID) {
		return errors.Wrap(crowdfund.ErrInvalidAccountData, "transfer source must be a system account without data")
	}
	if src.lamports < lamports {
		return crowdfund.ErrNegativeLamports
	}

	dst := txn.load(to)
	if from.Equals(to) {
		return nil
	}
	if dst.lamports > math.MaxUint64-lamports {
		return crowdfund.ErrArithmeticOverflow
	}
	src.lamports -= lamports
	dst.lamports += lamports
	return nil
}

// invokeTransfer is the cross-program call donate makes into the system
// program, carrying the signer privileges of the outer instruction.
func invokeTransfer(txn *txn, from, to *sol.AccountMeta, lamports uint64) error {
	ix := system.NewTransferInstruction(lamports, from.PublicKey, to.PublicKey).Build()
	data, err := ix.Data()
	if err != nil {
		return errors.Wrap(err, "failed to encode transfer")
	}

	metas := ix.Accounts()
	metas[0].IsSigner = from.IsSigner
	return executeSystem(txn, metas, data)
}
