package crowdfund

import (
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// BuildTransaction assembles and signs a transaction in which payer is the fee
// payer and sole signer. It fails with ErrTransactionTooLarge when the signed
// transaction would not fit in a packet.
func BuildTransaction(payer sol.PrivateKey, blockhash sol.Hash, instructions ...sol.Instruction) (*sol.Transaction, error) {
	if len(instructions) == 0 {
		return nil, errors.New("no instructions")
	}

	tx, err := sol.NewTransaction(
		instructions,
		blockhash,
		sol.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transaction")
	}

	payerKey := payer.PublicKey()
	_, err = tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if key.Equals(payerKey) {
			return &payer
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrMissingSigner, err.Error())
	}

	if err := CheckTransactionSize(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func CheckTransactionSize(tx *sol.Transaction) error {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "failed to serialize transaction")
	}
	if len(raw) > MaxTransactionSize {
		return errors.Wrapf(ErrTransactionTooLarge, "%d bytes", len(raw))
	}
	return nil
}
