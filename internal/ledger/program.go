package ledger

import (
	"math"

	sol "github.com/gagliardetto/solana-go"

	"github.com/example/crowdfund/internal/crowdfund"
)

func (l *Ledger) executeCrowdfund(txn *txn, metas []*sol.AccountMeta, data []byte) error {
	typ, err := crowdfund.IdentifyInstruction(data)
	if err != nil {
		return err
	}

	switch typ {
	case crowdfund.InstructionInitialize:
		return nil
	case crowdfund.InstructionCreate:
		return l.create(txn, metas, data)
	case crowdfund.InstructionDonate:
		return l.donate(txn, metas, data)
	case crowdfund.InstructionWithdraw:
		return l.withdraw(txn, metas, data)
	}
	return crowdfund.ErrUnknownInstruction
}

// checkAccounts applies the constraints every handler shares: the campaign
// and the user are writable and the user signs.
func checkAccounts(metas []*sol.AccountMeta) error {
	if !metas[0].IsWritable || !metas[1].IsWritable {
		return crowdfund.ErrConstraintMut
	}
	if !metas[1].IsSigner {
		return crowdfund.ErrAccountNotSigner
	}
	return nil
}

func (l *Ledger) create(txn *txn, metas []*sol.AccountMeta, data []byte) error {
	args, accounts, err := crowdfund.DecodeCreateInstruction(metas, data)
	if err != nil {
		return err
	}
	if err := checkAccounts(metas); err != nil {
		return err
	}
	if !metas[2].PublicKey.Equals(sol.SystemProgramID) {
		return crowdfund.ErrInvalidProgramID
	}

	expected, _, err := crowdfund.GetCampaignAddress(&crowdfund.GetCampaignAddressArgs{
		Owner:   accounts.User,
		Program: l.program,
	})
	if err != nil || !expected.Equals(accounts.Campaign) {
		return crowdfund.ErrConstraintSeeds
	}

	// A system account that only holds lamports is topped up, not rejected.
	campaign := txn.load(accounts.Campaign)
	if len(campaign.data) > 0 || !campaign.owner.Equals(sol.SystemProgramID) {
		return crowdfund.ErrAccountInUse
	}

	state := &crowdfund.Campaign{
		Admin:       accounts.User,
		Name:        args.Name,
		Description: args.Description,
	}
	encoded, err := state.Marshal()
	if err != nil {
		return crowdfund.ErrAccountDidNotSerialize
	}

	var shortfall uint64
	if rent := MinimumBalance(crowdfund.CampaignAccountSpace); campaign.lamports < rent {
		shortfall = rent - campaign.lamports
	}
	user := txn.load(accounts.User)
	if user.lamports < shortfall {
		return crowdfund.ErrNegativeLamports
	}
	user.lamports -= shortfall
	campaign.lamports += shortfall
	campaign.owner = l.program
	campaign.data = encoded
	return nil
}

func (l *Ledger) donate(txn *txn, metas []*sol.AccountMeta, data []byte) error {
	args, accounts, err := crowdfund.DecodeDonateInstruction(metas, data)
	if err != nil {
		return err
	}
	if err := checkAccounts(metas); err != nil {
		return err
	}
	if !metas[2].PublicKey.Equals(sol.SystemProgramID) {
		return crowdfund.ErrInvalidProgramID
	}

	campaign, state, err := l.loadCampaign(txn, accounts.Campaign)
	if err != nil {
		return err
	}

	if err := invokeTransfer(txn, metas[1], metas[0], args.Amount); err != nil {
		return err
	}

	if state.AmountDonated > math.MaxUint64-args.Amount {
		return crowdfund.ErrArithmeticOverflow
	}
	state.AmountDonated += args.Amount
	return storeCampaign(campaign, state)
}

func (l *Ledger) withdraw(txn *txn, metas []*sol.AccountMeta, data []byte) error {
	args, accounts, err := crowdfund.DecodeWithdrawInstruction(metas, data)
	if err != nil {
		return err
	}
	if err := checkAccounts(metas); err != nil {
		return err
	}

	campaign, state, err := l.loadCampaign(txn, accounts.Campaign)
	if err != nil {
		return err
	}
	if !state.Admin.Equals(accounts.User) {
		return crowdfund.ErrUnauthorized
	}

	rent := MinimumBalance(uint64(len(campaign.data)))
	if campaign.lamports < rent {
		return crowdfund.ErrArithmeticOverflow
	}
	if campaign.lamports-rent < args.Amount {
		return crowdfund.ErrInsufficientFunds
	}

	user := txn.load(accounts.User)
	if user.lamports > math.MaxUint64-args.Amount {
		return crowdfund.ErrArithmeticOverflow
	}
	campaign.lamports -= args.Amount
	user.lamports += args.Amount

	if state.AmountDonated < args.Amount {
		return crowdfund.ErrArithmeticOverflow
	}
	state.AmountDonated -= args.Amount
	return storeCampaign(campaign, state)
}

func (l *Ledger) loadCampaign(txn *txn, address sol.PublicKey) (*account, *crowdfund.Campaign, error) {
	acct := txn.load(address)
	if acct.empty() {
		return nil, nil, crowdfund.ErrAccountNotInitialized
	}
	if !acct.owner.Equals(l.program) {
		return nil, nil, crowdfund.ErrAccountOwnedByWrongProgram
	}
	state, err := crowdfund.UnmarshalCampaign(acct.data)
	if err != nil {
		return nil, nil, crowdfund.ErrAccountDidNotDeserialize
	}
	return acct, state, nil
}

func storeCampaign(acct *account, state *crowdfund.Campaign) error {
	encoded, err := state.Marshal()
	if err != nil {
		return crowdfund.ErrAccountDidNotSerialize
	}
	acct.data = encoded
	return nil
}
