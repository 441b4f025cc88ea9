package crowdfund

import (
	"context"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// Client drives the program on behalf of a single wallet, the way an Anchor
// provider wallet does: the wallet signs, pays fees and owns the campaign
// derived from its key.
type Client struct {
	chain   Chain
	wallet  sol.PrivateKey
	program sol.PublicKey
}

type ClientOption func(*Client)

// WithProgramID targets a deployment other than ProgramID.
func WithProgramID(program sol.PublicKey) ClientOption {
	return func(c *Client) { c.program = program }
}

func NewClient(chain Chain, wallet sol.PrivateKey, opts ...ClientOption) *Client {
	c := &Client{chain: chain, wallet: wallet, program: ProgramID}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Wallet() sol.PublicKey { return c.wallet.PublicKey() }

func (c *Client) Program() sol.PublicKey { return c.program }

func (c *Client) Chain() Chain { return c.chain }

// CampaignAddress returns the PDA for the wallet's own campaign.
func (c *Client) CampaignAddress() (sol.PublicKey, error) {
	return c.CampaignAddressOf(c.Wallet())
}

func (c *Client) CampaignAddressOf(owner sol.PublicKey) (sol.PublicKey, error) {
	addr, _, err := GetCampaignAddress(&GetCampaignAddressArgs{Owner: owner, Program: c.program})
	return addr, err
}

// Initialize sends the program's initialize instruction.
func (c *Client) Initialize(ctx context.Context) (sol.Signature, error) {
	ix, err := NewInitializeInstruction(c.program)
	if err != nil {
		return sol.Signature{}, err
	}
	sig, err := c.chain.Submit(ctx, c.wallet, ix)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "initialize")
	}
	return sig, nil
}

// Create initialises the wallet's campaign PDA.
func (c *Client) Create(ctx context.Context, name, description string) (sol.Signature, sol.PublicKey, error) {
	if name == "" {
		return sol.Signature{}, sol.PublicKey{}, ErrNameRequired
	}
	if len(name)+len(description) > MaxTextBytes {
		return sol.Signature{}, sol.PublicKey{}, ErrTextTooLong
	}

	campaign, err := c.CampaignAddress()
	if err != nil {
		return sol.Signature{}, sol.PublicKey{}, err
	}

	ix, err := NewCreateInstruction(
		&CreateInstructionAccounts{
			Campaign: campaign,
			User:     c.Wallet(),
			Program:  c.program,
		},
		&CreateInstructionArgs{
			Name:        name,
			Description: description,
		},
	)
	if err != nil {
		return sol.Signature{}, sol.PublicKey{}, err
	}

	sig, err := c.chain.Submit(ctx, c.wallet, ix)
	if err != nil {
		return sol.Signature{}, campaign, errors.Wrap(err, "create campaign")
	}
	return sig, campaign, nil
}

// Donate moves amount lamports from the wallet into campaign.
func (c *Client) Donate(ctx context.Context, campaign sol.PublicKey, amount uint64) (sol.Signature, error) {
	if amount == 0 {
		return sol.Signature{}, ErrInvalidAmount
	}

	ix, err := NewDonateInstruction(
		&DonateInstructionAccounts{
			Campaign: campaign,
			User:     c.Wallet(),
			Program:  c.program,
		},
		&DonateInstructionArgs{Amount: amount},
	)
	if err != nil {
		return sol.Signature{}, err
	}

	sig, err := c.chain.Submit(ctx, c.wallet, ix)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "donate")
	}
	return sig, nil
}

// Withdraw moves amount lamports out of campaign back to the wallet. Only the
// campaign admin may withdraw.
func (c *Client) Withdraw(ctx context.Context, campaign sol.PublicKey, amount uint64) (sol.Signature, error) {
	if amount == 0 {
		return sol.Signature{}, ErrInvalidAmount
	}

	ix, err := NewWithdrawInstruction(
		&WithdrawInstructionAccounts{
			Campaign: campaign,
			User:     c.Wallet(),
			Program:  c.program,
		},
		&WithdrawInstructionArgs{Amount: amount},
	)
	if err != nil {
		return sol.Signature{}, err
	}

	sig, err := c.chain.Submit(ctx, c.wallet, ix)
	if err != nil {
		return sol.Signature{}, errors.Wrap(err, "withdraw")
	}
	return sig, nil
}

// FetchCampaign loads and decodes the campaign stored at address, together
// with the lamports the account holds.
func (c *Client) FetchCampaign(ctx context.Context, address sol.PublicKey) (*Campaign, uint64, error) {
	info, err := c.chain.Account(ctx, address)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, 0, ErrCampaignNotFound
	} else if err != nil {
		return nil, 0, errors.Wrap(err, "fetch campaign")
	}
	if !info.Owner.Equals(c.program) {
		return nil, 0, ErrNotCampaignAccount
	}

	campaign, err := UnmarshalCampaign(info.Data)
	if err != nil {
		return nil, 0, err
	}
	return campaign, info.Lamports, nil
}

func (c *Client) Balance(ctx context.Context, address sol.PublicKey) (uint64, error) {
	return c.chain.Balance(ctx, address)
}
