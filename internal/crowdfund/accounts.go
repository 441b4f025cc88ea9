package crowdfund

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// MaxTextBytes is how much name plus description a campaign account can hold.
const MaxTextBytes = CampaignAccountSpace - (8 + // discriminator
	32 + // admin
	4 + // name length
	4 + // description length
	8) // amount_donated

var campaignAccountDiscriminator = sighash("account", "Campaign")

// Campaign is the on-chain state behind a campaign PDA.
type Campaign struct {
	Admin         sol.PublicKey
	Name          string
	Description   string
	AmountDonated uint64
}

// Marshal serializes the campaign the way the program stores it: Anchor
// discriminator, borsh body, zero padding up to CampaignAccountSpace.
func (c *Campaign) Marshal() ([]byte, error) {
	if len(c.Name)+len(c.Description) > MaxTextBytes {
		return nil, ErrTextTooLong
	}

	buf := bytes.NewBuffer(make([]byte, 0, CampaignAccountSpace))
	buf.Write(campaignAccountDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(*c); err != nil {
		return nil, errors.Wrap(err, "failed to encode campaign")
	}

	data := make([]byte, CampaignAccountSpace)
	copy(data, buf.Bytes())
	return data, nil
}

// UnmarshalCampaign decodes account data written by the program.
func UnmarshalCampaign(data []byte) (*Campaign, error) {
	if len(data) < 8+32+4+4+8 {
		return nil, ErrInvalidAccountData
	}
	if !IsCampaignAccount(data) {
		return nil, ErrNotCampaignAccount
	}

	var c Campaign
	if err := bin.NewBorshDecoder(data[8:]).Decode(&c); err != nil {
		return nil, errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	return &c, nil
}

// IsCampaignAccount reports whether data starts with the Campaign discriminator.
func IsCampaignAccount(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], campaignAccountDiscriminator[:])
}
