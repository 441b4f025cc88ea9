package crowdfund

import (
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type GetCampaignAddressArgs struct {
	Owner sol.PublicKey

	// Program defaults to ProgramID when zero.
	Program sol.PublicKey
}

// GetCampaignAddress derives the campaign PDA for an owner from the seeds
// ["CAMPAIGN_DEMO", owner].
func GetCampaignAddress(args *GetCampaignAddressArgs) (sol.PublicKey, uint8, error) {
	if args.Owner.IsZero() {
		return sol.PublicKey{}, 0, errors.New("owner is required")
	}
	addr, bump, err := sol.FindProgramAddress(
		[][]byte{
			CampaignSeed,
			args.Owner.Bytes(),
		},
		programOrDefault(args.Program),
	)
	if err != nil {
		return sol.PublicKey{}, 0, errors.Wrap(err, "failed to derive campaign address")
	}
	return addr, bump, nil
}
