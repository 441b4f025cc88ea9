package main

import (
	"fmt"
	"io"
	"os"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/example/crowdfund/internal/crowdfund"
)

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// campaignFor resolves the --campaign flag, defaulting to the wallet's own PDA.
func campaignFor(client *crowdfund.Client, flag string) (sol.PublicKey, error) {
	if flag == "" {
		return client.CampaignAddress()
	}
	pk, err := sol.PublicKeyFromBase58(flag)
	if err != nil {
		return sol.PublicKey{}, errors.Wrapf(err, "invalid campaign %q", flag)
	}
	return pk, nil
}

func printCampaign(w io.Writer, address sol.PublicKey, c *crowdfund.Campaign, lamports uint64) {
	fmt.Fprintf(w, "campaign:       %s\n", address)
	fmt.Fprintf(w, "admin:          %s\n", c.Admin)
	fmt.Fprintf(w, "name:           %s\n", c.Name)
	fmt.Fprintf(w, "description:    %s\n", c.Description)
	fmt.Fprintf(w, "amount donated: %s SOL\n", crowdfund.FormatSOL(c.AmountDonated))
	fmt.Fprintf(w, "balance:        %s SOL\n", crowdfund.FormatSOL(lamports))
}
