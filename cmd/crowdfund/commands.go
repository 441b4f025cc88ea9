package main

import (
	"fmt"

	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/crowdfund/internal/app"
	"github.com/example/crowdfund/internal/crowdfund"
)

func (c *cli) addressCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the campaign address of the wallet or --owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := c.cfg.Program()
			if err != nil {
				return err
			}
			var ownerKey sol.PublicKey
			if owner != "" {
				if ownerKey, err = sol.PublicKeyFromBase58(owner); err != nil {
					return errors.Wrapf(err, "invalid owner %q", owner)
				}
			} else {
				wallet, err := app.LoadWallet(c.cfg.WalletPath, false)
				if err != nil {
					return err
				}
				ownerKey = wallet.PublicKey()
			}
			address, bump, err := crowdfund.GetCampaignAddress(&crowdfund.GetCampaignAddressArgs{Owner: ownerKey, Program: program})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (bump %d)\n", address, bump)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "derive for this public key instead of the wallet")
	return cmd
}

func (c *cli) initializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initialize",
		Short: "Send the program's initialize instruction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			sig, err := env.Client.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signature: %s\n", sig)
			return nil
		},
	}
}

func (c *cli) createCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create the wallet's campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			sig, address, err := env.Client.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signature: %s\n", sig)
			fmt.Fprintf(out, "campaign:  %s\n", address)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "campaign description")
	return cmd
}

// transferCmd builds donate and withdraw, which differ only in the client call.
func (c *cli) transferCmd(use, short string, send func(*app.Env, *cobra.Command, sol.PublicKey, uint64) (sol.Signature, error)) *cobra.Command {
	var (
		campaign string
		lamports bool
	)
	cmd := &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := crowdfund.ParseAmount(args[0], lamports)
			if err != nil {
				return err
			}
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			address, err := campaignFor(env.Client, campaign)
			if err != nil {
				return err
			}
			sig, err := send(env, cmd, address, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signature: %s\n", sig)
			return nil
		},
	}
	cmd.Flags().StringVarP(&campaign, "campaign", "c", "", "campaign address (default: the wallet's own)")
	cmd.Flags().BoolVar(&lamports, "lamports", false, "amount is in lamports rather than SOL")
	return cmd
}

func (c *cli) donateCmd() *cobra.Command {
	return c.transferCmd("donate", "Donate SOL to a campaign",
		func(env *app.Env, cmd *cobra.Command, address sol.PublicKey, amount uint64) (sol.Signature, error) {
			return env.Client.Donate(cmd.Context(), address, amount)
		})
}

func (c *cli) withdrawCmd() *cobra.Command {
	return c.transferCmd("withdraw", "Withdraw SOL from a campaign you administer",
		func(env *app.Env, cmd *cobra.Command, address sol.PublicKey, amount uint64) (sol.Signature, error) {
			return env.Client.Withdraw(cmd.Context(), address, amount)
		})
}

func (c *cli) showCmd() *cobra.Command {
	var campaign string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a campaign",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			address, err := campaignFor(env.Client, campaign)
			if err != nil {
				return err
			}
			state, lamports, err := env.Client.FetchCampaign(cmd.Context(), address)
			if err != nil {
				return err
			}
			printCampaign(cmd.OutOrStdout(), address, state, lamports)
			return nil
		},
	}
	cmd.Flags().StringVarP(&campaign, "campaign", "c", "", "campaign address (default: the wallet's own)")
	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the SOL balance of the wallet or an address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			address := env.Client.Wallet()
			if len(args) == 1 {
				if address, err = sol.PublicKeyFromBase58(args[0]); err != nil {
					return errors.Wrapf(err, "invalid address %q", args[0])
				}
			}
			lamports, err := env.Client.Balance(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s SOL\n", crowdfund.FormatSOL(lamports))
			return nil
		},
	}
}

func (c *cli) airdropCmd() *cobra.Command {
	var lamports bool
	cmd := &cobra.Command{
		Use:   "airdrop <amount>",
		Short: "Request an airdrop to the wallet (local validators and devnet only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := crowdfund.ParseAmount(args[0], lamports)
			if err != nil {
				return err
			}
			if amount == 0 {
				return crowdfund.ErrInvalidAmount
			}
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			sig, err := env.Backend.Airdrop(cmd.Context(), env.Client.Wallet(), amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signature: %s\n", sig)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lamports, "lamports", false, "amount is in lamports rather than SOL")
	return cmd
}

// demoCmd runs create, donate, withdraw and show in one process, which is the
// only way to see a full lifecycle on the memory backend.
func (c *cli) demoCmd() *cobra.Command {
	var (
		name        string
		description string
		donate      string
		withdraw    string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create a campaign, donate to it and withdraw from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			donateAmount, err := crowdfund.ParseSOL(donate)
			if err != nil {
				return err
			}
			withdrawAmount, err := crowdfund.ParseSOL(withdraw)
			if err != nil {
				return err
			}
			env, err := c.open(cmd)
			if err != nil {
				return err
			}
			ctx, out := cmd.Context(), cmd.OutOrStdout()

			sig, address, err := env.Client.Create(ctx, name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "create:   %s\n", sig)

			if sig, err = env.Client.Donate(ctx, address, donateAmount); err != nil {
				return err
			}
			fmt.Fprintf(out, "donate:   %s\n", sig)

			if sig, err = env.Client.Withdraw(ctx, address, withdrawAmount); err != nil {
				return err
			}
			fmt.Fprintf(out, "withdraw: %s\n", sig)

			state, lamports, err := env.Client.FetchCampaign(ctx, address)
			if err != nil {
				return err
			}
			printCampaign(out, address, state, lamports)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "demo", "campaign name")
	f.StringVar(&description, "description", "a demo campaign", "campaign description")
	f.StringVar(&donate, "donate", "0.2", "SOL to donate")
	f.StringVar(&withdraw, "withdraw", "0.2", "SOL to withdraw")
	return cmd
}
