package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/app"
	"github.com/example/crowdfund/internal/config"
	"github.com/example/crowdfund/internal/logging"
)

// cli holds the state shared by every command: config overlaid with flags,
// and the logger built in PersistentPreRunE.
type cli struct {
	cfg     config.Config
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Load()}

	root := &cobra.Command{
		Use:   "crowdfund",
		Short: "Drive the crowdfunding program from the command line",
		Long: `crowdfund creates, funds and drains the campaign owned by your wallet.

Every wallet owns at most one campaign, stored at a program derived address.
Use --backend memory to run against an in-process ledger with a funded
throwaway wallet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := c.cfg.LogLevel
			if c.verbose {
				level = "debug"
			} else if !cmd.Flags().Changed("log-level") && !envSet("LOG_LEVEL") {
				level = "warn"
			}
			log, err := logging.New(level)
			if err != nil {
				return err
			}
			c.logger = log
			c.cfg.Normalize()
			return c.cfg.Validate()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&c.cfg.RPCURL, "url", "u", c.cfg.RPCURL, "JSON-RPC endpoint")
	f.StringVarP(&c.cfg.WalletPath, "wallet", "w", c.cfg.WalletPath, "solana-keygen keypair file")
	f.StringVar(&c.cfg.ProgramID, "program-id", c.cfg.ProgramID, "crowdfunding program address")
	f.StringVar(&c.cfg.SolCommitment, "commitment", c.cfg.SolCommitment, "processed, confirmed or finalized")
	f.StringVar(&c.cfg.Backend, "backend", c.cfg.Backend, "rpc or memory")
	f.DurationVar(&c.cfg.ConfirmTimeout, "confirm-timeout", c.cfg.ConfirmTimeout, "how long to wait for confirmation")
	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.addressCmd(),
		c.initializeCmd(),
		c.createCmd(),
		c.donateCmd(),
		c.withdrawCmd(),
		c.showCmd(),
		c.balanceCmd(),
		c.airdropCmd(),
		c.demoCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) (*app.Env, error) {
	return app.Open(cmd.Context(), c.cfg, c.logger)
}
