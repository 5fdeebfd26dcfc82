package cmd

import (
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-soflotto/internal/address"
	"github.com/lugondev/go-soflotto/internal/common"
	"github.com/lugondev/go-soflotto/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soflotto",
	Short: "SOF token engine - tax, dual liquidity pools and a holder lottery",
	Long: `soflotto runs and inspects the SOF token program.

It provides commands for:
- Simulating scripted scenarios against an in-memory ledger
- Deriving program addresses and exporting the IDL
- Inspecting a live deployment over RPC
- Wallet management and database migrations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.soflotto.yaml or $HOME/.soflotto.yaml)")
	rootCmd.PersistentFlags().String("rpc", "", "Solana RPC endpoint (overrides solana.rpc)")
	rootCmd.PersistentFlags().String("network", "", "Solana network (mainnet, devnet, testnet, localnet)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("rpc"); v != "" {
		loaded.Solana.RPC = v
	}
	if v, _ := flags.GetString("network"); v != "" {
		loaded.Solana.Network = v
		if !flags.Changed("rpc") {
			loaded.Solana.RPC = ""
		}
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		loaded.Log.Level = v
	}
	cfg = loaded
	logger = common.NewLogger(cfg.Log, os.Stderr)
	return nil
}

// addressBook derives the deployment addresses from the configured program id.
func addressBook() (*address.Book, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.Program.ID)
	if err != nil {
		return nil, err
	}
	d, err := address.NewDeriver(cfg.Program.AddressScheme, programID)
	if err != nil {
		return nil, err
	}
	return address.NewBook(d)
}
