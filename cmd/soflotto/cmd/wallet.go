package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	solclient "github.com/lugondev/go-soflotto/internal/solana"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for managing Solana wallets including generation, balance checks and devnet airdrops.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long:  `Generate a new Solana keypair. With --out the keypair is written in the Solana CLI format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := solclient.NewWallet()
		out := cmd.OutOrStdout()

		path, _ := cmd.Flags().GetString("out")
		if path != "" {
			if err := w.SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Keypair written to %s\n", path)
			fmt.Fprintf(out, "  Public Key: %s\n", w.PublicKey())
			return nil
		}

		fmt.Fprintln(out, "New wallet generated!")
		fmt.Fprintf(out, "  Public Key:  %s\n", w.PublicKey())
		fmt.Fprintf(out, "  Private Key: %s\n", w.PrivateKey())
		fmt.Fprintln(out, "\nWARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check wallet balance",
	Long:  `Check the SOL balance of a wallet address.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}

		ctx, cancel := rpcContext(cmd.Context())
		defer cancel()
		balance, err := rpcClient().GetBalanceSOL(ctx, pubKey)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\nBalance: %.9f SOL\n", pubKey, balance)
		return nil
	},
}

var walletAirdropCmd = &cobra.Command{
	Use:   "airdrop [address]",
	Short: "Request a devnet or testnet airdrop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}
		if cfg.Solana.Network == "mainnet" || cfg.Solana.Network == "mainnet-beta" {
			return fmt.Errorf("airdrops are not available on %s", cfg.Solana.Network)
		}
		sol, _ := cmd.Flags().GetFloat64("sol")
		if sol <= 0 {
			return fmt.Errorf("--sol must be positive")
		}

		ctx, cancel := rpcContext(cmd.Context())
		defer cancel()
		sig, err := rpcClient().RequestAirdrop(ctx, pubKey, uint64(sol*float64(solana.LAMPORTS_PER_SOL)))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Airdrop requested: %s\n", sig)
		return nil
	},
}

func rpcClient() *solclient.Client {
	return solclient.NewClient(cfg.Solana.GetRPCEndpoint())
}

func rpcContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	timeout := time.Duration(cfg.Solana.Timeout) * time.Second
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletBalanceCmd)
	walletCmd.AddCommand(walletAirdropCmd)

	walletNewCmd.Flags().String("out", "", "write the keypair to this file instead of printing it")
	walletAirdropCmd.Flags().Float64("sol", 1, "amount of SOL to request")
}
