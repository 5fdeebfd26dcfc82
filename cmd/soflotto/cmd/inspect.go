package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-soflotto/internal/state"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect a live deployment over RPC",
}

var inspectStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the program's global, admin and pool state",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := addressBook()
		if err != nil {
			return err
		}
		ctx, cancel := rpcContext(cmd.Context())
		defer cancel()

		d, err := rpcClient().FetchDeployment(ctx, book)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Slot:\t%d\n", d.Slot)
		writeGlobal(w, d.Global)
		if d.Admin != nil {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Master admin:\t%s\n", d.Admin.MasterAdmin)
			fmt.Fprintf(w, "Admins:\t%d\n", d.Admin.AdminCount)
			for i, a := range d.Admin.Members() {
				fmt.Fprintf(w, "  [%d]\t%s\n", i, a)
			}
			fmt.Fprintf(w, "Admin pause:\t%t\n", d.Admin.IsPaused)
		}
		for _, p := range []struct {
			name string
			pool *state.LiquidityPool
		}{{"Bank pool", d.BankPool}, {"Locked pool", d.LockedPool}} {
			if p.pool == nil {
				continue
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%s:\tsol %d\ttokens %d\tfees %d\tactive %t\n", p.name, p.pool.SolBalance, p.pool.TokenBalance, p.pool.FeesCollected, p.pool.IsActive)
		}
		return w.Flush()
	},
}

var inspectTxCmd = &cobra.Command{
	Use:   "tx [signature]",
	Short: "Decode the program events of a confirmed transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := solana.SignatureFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}
		ctx, cancel := rpcContext(cmd.Context())
		defer cancel()

		report, err := rpcClient().FetchTransaction(ctx, sig)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Signature:   %s\n", report.Signature)
		fmt.Fprintf(out, "Slot:        %d\n", report.Slot)
		fmt.Fprintf(out, "Program:     %s\n", report.Outcome.ProgramID)
		fmt.Fprintf(out, "Instruction: %s\n", report.Outcome.Instruction)
		if report.Outcome.Success {
			fmt.Fprintln(out, "Status:      success")
		} else {
			fmt.Fprintf(out, "Status:      failed %s\n", report.Outcome.Failure)
		}
		for _, e := range report.Events {
			fmt.Fprintf(out, "  %s %+v\n", e.EventName(), e)
		}
		if verbose, _ := cmd.Flags().GetBool("logs"); verbose {
			fmt.Fprintln(out, "Logs:")
			for _, l := range report.Logs {
				fmt.Fprintf(out, "  %s\n", l)
			}
		}
		return nil
	},
}

func writeGlobal(w io.Writer, gs *state.GlobalState) {
	fmt.Fprintf(w, "Authority:\t%s\n", gs.Authority)
	fmt.Fprintf(w, "Mint:\t%s\n", gs.TokenMint)
	fmt.Fprintf(w, "Supply:\t%d\n", gs.TotalSupply)
	fmt.Fprintf(w, "Burned:\t%d\n", gs.BurnedTokens)
	fmt.Fprintf(w, "Tax (buy/sell bps):\t%d/%d\n", gs.BuyTaxBps, gs.SellTaxBps)
	fmt.Fprintf(w, "LP split (bank/locked bps):\t%d/%d\n", gs.BankLpBps, gs.LockedLpBps)
	fmt.Fprintf(w, "Paused:\t%t\n", gs.IsEmergencyPaused)
	fmt.Fprintf(w, "Pools bootstrapped:\t%t\n", gs.PoolsBootstrapped)
	fmt.Fprintf(w, "Round:\t%d\n", gs.CurrentRound)
	fmt.Fprintf(w, "Draw phase:\t%s\n", gs.DrawPhase)
	fmt.Fprintf(w, "Participants:\t%d\n", gs.Participants)
	fmt.Fprintf(w, "Entries:\t%d\n", gs.TotalEntries)
	fmt.Fprintf(w, "Jackpot:\t%d\n", gs.JackpotAmount)
	fmt.Fprintf(w, "Pending LP fees:\t%d\n", gs.PendingLpFees)
	fmt.Fprintf(w, "LP fees collected:\t%d\n", gs.TotalLpFeesCollected)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.AddCommand(inspectStateCmd)
	inspectCmd.AddCommand(inspectTxCmd)
	inspectTxCmd.Flags().Bool("logs", false, "print the raw log transcript")
}
