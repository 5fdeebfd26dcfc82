package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the program's derived addresses",
	Long: `Print every singleton address of the configured deployment. With --user
or --round the per-user state or per-round draw result address is added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := addressBook()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "program\t%s\t\n", book.ProgramID())
		for _, n := range book.Named() {
			fmt.Fprintf(w, "%s\t%s\tbump %d\n", n.Name, n.Address, n.Bump)
		}

		if user, _ := cmd.Flags().GetString("user"); user != "" {
			owner, err := solana.PublicKeyFromBase58(user)
			if err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}
			d, err := book.User(owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "userState\t%s\tbump %d\n", d.Address, d.Bump)
		}
		if cmd.Flags().Changed("round") {
			round, _ := cmd.Flags().GetUint64("round")
			d, err := book.Draw(round)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "drawResult[%d]\t%s\tbump %d\n", round, d.Address, d.Bump)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().String("user", "", "also derive the user state of this wallet")
	deriveCmd.Flags().Uint64("round", 0, "also derive the draw result of this round")
}
