package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-soflotto/internal/idl"
	"github.com/lugondev/go-soflotto/internal/program"
)

var idlCmd = &cobra.Command{
	Use:   "idl",
	Short: "Export the program IDL",
	Long: `Describe the instruction table, account layouts, events, errors and
constants of the configured deployment as an Anchor IDL document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := addressBook()
		if err != nil {
			return err
		}
		doc, err := idl.Build(book, program.DefaultRegistry(), Version)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode IDL: %w", err)
		}
		data = append(data, '\n')

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write IDL: %w", err)
		}
		logger.Info("IDL written", "path", path, "instructions", len(doc.Instructions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idlCmd)
	idlCmd.Flags().String("out", "", "write the IDL to this file")
}
