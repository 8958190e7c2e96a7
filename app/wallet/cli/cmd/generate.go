package cmd

import (
	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair for a node",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	w, err := database.NewWallet()
	if err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if err := w.Save(path); err != nil {
		return err
	}

	pterm.Success.Printfln("key written to %s", path)
	return nil
}
