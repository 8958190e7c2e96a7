package cmd

import (
	"fmt"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the public key of the specified wallet",
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	w, err := database.LoadWallet(getPrivateKeyPath())
	if err != nil {
		return err
	}

	fmt.Println(w.PublicKey)
	return nil
}
