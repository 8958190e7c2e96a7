package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the node",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	bal, err := newClient(url).balance(cmd.Context())
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Node: %d", bal.ID)
	pterm.Info.Printfln("Public Key: %s", bal.PublicKey)
	pterm.Success.Printfln("Balance: %d NBC", bal.Balance)
	return nil
}
