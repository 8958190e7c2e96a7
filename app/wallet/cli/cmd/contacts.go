package cmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Print the nodes known to the node and their balances",
	RunE:  contactsRun,
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func contactsRun(cmd *cobra.Command, args []string) error {
	contacts, err := newClient(url).contacts(cmd.Context())
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Node", "Host", "Outputs", "Balance"}}
	for _, c := range contacts {
		data = append(data, []string{
			nodeName(c.ID),
			c.Host,
			strconv.Itoa(c.Outputs),
			strconv.FormatUint(c.Balance, 10),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
