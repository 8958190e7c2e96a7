package cmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the transactions of the last block",
	RunE:  viewRun,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func viewRun(cmd *cobra.Command, args []string) error {
	blk, err := newClient(url).lastBlock(cmd.Context())
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Block %d: %s", blk.Index, blk.Hash)

	if len(blk.Trans) == 0 {
		pterm.Warning.Println("no transactions")
		return nil
	}

	data := pterm.TableData{{"From", "To", "Amount", "Change", "ID"}}
	for _, t := range blk.Trans {
		data = append(data, []string{
			nodeName(t.SenderID),
			nodeName(t.ReceiverID),
			strconv.FormatUint(t.Amount, 10),
			strconv.FormatUint(t.Change, 10),
			t.ID,
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// nodeName renders a node id, the genesis sender has none.
func nodeName(id int) string {
	if id < 0 {
		return "-"
	}
	return "id" + strconv.Itoa(id)
}
