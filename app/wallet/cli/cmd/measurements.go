package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var measurementsCmd = &cobra.Command{
	Use:   "measurements",
	Short: "Print the throughput and block time of the node",
	RunE:  measurementsRun,
}

func init() {
	rootCmd.AddCommand(measurementsCmd)
}

func measurementsRun(cmd *cobra.Command, args []string) error {
	m, err := newClient(url).measurements(cmd.Context())
	if err != nil {
		return err
	}

	data := pterm.TableData{
		{"Metric", "Value"},
		{"Created", strconv.Itoa(m.Created)},
		{"Executed", strconv.Itoa(m.Executed)},
		{"Transactions time (s)", fmt.Sprintf("%.3f", m.TransactionsTime)},
		{"Throughput (tx/s)", fmt.Sprintf("%.3f", m.Throughput)},
		{"Blocks mined", strconv.Itoa(len(m.BlockTimes))},
		{"Mean block time (s)", fmt.Sprintf("%.3f", m.MeanBlockTime)},
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
