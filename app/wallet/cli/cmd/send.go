package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:     "send <id> <amount>",
	Aliases: []string{"t"},
	Short:   "Send coins to the node with the specified id",
	Args:    cobra.ExactArgs(2),
	RunE:    sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func sendRun(cmd *cobra.Command, args []string) error {
	to, err := parseID(args[0])
	if err != nil {
		return err
	}

	amount, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || amount == 0 {
		return fmt.Errorf("invalid amount %q", args[1])
	}

	st, err := newClient(url).send(cmd.Context(), to, amount)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("%d coins to node %d: %s", amount, to, st)
	return nil
}

// parseID accepts a node id written as "3" or "id3".
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "id"))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid node id %q", s)
	}

	return id, nil
}
