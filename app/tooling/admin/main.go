// This program performs administrative tasks for a noobcash network: it
// inspects the block archive a node leaves behind and generates workloads.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/noobcash/blockchain/app/tooling/admin/commands"
	"github.com/noobcash/blockchain/foundation/blockchain/storage/disk"
	"github.com/noobcash/blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("startup", "version", build)

	return processCommands(os.Args)
}

// processCommands handles the execution of the commands specified on
// the command line.
//
//	admin blocks <archive>
//	admin bals <archive> [public key]
//	admin workload <dir> <nodes> <count> <max amount>
func processCommands(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: admin blocks|bals <archive> | admin workload <dir> <nodes> <count> <max>")
	}

	switch args[1] {
	case "blocks":
		db, err := disk.New(args[2])
		if err != nil {
			return err
		}
		defer db.Close()

		if err := commands.Blocks(os.Stdout, db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "bals":
		db, err := disk.New(args[2])
		if err != nil {
			return err
		}
		defer db.Close()

		var only string
		if len(args) == 4 {
			only = args[3]
		}

		if err := commands.Balances(os.Stdout, db, only); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "workload":
		if len(args) != 6 {
			return errors.New("usage: admin workload <dir> <nodes> <count> <max>")
		}

		var nums [3]int
		for i, s := range args[3:] {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid number %q", s)
			}
			nums[i] = n
		}

		if err := commands.Workload(args[2], nums[0], nums[1], uint64(nums[2])); err != nil {
			return fmt.Errorf("writing workload: %w", err)
		}

	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
