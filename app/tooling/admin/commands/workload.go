package commands

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/noobcash/blockchain/foundation/blockchain/state"
)

// Workload writes a workload file per node where every line spends a random
// amount up to maxAmount to a random other node.
func Workload(dir string, nodes int, count int, maxAmount uint64) error {
	if nodes < 2 {
		return fmt.Errorf("a workload needs at least 2 nodes, got %d", nodes)
	}

	for id := 0; id < nodes; id++ {
		path := state.WorkloadPath(dir, nodes, id)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}

		if err := writeWorkload(path, id, nodes, count, maxAmount); err != nil {
			return err
		}
	}

	return nil
}

func writeWorkload(path string, id int, nodes int, count int, maxAmount uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < count; i++ {
		to := rand.IntN(nodes - 1)
		if to >= id {
			to++
		}

		fmt.Fprintf(w, "id%d %d\n", to, rand.Uint64N(maxAmount)+1)
	}

	return w.Flush()
}
