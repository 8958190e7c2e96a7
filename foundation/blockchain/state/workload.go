package state

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// StartReadingWorkload loads this node's predetermined workload and starts
// creating its transactions.
func (s *State) StartReadingWorkload() {
	s.post(func() {
		path := WorkloadPath(s.workloadDir, s.nodes, s.id)

		spends, err := LoadWorkload(path)
		if err != nil {
			s.evHandler("state: StartReadingWorkload: ERROR: %s", err)
			return
		}

		s.evHandler("state: StartReadingWorkload: path[%s]: spends[%d]", path, len(spends))

		s.toCreate = append(s.toCreate, spends...)
		s.measure.start(now())

		if !s.roundOpen {
			s.createNextTransaction()
		}
	})
}

// netTriggerWorkload tells every node, this one included, to start reading
// its workload.
func (s *State) netTriggerWorkload() {
	peers := s.contacts.Others(s.id)

	s.spawn(func() {
		s.evHandler("state: netTriggerWorkload: peers[%d]", len(peers))

		s.netSendToPeers(peers, RouteReadWorkload, nil)
		s.StartReadingWorkload()
	})
}

// =============================================================================

// WorkloadPath returns the workload file of the node in a network of the
// specified size.
func WorkloadPath(dir string, nodes int, id int) string {
	return filepath.Join(dir, fmt.Sprintf("%dnodes", nodes), fmt.Sprintf("transactions%d.txt", id))
}

// LoadWorkload reads a workload file. Every line holds a receiver token
// such as "id3" followed by an amount.
func LoadWorkload(path string) ([]Spend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var spends []Spend

	scanner := bufio.NewScanner(f)
	var line int
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		spend, err := parseSpend(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}

		spends = append(spends, spend)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return spends, nil
}

// parseSpend parses a single workload line.
func parseSpend(text string) (Spend, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Spend{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}

	const prefixLen = 2
	if len(fields[0]) <= prefixLen {
		return Spend{}, fmt.Errorf("invalid receiver %q", fields[0])
	}

	to, err := strconv.Atoi(fields[0][prefixLen:])
	if err != nil {
		return Spend{}, fmt.Errorf("invalid receiver %q: %w", fields[0], err)
	}

	amount, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Spend{}, fmt.Errorf("invalid amount %q: %w", fields[1], err)
	}

	return Spend{To: to, Amount: amount}, nil
}
