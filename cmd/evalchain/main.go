// Command evalchain commits a dataset file as a Merkle root, runs a local
// evaluation against it sample by sample, and prints the resulting
// leaderboard. It exercises the same registry core a ledger host would
// drive, which makes it useful for smoke-testing datasets and proofs.
//
// The dataset file holds one record per line. Each line is hashed into a
// leaf; the predictions file (optional) holds one "1" or "0" per line
// marking the externally judged correctness of the verifier's output for
// the corresponding record.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/evalchain/evalchain/core/types"
	"github.com/evalchain/evalchain/crypto"
	"github.com/evalchain/evalchain/node"
	"github.com/evalchain/evalchain/registry"
)

func main() {
	cfg := node.DefaultConfig()

	var (
		datasetPath = flag.String("dataset", "", "path to the dataset file (one record per line)")
		predsPath   = flag.String("predictions", "", "path to the predictions file (one 1/0 per line; default all correct)")
		taskID      = flag.String("task", "local-task", "task identifier")
		verifierHex = flag.String("verifier", "0x0000000000000000000000000000000000000001", "verifier address")
	)
	flag.StringVar(&cfg.Admin, "admin", "0xadadadadadadadadadadadadadadadadadadadad", "administrator address")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics HTTP listen address (empty disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log verbosity (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log output format (json, text)")
	flag.Parse()

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -dataset flag")
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *datasetPath, *predsPath, registry.TaskID(*taskID), types.HexToAddress(*verifierHex)); err != nil {
		fmt.Fprintf(os.Stderr, "evalchain: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg node.Config, datasetPath, predsPath string, taskID registry.TaskID, verifier types.Address) error {
	leaves, err := readLeaves(datasetPath)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	correct, err := readPredictions(predsPath, len(leaves))
	if err != nil {
		return fmt.Errorf("read predictions: %w", err)
	}

	tree, err := crypto.NewMerkleTree(leaves)
	if err != nil {
		return fmt.Errorf("build merkle tree: %w", err)
	}
	fmt.Printf("dataset committed: %d records, root %s\n", len(leaves), tree.Root())

	n, err := node.New(cfg)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}
	defer n.Stop()

	admin := cfg.AdminAddress()
	reg := n.Registry()
	if err := reg.CreateTask(admin, taskID, tree.Root()); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	if err := reg.StartEvaluation(admin, taskID, verifier, uint64(len(leaves))); err != nil {
		return fmt.Errorf("start evaluation: %w", err)
	}

	for i, leaf := range leaves {
		proof, err := tree.Proof(i)
		if err != nil {
			return fmt.Errorf("proof for record %d: %w", i, err)
		}
		ev, err := reg.SubmitSample(admin, taskID, verifier, leaf, crypto.EncodeProof(proof), correct[i])
		if err != nil {
			return fmt.Errorf("submit record %d: %w", i, err)
		}
		if ev.State == registry.Finalized {
			fmt.Printf("evaluation finalized: accuracy %d bp (%d/%d correct)\n",
				ev.AccuracyBp, ev.CorrectCount, ev.TotalExpected)
		}
	}

	entries, err := reg.Leaderboard(taskID)
	if err != nil {
		return err
	}
	fmt.Println("leaderboard:")
	for _, e := range entries {
		fmt.Printf("  %s  %5d bp  (%d/%d)\n", e.Verifier, e.AccuracyBp, e.CorrectCount, e.TotalExpected)
	}

	info, err := reg.Task(taskID)
	if err != nil {
		return err
	}
	if info.BestVerifier.IsZero() {
		fmt.Println("best verifier: none")
	} else {
		fmt.Printf("best verifier: %s at %d bp\n", info.BestVerifier, info.BestAccuracyBp)
	}
	return nil
}

// readLeaves hashes each line of the dataset file into a leaf.
func readLeaves(path string) ([]types.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var leaves []types.Hash
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		leaves = append(leaves, crypto.HashLeaf(scanner.Bytes()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}
	return leaves, nil
}

// readPredictions reads one 1/0 per line. With no path, every sample is
// treated as correct.
func readPredictions(path string, n int) ([]bool, error) {
	correct := make([]bool, n)
	if path == "" {
		for i := range correct {
			correct[i] = true
		}
		return correct, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	i := 0
	for scanner.Scan() {
		if i >= n {
			return nil, fmt.Errorf("more predictions than dataset records (%d)", n)
		}
		switch scanner.Text() {
		case "1":
			correct[i] = true
		case "0":
			correct[i] = false
		default:
			return nil, fmt.Errorf("line %d: want 1 or 0, got %q", i+1, scanner.Text())
		}
		i++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if i != n {
		return nil, fmt.Errorf("predictions count %d does not match dataset records %d", i, n)
	}
	return correct, nil
}
