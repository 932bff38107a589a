package node

import (
	"fmt"
	"testing"

	"github.com/evalchain/evalchain/core/types"
	"github.com/evalchain/evalchain/crypto"
	"github.com/evalchain/evalchain/registry"
)

const adminHex = "0xadadadadadadadadadadadadadadadadadadadad"

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Admin = adminHex
	cfg.LogLevel = "error"
	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig() // no admin
	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted a config without admin")
	}
}

// TestNodeEndToEnd drives a full evaluation through the node: events
// reach bus subscribers and metrics are recorded.
func TestNodeEndToEnd(t *testing.T) {
	n := newTestNode(t)
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer n.Stop()

	sub := n.Bus().Subscribe(registry.EventEvaluationFinalized)

	// Commit a small dataset and run one evaluation.
	leaves := make([]types.Hash, 4)
	for i := range leaves {
		leaves[i] = crypto.HashLeaf([]byte(fmt.Sprintf("sample-%d", i)))
	}
	tree, err := crypto.NewMerkleTree(leaves)
	if err != nil {
		t.Fatalf("NewMerkleTree: %v", err)
	}

	admin := types.HexToAddress(adminHex)
	verifier := types.HexToAddress("0x01")
	reg := n.Registry()

	if err := reg.CreateTask(admin, "demo", tree.Root()); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := reg.StartEvaluation(admin, "demo", verifier, 4); err != nil {
		t.Fatalf("StartEvaluation: %v", err)
	}
	for i := 0; i < 4; i++ {
		proof, _ := tree.Proof(i)
		if _, err := reg.SubmitSample(admin, "demo", verifier, leaves[i], crypto.EncodeProof(proof), i < 3); err != nil {
			t.Fatalf("SubmitSample(%d): %v", i, err)
		}
	}

	ev := <-sub.Chan()
	data, ok := ev.Data.(registry.EvaluationFinalizedData)
	if !ok {
		t.Fatalf("payload type = %T", ev.Data)
	}
	if data.AccuracyBp != 7500 {
		t.Errorf("accuracy = %d, want 7500", data.AccuracyBp)
	}

	snap := n.Metrics().Snapshot()
	if snap["samples_accepted"] != 4 {
		t.Errorf("samples_accepted = %d, want 4", snap["samples_accepted"])
	}
	if snap["evaluations_finalized"] != 1 {
		t.Errorf("evaluations_finalized = %d, want 1", snap["evaluations_finalized"])
	}
}

func TestNodeStartStopIdempotent(t *testing.T) {
	n := newTestNode(t)
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	n.Stop()
	n.Stop()
}
