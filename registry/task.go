package registry

import (
	"time"

	"github.com/evalchain/evalchain/core/types"
)

// TaskID names one dataset commitment and its leaderboard.
type TaskID string

// timeNow is a seam for tests that need deterministic timestamps.
var timeNow = time.Now

// MaxAccuracyBp is full accuracy in basis points (10000 = 100%).
const MaxAccuracyBp = 10000

// RootVersion is one entry in a task's dataset-root history. Version 1 is
// the root the task was created with; updates append new versions.
type RootVersion struct {
	Version uint64
	Root    types.Hash
	Time    time.Time
}

// TaskInfo is the read-only view of a task returned by queries.
type TaskInfo struct {
	ID TaskID

	// Root is the current dataset root (the latest version). Sample
	// submissions always verify against this value.
	Root        types.Hash
	RootVersion uint64

	// BestVerifier is the current best-performing verifier, or the zero
	// address when no finalized evaluation has exceeded zero accuracy.
	BestVerifier types.Address

	// BestAccuracyBp is monotonically non-decreasing over the task's
	// lifetime, in [0, MaxAccuracyBp].
	BestAccuracyBp uint64
}

// LeaderboardEntry records one finalized evaluation result for a task.
// Entries survive evaluation resets: the leaderboard is a cross-run
// ledger, like the task's best record.
type LeaderboardEntry struct {
	Verifier      types.Address
	AccuracyBp    uint64
	CorrectCount  uint64
	TotalExpected uint64
	Finalized     time.Time
}

// taskEntry is the registry's mutable task state.
type taskEntry struct {
	id             TaskID
	roots          []RootVersion
	bestVerifier   types.Address
	bestAccuracyBp uint64
	leaderboard    []LeaderboardEntry
}

// currentRoot returns the latest committed dataset root.
func (t *taskEntry) currentRoot() types.Hash {
	return t.roots[len(t.roots)-1].Root
}

// currentVersion returns the latest root version number.
func (t *taskEntry) currentVersion() uint64 {
	return t.roots[len(t.roots)-1].Version
}

// info returns a read-only snapshot of the task.
func (t *taskEntry) info() TaskInfo {
	return TaskInfo{
		ID:             t.id,
		Root:           t.currentRoot(),
		RootVersion:    t.currentVersion(),
		BestVerifier:   t.bestVerifier,
		BestAccuracyBp: t.bestAccuracyBp,
	}
}
