package registry

import "github.com/evalchain/evalchain/core/types"

// EvalState is the lifecycle state of a (task, verifier) evaluation run.
type EvalState uint8

const (
	// Unstarted: no evaluation exists for the key.
	Unstarted EvalState = iota
	// Active: started and accepting sample submissions.
	Active
	// Finalized: the declared sample count was reached and accuracy was
	// recorded. Terminal except via administrator reset.
	Finalized
)

// String returns the state name.
func (s EvalState) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	default:
		return "invalid"
	}
}

// EvalKey identifies one evaluation run: at most one live run exists per
// key at a time.
type EvalKey struct {
	Task     TaskID
	Verifier types.Address
}

// Evaluation is the read-only view of an evaluation run.
//
// Invariants: CorrectCount <= TotalSubmitted <= TotalExpected, and
// State == Finalized implies TotalSubmitted == TotalExpected.
type Evaluation struct {
	TaskID         TaskID
	Verifier       types.Address
	Starter        types.Address
	TotalExpected  uint64
	TotalSubmitted uint64
	CorrectCount   uint64
	State          EvalState

	// AccuracyBp is set at finalization: floor(CorrectCount * 10000 /
	// TotalExpected). Zero while Active.
	AccuracyBp uint64
}

// evalEntry is the registry's mutable evaluation state.
type evalEntry struct {
	starter        types.Address
	totalExpected  uint64
	totalSubmitted uint64
	correctCount   uint64
	finalized      bool
	accuracyBp     uint64
}

func (e *evalEntry) state() EvalState {
	if e.finalized {
		return Finalized
	}
	return Active
}

// snapshot returns the read-only view for the given key.
func (e *evalEntry) snapshot(key EvalKey) Evaluation {
	return Evaluation{
		TaskID:         key.Task,
		Verifier:       key.Verifier,
		Starter:        e.starter,
		TotalExpected:  e.totalExpected,
		TotalSubmitted: e.totalSubmitted,
		CorrectCount:   e.correctCount,
		State:          e.state(),
		AccuracyBp:     e.accuracyBp,
	}
}

// accuracyBp computes floor(correct * 10000 / total). The start-time
// precondition totalExpected > 0 rules out division by zero.
func accuracyBp(correct, total uint64) uint64 {
	return correct * MaxAccuracyBp / total
}
