// Package registry implements the evaluation core: per-task dataset-root
// storage, the per-(task, verifier) evaluation state machine, and
// best-accuracy bookkeeping, with every accepted sample backed by a
// Merkle inclusion proof against the task's committed root.
//
// The registry is the single writer of all task and evaluation state.
// Every public operation executes under one mutex, which gives the
// per-operation atomicity the host ledger would provide natively: the
// submit -> count -> maybe-finalize sequence can never interleave with
// another submission for the same key, and readers never observe a
// half-updated best record.
package registry

import (
	"fmt"
	"sync"

	"github.com/evalchain/evalchain/core/types"
	"github.com/evalchain/evalchain/crypto"
	"github.com/evalchain/evalchain/log"
	"github.com/evalchain/evalchain/metrics"
)

// Config configures a Registry. Admin is required; the remaining fields
// are injected host collaborators and may be left zero.
type Config struct {
	// Admin is the identity allowed to create tasks, update dataset
	// roots, and reset evaluations.
	Admin types.Address

	// VerifierCheck, when set, is consulted at evaluation start to decide
	// whether the target identity is an acceptable verifier (e.g. "does
	// this address hold runnable code" on a ledger host). The zero
	// address is always rejected regardless.
	VerifierCheck func(types.Address) bool

	// Sink, when set, receives every appended event synchronously, in
	// log order. See EventSink for the re-entrancy contract.
	Sink EventSink

	// Logger defaults to the package default logger's "registry" module.
	Logger *log.Logger

	// Metrics defaults to metrics.DefaultRegistry.
	Metrics *metrics.Registry
}

// Registry owns all evaluation state and drives the state machine.
type Registry struct {
	mu sync.RWMutex

	admin         types.Address
	verifierCheck func(types.Address) bool
	sink          EventSink

	tasks      map[TaskID]*taskEntry
	evals      map[EvalKey]*evalEntry
	registered map[EvalKey]bool

	events *eventLog
	lg     *log.Logger
	mt     *metrics.Registry
}

// New creates a Registry. It fails if cfg.Admin is the zero address: an
// unowned registry would have no way to register tasks.
func New(cfg Config) (*Registry, error) {
	if cfg.Admin.IsZero() {
		return nil, fmt.Errorf("registry: admin must not be the zero address")
	}
	lg := cfg.Logger
	if lg == nil {
		lg = log.Default().Module("registry")
	}
	mt := cfg.Metrics
	if mt == nil {
		mt = metrics.DefaultRegistry
	}
	return &Registry{
		admin:         cfg.Admin,
		verifierCheck: cfg.VerifierCheck,
		sink:          cfg.Sink,
		tasks:         make(map[TaskID]*taskEntry),
		evals:         make(map[EvalKey]*evalEntry),
		registered:    make(map[EvalKey]bool),
		events:        newEventLog(),
		lg:            lg,
		mt:            mt,
	}, nil
}

// Admin returns the administrator identity the registry was created with.
func (r *Registry) Admin() types.Address {
	return r.admin
}

// emit appends the event to the log and forwards it to the sink, if any.
// Called with r.mu held; appended order therefore matches operation order.
func (r *Registry) emit(typ EventType, data interface{}) Event {
	ev := r.events.append(typ, data)
	if r.sink != nil {
		r.sink.Publish(ev)
	}
	return ev
}

// ---------------------------------------------------------------------------
// Task lifecycle
// ---------------------------------------------------------------------------

// CreateTask registers a new task committed to the given dataset root.
// Administrator only. The root becomes version 1 of the task's root
// history; the task starts with no best verifier and zero best accuracy.
func (r *Registry) CreateTask(caller types.Address, id TaskID, root types.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrNotAdmin
	}
	if root.IsZero() {
		return ErrZeroRoot
	}
	if _, exists := r.tasks[id]; exists {
		return ErrTaskExists
	}

	r.tasks[id] = &taskEntry{
		id:    id,
		roots: []RootVersion{{Version: 1, Root: root, Time: timeNow()}},
	}
	r.emit(EventTaskCreated, TaskCreatedData{TaskID: id, Root: root, Creator: caller})
	r.mt.Counter("tasks_created").Inc()
	r.lg.Info("task created", "task", string(id), "root", root.Hex())
	return nil
}

// UpdateTaskRoot commits a new dataset root for the task, appending a new
// version to its root history. Administrator only.
//
// Root updates are not retroactive: samples already accepted by in-flight
// evaluations were verified against whichever root was current at their
// submission time, and later submissions verify against the new root.
func (r *Registry) UpdateTaskRoot(caller types.Address, id TaskID, newRoot types.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrNotAdmin
	}
	if newRoot.IsZero() {
		return ErrZeroRoot
	}
	task, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	version := task.currentVersion() + 1
	task.roots = append(task.roots, RootVersion{Version: version, Root: newRoot, Time: timeNow()})
	r.emit(EventTaskRootUpdated, TaskRootUpdatedData{
		TaskID:  id,
		NewRoot: newRoot,
		Version: version,
		Updater: caller,
	})
	r.mt.Counter("root_updates").Inc()
	r.lg.Info("task root updated", "task", string(id), "root", newRoot.Hex(), "version", version)
	return nil
}

// ---------------------------------------------------------------------------
// Evaluation state machine
// ---------------------------------------------------------------------------

// StartEvaluation opens an evaluation run for (id, verifier), declaring
// how many samples will be submitted. Any caller may start a run;
// starting is a declaration, not an accuracy claim. At most one run per
// key exists at a time, and a finalized run blocks restarts until an
// administrator reset.
func (r *Registry) StartEvaluation(caller types.Address, id TaskID, verifier types.Address, totalExpected uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	if verifier.IsZero() {
		return ErrInvalidVerifier
	}
	if r.verifierCheck != nil && !r.verifierCheck(verifier) {
		return ErrInvalidVerifier
	}
	if totalExpected == 0 {
		return ErrZeroExpected
	}

	key := EvalKey{Task: id, Verifier: verifier}
	if existing, ok := r.evals[key]; ok {
		if existing.finalized {
			return ErrEvaluationFinalized
		}
		return ErrEvaluationStarted
	}

	r.evals[key] = &evalEntry{
		starter:       caller,
		totalExpected: totalExpected,
	}
	r.emit(EventEvaluationStarted, EvaluationStartedData{
		TaskID:        id,
		Verifier:      verifier,
		TotalExpected: totalExpected,
		Starter:       caller,
	})
	r.mt.Counter("evaluations_started").Inc()
	r.mt.Gauge("active_evaluations").Inc()
	r.lg.Info("evaluation started",
		"task", string(id), "verifier", verifier.Hex(), "expected", totalExpected)
	return nil
}

// SubmitSample submits one dataset sample for the (id, verifier) run. The
// sample's leaf must carry a valid inclusion proof against the task's
// current dataset root; correct is the externally produced model-output
// judgment for the sample.
//
// A rejected sample (malformed or mismatched proof) leaves both counters
// untouched. The accepted submission that reaches the declared count
// finalizes the run in the same atomic step: accuracy is computed, the
// task's best record is updated if strictly beaten, and the terminal
// EvaluationFinalized event is emitted.
//
// The returned snapshot reflects the run after this submission.
func (r *Registry) SubmitSample(caller types.Address, id TaskID, verifier types.Address, leaf types.Hash, rawProof [][]byte, correct bool) (Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return Evaluation{}, ErrTaskNotFound
	}
	key := EvalKey{Task: id, Verifier: verifier}
	eval, ok := r.evals[key]
	if !ok {
		return Evaluation{}, ErrEvaluationNotStarted
	}
	if eval.finalized {
		return Evaluation{}, ErrEvaluationFinalized
	}

	proof, err := crypto.DecodeProof(rawProof)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	// Always verify against the current root: a proof built for a
	// superseded root must fail here.
	if !crypto.VerifyProof(task.currentRoot(), leaf, proof) {
		r.mt.Counter("samples_rejected").Inc()
		r.lg.Warn("sample rejected: proof mismatch",
			"task", string(id), "verifier", verifier.Hex(), "leaf", leaf.Hex())
		return Evaluation{}, ErrProofMismatch
	}

	eval.totalSubmitted++
	if correct {
		eval.correctCount++
	}
	r.mt.Counter("samples_accepted").Inc()
	r.emit(EventSampleVerified, SampleVerifiedData{
		TaskID:         id,
		Verifier:       verifier,
		Correct:        correct,
		TotalSubmitted: eval.totalSubmitted,
		CorrectSoFar:   eval.correctCount,
	})

	if eval.totalSubmitted == eval.totalExpected {
		r.finalize(task, key, eval)
	}
	return eval.snapshot(key), nil
}

// finalize completes the run: computes accuracy, updates the task's best
// record on a strict improvement, and emits the terminal event. Called
// with r.mu held, as part of the triggering submission.
func (r *Registry) finalize(task *taskEntry, key EvalKey, eval *evalEntry) {
	eval.finalized = true
	eval.accuracyBp = accuracyBp(eval.correctCount, eval.totalExpected)

	task.leaderboard = append(task.leaderboard, LeaderboardEntry{
		Verifier:      key.Verifier,
		AccuracyBp:    eval.accuracyBp,
		CorrectCount:  eval.correctCount,
		TotalExpected: eval.totalExpected,
		Finalized:     timeNow(),
	})

	// Strictly greater replaces; ties keep the earlier finalizer.
	if eval.accuracyBp > task.bestAccuracyBp {
		task.bestAccuracyBp = eval.accuracyBp
		task.bestVerifier = key.Verifier
		r.registered[key] = true
		r.emit(EventBestVerifierUpdated, BestVerifierUpdatedData{
			TaskID:        key.Task,
			Verifier:      key.Verifier,
			NewAccuracyBp: eval.accuracyBp,
		})
		r.mt.Counter("best_updates").Inc()
		r.lg.Info("new best verifier",
			"task", string(key.Task), "verifier", key.Verifier.Hex(), "accuracyBp", eval.accuracyBp)
	}

	r.emit(EventEvaluationFinalized, EvaluationFinalizedData{
		TaskID:        key.Task,
		Verifier:      key.Verifier,
		AccuracyBp:    eval.accuracyBp,
		CorrectCount:  eval.correctCount,
		TotalExpected: eval.totalExpected,
	})
	r.mt.Counter("evaluations_finalized").Inc()
	r.mt.Gauge("active_evaluations").Dec()
	r.lg.Info("evaluation finalized",
		"task", string(key.Task), "verifier", key.Verifier.Hex(),
		"accuracyBp", eval.accuracyBp,
		"correct", eval.correctCount, "expected", eval.totalExpected)
}

// ResetEvaluation discards the (id, verifier) run, active or finalized,
// returning the key to Unstarted and clearing its registration flag.
// Administrator only.
//
// The task's best record is a cross-run ledger and is deliberately not
// rolled back, even when the discarded run is the current best.
func (r *Registry) ResetEvaluation(caller types.Address, id TaskID, verifier types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrNotAdmin
	}
	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	key := EvalKey{Task: id, Verifier: verifier}
	eval, ok := r.evals[key]
	if !ok {
		return ErrNoEvaluation
	}

	if !eval.finalized {
		r.mt.Gauge("active_evaluations").Dec()
	}
	delete(r.evals, key)
	delete(r.registered, key)
	r.emit(EventEvaluationReset, EvaluationResetData{TaskID: id, Verifier: verifier, Caller: caller})
	r.mt.Counter("evaluations_reset").Inc()
	r.lg.Info("evaluation reset", "task", string(id), "verifier", verifier.Hex())
	return nil
}

// ---------------------------------------------------------------------------
// Query surface (read-only)
// ---------------------------------------------------------------------------

// Task returns the read-only view of the task.
func (r *Registry) Task(id TaskID) (TaskInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return TaskInfo{}, ErrTaskNotFound
	}
	return task.info(), nil
}

// RootHistory returns the task's full dataset-root version history, oldest
// first.
func (r *Registry) RootHistory(id TaskID) ([]RootVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	out := make([]RootVersion, len(task.roots))
	copy(out, task.roots)
	return out, nil
}

// Evaluation returns the read-only view of the (id, verifier) run.
func (r *Registry) Evaluation(id TaskID, verifier types.Address) (Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tasks[id]; !ok {
		return Evaluation{}, ErrTaskNotFound
	}
	key := EvalKey{Task: id, Verifier: verifier}
	eval, ok := r.evals[key]
	if !ok {
		return Evaluation{}, ErrEvaluationNotStarted
	}
	return eval.snapshot(key), nil
}

// Registered reports whether the (id, verifier) run finalized with an
// accuracy that beat the task's best record at that time. Cleared by
// reset of the underlying evaluation.
func (r *Registry) Registered(id TaskID, verifier types.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.registered[EvalKey{Task: id, Verifier: verifier}]
}

// Leaderboard returns every finalized result recorded for the task, in
// finalization order.
func (r *Registry) Leaderboard(id TaskID) ([]LeaderboardEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	out := make([]LeaderboardEntry, len(task.leaderboard))
	copy(out, task.leaderboard)
	return out, nil
}

// Events returns a copy of the full event log, in sequence order.
func (r *Registry) Events() []Event {
	return r.events.all()
}

// EventsSince returns all events with sequence number greater than seq.
func (r *Registry) EventsSince(seq uint64) []Event {
	return r.events.since(seq)
}
