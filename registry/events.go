package registry

import (
	"sync"
	"time"

	"github.com/evalchain/evalchain/core/types"
)

// EventType identifies the kind of state transition recorded on the
// registry's event log.
type EventType string

const (
	EventTaskCreated         EventType = "task.created"
	EventTaskRootUpdated     EventType = "task.rootUpdated"
	EventEvaluationStarted   EventType = "evaluation.started"
	EventSampleVerified      EventType = "evaluation.sampleVerified"
	EventEvaluationFinalized EventType = "evaluation.finalized"
	EventBestVerifierUpdated EventType = "task.bestVerifierUpdated"
	EventEvaluationReset     EventType = "evaluation.reset"
)

// Event is one entry on the registry's append-only event log. Seq is
// assigned monotonically; the log models the host ledger's event stream.
type Event struct {
	Seq  uint64
	Time time.Time
	Type EventType
	Data interface{}
}

// TaskCreatedData is the payload of EventTaskCreated.
type TaskCreatedData struct {
	TaskID  TaskID
	Root    types.Hash
	Creator types.Address
}

// TaskRootUpdatedData is the payload of EventTaskRootUpdated.
type TaskRootUpdatedData struct {
	TaskID  TaskID
	NewRoot types.Hash
	Version uint64
	Updater types.Address
}

// EvaluationStartedData is the payload of EventEvaluationStarted.
type EvaluationStartedData struct {
	TaskID        TaskID
	Verifier      types.Address
	TotalExpected uint64
	Starter       types.Address
}

// SampleVerifiedData is the payload of EventSampleVerified. The counters
// are the post-increment values.
type SampleVerifiedData struct {
	TaskID         TaskID
	Verifier       types.Address
	Correct        bool
	TotalSubmitted uint64
	CorrectSoFar   uint64
}

// EvaluationFinalizedData is the payload of EventEvaluationFinalized, the
// terminal event for a run.
type EvaluationFinalizedData struct {
	TaskID        TaskID
	Verifier      types.Address
	AccuracyBp    uint64
	CorrectCount  uint64
	TotalExpected uint64
}

// BestVerifierUpdatedData is the payload of EventBestVerifierUpdated.
type BestVerifierUpdatedData struct {
	TaskID        TaskID
	Verifier      types.Address
	NewAccuracyBp uint64
}

// EvaluationResetData is the payload of EventEvaluationReset.
type EvaluationResetData struct {
	TaskID   TaskID
	Verifier types.Address
	Caller   types.Address
}

// EventSink receives every event appended to the registry's log, in log
// order. Publish is called synchronously while the emitting operation
// holds the registry lock: implementations must be non-blocking and must
// not call back into the registry.
type EventSink interface {
	Publish(Event)
}

// eventLog is the append-only in-memory event log. Sequence numbers start
// at 1 and never repeat.
type eventLog struct {
	mu      sync.RWMutex
	events  []Event
	nextSeq uint64
}

func newEventLog() *eventLog {
	return &eventLog{nextSeq: 1}
}

// append stamps the event with the next sequence number and current time,
// stores it, and returns the stamped copy.
func (l *eventLog) append(typ EventType, data interface{}) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{
		Seq:  l.nextSeq,
		Time: time.Now(),
		Type: typ,
		Data: data,
	}
	l.nextSeq++
	l.events = append(l.events, ev)
	return ev
}

// all returns a copy of the full log.
func (l *eventLog) all() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// since returns a copy of all events with Seq > seq.
func (l *eventLog) since(seq uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Seq is dense and 1-based, so events[i].Seq == i+1.
	if seq >= uint64(len(l.events)) {
		return nil
	}
	out := make([]Event, uint64(len(l.events))-seq)
	copy(out, l.events[seq:])
	return out
}
