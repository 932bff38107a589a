package geth

import (
	"errors"
	"fmt"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/evalchain/evalchain/core/types"
	"github.com/evalchain/evalchain/crypto"
	"github.com/evalchain/evalchain/registry"
)

// ErrUnknownEvent is returned when encoding an event type this bridge has
// no signature for.
var ErrUnknownEvent = errors.New("geth: unknown registry event type")

// Solidity-style event signatures. Topic 0 of every encoded log is the
// Keccak-256 hash of the corresponding signature; topic 1 is the hash of
// the task id (indexed strings are hashed); topic 2 is the indexed
// address of the event (creator, updater, or verifier).
var eventSignatures = map[registry.EventType]gethcommon.Hash{
	registry.EventTaskCreated:         sigHash("TaskCreated(string,bytes32,address)"),
	registry.EventTaskRootUpdated:     sigHash("TaskRootUpdated(string,bytes32,uint256,address)"),
	registry.EventEvaluationStarted:   sigHash("EvaluationStarted(string,address,uint256,address)"),
	registry.EventSampleVerified:      sigHash("SampleVerified(string,address,bool,uint256,uint256)"),
	registry.EventEvaluationFinalized: sigHash("EvaluationFinalized(string,address,uint256,uint256,uint256)"),
	registry.EventBestVerifierUpdated: sigHash("BestVerifierUpdated(string,address,uint256)"),
	registry.EventEvaluationReset:     sigHash("EvaluationReset(string,address,address)"),
}

func sigHash(sig string) gethcommon.Hash {
	return ToGethHash(crypto.Keccak256Hash([]byte(sig)))
}

// EventSignature returns the topic-0 hash for the given event type.
func EventSignature(typ registry.EventType) (gethcommon.Hash, bool) {
	sig, ok := eventSignatures[typ]
	return sig, ok
}

// taskTopic hashes a task id for use as an indexed topic.
func taskTopic(id registry.TaskID) gethcommon.Hash {
	return ToGethHash(crypto.Keccak256Hash([]byte(id)))
}

// addressTopic widens an address into a 32-byte topic value (left-padded,
// matching Solidity's indexed-address encoding).
func addressTopic(a types.Address) gethcommon.Hash {
	var h gethcommon.Hash
	copy(h[12:], a[:])
	return h
}

// EventToLog encodes a registry event as a go-ethereum log emitted by the
// given contract address, using ABI-style packing: indexed fields in
// topics, the rest as 32-byte data words. The encoding is deterministic,
// so a host may re-derive and compare logs for audit.
func EventToLog(contract gethcommon.Address, ev registry.Event) (*gethtypes.Log, error) {
	sig, ok := eventSignatures[ev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Type)
	}

	var (
		topics []gethcommon.Hash
		words  [][32]byte
	)
	switch data := ev.Data.(type) {
	case registry.TaskCreatedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Creator)}
		words = [][32]byte{[32]byte(data.Root)}

	case registry.TaskRootUpdatedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Updater)}
		words = [][32]byte{[32]byte(data.NewRoot), wordFromUint64(data.Version)}

	case registry.EvaluationStartedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Verifier)}
		words = [][32]byte{wordFromUint64(data.TotalExpected), wordFromAddress(data.Starter)}

	case registry.SampleVerifiedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Verifier)}
		words = [][32]byte{
			wordFromBool(data.Correct),
			wordFromUint64(data.TotalSubmitted),
			wordFromUint64(data.CorrectSoFar),
		}

	case registry.EvaluationFinalizedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Verifier)}
		words = [][32]byte{
			wordFromUint64(data.AccuracyBp),
			wordFromUint64(data.CorrectCount),
			wordFromUint64(data.TotalExpected),
		}

	case registry.BestVerifierUpdatedData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Verifier)}
		words = [][32]byte{wordFromUint64(data.NewAccuracyBp)}

	case registry.EvaluationResetData:
		topics = []gethcommon.Hash{sig, taskTopic(data.TaskID), addressTopic(data.Verifier)}
		words = [][32]byte{wordFromAddress(data.Caller)}

	default:
		return nil, fmt.Errorf("%w: payload %T", ErrUnknownEvent, ev.Data)
	}

	logData := make([]byte, 0, len(words)*32)
	for _, w := range words {
		logData = append(logData, w[:]...)
	}
	return &gethtypes.Log{
		Address: contract,
		Topics:  topics,
		Data:    logData,
		Index:   uint(ev.Seq),
	}, nil
}
