package attestation

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// Attestation is a deterministic hash binding a task and its verification
// outcome. It is returned to the caller, never stored by the orchestrator.
type Attestation struct {
	Hash      common.Hash `json:"hash"`
	Timestamp int64       `json:"timestamp"`
}

// payload is the canonical serialization input. Field order is fixed by the
// struct definition; map values inside Details are sorted by key by
// encoding/json, so the byte stream is stable for equal inputs.
type payload struct {
	RequestID      uint64                 `json:"requestId"`
	ModelID        string                 `json:"modelId"`
	InputData      string                 `json:"inputData"`
	ExpectedOutput string                 `json:"expectedOutput"`
	Reward         string                 `json:"reward"`
	Deadline       uint64                 `json:"deadline"`
	Agent          string                 `json:"agent"`
	IsValid        bool                   `json:"isValid"`
	Confidence     uint64                 `json:"confidence"`
	Method         string                 `json:"method"`
	Proof          string                 `json:"proof"`
	Details        map[string]interface{} `json:"details"`
	Timestamp      int64                  `json:"timestamp"`
}

// Attest computes the attestation for a task and its verification outcome at
// the given logical timestamp. Pure function: no clock reads, no randomness.
func Attest(task types.TaskRequest, outcome types.VerificationOutcome, timestamp int64) (Attestation, error) {
	data, err := json.Marshal(payload{
		RequestID:      task.RequestID,
		ModelID:        task.ModelID,
		InputData:      task.InputData,
		ExpectedOutput: task.ExpectedOutput,
		Reward:         task.Reward,
		Deadline:       task.Deadline,
		Agent:          task.Agent,
		IsValid:        outcome.IsValid,
		Confidence:     outcome.Confidence,
		Method:         outcome.Method,
		Proof:          outcome.Proof,
		Details:        outcome.Details,
		Timestamp:      timestamp,
	})
	if err != nil {
		return Attestation{}, fmt.Errorf("failed to serialize attestation payload: %w", err)
	}

	return Attestation{
		Hash:      common.Hash(sha256.Sum256(data)),
		Timestamp: timestamp,
	}, nil
}
