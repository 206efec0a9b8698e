package types

// TaskRequest identifies one inference verification job. It is created by the
// caller and never mutated once accepted.
type TaskRequest struct {
	RequestID      uint64 `json:"requestId"`
	ModelID        string `json:"modelId"`
	InputData      string `json:"inputData"`
	ExpectedOutput string `json:"expectedOutput"`
	Reward         string `json:"reward"`
	Deadline       uint64 `json:"deadline"`
	Agent          string `json:"agent"`
}

// LedgerRecord is the ledger's view of a task request. The orchestrator only
// ever reads a snapshot of it, never writes one.
type LedgerRecord struct {
	RequestID      uint64
	ModelID        string
	InputData      string
	ExpectedOutput string
	Reward         string
	Deadline       uint64
	Agent          string
	Completed      bool
	Verified       bool
	Timestamp      uint64
}

// EligibilityContext holds the ledger-derived facts consumed by the
// eligibility rules. In-memory only, built once per task and then discarded.
type EligibilityContext struct {
	RecordExists        bool
	IsExpired           bool
	RequesterTrustScore uint64
	ModelIsActive       bool
}

// VerificationOutcome is the normalized result of the external verification
// capability. Confidence is expressed in basis points (0-10000).
type VerificationOutcome struct {
	IsValid    bool                   `json:"isValid"`
	Confidence uint64                 `json:"confidence"`
	Method     string                 `json:"method"`
	Proof      string                 `json:"proof"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// MethodDegradedFallback marks placeholder outcomes produced by the verifier
// client's opt-in degraded mode. They are never valid and never settle.
const MethodDegradedFallback = "degraded-fallback"

// StageStatus is the terminal status of a best-effort pipeline stage.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// SettlementOutcome records the result of the payment stage. StageSkipped is a
// valid terminal state distinct from failure.
type SettlementOutcome struct {
	TransactionReference string      `json:"transactionReference,omitempty"`
	Status               StageStatus `json:"status"`
}

// ReceiptOutcome records the result of the receipt minting stage.
type ReceiptOutcome struct {
	ReceiptID string      `json:"receiptId,omitempty"`
	Status    StageStatus `json:"status"`
}

// TaskState tracks a task's progress through the pipeline.
type TaskState string

const (
	StateReceived           TaskState = "received"
	StateEvaluating         TaskState = "evaluating"
	StateVerifying          TaskState = "verifying"
	StateSettling           TaskState = "settling"
	StateIssuing            TaskState = "issuing"
	StateAttesting          TaskState = "attesting"
	StateCompleted          TaskState = "completed"
	StateRejected           TaskState = "rejected"
	StateVerificationFailed TaskState = "verification_failed"
)

// Response status values surfaced to the caller.
const (
	StatusVerified           = "verified"
	StatusRejected           = "rejected"
	StatusVerificationFailed = "verification_failed"
)

// TaskResponse is the caller-facing result of one task. It is always
// well-formed; business failures are encoded in Status and Reason.
type TaskResponse struct {
	RequestID         uint64 `json:"requestId"`
	Status            string `json:"status"`
	IsValid           bool   `json:"isValid"`
	Confidence        uint64 `json:"confidence"`
	VerificationProof string `json:"verificationProof"`
	AttestationHash   string `json:"attestationHash"`
	ReceiptID         string `json:"receiptId,omitempty"`
	PaymentReference  string `json:"paymentReference,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}
