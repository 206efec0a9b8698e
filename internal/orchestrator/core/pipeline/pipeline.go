package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/eligibility"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/metrics"
	"github.com/proof-of-inference/avs-backend/pkg/attestation"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// LedgerReader provides the three independent read-only ledger queries
type LedgerReader interface {
	GetRecord(ctx context.Context, requestID uint64) (types.LedgerRecord, bool, error)
	GetTrustScore(ctx context.Context, address string) (uint64, error)
	GetModelStatus(ctx context.Context, modelID string) (bool, error)
}

// Verifier calls the external verification capability
type Verifier interface {
	Verify(ctx context.Context, task types.TaskRequest) (types.VerificationOutcome, error)
}

// Settler calls the external payment rail
type Settler interface {
	Settle(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome) (types.SettlementOutcome, error)
}

// ReceiptIssuer calls the external receipt registry
type ReceiptIssuer interface {
	IssueReceipt(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome, settlement types.SettlementOutcome) (types.ReceiptOutcome, error)
}

// Pipeline sequences eligibility, verification, settlement, receipt issuance
// and attestation for one task at a time. Safe for concurrent use; all
// per-task state lives on the stack of Process.
type Pipeline struct {
	ledger     LedgerReader
	verifier   Verifier
	settlement Settler
	receipt    ReceiptIssuer
	policy     eligibility.Policy
	logger     logging.Logger
}

// NewPipeline creates a new task pipeline
func NewPipeline(logger logging.Logger, ledger LedgerReader, verifier Verifier, settlement Settler, receipt ReceiptIssuer, policy eligibility.Policy) *Pipeline {
	return &Pipeline{
		ledger:     ledger,
		verifier:   verifier,
		settlement: settlement,
		receipt:    receipt,
		policy:     policy,
		logger:     logger,
	}
}

// Process runs a task through the full pipeline and always returns a
// well-formed response. Each downstream client is invoked at most once.
func (p *Pipeline) Process(ctx context.Context, task types.TaskRequest) types.TaskResponse {
	start := time.Now()
	state := types.StateReceived

	metrics.TasksReceivedTotal.Inc()
	metrics.TasksInFlight.Inc()
	defer func() {
		metrics.TasksInFlight.Dec()
		metrics.TaskDurationSeconds.Observe(time.Since(start).Seconds())
		metrics.TasksByTerminalStateTotal.WithLabelValues(string(state)).Inc()
	}()

	logger := p.logger.With("requestId", task.RequestID, "modelId", task.ModelID)
	logger.Info("Processing verification task", "agent", task.Agent)

	// Abort before any external call if the caller is already gone
	if err := ctx.Err(); err != nil {
		state = types.StateRejected
		return rejectedResponse(task, "request cancelled before evaluation")
	}

	state = types.StateEvaluating
	eligCtx, err := p.buildEligibilityContext(ctx, task)
	if err != nil {
		eligErr := &EligibilityError{Err: err}
		logger.Error("Ledger read failed", "error", eligErr)
		metrics.RejectionsByReasonTotal.WithLabelValues("ledger unavailable").Inc()
		state = types.StateRejected
		return rejectedResponse(task, eligErr.Error())
	}

	accept, reason := eligibility.Evaluate(eligCtx, p.policy)
	if !accept {
		logger.Info("Task rejected", "reason", reason)
		metrics.RejectionsByReasonTotal.WithLabelValues(reason).Inc()
		state = types.StateRejected
		return rejectedResponse(task, reason)
	}

	state = types.StateVerifying
	outcome, err := p.verifier.Verify(ctx, task)
	if err != nil {
		verErr := &VerificationError{Err: err}
		logger.Error("Verification failed", "error", verErr)
		state = types.StateVerificationFailed
		return types.TaskResponse{
			RequestID: task.RequestID,
			Status:    types.StatusVerificationFailed,
			Reason:    verErr.Error(),
			Timestamp: time.Now().Unix(),
		}
	}
	if outcome.Method == types.MethodDegradedFallback {
		metrics.DegradedVerificationsTotal.Inc()
	}
	logger.Info("Verification outcome",
		"isValid", outcome.IsValid,
		"confidence", outcome.Confidence,
		"method", outcome.Method,
	)

	if !outcome.IsValid {
		// Invalid inference is terminal: no payment, no receipt
		state = types.StateVerificationFailed
		return types.TaskResponse{
			RequestID:         task.RequestID,
			Status:            types.StatusVerificationFailed,
			IsValid:           false,
			Confidence:        outcome.Confidence,
			VerificationProof: outcome.Proof,
			Reason:            "inference output did not verify",
			Timestamp:         time.Now().Unix(),
		}
	}

	state = types.StateSettling
	settlementOutcome, err := p.settlement.Settle(ctx, task, outcome)
	if err != nil {
		// Recoverable: verification stands, payment can be retried out-of-band
		logger.Warn("Settlement failed, continuing", "error", err)
		metrics.StageFailuresTotal.WithLabelValues("settlement").Inc()
		settlementOutcome = types.SettlementOutcome{Status: types.StageFailed}
	}

	state = types.StateIssuing
	receiptOutcome, err := p.receipt.IssueReceipt(ctx, task, outcome, settlementOutcome)
	if err != nil {
		logger.Warn("Receipt issuance failed, continuing", "error", err)
		metrics.StageFailuresTotal.WithLabelValues("receipt").Inc()
		receiptOutcome = types.ReceiptOutcome{Status: types.StageFailed}
	}

	state = types.StateAttesting
	attestedAt := time.Now().Unix()
	var attestationHash string
	if att, err := attestation.Attest(task, outcome, attestedAt); err != nil {
		// Only reachable with non-encodable verifier details; the hash is
		// omitted rather than returned as all zeros
		logger.Error("Attestation failed", "error", err)
		metrics.StageFailuresTotal.WithLabelValues("attestation").Inc()
	} else {
		attestationHash = att.Hash.Hex()
	}

	state = types.StateCompleted
	logger.Info("Task completed",
		"attestationHash", attestationHash,
		"settlementStatus", settlementOutcome.Status,
		"receiptStatus", receiptOutcome.Status,
	)

	response := types.TaskResponse{
		RequestID:         task.RequestID,
		Status:            types.StatusVerified,
		IsValid:           true,
		Confidence:        outcome.Confidence,
		VerificationProof: outcome.Proof,
		AttestationHash:   attestationHash,
		Timestamp:         attestedAt,
	}
	if settlementOutcome.Status == types.StageCompleted {
		response.PaymentReference = settlementOutcome.TransactionReference
	}
	if receiptOutcome.Status == types.StageCompleted {
		response.ReceiptID = receiptOutcome.ReceiptID
	}
	return response
}

// buildEligibilityContext issues the three ledger reads concurrently and
// folds them into the context consumed by the eligibility rules.
func (p *Pipeline) buildEligibilityContext(ctx context.Context, task types.TaskRequest) (types.EligibilityContext, error) {
	var (
		record     types.LedgerRecord
		found      bool
		trustScore uint64
		modelAlive bool
		errs       [3]error
		wg         sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		record, found, errs[0] = p.ledger.GetRecord(ctx, task.RequestID)
	}()
	go func() {
		defer wg.Done()
		trustScore, errs[1] = p.ledger.GetTrustScore(ctx, task.Agent)
	}()
	go func() {
		defer wg.Done()
		modelAlive, errs[2] = p.ledger.GetModelStatus(ctx, task.ModelID)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return types.EligibilityContext{}, err
		}
	}

	return types.EligibilityContext{
		RecordExists:        found,
		IsExpired:           found && record.Deadline < uint64(time.Now().Unix()),
		RequesterTrustScore: trustScore,
		ModelIsActive:       modelAlive,
	}, nil
}

func rejectedResponse(task types.TaskRequest, reason string) types.TaskResponse {
	return types.TaskResponse{
		RequestID: task.RequestID,
		Status:    types.StatusRejected,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
}
