package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/eligibility"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

type mockLedger struct {
	record      types.LedgerRecord
	found       bool
	trustScore  uint64
	modelActive bool
	err         error

	recordCalls int
	trustCalls  int
	modelCalls  int
}

func (m *mockLedger) GetRecord(ctx context.Context, requestID uint64) (types.LedgerRecord, bool, error) {
	m.recordCalls++
	return m.record, m.found, m.err
}

func (m *mockLedger) GetTrustScore(ctx context.Context, address string) (uint64, error) {
	m.trustCalls++
	return m.trustScore, m.err
}

func (m *mockLedger) GetModelStatus(ctx context.Context, modelID string) (bool, error) {
	m.modelCalls++
	return m.modelActive, m.err
}

type mockVerifier struct {
	outcome types.VerificationOutcome
	err     error
	calls   int
}

func (m *mockVerifier) Verify(ctx context.Context, task types.TaskRequest) (types.VerificationOutcome, error) {
	m.calls++
	return m.outcome, m.err
}

type mockSettler struct {
	outcome types.SettlementOutcome
	err     error
	calls   int
}

func (m *mockSettler) Settle(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome) (types.SettlementOutcome, error) {
	m.calls++
	return m.outcome, m.err
}

type mockReceiptIssuer struct {
	outcome types.ReceiptOutcome
	err     error
	calls   int
}

func (m *mockReceiptIssuer) IssueReceipt(ctx context.Context, task types.TaskRequest, outcome types.VerificationOutcome, settlement types.SettlementOutcome) (types.ReceiptOutcome, error) {
	m.calls++
	return m.outcome, m.err
}

func futureDeadline() uint64 {
	return uint64(time.Now().Add(time.Hour).Unix())
}

func taskFixture() types.TaskRequest {
	return types.TaskRequest{
		RequestID:      1,
		ModelID:        "m1",
		InputData:      "input",
		ExpectedOutput: "output",
		Reward:         "1000",
		Deadline:       futureDeadline(),
		Agent:          "addr1",
	}
}

func healthyLedger() *mockLedger {
	return &mockLedger{
		record:      types.LedgerRecord{RequestID: 1, Deadline: futureDeadline()},
		found:       true,
		trustScore:  150,
		modelActive: true,
	}
}

func validVerifier() *mockVerifier {
	return &mockVerifier{
		outcome: types.VerificationOutcome{
			IsValid:    true,
			Confidence: 9000,
			Method:     "semantic-similarity",
			Proof:      "0xproof",
		},
	}
}

func newTestPipeline(ledger *mockLedger, verifier *mockVerifier, settler *mockSettler, issuer *mockReceiptIssuer) *Pipeline {
	return NewPipeline(logging.NewNoopLogger(), ledger, verifier, settler, issuer, eligibility.DefaultPolicy())
}

func TestProcessEndToEnd(t *testing.T) {
	ledger := healthyLedger()
	verifier := validVerifier()
	settler := &mockSettler{outcome: types.SettlementOutcome{
		TransactionReference: "0xtx",
		Status:               types.StageCompleted,
	}}
	issuer := &mockReceiptIssuer{outcome: types.ReceiptOutcome{
		ReceiptID: "25",
		Status:    types.StageCompleted,
	}}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerified, response.Status)
	assert.True(t, response.IsValid)
	assert.Equal(t, uint64(9000), response.Confidence)
	assert.NotEmpty(t, response.AttestationHash)
	assert.Equal(t, "0xtx", response.PaymentReference)
	assert.Equal(t, "25", response.ReceiptID)

	assert.Equal(t, 1, ledger.recordCalls)
	assert.Equal(t, 1, ledger.trustCalls)
	assert.Equal(t, 1, ledger.modelCalls)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, 1, settler.calls)
	assert.Equal(t, 1, issuer.calls)
}

func TestProcessRejectsBeforeAnyDownstreamCall(t *testing.T) {
	tests := []struct {
		name           string
		ledger         *mockLedger
		expectedReason string
	}{
		{
			name: "record not found",
			ledger: &mockLedger{
				found:       false,
				trustScore:  150,
				modelActive: true,
			},
			expectedReason: eligibility.ReasonRecordNotFound,
		},
		{
			name: "expired deadline",
			ledger: &mockLedger{
				record:      types.LedgerRecord{RequestID: 1, Deadline: uint64(time.Now().Add(-time.Second).Unix())},
				found:       true,
				trustScore:  150,
				modelActive: true,
			},
			expectedReason: eligibility.ReasonRequestExpired,
		},
		{
			name: "trust score below minimum",
			ledger: &mockLedger{
				record:      types.LedgerRecord{RequestID: 1, Deadline: futureDeadline()},
				found:       true,
				trustScore:  99,
				modelActive: true,
			},
			expectedReason: eligibility.ReasonLowTrustScore,
		},
		{
			name: "model not registered",
			ledger: &mockLedger{
				record:      types.LedgerRecord{RequestID: 1, Deadline: futureDeadline()},
				found:       true,
				trustScore:  150,
				modelActive: false,
			},
			expectedReason: eligibility.ReasonModelInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := validVerifier()
			settler := &mockSettler{}
			issuer := &mockReceiptIssuer{}

			p := newTestPipeline(tt.ledger, verifier, settler, issuer)
			response := p.Process(context.Background(), taskFixture())

			assert.Equal(t, types.StatusRejected, response.Status)
			assert.Equal(t, tt.expectedReason, response.Reason)
			assert.Empty(t, response.AttestationHash)

			// A rejected task must never reach the downstream stages
			assert.Zero(t, verifier.calls)
			assert.Zero(t, settler.calls)
			assert.Zero(t, issuer.calls)
		})
	}
}

func TestProcessTrustScoreBoundary(t *testing.T) {
	// Exactly at the threshold the task proceeds to verification
	ledger := healthyLedger()
	ledger.trustScore = 100
	verifier := validVerifier()

	p := newTestPipeline(ledger, verifier, &mockSettler{outcome: types.SettlementOutcome{Status: types.StageCompleted, TransactionReference: "0xtx"}}, &mockReceiptIssuer{outcome: types.ReceiptOutcome{Status: types.StageCompleted, ReceiptID: "1"}})
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerified, response.Status)
	assert.Equal(t, 1, verifier.calls)
}

func TestProcessDeadlineJustAhead(t *testing.T) {
	ledger := healthyLedger()
	ledger.record.Deadline = uint64(time.Now().Add(time.Second).Unix())
	verifier := validVerifier()

	p := newTestPipeline(ledger, verifier, &mockSettler{outcome: types.SettlementOutcome{Status: types.StageCompleted, TransactionReference: "0xtx"}}, &mockReceiptIssuer{outcome: types.ReceiptOutcome{Status: types.StageCompleted, ReceiptID: "1"}})
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerified, response.Status)
	assert.Equal(t, 1, verifier.calls)
}

func TestProcessLedgerTransportFailureIsFatal(t *testing.T) {
	ledger := &mockLedger{err: errors.New("connection refused")}
	verifier := validVerifier()
	settler := &mockSettler{}
	issuer := &mockReceiptIssuer{}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusRejected, response.Status)
	assert.Contains(t, response.Reason, "eligibility check failed")
	assert.Zero(t, verifier.calls)
	assert.Zero(t, settler.calls)
	assert.Zero(t, issuer.calls)
}

func TestProcessInvalidVerificationSkipsSettlementAndReceipt(t *testing.T) {
	ledger := healthyLedger()
	verifier := &mockVerifier{outcome: types.VerificationOutcome{
		IsValid:    false,
		Confidence: 1200,
		Method:     "semantic-similarity",
		Proof:      "0xproof",
	}}
	settler := &mockSettler{}
	issuer := &mockReceiptIssuer{}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerificationFailed, response.Status)
	assert.False(t, response.IsValid)
	assert.Equal(t, uint64(1200), response.Confidence)
	assert.Zero(t, settler.calls)
	assert.Zero(t, issuer.calls)
}

func TestProcessVerifierErrorIsTerminal(t *testing.T) {
	ledger := healthyLedger()
	verifier := &mockVerifier{err: errors.New("verifier timeout")}
	settler := &mockSettler{}
	issuer := &mockReceiptIssuer{}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerificationFailed, response.Status)
	assert.Contains(t, response.Reason, "verifier timeout")
	assert.Zero(t, settler.calls)
	assert.Zero(t, issuer.calls)
}

func TestProcessSettlementFailureDoesNotFailTask(t *testing.T) {
	ledger := healthyLedger()
	verifier := validVerifier()
	settler := &mockSettler{err: errors.New("payment rail unavailable")}
	issuer := &mockReceiptIssuer{outcome: types.ReceiptOutcome{
		ReceiptID: "25",
		Status:    types.StageCompleted,
	}}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	// Verification stands: the task completes with an attestation even
	// though payment failed
	assert.Equal(t, types.StatusVerified, response.Status)
	assert.True(t, response.IsValid)
	assert.NotEmpty(t, response.AttestationHash)
	assert.Empty(t, response.PaymentReference)
	assert.Equal(t, "25", response.ReceiptID)
	assert.Equal(t, 1, issuer.calls)
}

func TestProcessReceiptFailureDoesNotFailTask(t *testing.T) {
	ledger := healthyLedger()
	verifier := validVerifier()
	settler := &mockSettler{outcome: types.SettlementOutcome{
		TransactionReference: "0xtx",
		Status:               types.StageCompleted,
	}}
	issuer := &mockReceiptIssuer{err: errors.New("registry unavailable")}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	assert.Equal(t, types.StatusVerified, response.Status)
	assert.NotEmpty(t, response.AttestationHash)
	assert.Equal(t, "0xtx", response.PaymentReference)
	assert.Empty(t, response.ReceiptID)
}

func TestProcessAttestationFailureOmitsHash(t *testing.T) {
	ledger := healthyLedger()
	// +Inf is not encodable as JSON, so the attestation payload cannot be
	// serialized
	verifier := &mockVerifier{outcome: types.VerificationOutcome{
		IsValid:    true,
		Confidence: 9000,
		Method:     "semantic-similarity",
		Proof:      "0xproof",
		Details:    map[string]interface{}{"similarity": math.Inf(1)},
	}}
	settler := &mockSettler{outcome: types.SettlementOutcome{
		TransactionReference: "0xtx",
		Status:               types.StageCompleted,
	}}
	issuer := &mockReceiptIssuer{outcome: types.ReceiptOutcome{
		ReceiptID: "25",
		Status:    types.StageCompleted,
	}}

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(context.Background(), taskFixture())

	// The verification still stands, but no hash is reported rather than an
	// all-zero one
	assert.Equal(t, types.StatusVerified, response.Status)
	assert.True(t, response.IsValid)
	assert.Empty(t, response.AttestationHash)
	assert.Equal(t, "0xtx", response.PaymentReference)
	assert.Equal(t, "25", response.ReceiptID)
}

func TestProcessCancelledBeforeEvaluationMakesNoCalls(t *testing.T) {
	ledger := healthyLedger()
	verifier := validVerifier()
	settler := &mockSettler{}
	issuer := &mockReceiptIssuer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(ledger, verifier, settler, issuer)
	response := p.Process(ctx, taskFixture())

	assert.Equal(t, types.StatusRejected, response.Status)
	assert.Zero(t, ledger.recordCalls)
	assert.Zero(t, ledger.trustCalls)
	assert.Zero(t, ledger.modelCalls)
	assert.Zero(t, verifier.calls)
	assert.Zero(t, settler.calls)
	assert.Zero(t, issuer.calls)
}

func TestResultStore(t *testing.T) {
	store := NewResultStore()

	_, ok := store.Get(7)
	assert.False(t, ok)

	store.Put(types.TaskResponse{RequestID: 7, Status: types.StatusVerified})
	response, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, types.StatusVerified, response.Status)

	// Latest write wins
	store.Put(types.TaskResponse{RequestID: 7, Status: types.StatusRejected})
	response, _ = store.Get(7)
	assert.Equal(t, types.StatusRejected, response.Status)
}
