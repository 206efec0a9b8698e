package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/proof-of-inference/avs-backend/pkg/logging"
	"github.com/proof-of-inference/avs-backend/pkg/types"
)

// ledgerABI covers the three read-only views the orchestrator needs. The
// contract owns the data; nothing here writes to it.
const ledgerABI = `[
	{"type":"function","name":"getRequest","stateMutability":"view","inputs":[{"name":"requestId","type":"uint256"}],"outputs":[{"name":"requestId","type":"uint256"},{"name":"modelId","type":"string"},{"name":"inputData","type":"string"},{"name":"expectedOutput","type":"string"},{"name":"reward","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"agent","type":"address"},{"name":"completed","type":"bool"},{"name":"verified","type":"bool"},{"name":"timestamp","type":"uint256"},{"name":"exists","type":"bool"}]},
	{"type":"function","name":"getReputation","stateMutability":"view","inputs":[{"name":"agent","type":"address"}],"outputs":[{"name":"score","type":"uint256"}]},
	{"type":"function","name":"isModelRegistered","stateMutability":"view","inputs":[{"name":"modelId","type":"string"}],"outputs":[{"name":"active","type":"bool"}]}
]`

// ContractBackend is the subset of the Ethereum client used for ledger reads
type ContractBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds the configuration for the ledger client
type Config struct {
	RPCURL          string
	ContractAddress string
	CallTimeout     time.Duration
}

// Client performs read-only queries against the ledger contract
type Client struct {
	backend     ContractBackend
	contract    common.Address
	contractABI abi.ABI
	callTimeout time.Duration
	logger      logging.Logger
}

// NewClient dials the ledger RPC endpoint and returns a read-only client
func NewClient(logger logging.Logger, cfg Config) (*Client, error) {
	ethClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}
	return NewClientWithBackend(logger, ethClient, cfg)
}

// NewClientWithBackend builds a client over an existing backend. Used by
// tests to substitute a fake backend.
func NewClientWithBackend(logger logging.Logger, backend ContractBackend, cfg Config) (*Client, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ledgerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger ABI: %w", err)
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Client{
		backend:     backend,
		contract:    common.HexToAddress(cfg.ContractAddress),
		contractABI: parsedABI,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}, nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := c.contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	result, err := c.backend.CallContract(ctxWithTimeout, ethereum.CallMsg{
		To:   &c.contract,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger call %s failed: %w", method, err)
	}

	unpacked, err := c.contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return unpacked, nil
}

// GetRecord fetches the ledger's record for a request. A missing record is
// reported as found=false, not as an error.
func (c *Client) GetRecord(ctx context.Context, requestID uint64) (types.LedgerRecord, bool, error) {
	out, err := c.call(ctx, "getRequest", new(big.Int).SetUint64(requestID))
	if err != nil {
		return types.LedgerRecord{}, false, err
	}
	if len(out) != 11 {
		return types.LedgerRecord{}, false, fmt.Errorf("unexpected getRequest output arity: %d", len(out))
	}

	exists, ok := out[10].(bool)
	if !ok {
		return types.LedgerRecord{}, false, fmt.Errorf("unexpected exists flag type %T", out[10])
	}
	if !exists {
		return types.LedgerRecord{}, false, nil
	}

	record := types.LedgerRecord{
		RequestID:      out[0].(*big.Int).Uint64(),
		ModelID:        out[1].(string),
		InputData:      out[2].(string),
		ExpectedOutput: out[3].(string),
		Reward:         out[4].(*big.Int).String(),
		Deadline:       out[5].(*big.Int).Uint64(),
		Agent:          out[6].(common.Address).Hex(),
		Completed:      out[7].(bool),
		Verified:       out[8].(bool),
		Timestamp:      out[9].(*big.Int).Uint64(),
	}
	return record, true, nil
}

// GetTrustScore fetches the reputation score of the requesting party
func (c *Client) GetTrustScore(ctx context.Context, address string) (uint64, error) {
	out, err := c.call(ctx, "getReputation", common.HexToAddress(address))
	if err != nil {
		return 0, err
	}
	score, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected reputation type %T", out[0])
	}
	return score.Uint64(), nil
}

// GetModelStatus reports whether a model is registered and active
func (c *Client) GetModelStatus(ctx context.Context, modelID string) (bool, error) {
	out, err := c.call(ctx, "isModelRegistered", modelID)
	if err != nil {
		return false, err
	}
	active, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected model status type %T", out[0])
	}
	return active, nil
}
