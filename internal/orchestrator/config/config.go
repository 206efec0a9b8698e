package config

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/proof-of-inference/avs-backend/pkg/env"
)

type Config struct {
	devMode bool

	// Ledger RPC and contract addresses
	ethRPCURL              string
	ledgerContractAddress  string
	receiptRegistryAddress string
	rewardTokenAddress     string

	// Collaborator service endpoints
	verifierEndpoint   string
	settlementEndpoint string
	receiptEndpoint    string

	// Gateway RPC Port
	orchestratorRPCPort string

	// Eligibility policy
	minTrustScore uint64

	// Per-stage timeouts
	ledgerCallTimeout time.Duration
	verifierTimeout   time.Duration
	settlementTimeout time.Duration
	receiptTimeout    time.Duration

	// Maximum number of in-flight tasks
	maxConcurrentTasks int

	// Degraded mode masks verifier failures with a flagged placeholder
	verifierDegradedMode bool
}

var cfg Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}
	cfg = Config{
		devMode:                env.GetEnvBool("DEV_MODE", false),
		ethRPCURL:              env.GetEnv("ETH_RPC_URL", ""),
		ledgerContractAddress:  env.GetEnv("LEDGER_CONTRACT_ADDRESS", ""),
		receiptRegistryAddress: env.GetEnv("RECEIPT_REGISTRY_ADDRESS", ""),
		rewardTokenAddress:     env.GetEnv("REWARD_TOKEN_ADDRESS", ""),
		verifierEndpoint:       env.GetEnv("VERIFIER_ENDPOINT", "http://localhost:8083"),
		settlementEndpoint:     env.GetEnv("SETTLEMENT_ENDPOINT", "http://localhost:8084"),
		receiptEndpoint:        env.GetEnv("RECEIPT_ENDPOINT", "http://localhost:8085"),
		orchestratorRPCPort:    env.GetEnv("ORCHESTRATOR_RPC_PORT", "8082"),
		minTrustScore:          env.GetEnvUint64("MIN_TRUST_SCORE", 100),
		ledgerCallTimeout:      env.GetEnvDuration("LEDGER_CALL_TIMEOUT", 10*time.Second),
		verifierTimeout:        env.GetEnvDuration("VERIFIER_TIMEOUT", 30*time.Second),
		settlementTimeout:      env.GetEnvDuration("SETTLEMENT_TIMEOUT", 30*time.Second),
		receiptTimeout:         env.GetEnvDuration("RECEIPT_TIMEOUT", 30*time.Second),
		maxConcurrentTasks:     env.GetEnvInt("MAX_CONCURRENT_TASKS", 32),
		verifierDegradedMode:   env.GetEnvBool("VERIFIER_DEGRADED_MODE", false),
	}
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

func validateConfig() error {
	if !env.IsValidURL(cfg.ethRPCURL) {
		return fmt.Errorf("invalid ledger RPC URL: %s", cfg.ethRPCURL)
	}
	if !env.IsValidEthAddress(cfg.ledgerContractAddress) {
		return fmt.Errorf("invalid ledger contract address: %s", cfg.ledgerContractAddress)
	}
	if !env.IsValidEthAddress(cfg.receiptRegistryAddress) {
		return fmt.Errorf("invalid receipt registry address: %s", cfg.receiptRegistryAddress)
	}
	if !env.IsValidEthAddress(cfg.rewardTokenAddress) {
		return fmt.Errorf("invalid reward token address: %s", cfg.rewardTokenAddress)
	}
	if !env.IsValidURL(cfg.verifierEndpoint) {
		return fmt.Errorf("invalid verifier endpoint: %s", cfg.verifierEndpoint)
	}
	if !env.IsValidURL(cfg.settlementEndpoint) {
		return fmt.Errorf("invalid settlement endpoint: %s", cfg.settlementEndpoint)
	}
	if !env.IsValidURL(cfg.receiptEndpoint) {
		return fmt.Errorf("invalid receipt endpoint: %s", cfg.receiptEndpoint)
	}
	if cfg.maxConcurrentTasks <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_TASKS must be positive, got %d", cfg.maxConcurrentTasks)
	}
	if cfg.ledgerCallTimeout <= 0 || cfg.verifierTimeout <= 0 || cfg.settlementTimeout <= 0 || cfg.receiptTimeout <= 0 {
		return fmt.Errorf("stage timeouts must be positive")
	}
	return nil
}

func IsDevMode() bool {
	return cfg.devMode
}

func GetEthRPCURL() string {
	return cfg.ethRPCURL
}

func GetLedgerContractAddress() string {
	return cfg.ledgerContractAddress
}

func GetReceiptRegistryAddress() string {
	return cfg.receiptRegistryAddress
}

func GetRewardTokenAddress() string {
	return cfg.rewardTokenAddress
}

func GetVerifierEndpoint() string {
	return cfg.verifierEndpoint
}

func GetSettlementEndpoint() string {
	return cfg.settlementEndpoint
}

func GetReceiptEndpoint() string {
	return cfg.receiptEndpoint
}

func GetOrchestratorRPCPort() string {
	return cfg.orchestratorRPCPort
}

func GetMinTrustScore() uint64 {
	return cfg.minTrustScore
}

func GetLedgerCallTimeout() time.Duration {
	return cfg.ledgerCallTimeout
}

func GetVerifierTimeout() time.Duration {
	return cfg.verifierTimeout
}

func GetSettlementTimeout() time.Duration {
	return cfg.settlementTimeout
}

func GetReceiptTimeout() time.Duration {
	return cfg.receiptTimeout
}

func GetMaxConcurrentTasks() int {
	return cfg.maxConcurrentTasks
}

func IsVerifierDegradedMode() bool {
	return cfg.verifierDegradedMode
}
