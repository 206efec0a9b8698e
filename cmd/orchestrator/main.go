package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proof-of-inference/avs-backend/internal/orchestrator/api"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/client/ledger"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/client/receipt"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/client/settlement"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/client/verifier"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/config"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/eligibility"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/core/pipeline"
	"github.com/proof-of-inference/avs-backend/internal/orchestrator/metrics"
	"github.com/proof-of-inference/avs-backend/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize configuration; the process must not serve with missing or
	// invalid required values
	if err := config.Init(); err != nil {
		panic(fmt.Sprintf("Failed to initialize config: %v", err))
	}

	// Initialize logger
	logConfig := logging.LoggerConfig{
		LogDir:      logging.BaseDataDir,
		ProcessName: logging.OrchestratorProcess,
		Environment: getEnvironment(),
		UseColors:   true,
	}
	if err := logging.InitServiceLogger(logConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger := logging.GetServiceLogger()
	defer logging.Shutdown()

	logger.Info("Starting proof-of-inference orchestrator...",
		"ledgerContract", config.GetLedgerContractAddress(),
		"receiptRegistry", config.GetReceiptRegistryAddress(),
		"rewardToken", config.GetRewardTokenAddress(),
	)

	// Start metrics collection
	metrics.StartMetricsCollection()

	// Initialize collaborator clients
	ledgerClient, err := ledger.NewClient(logger, ledger.Config{
		RPCURL:          config.GetEthRPCURL(),
		ContractAddress: config.GetLedgerContractAddress(),
		CallTimeout:     config.GetLedgerCallTimeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create ledger client", "error", err)
	}

	verifierClient, err := verifier.NewClient(logger, verifier.Config{
		Endpoint:     config.GetVerifierEndpoint(),
		Timeout:      config.GetVerifierTimeout(),
		DegradedMode: config.IsVerifierDegradedMode(),
	})
	if err != nil {
		logger.Fatal("Failed to create verifier client", "error", err)
	}

	settlementClient, err := settlement.NewClient(logger, settlement.Config{
		Endpoint:           config.GetSettlementEndpoint(),
		RewardTokenAddress: config.GetRewardTokenAddress(),
		Timeout:            config.GetSettlementTimeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create settlement client", "error", err)
	}

	receiptClient, err := receipt.NewClient(logger, receipt.Config{
		Endpoint:        config.GetReceiptEndpoint(),
		RegistryAddress: config.GetReceiptRegistryAddress(),
		Timeout:         config.GetReceiptTimeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create receipt client", "error", err)
	}

	// Wire the pipeline
	taskPipeline := pipeline.NewPipeline(logger,
		ledgerClient,
		verifierClient,
		settlementClient,
		receiptClient,
		eligibility.Policy{MinTrustScore: config.GetMinTrustScore()},
	)

	// Start the API server
	server := api.NewServer(api.Config{
		Port:               config.GetOrchestratorRPCPort(),
		MaxConcurrentTasks: config.GetMaxConcurrentTasks(),
	}, api.Dependencies{
		Logger:    logger,
		Processor: taskPipeline,
		Store:     pipeline.NewResultStore(),
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for shutdown signal or server failure
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Fatal("API server failed", "error", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}

	logger.Info("Orchestrator stopped")
}

func getEnvironment() logging.LogLevel {
	if config.IsDevMode() {
		return logging.Development
	}
	return logging.Production
}
