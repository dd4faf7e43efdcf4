package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"xenochain/config"
	"xenochain/gateway"
	"xenochain/native/gametoken"
	"xenochain/native/minting"
	"xenochain/native/staking"
	"xenochain/observability/logging"
	"xenochain/observability/metrics"
	"xenochain/rpc"
	"xenochain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("XENO_ENV"))
	logger := logging.Setup("xenod", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, minter, err := buildEngines(cfg)
	if err != nil {
		logger.Error("failed to construct engines", slog.Any("error", err))
		os.Exit(1)
	}
	if err := storage.LoadSnapshot(db, storage.KeyStakingSnapshot, ledger); err != nil {
		logger.Error("failed to restore staking state", slog.Any("error", err))
		os.Exit(1)
	}
	if err := storage.LoadSnapshot(db, storage.KeyMintingSnapshot, minter); err != nil {
		logger.Error("failed to restore minting state", slog.Any("error", err))
		os.Exit(1)
	}

	admin := addressOr(cfg.AdminAddress, 0x01)
	oracle := addressOr(cfg.OracleAddress, 0x02)

	server := rpc.NewServer(ledger, minter, logger)
	server.SetPrivileged(admin, oracle)
	server.SetOnMutate(func() {
		if err := storage.SaveSnapshot(db, storage.KeyStakingSnapshot, ledger); err != nil {
			logger.Error("failed to persist staking state", slog.Any("error", err))
		}
		if err := storage.SaveSnapshot(db, storage.KeyMintingSnapshot, minter); err != nil {
			logger.Error("failed to persist minting state", slog.Any("error", err))
		}
		stats := ledger.Stats()
		metrics.Game().SetStaked(stats.StakedMarines, stats.StakedAliens, stats.TotalRankWeight)
		if stats.TotalEmitted != nil {
			whole := new(big.Int).Quo(stats.TotalEmitted, big.NewInt(1e18))
			emitted, _ := new(big.Float).SetInt(whole).Float64()
			metrics.Game().SetEmitted(emitted)
		}
	})

	go func() {
		if err := server.Start(cfg.RPCAddress); err != nil {
			logger.Error("rpc server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	go func() {
		logger.Info("starting gateway", slog.String("addr", cfg.GatewayAddress))
		if err := http.ListenAndServe(cfg.GatewayAddress, gateway.NewRouter(ledger, minter)); err != nil {
			logger.Error("gateway stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down, flushing snapshots")
	if err := storage.SaveSnapshot(db, storage.KeyStakingSnapshot, ledger); err != nil {
		logger.Error("final staking snapshot failed", slog.Any("error", err))
	}
	if err := storage.SaveSnapshot(db, storage.KeyMintingSnapshot, minter); err != nil {
		logger.Error("final minting snapshot failed", slog.Any("error", err))
	}
}

// buildEngines constructs the staking ledger and mint engine with their
// collaborators. The daemon's standalone mode backs the collaborator
// interfaces with the in-memory reference implementations.
func buildEngines(cfg *config.Config) (*staking.Ledger, *minting.Engine, error) {
	stakingParams, err := stakingParamsFrom(cfg.Staking)
	if err != nil {
		return nil, nil, err
	}
	mintingParams, err := mintingParamsFrom(cfg.Minting)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := staking.NewLedger(stakingParams)
	if err != nil {
		return nil, nil, err
	}
	minter, err := minting.NewEngine(mintingParams)
	if err != nil {
		return nil, nil, err
	}

	registry := gametoken.NewMemoryRegistry()
	rewards := gametoken.NewMemoryLedger()
	traits := gametoken.NewMemoryTraitStore()
	random := gametoken.NewSeededRandom(uint64(os.Getpid()))

	admin := addressOr(cfg.AdminAddress, 0x01)
	oracle := addressOr(cfg.OracleAddress, 0x02)
	custody := addressOr(cfg.CustodyAddress, 0x03)
	minterID := addressOr(cfg.MinterAddress, 0x04)

	ledger.SetCollaborators(registry, rewards, traits, random)
	ledger.SetCustody(custody)
	ledger.SetAdmin(admin)
	ledger.SetMinter(minterID)

	minter.SetCollaborators(registry, rewards, traits, ledger)
	minter.SetIdentities(minterID, custody, admin, oracle)
	return ledger, minter, nil
}

func stakingParamsFrom(cfg config.StakingConfig) (staking.Params, error) {
	params := staking.DefaultParams()
	if cfg.DailyRate != "" {
		rate, ok := new(big.Int).SetString(cfg.DailyRate, 10)
		if !ok {
			return params, fmt.Errorf("invalid daily rate %q", cfg.DailyRate)
		}
		params.DailyRate = rate
	}
	if cfg.EmissionCeiling != "" {
		ceiling, ok := new(big.Int).SetString(cfg.EmissionCeiling, 10)
		if !ok {
			return params, fmt.Errorf("invalid emission ceiling %q", cfg.EmissionCeiling)
		}
		params.EmissionCeiling = ceiling
	}
	if cfg.MinimumHold > 0 {
		params.MinimumHold = cfg.MinimumHold
	}
	if cfg.ClaimTaxBps > 0 {
		params.ClaimTaxBps = cfg.ClaimTaxBps
	}
	if cfg.MaxRank > 0 {
		params.MaxRank = cfg.MaxRank
	}
	return params, nil
}

func mintingParamsFrom(cfg config.MintingConfig) (minting.Params, error) {
	params := minting.DefaultParams()
	if cfg.MaxSupply > 0 {
		params.MaxSupply = cfg.MaxSupply
	}
	if cfg.MaxPerCommit > 0 {
		params.MaxPerCommit = cfg.MaxPerCommit
	}
	if cfg.FlatPrice != "" {
		flat, ok := new(big.Int).SetString(cfg.FlatPrice, 10)
		if !ok {
			return params, fmt.Errorf("invalid flat price %q", cfg.FlatPrice)
		}
		params.FlatPrice = flat
	}
	if len(cfg.CostTiers) > 0 {
		tiers := make([]minting.CostTier, 0, len(cfg.CostTiers))
		for _, tier := range cfg.CostTiers {
			price, ok := new(big.Int).SetString(tier.Price, 10)
			if !ok {
				return params, fmt.Errorf("invalid tier price %q", tier.Price)
			}
			tiers = append(tiers, minting.CostTier{UpTo: tier.UpTo, Price: price})
		}
		params.CostTiers = tiers
	}
	return params, nil
}

// addressOr parses the configured address, falling back to a fixed standalone
// identity when unset.
func addressOr(value string, fallback byte) gametoken.Address {
	if strings.TrimSpace(value) != "" {
		if addr, err := gametoken.ParseAddress(value); err == nil {
			return addr
		}
	}
	var addr gametoken.Address
	addr[len(addr)-1] = fallback
	return addr
}
