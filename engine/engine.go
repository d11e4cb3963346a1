// Package engine wires the audit components together from configuration:
// one RPC client and explorer per chain, a shared verification cache, and
// the cross-chain check aggregator.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/withtally/compound-seatbelt-sub001/checks"
	"github.com/withtally/compound-seatbelt-sub001/classify"
	"github.com/withtally/compound-seatbelt-sub001/config"
	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
	"github.com/withtally/compound-seatbelt-sub001/proposal"
	"github.com/withtally/compound-seatbelt-sub001/verification"
)

// Engine audits simulated proposals against the configured chains.
type Engine struct {
	lggr  logger.Logger
	cfg   *config.Config
	cache *verification.StatusCache
	agg   *checks.Aggregator

	mu      sync.Mutex
	clients map[uint64]*ethclient.Client
}

// New builds an Engine from a validated configuration. An invalid
// configuration is fatal here, before anything is simulated or checked.
func New(lggr logger.Logger, cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lggr = logger.Named(lggr, "engine")

	cache, err := verification.NewStatusCache(lggr, cfg.CacheDir, func(chainID uint64) (verification.Explorer, error) {
		chain, err := cfg.ChainByID(chainID)
		if err != nil {
			return nil, err
		}
		return verification.NewExplorer(chain.Explorer, chainID)
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		lggr:    lggr,
		cfg:     cfg,
		cache:   cache,
		clients: make(map[uint64]*ethclient.Client),
	}
	e.agg = checks.NewAggregator(lggr, checks.NewRunner(lggr, checks.DefaultChecks()...), e.dependenciesFor)

	return e, nil
}

// Audit runs the full check set over the origin-chain simulation and every
// destination-chain simulation and returns the merged report.
func (e *Engine) Audit(
	ctx context.Context,
	p *proposal.Execution,
	originSim *proposal.SimulationResult,
	dests []proposal.DestinationSimulation,
) (*checks.ProposalReport, error) {
	return e.agg.Run(ctx, p, originSim, dests)
}

// ClearCache empties the verification cache, forcing fresh explorer lookups
// on the next audit.
func (e *Engine) ClearCache() error {
	return e.cache.Clear()
}

// Close releases every RPC client the engine dialed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.clients {
		c.Close()
	}
	e.clients = make(map[uint64]*ethclient.Client)
}

// dependenciesFor assembles the chain-specific collaborators for one check
// run. A chain missing from configuration is a configuration error that
// aborts the run.
func (e *Engine) dependenciesFor(chainID uint64) (checks.Dependencies, error) {
	chain, err := e.cfg.ChainByID(chainID)
	if err != nil {
		return checks.Dependencies{}, err
	}

	client, err := e.clientFor(chain)
	if err != nil {
		return checks.Dependencies{}, err
	}

	classifier := classify.NewClassifier(e.lggr, client, e.cache, chainID, e.cfg.TrustedAddresses())

	return checks.Dependencies{
		Classifier: classifier,
		ABIs:       e.cache,
	}, nil
}

func (e *Engine) clientFor(chain config.ChainConfig) (*ethclient.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[chain.ChainID]; ok {
		return c, nil
	}

	client, err := ethclient.Dial(chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC for chain %d: %w", chain.ChainID, err)
	}
	e.clients[chain.ChainID] = client

	return client, nil
}
