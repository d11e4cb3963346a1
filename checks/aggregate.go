package checks

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
	"github.com/withtally/compound-seatbelt-sub001/proposal"
)

// OriginChainID is the chain the proposal itself executes on, by convention
// Ethereum mainnet.
const OriginChainID uint64 = 1

// ChainReport is one chain's merged check results and rolled-up status.
type ChainReport struct {
	ChainID   uint64    `json:"chainId"`
	ChainName string    `json:"chainName"`
	Status    Status    `json:"status"`
	Results   RunReport `json:"results"`
}

// ProposalReport is the full cross-chain audit result. Each chain's status
// stays independently visible; statuses are never collapsed across chains.
type ProposalReport struct {
	RunID        string        `json:"runId"`
	Origin       ChainReport   `json:"origin"`
	Destinations []ChainReport `json:"destinations"`
}

// Dependencies is the chain-specific collaborator set a check run needs.
type Dependencies struct {
	Classifier AddressClassifier
	ABIs       ABISource
}

// DependencyFactory wires the collaborators for one chain: its RPC client
// behind the classifier, and its explorer behind the ABI source. An error
// here is a configuration error and aborts the whole run.
type DependencyFactory func(chainID uint64) (Dependencies, error)

// Aggregator runs the check set once per chain and groups the results.
type Aggregator struct {
	lggr    logger.Logger
	runner  *Runner
	depsFor DependencyFactory
}

// NewAggregator builds an Aggregator over a runner and a per-chain
// dependency factory.
func NewAggregator(lggr logger.Logger, runner *Runner, depsFor DependencyFactory) *Aggregator {
	return &Aggregator{lggr: lggr, runner: runner, depsFor: depsFor}
}

// Run audits the proposal across the origin chain and every destination
// chain that has a simulation. All dependency contexts are resolved up
// front so a configuration error aborts before any check executes; after
// that point, individual check failures only degrade the report.
func (a *Aggregator) Run(
	ctx context.Context,
	p *proposal.Execution,
	originSim *proposal.SimulationResult,
	dests []proposal.DestinationSimulation,
) (*ProposalReport, error) {
	originDeps, err := a.depsFor(OriginChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies for origin chain: %w", err)
	}
	destDeps := make(map[uint64]Dependencies, len(dests))
	for _, d := range dests {
		deps, err := a.depsFor(d.ChainID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependencies for chain %d: %w", d.ChainID, err)
		}
		destDeps[d.ChainID] = deps
	}

	report := &ProposalReport{RunID: uuid.NewString()}

	a.lggr.Infow("Auditing proposal on origin chain", "runID", report.RunID, "chainID", OriginChainID)
	report.Origin = a.runChain(ctx, &CheckContext{
		ChainID:      OriginChainID,
		IsOrigin:     true,
		Proposal:     p,
		Sim:          originSim,
		Destinations: dests,
		Classifier:   originDeps.Classifier,
		ABIs:         originDeps.ABIs,
		Logger:       a.lggr,
	})

	sorted := make([]proposal.DestinationSimulation, len(dests))
	copy(sorted, dests)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ChainID < sorted[j].ChainID })

	for _, d := range sorted {
		a.lggr.Infow("Auditing destination chain", "runID", report.RunID, "chainID", d.ChainID)
		deps := destDeps[d.ChainID]
		report.Destinations = append(report.Destinations, a.runChain(ctx, &CheckContext{
			ChainID:      d.ChainID,
			Proposal:     p,
			Sim:          d.Result,
			Destinations: dests,
			Classifier:   deps.Classifier,
			ABIs:         deps.ABIs,
			Logger:       a.lggr,
		}))
	}

	return report, nil
}

func (a *Aggregator) runChain(ctx context.Context, cc *CheckContext) ChainReport {
	results := a.runner.Run(ctx, cc)

	return ChainReport{
		ChainID:   cc.ChainID,
		ChainName: chainName(cc.ChainID),
		Status:    results.Status(),
		Results:   results,
	}
}

// chainName resolves a human-readable chain name, falling back to the
// numeric id for chains the selector registry does not know.
func chainName(chainID uint64) string {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(
		strconv.FormatUint(chainID, 10), chainsel.FamilyEVM)
	if err != nil || details.ChainName == "" {
		return fmt.Sprintf("chain-%d", chainID)
	}

	return details.ChainName
}
