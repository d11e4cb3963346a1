// Package checks contains the proposal audit checks, the per-chain runner
// that executes them, and the cross-chain aggregation that merges every
// chain's findings into one report.
package checks

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/classify"
	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
	"github.com/withtally/compound-seatbelt-sub001/proposal"
)

// Check is one named, independent audit unit. Checks share no mutable state;
// everything they need arrives through the CheckContext.
type Check interface {
	// ID is the stable identifier keying this check in the report.
	ID() string
	// Name is the human-readable heading for the check's findings.
	Name() string
	// Requires lists the check ids whose artifacts this check consumes.
	// The runner executes those first.
	Requires() []string
	// Run executes the check and returns its findings. An error (or panic)
	// is converted by the runner into a single error finding; it never
	// stops the other checks.
	Run(ctx context.Context, cc *CheckContext) (Result, error)
}

// AddressClassifier classifies a batch of addresses, preserving input order.
// *classify.Classifier satisfies it.
type AddressClassifier interface {
	ClassifyAll(ctx context.Context, addrs []common.Address) ([]classify.Classification, error)
}

// ABISource supplies contract ABIs, usually through the verification cache.
type ABISource interface {
	FetchABI(ctx context.Context, chainID uint64, addr common.Address) json.RawMessage
}

// CheckContext is the chain-specific dependency context for one run of the
// checks: which chain, the proposal, that chain's simulation, and the
// collaborators wired for that chain.
type CheckContext struct {
	ChainID  uint64
	IsOrigin bool

	Proposal *proposal.Execution
	Sim      *proposal.SimulationResult
	// Destinations carries the full set of destination-chain simulations so
	// origin-chain checks can reason about cross-chain effects.
	Destinations []proposal.DestinationSimulation

	Classifier AddressClassifier
	ABIs       ABISource
	Logger     logger.Logger

	artifacts map[string]any
}

// PutArtifact stores an expensive check output for reuse by dependent
// checks within the same run.
func (cc *CheckContext) PutArtifact(key string, v any) {
	if cc.artifacts == nil {
		cc.artifacts = make(map[string]any)
	}
	cc.artifacts[key] = v
}

// Artifact retrieves a stored check output.
func (cc *CheckContext) Artifact(key string) (any, bool) {
	v, ok := cc.artifacts[key]
	return v, ok
}

// originOnly is the capability a check implements when it is only meaningful
// for the origin-chain run (e.g. touched-contract data exists only there).
type originOnly interface {
	OriginOnly() bool
}
