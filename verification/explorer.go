// Package verification answers "is this contract verified on a block
// explorer, and what is its ABI?" behind a tiered cache: an in-memory map,
// a disk-persisted store, and finally the remote explorer for the chain.
package verification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/config"
)

// Explorer is the two-method capability every block-explorer backend must
// provide. Backends are selected per chain by NewExplorer; there is no
// deeper hierarchy.
type Explorer interface {
	// Name identifies the backend in logs.
	Name() string
	// IsContractVerified reports whether the explorer has matched published
	// source code to the contract's deployed bytecode.
	IsContractVerified(ctx context.Context, addr common.Address) (bool, error)
	// FetchContractABI returns the contract's ABI as a raw JSON array, or
	// nil when the explorer has none.
	FetchContractABI(ctx context.Context, addr common.Address) (json.RawMessage, error)
}

// NewExplorer selects the explorer backend for a chain from its
// configuration.
func NewExplorer(cfg config.ExplorerConfig, chainID uint64) (Explorer, error) {
	switch cfg.Kind {
	case config.ExplorerUnified:
		return NewUnifiedExplorer(cfg.APIURL, cfg.APIKey, chainID), nil
	case config.ExplorerREST:
		return NewRESTExplorer(cfg.APIURL), nil
	default:
		return nil, fmt.Errorf("no explorer backend for kind %q", cfg.Kind)
	}
}

// validABI parses raw as an ABI and reports whether it is a JSON array.
// Explorers occasionally return error strings or objects where an ABI is
// expected; those must degrade to "no ABI", never to a parse panic upstream.
func validABI(raw []byte) bool {
	var arr []json.RawMessage
	return json.Unmarshal(raw, &arr) == nil
}
