package checks

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/proposal"
)

// StateChanges reports every storage slot the simulation changed, grouped by
// contract. The scope line "<Name> at `0xAddress`" followed by
// "`key` changed from `old` to `new`" lines is the shape report consumers
// parse; keep it stable.
type StateChanges struct{}

func (StateChanges) ID() string         { return "state-changes" }
func (StateChanges) Name() string       { return "State changes from simulation" }
func (StateChanges) Requires() []string { return nil }

func (StateChanges) Run(_ context.Context, cc *CheckContext) (Result, error) {
	var res Result

	if cc.Sim == nil || len(cc.Sim.StateDiffs) == 0 {
		res.Infof("No state changes detected")
		return res, nil
	}

	// Group by contract, preserving first-appearance order.
	var order []common.Address
	grouped := make(map[common.Address][]proposal.StateDiff)
	for _, d := range cc.Sim.StateDiffs {
		if _, ok := grouped[d.Address]; !ok {
			order = append(order, d.Address)
		}
		grouped[d.Address] = append(grouped[d.Address], d)
	}

	for _, addr := range order {
		diffs := grouped[addr]
		name := diffs[0].ContractName
		if name == "" {
			name = "Contract"
		}
		res.Infof("%s at `%s`", name, addr.Hex())
		for _, d := range diffs {
			res.Infof("`%s` changed from `%s` to `%s`", d.Key, d.Before, d.After)
		}
	}

	return res, nil
}
