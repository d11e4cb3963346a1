package checks

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EmittedLogs reports every event the simulation emitted, grouped by
// emitting contract and decoded against the explorer ABI when one is
// available. Undecodable events are informational, never errors: missing
// ABIs are already surfaced by the verification checks.
type EmittedLogs struct{}

func (EmittedLogs) ID() string         { return "emitted-logs" }
func (EmittedLogs) Name() string       { return "Events emitted by simulation" }
func (EmittedLogs) Requires() []string { return nil }

func (c EmittedLogs) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	var res Result

	if cc.Sim == nil || len(cc.Sim.Logs) == 0 {
		res.Infof("No events emitted")
		return res, nil
	}

	var order []common.Address
	grouped := make(map[common.Address][]types.Log)
	for _, l := range cc.Sim.Logs {
		if _, ok := grouped[l.Address]; !ok {
			order = append(order, l.Address)
		}
		grouped[l.Address] = append(grouped[l.Address], l)
	}

	for _, addr := range order {
		res.Infof("Contract at `%s`", addr.Hex())

		parsed := c.loadABI(ctx, cc, addr)
		for _, l := range grouped[addr] {
			res.Infof("%s", describeLog(parsed, l))
		}
	}

	return res, nil
}

func (EmittedLogs) loadABI(ctx context.Context, cc *CheckContext, addr common.Address) *abi.ABI {
	raw := cc.ABIs.FetchABI(ctx, cc.ChainID, addr)
	if raw == nil {
		return nil
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		cc.Logger.Warnw("Failed to parse cached ABI", "address", addr.Hex(), "error", err)
		return nil
	}

	return &parsed
}

func describeLog(parsed *abi.ABI, l types.Log) string {
	if len(l.Topics) == 0 {
		return "`(anonymous event with no topics)`"
	}
	if parsed != nil {
		if ev, err := parsed.EventByID(l.Topics[0]); err == nil {
			return "`" + ev.Sig + "` emitted"
		}
	}

	return "`" + l.Topics[0].Hex() + "` (undecoded event)"
}
