// Package proposal defines the data model shared by the audit engine: the
// governance proposal itself and the simulation output the checks consume.
package proposal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Execution describes a governance proposal as queued on the governor:
// parallel lists of call targets, values, signatures and calldatas. It is
// immutable once the proposal has been simulated.
type Execution struct {
	ID          *big.Int         `json:"id"`
	Proposer    common.Address   `json:"proposer"`
	Targets     []common.Address `json:"targets"`
	Values      []*big.Int       `json:"values"`
	Signatures  []string         `json:"signatures"`
	Calldatas   []hexutil.Bytes  `json:"calldatas"`
	Description string           `json:"description"`
	StartBlock  *big.Int         `json:"startBlock"`
	EndBlock    *big.Int         `json:"endBlock"`
}

// CallTrace is one node of the call tree produced by simulating the proposal
// execution. The engine only reads traces; it never constructs them.
//
// To is nil for contract-creation frames. Input is the raw calldata of the
// frame; an empty input on a non-root frame is a bare value transfer.
type CallTrace struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Input hexutil.Bytes   `json:"input"`
	Calls []*CallTrace    `json:"calls,omitempty"`
}

// StateDiff records one storage slot that changed during the simulation.
type StateDiff struct {
	Address      common.Address `json:"address"`
	ContractName string         `json:"contractName,omitempty"`
	Key          string         `json:"key"`
	Before       string         `json:"before"`
	After        string         `json:"after"`
}

// SimulationResult is the output of simulating the proposal (or one of its
// cross-chain follow-on executions) against a fork. Read-only input to the
// checks.
type SimulationResult struct {
	OK               bool             `json:"status"`
	CallTrace        *CallTrace       `json:"callTrace"`
	Logs             []types.Log      `json:"logs"`
	TouchedContracts []common.Address `json:"touchedContractAddresses"`
	StateDiffs       []StateDiff      `json:"stateDiffs"`
}

// DestinationSimulation pairs a destination chain id with the simulated
// follow-on execution that a cross-chain message triggers there.
type DestinationSimulation struct {
	ChainID uint64            `json:"chainId"`
	Result  *SimulationResult `json:"result"`
}
