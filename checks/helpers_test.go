package checks_test

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/checks"
	"github.com/withtally/compound-seatbelt-sub001/classify"
	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
	"github.com/withtally/compound-seatbelt-sub001/proposal"
)

var (
	addrA        = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	addrB        = common.HexToAddress("0x00000000000000000000000000000000000000Bb")
	addrC        = common.HexToAddress("0x00000000000000000000000000000000000000Cc")
	trustedGov   = common.HexToAddress("0x408ED6354d4973f66138C91495F2f2FCbd8724C3")
	selfdestruct = []byte{0x60, 0x00, 0xff}
	delegatecall = []byte{0x60, 0x00, 0xf4, 0x00}
	safeCode     = []byte{0x60, 0x00, 0x00}
)

type account struct {
	code  []byte
	nonce uint64
}

type fakeChain struct {
	accounts map[common.Address]account
}

func (f *fakeChain) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	return f.accounts[addr].code, nil
}

func (f *fakeChain) NonceAt(_ context.Context, addr common.Address, _ *big.Int) (uint64, error) {
	return f.accounts[addr].nonce, nil
}

type fakeVerifier struct {
	verified map[common.Address]bool
}

func (f *fakeVerifier) IsVerified(_ context.Context, _ uint64, addr common.Address) bool {
	return f.verified[addr]
}

type fakeABISource struct {
	abis map[common.Address]json.RawMessage
}

func (f *fakeABISource) FetchABI(_ context.Context, _ uint64, addr common.Address) json.RawMessage {
	return f.abis[addr]
}

// errClassifier fails every classification, for per-check fault isolation
// tests.
type errClassifier struct{ err error }

func (e *errClassifier) ClassifyAll(_ context.Context, _ []common.Address) ([]classify.Classification, error) {
	return nil, e.err
}

// newTestContext wires a CheckContext over fake chain data: A is an
// unverified contract with a reachable SELFDESTRUCT, B is an EOA, C is a
// verified, safe contract.
func newTestContext(t *testing.T) *checks.CheckContext {
	t.Helper()

	chain := &fakeChain{accounts: map[common.Address]account{
		addrA:      {code: selfdestruct, nonce: 1},
		addrB:      {nonce: 5},
		addrC:      {code: safeCode, nonce: 1},
		trustedGov: {code: selfdestruct, nonce: 1},
	}}
	verifier := &fakeVerifier{verified: map[common.Address]bool{addrC: true}}
	classifier := classify.NewClassifier(
		logger.Test(t), chain, verifier, 1, []common.Address{trustedGov})

	return &checks.CheckContext{
		ChainID:  1,
		IsOrigin: true,
		Proposal: &proposal.Execution{
			Targets: []common.Address{addrA, addrB},
		},
		Sim: &proposal.SimulationResult{
			OK:               true,
			TouchedContracts: []common.Address{addrA, addrC},
		},
		Classifier: classifier,
		ABIs:       &fakeABISource{abis: map[common.Address]json.RawMessage{}},
		Logger:     logger.Test(t),
	}
}
