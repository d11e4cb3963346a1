package checks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CompileTargetsID keys the compiled-ABI artifact in the run context.
const CompileTargetsID = "compile-targets"

// TargetArtifacts is the output of the CompileTargets check: the parsed ABI
// of every target that has one. Fetching and parsing ABIs is the expensive
// step, so dependent checks reuse this instead of recomputing it.
type TargetArtifacts struct {
	ABIs map[common.Address]*abi.ABI
}

// CompileTargets fetches and parses the ABI of every call target through the
// verification cache and publishes the result as a run artifact. Decoding
// only happens on the origin chain, so the artifact is only built there.
type CompileTargets struct{}

func (CompileTargets) ID() string         { return CompileTargetsID }
func (CompileTargets) Name() string       { return "Compile target contract ABIs" }
func (CompileTargets) Requires() []string { return nil }
func (CompileTargets) OriginOnly() bool   { return true }

func (c CompileTargets) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	var res Result

	arts := &TargetArtifacts{ABIs: make(map[common.Address]*abi.ABI)}
	for _, addr := range targetAddresses(cc) {
		raw := cc.ABIs.FetchABI(ctx, cc.ChainID, addr)
		if raw == nil {
			res.Infof("%s: no ABI available", addr.Hex())
			continue
		}
		parsed, err := abi.JSON(bytes.NewReader(raw))
		if err != nil {
			res.Warnf("%s: ABI could not be parsed", addr.Hex())
			continue
		}
		arts.ABIs[addr] = &parsed
		res.Infof("%s: ABI compiled", addr.Hex())
	}
	cc.PutArtifact(c.ID(), arts)

	return res, nil
}

// DecodeCalldata decodes each proposal action's calldata against the
// compiled target ABIs. Only meaningful on the origin chain, where the
// proposal's direct actions live.
type DecodeCalldata struct{}

func (DecodeCalldata) ID() string         { return "decode-calldata" }
func (DecodeCalldata) Name() string       { return "Decode proposal calldata" }
func (DecodeCalldata) Requires() []string { return []string{CompileTargetsID} }
func (DecodeCalldata) OriginOnly() bool   { return true }

func (c DecodeCalldata) Run(_ context.Context, cc *CheckContext) (Result, error) {
	v, ok := cc.Artifact(CompileTargetsID)
	if !ok {
		return Result{}, fmt.Errorf("missing %s artifact", CompileTargetsID)
	}
	arts, ok := v.(*TargetArtifacts)
	if !ok {
		return Result{}, fmt.Errorf("unexpected %s artifact type %T", CompileTargetsID, v)
	}

	var res Result
	for i, target := range cc.Proposal.Targets {
		var (
			sig  string
			data []byte
		)
		if i < len(cc.Proposal.Signatures) {
			sig = cc.Proposal.Signatures[i]
		}
		if i < len(cc.Proposal.Calldatas) {
			data = cc.Proposal.Calldatas[i]
		}

		decodeAction(&res, arts.ABIs[target], target, sig, data)
	}

	return res, nil
}

// decodeAction renders one proposal action. Governor proposals carry either
// an explicit function signature with bare argument data, or empty signature
// with selector-prefixed calldata.
func decodeAction(res *Result, parsed *abi.ABI, target common.Address, sig string, data []byte) {
	a := target.Hex()

	if sig == "" && len(data) == 0 {
		res.Infof("%s: empty calldata (plain value transfer)", a)
		return
	}
	if parsed == nil {
		res.Warnf("%s: calldata could not be decoded (no verified ABI)", a)
		return
	}

	var (
		method abi.Method
		args   []byte
		found  bool
	)
	if sig != "" {
		for _, m := range parsed.Methods {
			if m.Sig == sig {
				method, args, found = m, data, true
				break
			}
		}
	} else if len(data) >= 4 {
		if m, err := parsed.MethodById(data[:4]); err == nil {
			method, args, found = *m, data[4:], true
		}
	}
	if !found {
		res.Warnf("%s: calldata does not match any method in the verified ABI", a)
		return
	}

	values, err := method.Inputs.Unpack(args)
	if err != nil {
		res.Warnf("%s: calldata for `%s` could not be unpacked", a, method.Sig)
		return
	}

	rendered := make([]string, len(values))
	for i, val := range values {
		rendered[i] = fmt.Sprintf("%v", val)
	}
	res.Infof("%s: calls `%s` with (%s)", a, method.Sig, strings.Join(rendered, ", "))
}
