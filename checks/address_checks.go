package checks

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/bytecode"
	"github.com/withtally/compound-seatbelt-sub001/classify"
	"github.com/withtally/compound-seatbelt-sub001/trace"
)

// targetAddresses derives the addresses an address-oriented check audits.
// On the origin chain these are the proposal's direct targets. A proposal
// without direct targets (cross-chain-only proposals) falls back to trace
// extraction over the origin simulation and every destination simulation.
// Destination chains have no direct targets, so their own call trace is
// walked instead.
func targetAddresses(cc *CheckContext) []common.Address {
	seen := make(map[common.Address]struct{})
	var out []common.Address
	add := func(addrs []common.Address) {
		for _, a := range addrs {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}

	if !cc.IsOrigin {
		if cc.Sim == nil {
			return nil
		}

		return trace.Targets(cc.Sim.CallTrace)
	}

	if cc.Proposal != nil && len(cc.Proposal.Targets) > 0 {
		add(cc.Proposal.Targets)

		return out
	}

	if cc.Sim != nil {
		add(trace.Targets(cc.Sim.CallTrace))
	}
	for _, d := range cc.Destinations {
		if d.Result != nil {
			add(trace.Targets(d.Result.CallTrace))
		}
	}

	return out
}

// verificationFinding renders one classification for the verification check.
func verificationFinding(res *Result, cl classify.Classification) {
	a := cl.Address.Hex()
	switch cl.Kind {
	case classify.TrustedContract:
		res.Infof("%s: Trusted contract (not checked)", a)
	case classify.EOA, classify.EmptyAccount:
		res.Infof("%s: EOA (verification not applicable)", a)
	case classify.VerifiedContract:
		res.Infof("%s: Contract (verified)", a)
	case classify.UnverifiedContract:
		res.Warnf("%s: Contract (not verified)", a)
	}
}

// selfdestructFinding renders one classification for the no-selfdestruct
// check. Verification and risk are independent: the verdict applies to any
// contract, verified or not.
func selfdestructFinding(res *Result, cl classify.Classification) {
	a := cl.Address.Hex()
	if cl.IsContract() {
		switch cl.Verdict {
		case bytecode.SelfdestructReachable:
			res.Errorf("%s: Contract (with SELFDESTRUCT)", a)
		case bytecode.DelegatecallPresent:
			res.Warnf("%s: Contract (with DELEGATECALL)", a)
		default:
			res.Infof("%s: Contract (looks safe)", a)
		}

		return
	}

	switch cl.Kind {
	case classify.TrustedContract:
		res.Infof("%s: Trusted contract (not checked)", a)
	case classify.EOA:
		res.Infof("%s: EOA", a)
	case classify.EmptyAccount:
		res.Infof("%s: EOA (may have code later)", a)
	}
}

// classifyInto classifies addrs and renders each classification with render,
// preserving the order addresses were given. The placeholder policy is
// applied to the assembled warnings afterwards.
func classifyInto(
	ctx context.Context,
	cc *CheckContext,
	addrs []common.Address,
	policy PlaceholderPolicy,
	render func(*Result, classify.Classification),
) (Result, error) {
	var res Result

	cls, err := cc.Classifier.ClassifyAll(ctx, addrs)
	if err != nil {
		return Result{}, err
	}
	for _, cl := range cls {
		render(&res, cl)
	}
	res.Warnings = policy.Apply(res.Warnings)

	return res, nil
}

// TargetsVerified checks that every call target is verified on the chain's
// block explorer.
type TargetsVerified struct {
	Policy PlaceholderPolicy
}

func (TargetsVerified) ID() string   { return "targets-verified" }
func (TargetsVerified) Name() string { return "Targets are verified on the block explorer" }

func (TargetsVerified) Requires() []string { return nil }

func (c TargetsVerified) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	return classifyInto(ctx, cc, targetAddresses(cc), c.Policy, verificationFinding)
}

// TargetsNoSelfdestruct checks every call target's bytecode for reachable
// SELFDESTRUCT and for DELEGATECALL.
type TargetsNoSelfdestruct struct {
	Policy PlaceholderPolicy
}

func (TargetsNoSelfdestruct) ID() string { return "targets-no-selfdestruct" }
func (TargetsNoSelfdestruct) Name() string {
	return "Targets contain no SELFDESTRUCT or DELEGATECALL"
}

func (TargetsNoSelfdestruct) Requires() []string { return nil }

func (c TargetsNoSelfdestruct) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	return classifyInto(ctx, cc, targetAddresses(cc), c.Policy, selfdestructFinding)
}

// TouchedVerified checks every contract the simulation touched for explorer
// verification. Touched-contract data is only meaningful on the origin
// chain, so the check is skipped on destination runs.
type TouchedVerified struct {
	Policy PlaceholderPolicy
}

func (TouchedVerified) ID() string { return "touched-verified" }
func (TouchedVerified) Name() string {
	return "Touched contracts are verified on the block explorer"
}

func (TouchedVerified) Requires() []string { return nil }
func (TouchedVerified) OriginOnly() bool   { return true }

func (c TouchedVerified) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	return classifyInto(ctx, cc, cc.Sim.TouchedContracts, c.Policy, verificationFinding)
}

// TouchedNoSelfdestruct scans every touched contract's bytecode. Skipped on
// destination runs like TouchedVerified.
type TouchedNoSelfdestruct struct {
	Policy PlaceholderPolicy
}

func (TouchedNoSelfdestruct) ID() string { return "touched-no-selfdestruct" }
func (TouchedNoSelfdestruct) Name() string {
	return "Touched contracts contain no SELFDESTRUCT or DELEGATECALL"
}

func (TouchedNoSelfdestruct) Requires() []string { return nil }
func (TouchedNoSelfdestruct) OriginOnly() bool   { return true }

func (c TouchedNoSelfdestruct) Run(ctx context.Context, cc *CheckContext) (Result, error) {
	return classifyInto(ctx, cc, cc.Sim.TouchedContracts, c.Policy, selfdestructFinding)
}
