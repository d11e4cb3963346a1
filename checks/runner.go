package checks

import (
	"context"
	"fmt"

	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
)

// CheckReport pairs a check's display name with its findings.
type CheckReport struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// RunReport holds every check's findings for one chain, keyed by check id.
type RunReport map[string]CheckReport

// Status rolls the per-check statuses up into one chain status.
func (rr RunReport) Status() Status {
	status := StatusSuccess
	for _, cr := range rr {
		if s := cr.Result.Status(); s > status {
			status = s
		}
	}

	return status
}

// Runner executes a fixed set of checks against one chain context.
type Runner struct {
	lggr   logger.Logger
	checks []Check
}

// NewRunner builds a Runner over the given checks. Registration order is
// preserved except where a declared dependency forces a check later.
func NewRunner(lggr logger.Logger, cks ...Check) *Runner {
	return &Runner{lggr: lggr, checks: orderChecks(cks)}
}

// DefaultChecks returns the standard audit check set.
func DefaultChecks() []Check {
	policy := NewPlaceholderPolicy()

	return []Check{
		SimulationSucceeded{},
		TargetsVerified{Policy: policy},
		TargetsNoSelfdestruct{Policy: policy},
		TouchedVerified{Policy: policy},
		TouchedNoSelfdestruct{Policy: policy},
		StateChanges{},
		EmittedLogs{},
		CompileTargets{},
		DecodeCalldata{},
	}
}

// Run executes every applicable check for the chain in cc and merges the
// findings into one RunReport. A failing or panicking check contributes a
// single error finding under its own id; it never prevents the remaining
// checks from running.
func (r *Runner) Run(ctx context.Context, cc *CheckContext) RunReport {
	out := make(RunReport, len(r.checks))

	for _, c := range r.checks {
		if oo, ok := c.(originOnly); ok && oo.OriginOnly() && !cc.IsOrigin {
			r.lggr.Debugw("Skipping origin-only check on destination chain",
				"check", c.ID(), "chainID", cc.ChainID)
			continue
		}

		r.lggr.Debugw("Running check", "check", c.ID(), "chainID", cc.ChainID)
		res := r.runOne(ctx, c, cc)
		out[c.ID()] = CheckReport{Name: c.Name(), Result: res}
	}

	return out
}

func (r *Runner) runOne(ctx context.Context, c Check, cc *CheckContext) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.lggr.Errorw("Check panicked", "check", c.ID(), "chainID", cc.ChainID, "panic", p)
			res = Result{Errors: []string{fmt.Sprintf("check %s failed: %v", c.ID(), p)}}
		}
	}()

	res, err := c.Run(ctx, cc)
	if err != nil {
		r.lggr.Errorw("Check failed", "check", c.ID(), "chainID", cc.ChainID, "error", err)
		return Result{Errors: []string{fmt.Sprintf("check %s failed: %v", c.ID(), err)}}
	}

	return res
}

// orderChecks returns the checks in a stable order where every check runs
// after the checks it Requires. Dependencies on unregistered ids are
// ignored; the dependent check then reports the missing artifact itself.
func orderChecks(cks []Check) []Check {
	registered := make(map[string]bool, len(cks))
	for _, c := range cks {
		registered[c.ID()] = true
	}

	done := make(map[string]bool, len(cks))
	out := make([]Check, 0, len(cks))
	remaining := cks

	for len(remaining) > 0 {
		var deferred []Check
		progress := false

		for _, c := range remaining {
			ready := true
			for _, dep := range c.Requires() {
				if registered[dep] && !done[dep] {
					ready = false
					break
				}
			}
			if !ready {
				deferred = append(deferred, c)
				continue
			}
			out = append(out, c)
			done[c.ID()] = true
			progress = true
		}

		if !progress {
			// Dependency cycle; run the rest in registration order rather
			// than dropping them.
			out = append(out, deferred...)
			break
		}
		remaining = deferred
	}

	return out
}
