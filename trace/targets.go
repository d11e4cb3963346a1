// Package trace extracts the set of call targets from a simulated call tree.
package trace

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/withtally/compound-seatbelt-sub001/proposal"
)

// MaxDepth bounds the recursion into nested calls. Trace depth originates
// from simulated, externally influenced calldata, so the walk must not trust
// it to be shallow.
const MaxDepth = 64

// Targets returns every address called with non-empty calldata anywhere in
// the trace, plus the root target even when its input is empty. Each address
// appears exactly once, in first-visit (pre-order) order, so downstream
// reports are deterministic. Nodes deeper than MaxDepth are ignored.
func Targets(root *proposal.CallTrace) []common.Address {
	if root == nil {
		return nil
	}

	seen := make(map[common.Address]struct{})
	out := make([]common.Address, 0, 1+len(root.Calls))

	add := func(a common.Address) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	if root.To != nil {
		add(*root.To)
	}

	var walk func(n *proposal.CallTrace, depth int)
	walk = func(n *proposal.CallTrace, depth int) {
		if n == nil || depth > MaxDepth {
			return
		}
		if n.To != nil && len(n.Input) > 0 {
			add(*n.To)
		}
		for _, c := range n.Calls {
			walk(c, depth+1)
		}
	}
	walk(root, 0)

	return out
}
