// Package bytecode implements a static risk scan over raw EVM runtime
// bytecode. It flags SELFDESTRUCT opcodes that ordinary control flow can
// reach and records the presence of DELEGATECALL.
//
// The reachability model is the community-standard heuristic: code following
// a terminator (STOP, RETURN, REVERT, INVALID, SELFDESTRUCT) is treated as
// dead until the next JUMPDEST, and PUSH immediates are skipped so literal
// data bytes are never misread as opcodes. This is a cheap approximation,
// not sound control-flow analysis; it can mis-judge jump tables and
// obfuscated dispatch. It is kept as-is for parity with existing reports.
package bytecode

// EVM opcodes the scanner cares about.
const (
	opStop         = 0x00
	opJumpdest     = 0x5b
	opPush1        = 0x60
	opPush32       = 0x7f
	opReturn       = 0xf3
	opDelegatecall = 0xf4
	opRevert       = 0xfd
	opInvalid      = 0xfe
	opSelfdestruct = 0xff
)

// Verdict is the outcome of scanning one contract's bytecode.
type Verdict int

const (
	// Safe means no reachable SELFDESTRUCT and no DELEGATECALL was found.
	Safe Verdict = iota
	// DelegatecallPresent means at least one reachable DELEGATECALL exists.
	DelegatecallPresent
	// SelfdestructReachable means a SELFDESTRUCT is reachable by ordinary
	// control flow.
	SelfdestructReachable
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case DelegatecallPresent:
		return "delegatecall"
	case SelfdestructReachable:
		return "selfdestruct"
	default:
		return "unknown"
	}
}

// Scan walks code linearly and returns the risk verdict. It is pure and
// deterministic; results may be cached by code hash.
func Scan(code []byte) Verdict {
	var (
		halted           bool
		delegatecallSeen bool
	)

	for i := 0; i < len(code); i++ {
		op := code[i]

		switch {
		case op == opSelfdestruct && !halted:
			// First reachable selfdestruct wins.
			return SelfdestructReachable
		case op == opDelegatecall && !halted:
			delegatecallSeen = true
		case op == opJumpdest:
			// A jump destination re-exposes the code that follows.
			halted = false
		case op >= opPush1 && op <= opPush32:
			// Skip the push immediate; its bytes are data, not opcodes.
			// A truncated trailing push simply ends the scan.
			i += int(op-opPush1) + 1
			continue
		}

		switch op {
		case opStop, opReturn, opRevert, opInvalid, opSelfdestruct:
			halted = true
		}
	}

	if delegatecallSeen {
		return DelegatecallPresent
	}

	return Safe
}
