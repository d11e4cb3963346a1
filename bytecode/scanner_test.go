package bytecode_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/withtally/compound-seatbelt-sub001/bytecode"
)

func TestScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code []byte
		want bytecode.Verdict
	}{
		{
			name: "empty bytecode is safe",
			code: nil,
			want: bytecode.Safe,
		},
		{
			name: "plain stop is safe",
			code: []byte{0x00},
			want: bytecode.Safe,
		},
		{
			name: "bare selfdestruct",
			code: []byte{0xff},
			want: bytecode.SelfdestructReachable,
		},
		{
			name: "selfdestruct after push data is reachable",
			// PUSH1 0x00, SELFDESTRUCT: the 0x00 is push data, not STOP.
			code: []byte{0x60, 0x00, 0xff},
			want: bytecode.SelfdestructReachable,
		},
		{
			name: "selfdestruct after stop is dead code",
			code: []byte{0x00, 0xff},
			want: bytecode.Safe,
		},
		{
			name: "jumpdest re-exposes selfdestruct",
			code: []byte{0x00, 0x5b, 0xff},
			want: bytecode.SelfdestructReachable,
		},
		{
			name: "selfdestruct hidden in push data is not an opcode",
			// PUSH2 0xff 0xff, STOP
			code: []byte{0x61, 0xff, 0xff, 0x00},
			want: bytecode.Safe,
		},
		{
			name: "reachable delegatecall",
			code: []byte{0x60, 0x00, 0xf4, 0x00},
			want: bytecode.DelegatecallPresent,
		},
		{
			name: "delegatecall after revert is dead code",
			code: []byte{0xfd, 0xf4},
			want: bytecode.Safe,
		},
		{
			name: "delegatecall after return then jumpdest",
			code: []byte{0xf3, 0x5b, 0xf4},
			want: bytecode.DelegatecallPresent,
		},
		{
			name: "selfdestruct takes precedence over delegatecall",
			code: []byte{0xf4, 0xff},
			want: bytecode.SelfdestructReachable,
		},
		{
			name: "selfdestruct after invalid opcode is dead code",
			code: []byte{0xfe, 0xff},
			want: bytecode.Safe,
		},
		{
			name: "second selfdestruct after the first is never reached",
			// First FF halts; the verdict comes from the first one anyway.
			code: []byte{0xff, 0xff},
			want: bytecode.SelfdestructReachable,
		},
		{
			name: "truncated trailing push32 does not read past the end",
			code: append([]byte{0x7f}, bytes.Repeat([]byte{0xff}, 5)...),
			want: bytecode.Safe,
		},
		{
			name: "truncated trailing push1 with no data",
			code: []byte{0x00, 0x60},
			want: bytecode.Safe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, bytecode.Scan(tt.code))
		})
	}
}

func TestVerdict_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "safe", bytecode.Safe.String())
	assert.Equal(t, "delegatecall", bytecode.DelegatecallPresent.String())
	assert.Equal(t, "selfdestruct", bytecode.SelfdestructReachable.String())
}
