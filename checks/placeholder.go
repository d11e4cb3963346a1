package checks

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PlaceholderAddress is the canonical stand-in address the simulator
// substitutes for a not-yet-known proposer or executor.
var PlaceholderAddress = common.HexToAddress("0x0000000000000000000000000000000000012345")

// PlaceholderPolicy controls warning suppression for the canonical
// placeholder address. Findings about the placeholder are noise in routine
// runs, but they must never hide a real issue, and an attacker must not be
// able to get a dangerous address suppressed by making it resemble the
// placeholder: only an exact checksummed match to the constant qualifies.
type PlaceholderPolicy struct {
	Placeholder common.Address
}

// NewPlaceholderPolicy returns the policy for the canonical placeholder.
func NewPlaceholderPolicy() PlaceholderPolicy {
	return PlaceholderPolicy{Placeholder: PlaceholderAddress}
}

// Split partitions warnings into ordinary ones and those suppressible under
// the policy. A warning is suppressible only when its leading address token
// is byte-for-byte the checksummed placeholder constant.
func (p PlaceholderPolicy) Split(warnings []string) (ordinary, suppressible []string) {
	want := p.Placeholder.Hex()
	for _, w := range warnings {
		addr, _, found := strings.Cut(w, ":")
		if found && addr == want {
			suppressible = append(suppressible, w)
		} else {
			ordinary = append(ordinary, w)
		}
	}

	return ordinary, suppressible
}

// Apply returns the final warning set: if no ordinary warning exists the
// suppressible ones are dropped entirely; once any real warning is visible,
// nothing is hidden and the suppressible warnings are appended back.
func (p PlaceholderPolicy) Apply(warnings []string) []string {
	ordinary, suppressible := p.Split(warnings)
	if len(ordinary) == 0 {
		return nil
	}

	return append(ordinary, suppressible...)
}
