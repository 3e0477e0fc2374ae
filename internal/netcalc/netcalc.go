// Package netcalc validates virtual-network CIDR layouts and suggests free
// subnet blocks. Every function is a pure function of its arguments and is
// total over arbitrary string input: malformed text yields false, an error
// entry, or a missing suggestion, never a panic. The network-configuration
// form calls these on every keystroke.
package netcalc

import (
	"fmt"
	"net/netip"
	"sort"
)

// Block is a parsed IPv4 CIDR block.
type Block struct {
	Addr      uint32
	PrefixLen int
}

// Subnet is one subnet declaration inside a virtual network.
type Subnet struct {
	Name          string `json:"name"`
	AddressPrefix string `json:"address_prefix"`
	Purpose       string `json:"purpose,omitempty"`
}

// Result is the outcome of validating a set of subnets against an address
// space. Errors carries every finding, not just the first; callers decide
// how many to surface.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Subnet purposes understood by the sizing policy.
const (
	PurposeApplication        = "Application"
	PurposePrivateEndpoints   = "PrivateEndpoints"
	PurposeApplicationGateway = "ApplicationGateway"
	PurposeDatabase           = "Database"
	PurposeOther              = "Other"
)

// minPrefixByPurpose maps a purpose to the largest numeric prefix length
// (smallest block) still considered big enough. Advisory only.
var minPrefixByPurpose = map[string]int{
	PurposeApplication:        24,
	PurposePrivateEndpoints:   26,
	PurposeApplicationGateway: 27,
	PurposeDatabase:           26,
}

// ParseCIDR parses dotted-quad/prefix notation. Accepted text reserializes
// byte for byte via Block.String, so leading zeros and IPv6 forms are
// rejected.
func ParseCIDR(text string) (Block, bool) {
	prefix, err := netip.ParsePrefix(text)
	if err != nil {
		return Block{}, false
	}
	addr := prefix.Addr()
	if !addr.Is4() {
		return Block{}, false
	}
	b := addr.As4()
	return Block{
		Addr:      uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]),
		PrefixLen: prefix.Bits(),
	}, true
}

// String renders the block in canonical a.b.c.d/len form.
func (b Block) String() string {
	return fmt.Sprintf("%d.%d.%d.%d/%d",
		b.Addr>>24, b.Addr>>16&0xff, b.Addr>>8&0xff, b.Addr&0xff, b.PrefixLen)
}

// size returns the number of addresses the block spans.
func (b Block) size() uint64 {
	return uint64(1) << (32 - b.PrefixLen)
}

// rangeOf returns the first and last address the block covers, with the base
// masked down to its network address.
func (b Block) rangeOf() (start, end uint64) {
	mask := ^uint64(0) << (32 - b.PrefixLen)
	start = uint64(b.Addr) & mask & 0xffffffff
	end = start + b.size() - 1
	return start, end
}

// IsValidCIDR reports whether text is well-formed IPv4 CIDR notation:
// four octets in 0..255 and a prefix length in 0..32.
func IsValidCIDR(text string) bool {
	_, ok := ParseCIDR(text)
	return ok
}

// IsValidVNetName reports whether name is an acceptable virtual-network
// name: 2 to 64 characters drawn from letters, digits, hyphen, underscore
// and period.
func IsValidVNetName(name string) bool {
	if len(name) < 2 || len(name) > 64 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

// IsSubnetSizeSufficient reports whether the block is at least as large as
// the recommended minimum for the purpose. Unknown purposes and malformed
// CIDR text pass: the policy is advisory and must not block submission.
func IsSubnetSizeSufficient(cidr, purpose string) bool {
	min, ok := minPrefixByPurpose[purpose]
	if !ok {
		return true
	}
	block, ok := ParseCIDR(cidr)
	if !ok {
		return true
	}
	return block.PrefixLen <= min
}

// SizeRecommendation returns sizing guidance text for a purpose.
func SizeRecommendation(purpose string) string {
	min, ok := minPrefixByPurpose[purpose]
	if !ok {
		return "No specific size recommendation for this purpose; choose a prefix that leaves room for growth."
	}
	switch purpose {
	case PurposeApplicationGateway:
		return fmt.Sprintf("Use at least a /%d for Application Gateway", min)
	case PurposePrivateEndpoints:
		return fmt.Sprintf("Use at least a /%d for private endpoints", min)
	case PurposeDatabase:
		return fmt.Sprintf("Use at least a /%d for database subnets", min)
	default:
		return fmt.Sprintf("Use at least a /%d for application workloads", min)
	}
}

// ValidateSubnets checks a virtual network layout: every subnet must be
// well-formed, contained in the address space, non-overlapping with its
// peers, and uniquely named. All findings are collected; Valid is true only
// when none were.
func ValidateSubnets(subnets []Subnet, addressSpace string) Result {
	space, ok := ParseCIDR(addressSpace)
	if !ok {
		return Result{Valid: false, Errors: []string{
			fmt.Sprintf("address space %q is not valid CIDR notation", addressSpace),
		}}
	}
	spaceStart, spaceEnd := space.rangeOf()

	var errs []string

	type placed struct {
		name       string
		start, end uint64
	}
	var contained []placed

	for _, sn := range subnets {
		block, ok := ParseCIDR(sn.AddressPrefix)
		if !ok {
			errs = append(errs, fmt.Sprintf("subnet %q has invalid CIDR %q", sn.Name, sn.AddressPrefix))
			continue
		}
		start, end := block.rangeOf()
		if start < spaceStart || end > spaceEnd {
			errs = append(errs, fmt.Sprintf("subnet %q (%s) is not contained in address space %s", sn.Name, sn.AddressPrefix, addressSpace))
			continue
		}
		contained = append(contained, placed{name: sn.Name, start: start, end: end})
	}

	for i := 0; i < len(contained); i++ {
		for j := i + 1; j < len(contained); j++ {
			a, b := contained[i], contained[j]
			if a.start <= b.end && b.start <= a.end {
				errs = append(errs, fmt.Sprintf("subnets %q and %q overlap", a.name, b.name))
			}
		}
	}

	seen := make(map[string]bool, len(subnets))
	for _, sn := range subnets {
		if seen[sn.Name] {
			errs = append(errs, fmt.Sprintf("duplicate subnet name %q", sn.Name))
			continue
		}
		seen[sn.Name] = true
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// NextSubnetCIDR suggests the lowest free block of the requested size inside
// the address space, skipping the existing blocks. Candidate starts are
// walked at alignment boundaries (start address a multiple of the block
// size). Returns false when the request cannot fit. The scan is a pure
// function of its arguments, so repeated calls return the same suggestion.
func NextSubnetCIDR(addressSpace string, existing []string, desiredPrefixLen int) (string, bool) {
	space, ok := ParseCIDR(addressSpace)
	if !ok {
		return "", false
	}
	if desiredPrefixLen < space.PrefixLen || desiredPrefixLen > 32 {
		return "", false
	}
	spaceStart, spaceEnd := space.rangeOf()
	blockSize := uint64(1) << (32 - desiredPrefixLen)

	type span struct{ start, end uint64 }
	var used []span
	for _, text := range existing {
		block, ok := ParseCIDR(text)
		if !ok {
			continue
		}
		start, end := block.rangeOf()
		if end < spaceStart || start > spaceEnd {
			continue
		}
		if start < spaceStart {
			start = spaceStart
		}
		if end > spaceEnd {
			end = spaceEnd
		}
		used = append(used, span{start: start, end: end})
	}
	sort.Slice(used, func(i, j int) bool { return used[i].start < used[j].start })

	cursor := alignUp(spaceStart, blockSize)
	idx := 0
	for {
		candidateEnd := cursor + blockSize - 1
		if candidateEnd > spaceEnd {
			return "", false
		}
		for idx < len(used) && used[idx].end < cursor {
			idx++
		}
		if idx >= len(used) || candidateEnd < used[idx].start {
			return Block{Addr: uint32(cursor), PrefixLen: desiredPrefixLen}.String(), true
		}
		cursor = alignUp(used[idx].end+1, blockSize)
	}
}

// alignUp rounds n up to the next multiple of step.
func alignUp(n, step uint64) uint64 {
	if step == 0 {
		return n
	}
	if r := n % step; r != 0 {
		return n + step - r
	}
	return n
}
