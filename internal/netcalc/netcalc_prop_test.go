package netcalc

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// genBlock draws an aligned IPv4 block inside 10.0.0.0/8.
func genBlock(t *rapid.T) Block {
	prefixLen := rapid.IntRange(16, 30).Draw(t, "prefix_len")
	size := uint32(1) << (32 - prefixLen)
	base := uint32(10) << 24
	slot := rapid.Uint32Range(0, (uint32(1)<<24)/size-1).Draw(t, "slot")
	return Block{Addr: base + slot*size, PrefixLen: prefixLen}
}

func TestParseCIDRRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := fmt.Sprintf("%d.%d.%d.%d/%d",
			rapid.IntRange(0, 255).Draw(t, "a"),
			rapid.IntRange(0, 255).Draw(t, "b"),
			rapid.IntRange(0, 255).Draw(t, "c"),
			rapid.IntRange(0, 255).Draw(t, "d"),
			rapid.IntRange(0, 32).Draw(t, "p"))

		block, ok := ParseCIDR(text)
		if !ok {
			t.Fatalf("well-formed CIDR rejected: %q", text)
		}
		if got := block.String(); got != text {
			t.Fatalf("round trip changed text: %q -> %q", text, got)
		}
	})
}

func TestIsValidCIDRNeverAcceptsGarbage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		if !IsValidCIDR(s) {
			return
		}
		// Anything accepted must survive parse and reserialize identically.
		block, ok := ParseCIDR(s)
		if !ok || block.String() != s {
			t.Fatalf("accepted %q but it is not canonical", s)
		}
	})
}

func TestValidateSubnetsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "n")
		subnets := make([]Subnet, n)
		for i := range subnets {
			subnets[i] = Subnet{
				Name:          fmt.Sprintf("subnet-%d", i),
				AddressPrefix: genBlock(t).String(),
			}
		}

		forward := ValidateSubnets(subnets, "10.0.0.0/8")

		reversed := make([]Subnet, n)
		for i := range subnets {
			reversed[n-1-i] = subnets[i]
		}
		backward := ValidateSubnets(reversed, "10.0.0.0/8")

		if forward.Valid != backward.Valid {
			t.Fatalf("validity depends on input order: %v vs %v", forward.Errors, backward.Errors)
		}
		if len(forward.Errors) != len(backward.Errors) {
			t.Fatalf("finding count depends on input order: %v vs %v", forward.Errors, backward.Errors)
		}
	})
}

func TestNextSubnetCIDRProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		space := "10.0.0.0/16"
		count := rapid.IntRange(0, 8).Draw(t, "count")
		existing := make([]string, count)
		for i := range existing {
			prefixLen := rapid.IntRange(20, 28).Draw(t, "existing_prefix")
			size := uint32(1) << (32 - prefixLen)
			slot := rapid.Uint32Range(0, (uint32(1)<<16)/size-1).Draw(t, "existing_slot")
			existing[i] = Block{Addr: uint32(10)<<24 + slot*size, PrefixLen: prefixLen}.String()
		}
		want := rapid.IntRange(20, 28).Draw(t, "want")

		got, ok := NextSubnetCIDR(space, existing, want)
		again, okAgain := NextSubnetCIDR(space, existing, want)
		if ok != okAgain || got != again {
			t.Fatalf("not idempotent: (%q,%v) vs (%q,%v)", got, ok, again, okAgain)
		}
		if !ok {
			return
		}

		block, parsed := ParseCIDR(got)
		if !parsed || block.PrefixLen != want {
			t.Fatalf("suggestion %q is not a /%d", got, want)
		}
		if uint64(block.Addr)%uint64(1<<(32-want)) != 0 {
			t.Fatalf("suggestion %q is not aligned to its size", got)
		}

		layout := make([]Subnet, 0, len(existing)+1)
		for i, cidr := range existing {
			layout = append(layout, Subnet{Name: fmt.Sprintf("used-%d", i), AddressPrefix: cidr})
		}
		layout = append(layout, Subnet{Name: "suggested", AddressPrefix: got})

		res := ValidateSubnets(layout, space)
		for _, e := range res.Errors {
			// Pre-existing blocks may overlap each other; only findings that
			// involve the suggested block indicate an allocator bug.
			if containsSuggested(e) {
				t.Fatalf("suggested block conflicts with inputs: %v", res.Errors)
			}
		}
	})
}

func containsSuggested(finding string) bool {
	return strings.Contains(finding, `"suggested"`)
}
