package netcalc

import (
	"testing"
)

func TestIsValidCIDR(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"10.0.0.0/16", true},
		{"192.168.1.0/24", true},
		{"0.0.0.0/0", true},
		{"255.255.255.255/32", true},
		{"10.0.0.0/33", false},
		{"999.0.0.0/8", false},
		{"10.0.0/16", false},
		{"10.0.0.0.0/16", false},
		{"10.0.0.0", false},
		{"10.0.0.0/", false},
		{"10.0.0.0/-1", false},
		{"a.b.c.d/8", false},
		{"", false},
		{" 10.0.0.0/16", false},
		{"10.0.0.0/16 ", false},
		{"2001:db8::/32", false},
	}

	for _, tc := range cases {
		if got := IsValidCIDR(tc.text); got != tc.want {
			t.Errorf("IsValidCIDR(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestIsValidVNetName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"vnet-prod-eastus", true},
		{"my_vnet.01", true},
		{"ab", true},
		{"a", false},
		{"", false},
		{"vnet with spaces", false},
		{"vnet/slash", false},
		{string(make([]byte, 65)), false},
	}

	for _, tc := range cases {
		if got := IsValidVNetName(tc.name); got != tc.want {
			t.Errorf("IsValidVNetName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSubnetSizeSufficient(t *testing.T) {
	cases := []struct {
		cidr    string
		purpose string
		want    bool
	}{
		{"10.0.1.0/24", PurposeApplication, true},
		{"10.0.1.0/25", PurposeApplication, false},
		{"10.0.1.0/27", PurposeApplicationGateway, true},
		{"10.0.1.0/28", PurposeApplicationGateway, false},
		{"10.0.1.0/26", PurposeDatabase, true},
		{"10.0.1.0/30", "SomethingNew", true}, // unknown purpose is advisory-pass
		{"not-a-cidr", PurposeApplication, true},
	}

	for _, tc := range cases {
		if got := IsSubnetSizeSufficient(tc.cidr, tc.purpose); got != tc.want {
			t.Errorf("IsSubnetSizeSufficient(%q, %q) = %v, want %v", tc.cidr, tc.purpose, got, tc.want)
		}
	}
}

func TestSizeRecommendation(t *testing.T) {
	if got := SizeRecommendation(PurposeApplicationGateway); got != "Use at least a /27 for Application Gateway" {
		t.Errorf("unexpected gateway recommendation: %q", got)
	}
	if got := SizeRecommendation("Mystery"); got == "" {
		t.Error("unknown purpose should still return guidance")
	}
}

func TestValidateSubnets_CleanLayout(t *testing.T) {
	subnets := []Subnet{
		{Name: "app", AddressPrefix: "10.0.1.0/24", Purpose: PurposeApplication},
		{Name: "db", AddressPrefix: "10.0.2.0/24", Purpose: PurposeDatabase},
	}

	res := ValidateSubnets(subnets, "10.0.0.0/16")
	if !res.Valid {
		t.Fatalf("expected valid layout, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
}

func TestValidateSubnets_BadAddressSpace(t *testing.T) {
	res := ValidateSubnets([]Subnet{{Name: "app", AddressPrefix: "10.0.1.0/24"}}, "nope")
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error for bad address space, got %v", res.Errors)
	}
}

func TestValidateSubnets_Containment(t *testing.T) {
	res := ValidateSubnets([]Subnet{
		{Name: "outside", AddressPrefix: "10.1.0.0/24"},
	}, "10.0.0.0/16")

	if res.Valid {
		t.Fatal("expected containment violation")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
}

func TestValidateSubnets_OverlapOrderIndependent(t *testing.T) {
	a := Subnet{Name: "a", AddressPrefix: "10.0.1.0/24"}
	b := Subnet{Name: "b", AddressPrefix: "10.0.1.128/25"}

	forward := ValidateSubnets([]Subnet{a, b}, "10.0.0.0/16")
	reverse := ValidateSubnets([]Subnet{b, a}, "10.0.0.0/16")

	if forward.Valid || reverse.Valid {
		t.Fatal("expected overlap to be reported in both orders")
	}
	if len(forward.Errors) != len(reverse.Errors) {
		t.Errorf("error count depends on input order: %v vs %v", forward.Errors, reverse.Errors)
	}
}

func TestValidateSubnets_CollectsAllFindings(t *testing.T) {
	res := ValidateSubnets([]Subnet{
		{Name: "broken", AddressPrefix: "not-cidr"},
		{Name: "outside", AddressPrefix: "172.16.0.0/24"},
		{Name: "x", AddressPrefix: "10.0.1.0/24"},
		{Name: "y", AddressPrefix: "10.0.1.0/25"},
		{Name: "x", AddressPrefix: "10.0.9.0/24"},
	}, "10.0.0.0/16")

	if res.Valid {
		t.Fatal("expected invalid result")
	}
	// parse error + containment + overlap + duplicate name
	if len(res.Errors) != 4 {
		t.Fatalf("expected 4 findings, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestNextSubnetCIDR(t *testing.T) {
	cases := []struct {
		space    string
		existing []string
		prefix   int
		want     string
		ok       bool
	}{
		{"10.0.0.0/16", []string{"10.0.0.0/24"}, 24, "10.0.1.0/24", true},
		{"10.0.0.0/16", nil, 24, "10.0.0.0/24", true},
		{"10.0.0.0/16", []string{"10.0.0.0/24", "10.0.2.0/24"}, 24, "10.0.1.0/24", true},
		{"10.0.0.0/24", []string{"10.0.0.0/25", "10.0.0.128/25"}, 25, "", false},
		{"10.0.0.0/24", []string{"10.0.0.0/26"}, 25, "10.0.0.128/25", true}, // alignment skips 10.0.0.64
		{"10.0.0.0/16", []string{"garbage", "10.0.0.0/24"}, 24, "10.0.1.0/24", true},
		{"10.0.0.0/16", nil, 8, "", false}, // larger than the space itself
		{"bad", nil, 24, "", false},
	}

	for _, tc := range cases {
		got, ok := NextSubnetCIDR(tc.space, tc.existing, tc.prefix)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NextSubnetCIDR(%q, %v, %d) = (%q, %v), want (%q, %v)",
				tc.space, tc.existing, tc.prefix, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNextSubnetCIDR_Idempotent(t *testing.T) {
	existing := []string{"10.0.0.0/24", "10.0.3.0/24"}
	first, ok1 := NextSubnetCIDR("10.0.0.0/16", existing, 24)
	second, ok2 := NextSubnetCIDR("10.0.0.0/16", existing, 24)

	if ok1 != ok2 || first != second {
		t.Errorf("suggestion not stable: (%q,%v) then (%q,%v)", first, ok1, second, ok2)
	}
}
