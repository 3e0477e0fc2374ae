package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPlatformParametersRoundTrip(t *testing.T) {
	original := PlatformParameters{
		Platform: PlatformAKS,
		AKS: &AKSParameters{
			KubernetesVersion: "1.31",
			NodeCount:         3,
			NodeSize:          "Standard_D4s_v5",
			PrivateCluster:    true,
			Network: &NetworkProfile{
				VNetName:     "vnet-prod",
				AddressSpace: "10.0.0.0/16",
				Subnets: []SubnetConfig{
					{Name: "snet-app", AddressPrefix: "10.0.1.0/24", Purpose: "application"},
				},
			},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"platform":"aks"`) {
		t.Errorf("expected tagged wire form, got %s", data)
	}

	var decoded PlatformParameters
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.AKS == nil {
		t.Fatal("expected AKS parameters")
	}
	if decoded.AKS.NodeCount != 3 || !decoded.AKS.PrivateCluster {
		t.Errorf("expected AKS spec to round-trip, got %+v", decoded.AKS)
	}
	if n := decoded.Network(); n == nil || n.VNetName != "vnet-prod" {
		t.Errorf("expected network profile, got %+v", n)
	}
}

func TestPlatformParametersDecode(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantPlatform string
		wantErr      string
	}{
		{
			name:         "lambda",
			input:        `{"platform":"lambda","spec":{"runtime":"go1.x","memory_mb":256,"timeout_sec":30,"handler":"main"}}`,
			wantPlatform: PlatformLambda,
		},
		{
			name:         "cloudrun",
			input:        `{"platform":"cloudrun","spec":{"image":"gcr.io/p/app","max_instances":10}}`,
			wantPlatform: PlatformCloudRun,
		},
		{
			name:         "missing spec defaults to empty",
			input:        `{"platform":"vm"}`,
			wantPlatform: PlatformVM,
		},
		{
			name:  "empty envelope decodes to zero value",
			input: `{"platform":"","spec":{}}`,
		},
		{
			name:  "absent envelope fields",
			input: `{}`,
		},
		{
			name:    "spec without platform",
			input:   `{"spec":{"runtime":"go1.x"}}`,
			wantErr: "platform is required",
		},
		{
			name:    "unknown platform",
			input:   `{"platform":"openshift","spec":{}}`,
			wantErr: `unsupported platform "openshift"`,
		},
		{
			name:    "unknown spec field",
			input:   `{"platform":"aks","spec":{"node_cout":3}}`,
			wantErr: "unknown field",
		},
		{
			name:    "spec for the wrong platform",
			input:   `{"platform":"lambda","spec":{"kubernetes_version":"1.31"}}`,
			wantErr: "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PlatformParameters
			err := json.Unmarshal([]byte(tt.input), &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unmarshal: %v", err)
				}
				if p.Platform != tt.wantPlatform {
					t.Errorf("expected platform %q, got %q", tt.wantPlatform, p.Platform)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestZeroParametersRoundTrip(t *testing.T) {
	data, err := json.Marshal(PlatformParameters{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded PlatformParameters
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Platform != "" {
		t.Errorf("expected empty platform, got %q", decoded.Platform)
	}
	if decoded.Network() != nil {
		t.Error("expected no network profile")
	}
}

func TestNetworkAccessor(t *testing.T) {
	p := PlatformParameters{Platform: PlatformLambda, Lambda: &LambdaParameters{Runtime: "go1.x"}}
	if p.Network() != nil {
		t.Error("expected no network for lambda")
	}

	p = PlatformParameters{
		Platform: PlatformVM,
		VM:       &VMParameters{Network: &NetworkProfile{AddressSpace: "10.1.0.0/16"}},
	}
	if n := p.Network(); n == nil || n.AddressSpace != "10.1.0.0/16" {
		t.Errorf("expected VM network, got %+v", n)
	}
}

func TestValidPlatform(t *testing.T) {
	for _, name := range []string{PlatformAKS, PlatformAppService, PlatformContainerApps, PlatformVM,
		PlatformLambda, PlatformECS, PlatformEKS, PlatformGKE, PlatformCloudRun} {
		if !ValidPlatform(name) {
			t.Errorf("expected %s to be valid", name)
		}
	}
	for _, name := range []string{"", "AKS", "openshift", "kubernetes"} {
		if ValidPlatform(name) {
			t.Errorf("expected %s to be invalid", name)
		}
	}
}
