package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Supported compute platforms.
const (
	PlatformAKS           = "aks"
	PlatformAppService    = "appservice"
	PlatformContainerApps = "containerapps"
	PlatformVM            = "vm"
	PlatformLambda        = "lambda"
	PlatformECS           = "ecs"
	PlatformEKS           = "eks"
	PlatformGKE           = "gke"
	PlatformCloudRun      = "cloudrun"
)

// NetworkProfile is the virtual-network layout a template provisions. It is
// validated by the netcalc package before an environment is accepted.
type NetworkProfile struct {
	VNetName     string         `json:"vnet_name,omitempty"`
	AddressSpace string         `json:"address_space,omitempty"`
	Subnets      []SubnetConfig `json:"subnets,omitempty"`
}

// SubnetConfig is one declared subnet in a network profile.
type SubnetConfig struct {
	Name          string `json:"name"`
	AddressPrefix string `json:"address_prefix"`
	Purpose       string `json:"purpose,omitempty"`
}

// PlatformParameters is a tagged union of per-platform parameter sets.
// The wire form is {"platform": "...", "spec": {...}} and the spec payload
// is decoded strictly: unknown fields are rejected here, at the boundary,
// instead of being carried around as loose maps.
type PlatformParameters struct {
	Platform string
	AKS      *AKSParameters
	App      *AppServiceParameters
	Apps     *ContainerAppsParameters
	VM       *VMParameters
	Lambda   *LambdaParameters
	ECS      *ECSParameters
	EKS      *EKSParameters
	GKE      *GKEParameters
	CloudRun *CloudRunParameters
}

// AKSParameters configures an Azure Kubernetes Service cluster.
type AKSParameters struct {
	KubernetesVersion string          `json:"kubernetes_version"`
	NodeCount         int             `json:"node_count"`
	NodeSize          string          `json:"node_size"`
	EnableMonitoring  bool            `json:"enable_monitoring"`
	PrivateCluster    bool            `json:"private_cluster"`
	Network           *NetworkProfile `json:"network,omitempty"`
}

// AppServiceParameters configures an Azure App Service plan and app.
type AppServiceParameters struct {
	SKU              string          `json:"sku"`
	RuntimeStack     string          `json:"runtime_stack"`
	AlwaysOn         bool            `json:"always_on"`
	EnableMonitoring bool            `json:"enable_monitoring"`
	Network          *NetworkProfile `json:"network,omitempty"`
}

// ContainerAppsParameters configures an Azure Container Apps environment.
type ContainerAppsParameters struct {
	Image       string          `json:"image"`
	MinReplicas int             `json:"min_replicas"`
	MaxReplicas int             `json:"max_replicas"`
	CPU         float64         `json:"cpu"`
	MemoryGiB   float64         `json:"memory_gib"`
	Network     *NetworkProfile `json:"network,omitempty"`
}

// VMParameters configures a virtual machine.
type VMParameters struct {
	Size       string          `json:"size"`
	ImageRef   string          `json:"image_ref"`
	DiskSizeGB int             `json:"disk_size_gb"`
	AdminUser  string          `json:"admin_user"`
	Network    *NetworkProfile `json:"network,omitempty"`
}

// LambdaParameters configures an AWS Lambda function.
type LambdaParameters struct {
	Runtime    string `json:"runtime"`
	MemoryMB   int    `json:"memory_mb"`
	TimeoutSec int    `json:"timeout_sec"`
	Handler    string `json:"handler"`
}

// ECSParameters configures an AWS ECS service.
type ECSParameters struct {
	LaunchType   string          `json:"launch_type"`
	DesiredCount int             `json:"desired_count"`
	CPU          int             `json:"cpu"`
	MemoryMB     int             `json:"memory_mb"`
	Network      *NetworkProfile `json:"network,omitempty"`
}

// EKSParameters configures an AWS EKS cluster.
type EKSParameters struct {
	KubernetesVersion string          `json:"kubernetes_version"`
	NodeCount         int             `json:"node_count"`
	InstanceType      string          `json:"instance_type"`
	Network           *NetworkProfile `json:"network,omitempty"`
}

// GKEParameters configures a Google Kubernetes Engine cluster.
type GKEParameters struct {
	KubernetesVersion string          `json:"kubernetes_version"`
	NodeCount         int             `json:"node_count"`
	MachineType       string          `json:"machine_type"`
	Autopilot         bool            `json:"autopilot"`
	Network           *NetworkProfile `json:"network,omitempty"`
}

// CloudRunParameters configures a Google Cloud Run service.
type CloudRunParameters struct {
	Image          string `json:"image"`
	Concurrency    int    `json:"concurrency"`
	MinInstances   int    `json:"min_instances"`
	MaxInstances   int    `json:"max_instances"`
	AllowUnauthent bool   `json:"allow_unauthenticated"`
}

type parametersEnvelope struct {
	Platform string          `json:"platform"`
	Spec     json.RawMessage `json:"spec"`
}

// UnmarshalJSON decodes the tagged wire form, rejecting unknown platforms
// and unknown spec fields.
func (p *PlatformParameters) UnmarshalJSON(data []byte) error {
	var env parametersEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	*p = PlatformParameters{Platform: env.Platform}
	if len(env.Spec) == 0 {
		env.Spec = json.RawMessage("{}")
	}

	var target interface{}
	switch env.Platform {
	case PlatformAKS:
		p.AKS = &AKSParameters{}
		target = p.AKS
	case PlatformAppService:
		p.App = &AppServiceParameters{}
		target = p.App
	case PlatformContainerApps:
		p.Apps = &ContainerAppsParameters{}
		target = p.Apps
	case PlatformVM:
		p.VM = &VMParameters{}
		target = p.VM
	case PlatformLambda:
		p.Lambda = &LambdaParameters{}
		target = p.Lambda
	case PlatformECS:
		p.ECS = &ECSParameters{}
		target = p.ECS
	case PlatformEKS:
		p.EKS = &EKSParameters{}
		target = p.EKS
	case PlatformGKE:
		p.GKE = &GKEParameters{}
		target = p.GKE
	case PlatformCloudRun:
		p.CloudRun = &CloudRunParameters{}
		target = p.CloudRun
	case "":
		// Templates may omit parameters entirely; the zero value marshals as
		// an empty envelope and must decode back to the zero value. A spec
		// without a platform tag is still rejected.
		spec := bytes.TrimSpace(env.Spec)
		if bytes.Equal(spec, []byte("{}")) || bytes.Equal(spec, []byte("null")) {
			return nil
		}
		return fmt.Errorf("parameters: platform is required")
	default:
		return fmt.Errorf("parameters: unsupported platform %q", env.Platform)
	}

	dec := json.NewDecoder(bytes.NewReader(env.Spec))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("parameters for platform %q: %w", env.Platform, err)
	}
	return nil
}

// MarshalJSON emits the tagged wire form.
func (p PlatformParameters) MarshalJSON() ([]byte, error) {
	spec, err := json.Marshal(p.spec())
	if err != nil {
		return nil, err
	}
	return json.Marshal(parametersEnvelope{Platform: p.Platform, Spec: spec})
}

func (p PlatformParameters) spec() interface{} {
	switch {
	case p.AKS != nil:
		return p.AKS
	case p.App != nil:
		return p.App
	case p.Apps != nil:
		return p.Apps
	case p.VM != nil:
		return p.VM
	case p.Lambda != nil:
		return p.Lambda
	case p.ECS != nil:
		return p.ECS
	case p.EKS != nil:
		return p.EKS
	case p.GKE != nil:
		return p.GKE
	case p.CloudRun != nil:
		return p.CloudRun
	default:
		return struct{}{}
	}
}

// Network returns the network profile for platforms that declare one.
func (p PlatformParameters) Network() *NetworkProfile {
	switch {
	case p.AKS != nil:
		return p.AKS.Network
	case p.App != nil:
		return p.App.Network
	case p.Apps != nil:
		return p.Apps.Network
	case p.VM != nil:
		return p.VM.Network
	case p.ECS != nil:
		return p.ECS.Network
	case p.EKS != nil:
		return p.EKS.Network
	case p.GKE != nil:
		return p.GKE.Network
	default:
		return nil
	}
}

// ValidPlatform reports whether name is a supported platform tag.
func ValidPlatform(name string) bool {
	switch name {
	case PlatformAKS, PlatformAppService, PlatformContainerApps, PlatformVM,
		PlatformLambda, PlatformECS, PlatformEKS, PlatformGKE, PlatformCloudRun:
		return true
	}
	return false
}
