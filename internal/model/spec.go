package model

import "golang.org/x/exp/slices"

// Component model catalog. Unknown models fail spec validation.
var (
	GPUModels = []string{"GPU_TeslaT4", "GPU_RTX6000", "GPU_A40", "GPU_A30"}

	NICModels = []string{
		"NIC_Basic", "NIC_ConnectX_5", "NIC_ConnectX_6",
		"NIC_ConnectX_7_100", "NIC_ConnectX_7_400",
	}

	StorageModels = []string{"NVME_P4510"}

	FPGAModels = []string{"FPGA_Xilinx_U280", "FPGA_Xilinx_SN1022"}

	// SmartNICModels are dedicated multi-port NICs, required on every
	// node participating in an L2PTP network.
	SmartNICModels = []string{
		"NIC_ConnectX_5", "NIC_ConnectX_6",
		"NIC_ConnectX_7_100", "NIC_ConnectX_7_400",
	}
)

const DefaultSmartNIC = "NIC_ConnectX_6"

// ComponentModels returns the full component model catalog.
func ComponentModels() []string {
	models := make([]string, 0, len(GPUModels)+len(NICModels)+len(StorageModels)+len(FPGAModels))
	models = append(models, GPUModels...)
	models = append(models, NICModels...)
	models = append(models, StorageModels...)
	models = append(models, FPGAModels...)

	return models
}

// NetworkType is a slice network service type.
type NetworkType string

const (
	NetworkL2Bridge NetworkType = "L2Bridge"
	NetworkL2STS    NetworkType = "L2STS"
	NetworkL2PTP    NetworkType = "L2PTP"

	NetworkFABNetv4    NetworkType = "FABNetv4"
	NetworkFABNetv6    NetworkType = "FABNetv6"
	NetworkFABNetv4Ext NetworkType = "FABNetv4Ext"
	NetworkFABNetv6Ext NetworkType = "FABNetv6Ext"

	// NetworkL2 is the generic shorthand resolved to L2Bridge or L2STS
	// by node-site cardinality.
	NetworkL2 NetworkType = "L2"
)

// NetworkTypes returns the explicit (non-shorthand) network types.
func NetworkTypes() []NetworkType {
	return []NetworkType{
		NetworkL2Bridge, NetworkL2STS, NetworkL2PTP,
		NetworkFABNetv4, NetworkFABNetv6, NetworkFABNetv4Ext, NetworkFABNetv6Ext,
	}
}

// IsFABNet returns true for the site-scoped L3 network types, which are
// split into one network per distinct site spanned by their nodes.
func (t NetworkType) IsFABNet() bool {
	switch t {
	case NetworkFABNetv4, NetworkFABNetv6, NetworkFABNetv4Ext, NetworkFABNetv6Ext:
		return true
	default:
		return false
	}
}

// IsSmartNIC returns true when the model is a dedicated multi-port NIC.
func IsSmartNIC(nicModel string) bool {
	return slices.Contains(SmartNICModels, nicModel)
}

// ComponentSpec declares a component to attach to a node.
type ComponentSpec struct {
	// Name is optional, defaulted to <node>-<model>-<index> when empty.
	Name  string `yaml:"name" json:"name"`
	Model string `yaml:"model" json:"model"`
}

// NodeSpec declares a node in a BuildSpec.
type NodeSpec struct {
	Name string `yaml:"name" json:"name"`

	// Site is optional. When empty a site with sufficient available
	// cores/RAM/disk is auto-selected.
	Site string `yaml:"site" json:"site"`

	Cores int    `yaml:"cores" json:"cores"`
	RAM   int    `yaml:"ram" json:"ram"`
	Disk  int    `yaml:"disk" json:"disk"`
	Image string `yaml:"image" json:"image"`

	Components []ComponentSpec `yaml:"components" json:"components"`

	// FABNet attaches a per-node site-scoped L3 network, "IPv4" or
	// "IPv6". Empty means none.
	FABNet string `yaml:"fabnet" json:"fabnet"`
}

// Node capacity defaults applied when a NodeSpec leaves them zero.
const (
	DefaultNodeCores = 2
	DefaultNodeRAM   = 8
	DefaultNodeDisk  = 10
	DefaultNodeImage = "default_rocky_8"
)

// InterfaceSpec references an attachment point for a network - a node with
// an optional named NIC or existing component port.
type InterfaceSpec struct {
	Node string `yaml:"node" json:"node"`

	// NIC names a NIC component to reuse or create on the node.
	NIC string `yaml:"nic" json:"nic"`

	// Component names an existing non-NIC component (e.g. an FPGA)
	// whose port is used instead of a NIC.
	Component string `yaml:"component" json:"component"`

	Port int `yaml:"port" json:"port"`
}

// NetworkSpec declares a network service connecting nodes in a BuildSpec.
type NetworkSpec struct {
	Name string `yaml:"name" json:"name"`

	// Type is optional. When empty it is derived from node-site
	// cardinality - single site L2Bridge, multi-site per-site FABNetv4.
	Type NetworkType `yaml:"type" json:"type"`

	// Nodes is the simple attachment form - NICs are auto-created.
	Nodes []string `yaml:"nodes" json:"nodes"`

	// Interfaces is the detailed attachment form, mutually exclusive
	// with Nodes.
	Interfaces []InterfaceSpec `yaml:"interfaces" json:"interfaces"`

	// Bandwidth in Gbps, meaningful only for L2PTP. Drives NIC model
	// auto-selection.
	Bandwidth int `yaml:"bandwidth" json:"bandwidth"`

	// NICModel overrides NIC auto-selection for this network.
	NICModel string `yaml:"nic" json:"nic"`
}

// BuildSpec is a declarative slice description, consumed once by the
// topology builder and not retained afterward.
type BuildSpec struct {
	Name     string        `yaml:"name" json:"name"`
	Nodes    []NodeSpec    `yaml:"nodes" json:"nodes"`
	Networks []NetworkSpec `yaml:"networks" json:"networks"`

	// Lifetime is the slice lease in days, zero means the orchestrator
	// default.
	Lifetime int      `yaml:"lifetime" json:"lifetime"`
	SSHKeys  []string `yaml:"ssh_keys" json:"ssh_keys"`
}

// ComponentRef identifies a component on a node for removal.
type ComponentRef struct {
	Node string `yaml:"node" json:"node"`
	Name string `yaml:"name" json:"name"`
}

// ModifyDiff lists add/remove operations against an existing topology.
// Removals are always applied before additions regardless of the order the
// caller lists them in.
type ModifyDiff struct {
	AddNodes      []NodeSpec      `yaml:"add_nodes" json:"add_nodes"`
	AddComponents []ComponentSpec `yaml:"add_components" json:"add_components"`
	AddNetworks   []NetworkSpec   `yaml:"add_networks" json:"add_networks"`

	// AddComponentNodes pairs AddComponents entries with their target
	// node, index-aligned with AddComponents.
	AddComponentNodes []string `yaml:"add_component_nodes" json:"add_component_nodes"`

	RemoveNodes      []string       `yaml:"remove_nodes" json:"remove_nodes"`
	RemoveComponents []ComponentRef `yaml:"remove_components" json:"remove_components"`
	RemoveNetworks   []string       `yaml:"remove_networks" json:"remove_networks"`
}

// Empty returns true when the diff holds no operations.
func (d *ModifyDiff) Empty() bool {
	return len(d.AddNodes) == 0 && len(d.AddComponents) == 0 && len(d.AddNetworks) == 0 &&
		len(d.RemoveNodes) == 0 && len(d.RemoveComponents) == 0 && len(d.RemoveNetworks) == 0
}
