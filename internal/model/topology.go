package model

import (
	"time"

	"github.com/google/uuid"
)

// ResolvedComponent is a component with its model validated against the
// catalog and its name materialized.
type ResolvedComponent struct {
	Name  string `json:"name"`
	Model string `json:"model"`

	// AutoAdded is set for components the builder attached itself,
	// e.g. the SmartNIC forced onto L2PTP participants.
	AutoAdded bool `json:"auto_added,omitempty"`
}

// ResolvedNode is a node with its site assignment and capacity hints
// materialized.
type ResolvedNode struct {
	Name  string `json:"name"`
	Site  string `json:"site"`
	Cores int    `json:"cores"`
	RAM   int    `json:"ram"`
	Disk  int    `json:"disk"`
	Image string `json:"image"`

	Components []ResolvedComponent `json:"components,omitempty"`

	// SiteAutoSelected records that the site was chosen by the builder
	// rather than the caller.
	SiteAutoSelected bool `json:"site_auto_selected,omitempty"`
}

// Component returns the node's component by name, nil when not present.
func (n *ResolvedNode) Component(name string) *ResolvedComponent {
	for i := range n.Components {
		if n.Components[i].Name == name {
			return &n.Components[i]
		}
	}

	return nil
}

// HasSmartNIC returns true when any attached component is a SmartNIC.
func (n *ResolvedNode) HasSmartNIC() bool {
	for i := range n.Components {
		if IsSmartNIC(n.Components[i].Model) {
			return true
		}
	}

	return false
}

// ResolvedNetwork is a network service with its type, NIC model and member
// nodes materialized. Multi-site FABNet* specs resolve into one
// ResolvedNetwork per site, named <spec name>-<SITE>.
type ResolvedNetwork struct {
	Name     string      `json:"name"`
	Type     NetworkType `json:"type"`
	Site     string      `json:"site,omitempty"`
	NICModel string      `json:"nic_model"`
	Nodes    []string    `json:"nodes"`

	Bandwidth int `json:"bandwidth,omitempty"`
}

// ResolvedTopology is the builder's output - a concrete provisioning
// request with all auto-selections materialized. Ownership transfers to
// the orchestrator client on submission.
type ResolvedTopology struct {
	ID    uuid.UUID `json:"id"`
	Slice string    `json:"slice"`

	Nodes    []ResolvedNode    `json:"nodes"`
	Networks []ResolvedNetwork `json:"networks"`

	Lifetime int      `json:"lifetime,omitempty"`
	SSHKeys  []string `json:"ssh_keys,omitempty"`

	ResolvedAt time.Time `json:"resolved_at"`
}

// Node returns the topology node by name, nil when not present.
func (t *ResolvedTopology) Node(name string) *ResolvedNode {
	for i := range t.Nodes {
		if t.Nodes[i].Name == name {
			return &t.Nodes[i]
		}
	}

	return nil
}

// Network returns the topology network by name, nil when not present.
func (t *ResolvedTopology) Network(name string) *ResolvedNetwork {
	for i := range t.Networks {
		if t.Networks[i].Name == name {
			return &t.Networks[i]
		}
	}

	return nil
}

// Sites returns the distinct sites spanned by the topology's nodes, in
// node declaration order.
func (t *ResolvedTopology) Sites() []string {
	var sites []string

	seen := map[string]bool{}
	for i := range t.Nodes {
		if s := t.Nodes[i].Site; s != "" && !seen[s] {
			seen[s] = true
			sites = append(sites, s)
		}
	}

	return sites
}

// ModifyResult reports what a reconciliation changed.
type ModifyResult struct {
	Topology *ResolvedTopology `json:"topology"`

	AddedNodes      []string `json:"added_nodes,omitempty"`
	AddedComponents []string `json:"added_components,omitempty"`
	AddedNetworks   []string `json:"added_networks,omitempty"`

	RemovedNodes      []string `json:"removed_nodes,omitempty"`
	RemovedComponents []string `json:"removed_components,omitempty"`
	RemovedNetworks   []string `json:"removed_networks,omitempty"`

	// Skipped lists non-fatal errors collected under partial
	// application, empty in the default all-or-nothing mode.
	Skipped []string `json:"skipped,omitempty"`
}
