package topology

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/fabric-testbed/slicer/internal/model"
)

// Builder compiles a declarative BuildSpec into a concrete
// ResolvedTopology, applying site and NIC auto-selection against an
// explicit site snapshot.
//
// Resolution is deterministic - auto-selection ties break to the first
// matching site in the snapshot's site-list order. On any validation
// failure no partial topology is returned.
type Builder struct {
	sites  *model.Snapshot
	logger *logrus.Logger
}

// NewBuilder returns a Builder selecting sites from the given snapshot.
func NewBuilder(sites *model.Snapshot, logger *logrus.Logger) *Builder {
	return &Builder{sites: sites, logger: logger}
}

// Build resolves the spec into a provisioning request.
func (b *Builder) Build(spec *model.BuildSpec) (*model.ResolvedTopology, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	topo := &model.ResolvedTopology{
		ID:         uuid.New(),
		Slice:      spec.Name,
		Lifetime:   spec.Lifetime,
		SSHKeys:    spec.SSHKeys,
		ResolvedAt: time.Now(),
	}

	usedSites := []string{}

	for i := range spec.Nodes {
		node, err := b.resolveNode(&spec.Nodes[i], usedSites)
		if err != nil {
			return nil, err
		}

		usedSites = append(usedSites, node.Site)
		topo.Nodes = append(topo.Nodes, *node)

		b.logger.WithFields(logrus.Fields{
			"node":  node.Name,
			"site":  node.Site,
			"cores": node.Cores,
		}).Debug("resolved node")
	}

	// per-node FABNet attachments resolve before declared networks
	for i := range spec.Nodes {
		nodeSpec := &spec.Nodes[i]
		if nodeSpec.FABNet == "" {
			continue
		}

		netType, err := fabnetType(nodeSpec.FABNet)
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", nodeSpec.Name)
		}

		node := topo.Node(nodeSpec.Name)
		topo.Networks = append(topo.Networks, model.ResolvedNetwork{
			Name:     "fabnet-" + nodeSpec.Name,
			Type:     netType,
			Site:     node.Site,
			NICModel: "NIC_Basic",
			Nodes:    []string{nodeSpec.Name},
		})
	}

	for i := range spec.Networks {
		resolved, err := b.resolveNetwork(&spec.Networks[i], topo)
		if err != nil {
			return nil, err
		}

		topo.Networks = append(topo.Networks, resolved...)
	}

	return topo, nil
}

// validateSpec checks the declarative spec before any resolution, so the
// caller sees every local spec defect at once.
func validateSpec(spec *model.BuildSpec) error {
	var err *multierror.Error

	if spec.Name == "" {
		err = multierror.Append(err, errors.Wrap(model.ErrValidation, "slice name is required"))
	}

	seenNodes := map[string]bool{}
	for i := range spec.Nodes {
		node := &spec.Nodes[i]

		if node.Name == "" {
			err = multierror.Append(err, errors.Wrapf(model.ErrValidation, "node %d missing required name", i))
			continue
		}

		if seenNodes[node.Name] {
			err = multierror.Append(err, errors.Wrapf(model.ErrValidation, "duplicate node name %s", node.Name))
		}
		seenNodes[node.Name] = true

		for _, comp := range node.Components {
			if !slices.Contains(model.ComponentModels(), comp.Model) {
				err = multierror.Append(err,
					errors.Wrapf(model.ErrValidation, "node %s component model unknown: %s", node.Name, comp.Model))
			}
		}
	}

	seenNets := map[string]bool{}
	for i := range spec.Networks {
		network := &spec.Networks[i]

		if network.Name == "" {
			err = multierror.Append(err, errors.Wrapf(model.ErrValidation, "network %d missing required name", i))
			continue
		}

		if seenNets[network.Name] {
			err = multierror.Append(err, errors.Wrapf(model.ErrValidation, "duplicate network name %s", network.Name))
		}
		seenNets[network.Name] = true

		if network.NICModel != "" && !slices.Contains(model.NICModels, network.NICModel) {
			err = multierror.Append(err,
				errors.Wrapf(model.ErrValidation, "network %s NIC model unknown: %s", network.Name, network.NICModel))
		}
	}

	return err.ErrorOrNil()
}

// resolveNode applies capacity defaults and site auto-selection.
func (b *Builder) resolveNode(spec *model.NodeSpec, usedSites []string) (*model.ResolvedNode, error) {
	node := &model.ResolvedNode{
		Name:  spec.Name,
		Site:  spec.Site,
		Cores: spec.Cores,
		RAM:   spec.RAM,
		Disk:  spec.Disk,
		Image: spec.Image,
	}

	if node.Cores == 0 {
		node.Cores = model.DefaultNodeCores
	}
	if node.RAM == 0 {
		node.RAM = model.DefaultNodeRAM
	}
	if node.Disk == 0 {
		node.Disk = model.DefaultNodeDisk
	}
	if node.Image == "" {
		node.Image = model.DefaultNodeImage
	}

	if node.Site == "" {
		site, err := b.selectSite(node.Cores, node.RAM, node.Disk, usedSites)
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", spec.Name)
		}

		node.Site = site
		node.SiteAutoSelected = true
	}

	for i, comp := range spec.Components {
		name := comp.Name
		if name == "" {
			name = autoComponentName(spec.Name, comp.Model, i)
		}

		node.Components = append(node.Components, model.ResolvedComponent{
			Name:  name,
			Model: comp.Model,
		})
	}

	return node, nil
}

// selectSite picks the first site in snapshot order with sufficient
// available cores, RAM and disk, preferring sites not already used so
// auto-placed nodes spread across distinct sites when possible.
func (b *Builder) selectSite(cores, ram, disk int, usedSites []string) (string, error) {
	var firstSuitable string

	for _, record := range b.sites.Records {
		if !siteSuitable(record, cores, ram, disk) {
			continue
		}

		name := record.Name()
		if firstSuitable == "" {
			firstSuitable = name
		}

		if !slices.Contains(usedSites, name) {
			return name, nil
		}
	}

	if firstSuitable != "" {
		return firstSuitable, nil
	}

	return "", errors.Wrapf(model.ErrResourceExhaustion,
		"no site with cores>=%d, ram>=%dGB, disk>=%dGB", cores, ram, disk)
}

func siteSuitable(record model.Record, cores, ram, disk int) bool {
	if state, ok := record.Field("state"); ok && model.Stringify(state) != "Active" {
		return false
	}

	return fieldAtLeast(record, "cores_available", cores) &&
		fieldAtLeast(record, "ram_available", ram) &&
		fieldAtLeast(record, "disk_available", disk)
}

func fieldAtLeast(record model.Record, field string, want int) bool {
	val, ok := record.Field(field)
	if !ok {
		return false
	}

	switch n := val.(type) {
	case int:
		return n >= want
	case int64:
		return int(n) >= want
	case float64:
		return n >= float64(want)
	default:
		return false
	}
}

// resolveNetwork resolves one NetworkSpec into one or more concrete
// networks - more than one when a FABNet* type spans multiple sites.
func (b *Builder) resolveNetwork(spec *model.NetworkSpec, topo *model.ResolvedTopology) ([]model.ResolvedNetwork, error) {
	attachments, err := networkAttachments(spec, topo)
	if err != nil {
		return nil, err
	}

	// distinct sites in attachment order
	var sites []string
	for _, att := range attachments {
		site := topo.Node(att.Node).Site
		if !slices.Contains(sites, site) {
			sites = append(sites, site)
		}
	}

	netType, err := resolveNetworkType(spec, sites)
	if err != nil {
		return nil, err
	}

	nicModel := spec.NICModel
	if nicModel == "" {
		nicModel = selectNIC(netType, spec.Bandwidth)
	}

	// L2PTP requires a SmartNIC on every participating node
	if netType == model.NetworkL2PTP {
		forced := nicModel
		if !model.IsSmartNIC(forced) {
			forced = model.DefaultSmartNIC
		}

		for _, att := range attachments {
			node := topo.Node(att.Node)
			if node.HasSmartNIC() {
				continue
			}

			node.Components = append(node.Components, model.ResolvedComponent{
				Name:      node.Name + "-" + spec.Name + "-nic",
				Model:     forced,
				AutoAdded: true,
			})

			b.logger.WithFields(logrus.Fields{
				"node":    node.Name,
				"network": spec.Name,
				"model":   forced,
			}).Debug("attached SmartNIC for L2PTP membership")
		}
	}

	bandwidth := 0
	if netType == model.NetworkL2PTP {
		bandwidth = spec.Bandwidth
	}

	// FABNet* services are site-scoped - one resolved network per site,
	// suffixed by site, connecting only the nodes local to it
	if netType.IsFABNet() && len(sites) > 1 {
		var resolved []model.ResolvedNetwork

		for _, site := range sites {
			var local []string
			for _, att := range attachments {
				if topo.Node(att.Node).Site == site && !slices.Contains(local, att.Node) {
					local = append(local, att.Node)
				}
			}

			resolved = append(resolved, model.ResolvedNetwork{
				Name:     spec.Name + "-" + site,
				Type:     netType,
				Site:     site,
				NICModel: nicModel,
				Nodes:    local,
			})
		}

		return resolved, nil
	}

	var nodes []string
	for _, att := range attachments {
		if !slices.Contains(nodes, att.Node) {
			nodes = append(nodes, att.Node)
		}
	}

	site := ""
	if len(sites) == 1 {
		site = sites[0]
	}

	return []model.ResolvedNetwork{{
		Name:      spec.Name,
		Type:      netType,
		Site:      site,
		NICModel:  nicModel,
		Nodes:     nodes,
		Bandwidth: bandwidth,
	}}, nil
}

// networkAttachments normalizes the simple node-list form and the detailed
// interface form, validating every reference against the declared nodes.
func networkAttachments(spec *model.NetworkSpec, topo *model.ResolvedTopology) ([]model.InterfaceSpec, error) {
	attachments := spec.Interfaces
	if len(attachments) == 0 {
		for _, name := range spec.Nodes {
			attachments = append(attachments, model.InterfaceSpec{Node: name})
		}
	}

	if len(attachments) < 2 {
		return nil, errors.Wrapf(model.ErrValidation,
			"network %s must connect at least 2 nodes", spec.Name)
	}

	for _, att := range attachments {
		if att.Node == "" {
			return nil, errors.Wrapf(model.ErrValidation,
				"network %s has an interface without a node reference", spec.Name)
		}

		node := topo.Node(att.Node)
		if node == nil {
			return nil, errors.Wrapf(model.ErrValidation,
				"network %s references undeclared node %s", spec.Name, att.Node)
		}

		if att.Component != "" && node.Component(att.Component) == nil {
			return nil, errors.Wrapf(model.ErrValidation,
				"network %s references unknown component %s on node %s", spec.Name, att.Component, att.Node)
		}
	}

	return attachments, nil
}

// resolveNetworkType derives the concrete type from the requested one and
// node-site cardinality.
func resolveNetworkType(spec *model.NetworkSpec, sites []string) (model.NetworkType, error) {
	singleSite := len(sites) <= 1

	switch spec.Type {
	case "":
		if singleSite {
			return model.NetworkL2Bridge, nil
		}

		return model.NetworkFABNetv4, nil

	case model.NetworkL2:
		if singleSite {
			return model.NetworkL2Bridge, nil
		}

		return model.NetworkL2STS, nil

	case model.NetworkL2Bridge:
		if !singleSite {
			return "", errors.Wrapf(model.ErrValidation,
				"network %s: L2Bridge connects nodes on a single site, got %v", spec.Name, sites)
		}

		return model.NetworkL2Bridge, nil

	case model.NetworkL2PTP:
		if singleSite {
			return "", errors.Wrapf(model.ErrValidation,
				"network %s: L2PTP requires a multi-site network, got %v", spec.Name, sites)
		}

		return model.NetworkL2PTP, nil
	}

	if slices.Contains(model.NetworkTypes(), spec.Type) {
		return spec.Type, nil
	}

	return "", errors.Wrapf(model.ErrValidation,
		"network %s type unknown: %s", spec.Name, spec.Type)
}

// selectNIC picks the NIC model by bandwidth tier. Bandwidth is meaningful
// only for L2PTP, every other type takes the basic NIC.
func selectNIC(netType model.NetworkType, bandwidth int) string {
	if netType != model.NetworkL2PTP {
		return "NIC_Basic"
	}

	switch {
	case bandwidth >= 400:
		return "NIC_ConnectX_7_400"
	case bandwidth >= 100:
		return "NIC_ConnectX_6"
	case bandwidth >= 25:
		return "NIC_ConnectX_5"
	default:
		return "NIC_Basic"
	}
}

func fabnetType(requested string) (model.NetworkType, error) {
	switch requested {
	case "IPv4", string(model.NetworkFABNetv4):
		return model.NetworkFABNetv4, nil
	case "IPv6", string(model.NetworkFABNetv6):
		return model.NetworkFABNetv6, nil
	default:
		return "", errors.Wrapf(model.ErrValidation, "fabnet type unknown: %s", requested)
	}
}

func autoComponentName(node, cmodel string, idx int) string {
	return node + "-" + cmodel + "-" + strconv.Itoa(idx)
}
