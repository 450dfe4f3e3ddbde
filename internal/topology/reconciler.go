package topology

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/fabric-testbed/slicer/internal/model"
)

// ReconcileOption adjusts reconciliation behavior.
type ReconcileOption func(*reconcileOpts)

type reconcileOpts struct {
	partial bool
}

// WithPartialApplication makes not-found removals non-fatal - they are
// reported in the result's Skipped list and the rest of the batch
// proceeds. The default is all-or-nothing: the first failing step aborts
// the whole reconciliation.
func WithPartialApplication() ReconcileOption {
	return func(o *reconcileOpts) {
		o.partial = true
	}
}

// Reconcile applies a ModifyDiff to an existing topology, producing the
// modified topology and a summary of changes.
//
// The execution order is fixed regardless of the order the caller listed
// operations in: remove networks, remove components, remove nodes, then
// add nodes, add components, add networks. Added nodes and networks go
// through the same resolution rules as a fresh build. The input topology
// is never mutated - on error nothing is changed or submitted.
func (b *Builder) Reconcile(existing *model.ResolvedTopology, diff *model.ModifyDiff, opts ...ReconcileOption) (*model.ModifyResult, error) {
	options := &reconcileOpts{}
	for _, opt := range opts {
		opt(options)
	}

	if diff.Empty() {
		return nil, errors.Wrap(model.ErrValidation, "modify diff holds no operations")
	}

	if len(diff.AddComponents) != len(diff.AddComponentNodes) {
		return nil, errors.Wrap(model.ErrValidation,
			"add_components and add_component_nodes must be the same length")
	}

	working := &model.ResolvedTopology{}
	if err := copier.CopyWithOption(working, existing, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copying topology")
	}

	result := &model.ModifyResult{Topology: working}

	skip := func(msg string) error {
		if options.partial {
			result.Skipped = append(result.Skipped, msg)

			b.logger.WithFields(logrus.Fields{"reason": msg}).Warn("modify step skipped")
			return nil
		}

		return errors.Wrap(model.ErrValidation, msg)
	}

	if err := b.removeNetworks(working, diff.RemoveNetworks, result, skip); err != nil {
		return nil, err
	}

	if err := b.removeComponents(working, diff.RemoveComponents, result, skip); err != nil {
		return nil, err
	}

	if err := b.removeNodes(working, diff.RemoveNodes, result, skip); err != nil {
		return nil, err
	}

	if err := b.addNodes(working, diff.AddNodes, result); err != nil {
		return nil, err
	}

	if err := b.addComponents(working, diff, result); err != nil {
		return nil, err
	}

	for i := range diff.AddNetworks {
		spec := &diff.AddNetworks[i]

		if working.Network(spec.Name) != nil {
			return nil, errors.Wrapf(model.ErrValidation, "network %s already exists", spec.Name)
		}

		resolved, err := b.resolveNetwork(spec, working)
		if err != nil {
			return nil, err
		}

		for _, network := range resolved {
			working.Networks = append(working.Networks, network)
			result.AddedNetworks = append(result.AddedNetworks, network.Name)
		}
	}

	return result, nil
}

func (b *Builder) removeNetworks(topo *model.ResolvedTopology, names []string, result *model.ModifyResult, skip func(string) error) error {
	for _, name := range names {
		idx := slices.IndexFunc(topo.Networks, func(n model.ResolvedNetwork) bool {
			return n.Name == name
		})

		if idx < 0 {
			if err := skip("network not found: " + name); err != nil {
				return err
			}

			continue
		}

		topo.Networks = append(topo.Networks[:idx], topo.Networks[idx+1:]...)
		result.RemovedNetworks = append(result.RemovedNetworks, name)
	}

	return nil
}

func (b *Builder) removeComponents(topo *model.ResolvedTopology, refs []model.ComponentRef, result *model.ModifyResult, skip func(string) error) error {
	for _, ref := range refs {
		node := topo.Node(ref.Node)
		if node == nil {
			if err := skip("node not found for component removal: " + ref.Node); err != nil {
				return err
			}

			continue
		}

		idx := slices.IndexFunc(node.Components, func(c model.ResolvedComponent) bool {
			return c.Name == ref.Name
		})

		if idx < 0 {
			if err := skip("component not found: " + ref.Name + " on node " + ref.Node); err != nil {
				return err
			}

			continue
		}

		node.Components = append(node.Components[:idx], node.Components[idx+1:]...)
		result.RemovedComponents = append(result.RemovedComponents, ref.Node+"/"+ref.Name)
	}

	return nil
}

func (b *Builder) removeNodes(topo *model.ResolvedTopology, names []string, result *model.ModifyResult, skip func(string) error) error {
	for _, name := range names {
		idx := slices.IndexFunc(topo.Nodes, func(n model.ResolvedNode) bool {
			return n.Name == name
		})

		if idx < 0 {
			if err := skip("node not found for removal: " + name); err != nil {
				return err
			}

			continue
		}

		// a node still attached to a network cannot go - remove the
		// network first so every network references only present nodes
		for i := range topo.Networks {
			if slices.Contains(topo.Networks[i].Nodes, name) {
				return errors.Wrapf(model.ErrValidation,
					"node %s is attached to network %s, remove the network first", name, topo.Networks[i].Name)
			}
		}

		topo.Nodes = append(topo.Nodes[:idx], topo.Nodes[idx+1:]...)
		result.RemovedNodes = append(result.RemovedNodes, name)
	}

	return nil
}

func (b *Builder) addNodes(topo *model.ResolvedTopology, specs []model.NodeSpec, result *model.ModifyResult) error {
	usedSites := []string{}
	for i := range topo.Nodes {
		usedSites = append(usedSites, topo.Nodes[i].Site)
	}

	for i := range specs {
		spec := &specs[i]

		if topo.Node(spec.Name) != nil {
			return errors.Wrapf(model.ErrValidation, "node %s already exists", spec.Name)
		}

		for _, comp := range spec.Components {
			if !slices.Contains(model.ComponentModels(), comp.Model) {
				return errors.Wrapf(model.ErrValidation,
					"node %s component model unknown: %s", spec.Name, comp.Model)
			}
		}

		node, err := b.resolveNode(spec, usedSites)
		if err != nil {
			return err
		}

		usedSites = append(usedSites, node.Site)
		topo.Nodes = append(topo.Nodes, *node)
		result.AddedNodes = append(result.AddedNodes, node.Name)

		if spec.FABNet != "" {
			netType, err := fabnetType(spec.FABNet)
			if err != nil {
				return errors.Wrapf(err, "node %s", spec.Name)
			}

			network := model.ResolvedNetwork{
				Name:     "fabnet-" + spec.Name,
				Type:     netType,
				Site:     node.Site,
				NICModel: "NIC_Basic",
				Nodes:    []string{spec.Name},
			}

			topo.Networks = append(topo.Networks, network)
			result.AddedNetworks = append(result.AddedNetworks, network.Name)
		}
	}

	return nil
}

func (b *Builder) addComponents(topo *model.ResolvedTopology, diff *model.ModifyDiff, result *model.ModifyResult) error {
	for i := range diff.AddComponents {
		comp := diff.AddComponents[i]
		nodeName := diff.AddComponentNodes[i]

		node := topo.Node(nodeName)
		if node == nil {
			return errors.Wrapf(model.ErrValidation,
				"add_components references undeclared node %s", nodeName)
		}

		if !slices.Contains(model.ComponentModels(), comp.Model) {
			return errors.Wrapf(model.ErrValidation,
				"node %s component model unknown: %s", nodeName, comp.Model)
		}

		if comp.Name == "" {
			comp.Name = autoComponentName(nodeName, comp.Model, len(node.Components))
		}

		if node.Component(comp.Name) != nil {
			return errors.Wrapf(model.ErrValidation,
				"component %s already exists on node %s", comp.Name, nodeName)
		}

		node.Components = append(node.Components, model.ResolvedComponent{
			Name:  comp.Name,
			Model: comp.Model,
		})

		result.AddedComponents = append(result.AddedComponents, nodeName+"/"+comp.Name)
	}

	return nil
}
