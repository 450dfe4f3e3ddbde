package topology

import (
	"github.com/emicklei/dot"

	"github.com/fabric-testbed/slicer/internal/model"
)

// Graph renders a resolved topology as a directed Graphviz graph - nodes
// grouped per site, networks as edges to their member nodes.
func Graph(topo *model.ResolvedTopology) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	g.Attr("label", topo.Slice)

	siteClusters := map[string]*dot.Graph{}
	nodes := map[string]dot.Node{}

	for i := range topo.Nodes {
		node := &topo.Nodes[i]

		cluster, exists := siteClusters[node.Site]
		if !exists {
			cluster = g.Subgraph(node.Site, dot.ClusterOption{})
			siteClusters[node.Site] = cluster
		}

		n := cluster.Node(node.Name)
		nodes[node.Name] = n

		for j := range node.Components {
			comp := cluster.Node(node.Name + "/" + node.Components[j].Name)
			comp.Attr("shape", "box")
			cluster.Edge(n, comp, node.Components[j].Model)
		}
	}

	for i := range topo.Networks {
		network := &topo.Networks[i]

		netNode := g.Node(network.Name)
		netNode.Attr("shape", "diamond")

		for _, member := range network.Nodes {
			if n, exists := nodes[member]; exists {
				g.Edge(netNode, n, string(network.Type))
			}
		}
	}

	return g
}
