package fixtures

import "github.com/fabric-testbed/slicer/internal/model"

// BuildSpecTwoSites declares two pinned nodes on distinct sites joined by
// a FABNetv4 network.
func BuildSpecTwoSites() *model.BuildSpec {
	return &model.BuildSpec{
		Name: "two-site-slice",
		Nodes: []model.NodeSpec{
			{
				Name:  "node-renc",
				Site:  "RENC",
				Cores: 16,
				RAM:   64,
				Disk:  100,
				Components: []model.ComponentSpec{
					{Name: "gpu1", Model: "GPU_TeslaT4"},
				},
			},
			{
				Name:  "node-star",
				Site:  "STAR",
				Cores: 16,
				RAM:   64,
				Disk:  100,
			},
		},
		Networks: []model.NetworkSpec{
			{
				Name:  "net1",
				Type:  model.NetworkFABNetv4,
				Nodes: []string{"node-renc", "node-star"},
			},
		},
		SSHKeys: []string{"ssh-rsa AAAAtest"},
	}
}

// BuildSpecAutoSite declares nodes without site pins, exercising
// auto-selection.
func BuildSpecAutoSite(nodes int) *model.BuildSpec {
	spec := &model.BuildSpec{Name: "auto-site-slice"}

	names := []string{"n1", "n2", "n3"}
	for i := 0; i < nodes && i < len(names); i++ {
		spec.Nodes = append(spec.Nodes, model.NodeSpec{Name: names[i], Cores: 4, RAM: 16, Disk: 50})
	}

	return spec
}
