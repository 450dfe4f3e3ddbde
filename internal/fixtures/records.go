package fixtures

import "github.com/fabric-testbed/slicer/internal/model"

// Inventory records in the shape the upstream inventory reports them -
// scalars, lists and nested component mappings.
var (
	Sites = []model.Record{
		{
			"name":            "RENC",
			"state":           "Active",
			"address":         "Chapel Hill, NC",
			"location":        []interface{}{35.9132, -79.0558},
			"ptp_capable":     true,
			"cores_capacity":  192,
			"cores_allocated": 102,
			"cores_available": 90,
			"ram_capacity":    1536,
			"ram_available":   1024,
			"disk_capacity":   109600,
			"disk_available":  64000,
			"hosts":           []interface{}{"renc-w1.fabric-testbed.net", "renc-w2.fabric-testbed.net"},
			"components": map[string]interface{}{
				"GPU-Tesla T4":       map[string]interface{}{"capacity": 4, "allocated": 1},
				"SmartNIC-ConnectX-6": map[string]interface{}{"capacity": 2, "allocated": 0},
			},
		},
		{
			"name":            "UCSD",
			"state":           "Active",
			"address":         "San Diego, CA",
			"location":        []interface{}{32.8801, -117.234},
			"ptp_capable":     false,
			"cores_capacity":  128,
			"cores_allocated": 98,
			"cores_available": 30,
			"ram_capacity":    1024,
			"ram_available":   256,
			"disk_capacity":   51200,
			"disk_available":  12000,
			"hosts":           []interface{}{"ucsd-w5.fabric-testbed.net"},
			"components": map[string]interface{}{
				"FPGA-Xilinx-U280": map[string]interface{}{"capacity": 2, "allocated": 0},
			},
		},
		{
			"name":            "STAR",
			"state":           "Active",
			"address":         "Chicago, IL",
			"location":        []interface{}{41.8781, -87.6298},
			"ptp_capable":     true,
			"cores_capacity":  384,
			"cores_allocated": 90,
			"cores_available": 294,
			"ram_capacity":    3072,
			"ram_available":   2048,
			"disk_capacity":   219200,
			"disk_available":  128000,
			"hosts":           []interface{}{"star-w1.fabric-testbed.net", "star-w2.fabric-testbed.net", "star-w3.fabric-testbed.net"},
			"components": map[string]interface{}{
				"GPU-RTX6000":         map[string]interface{}{"capacity": 2, "allocated": 2},
				"NVME-P4510":          map[string]interface{}{"capacity": 8, "allocated": 3},
				"SmartNIC-ConnectX-5": map[string]interface{}{"capacity": 2, "allocated": 1},
			},
		},
	}

	Hosts = []model.Record{
		{
			"name":            "renc-w1.fabric-testbed.net",
			"site":            "RENC",
			"cores_capacity":  64,
			"cores_available": 44,
			"ram_capacity":    512,
			"ram_available":   384,
			"disk_capacity":   36500,
			"disk_available":  21000,
			"components": map[string]interface{}{
				"GPU-Tesla T4": map[string]interface{}{"capacity": 2, "allocated": 0},
			},
		},
		{
			"name":            "star-w1.fabric-testbed.net",
			"site":            "STAR",
			"cores_capacity":  128,
			"cores_available": 100,
			"ram_capacity":    1024,
			"ram_available":   768,
			"disk_capacity":   73000,
			"disk_available":  51000,
			"components": map[string]interface{}{
				"NVME-P4510": map[string]interface{}{"capacity": 4, "allocated": 1},
			},
		},
	}

	FacilityPorts = []model.Record{
		{
			"name":  "Cloud-Facility-STAR",
			"site":  "STAR",
			"vlan":  "3001",
			"state": "Active",
		},
	}

	Links = []model.Record{
		{
			"node_a":   "RENC",
			"node_b":   "STAR",
			"capacity": 100,
			"layer":    "L2",
		},
		{
			"node_a":   "STAR",
			"node_b":   "UCSD",
			"capacity": 400,
			"layer":    "L2",
		},
	}
)
