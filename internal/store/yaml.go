package store

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fabric-testbed/slicer/internal/model"
)

var ErrYamlSource = errors.New("error in Yaml inventory")

// YamlSource reads inventory records from a YAML file, keyed by kind:
//
//	sites:
//	  - name: RENC
//	    cores_available: 90
//	hosts:
//	  - name: renc-w1.fabric-testbed.net
//	    site: RENC
//
// Used by the client commands and tests in place of the live inventory API.
type YamlSource struct {
	YamlFile string
}

// NewYamlSource returns a YamlSource for the given file.
func NewYamlSource(yamlFile string) (Source, error) {
	if _, err := os.Stat(yamlFile); err != nil {
		return nil, errors.Wrap(ErrYamlSource, err.Error())
	}

	return &YamlSource{YamlFile: yamlFile}, nil
}

// Fetch implements the Source interface.
func (c *YamlSource) Fetch(_ context.Context, kind model.Kind) ([]model.Record, error) {
	data, err := os.ReadFile(c.YamlFile)
	if err != nil {
		return nil, errors.Wrap(ErrYamlSource, err.Error())
	}

	inventory := map[string][]model.Record{}
	if err := yaml.Unmarshal(data, &inventory); err != nil {
		return nil, errors.Wrap(ErrYamlSource, err.Error())
	}

	return inventory[string(kind)], nil
}
