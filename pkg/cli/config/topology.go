package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// TopologyConfig represents the routing topology seed file: the work baskets
// and work groups to provision, with group membership inline.
type TopologyConfig struct {
	Baskets []BasketSeed `toml:"workbasket"`
	Groups  []GroupSeed  `toml:"workgroup"`
}

// BasketSeed represents one work basket definition
type BasketSeed struct {
	Code        string   `toml:"code"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Groups      []string `toml:"groups"`
}

// Validate checks if the BasketSeed is valid
func (b *BasketSeed) Validate() error {
	if b.Code == "" {
		return goerr.New("work basket code is required")
	}
	if b.Name == "" {
		return goerr.New("work basket name is required", goerr.V("code", b.Code))
	}
	return nil
}

// GroupSeed represents one work group definition
type GroupSeed struct {
	Code          string   `toml:"code"`
	Name          string   `toml:"name"`
	Description   string   `toml:"description"`
	FaxSourced    bool     `toml:"fax_sourced"`
	PortalSourced bool     `toml:"portal_sourced"`
	Members       []string `toml:"members"`
}

// Validate checks if the GroupSeed is valid
func (g *GroupSeed) Validate() error {
	if g.Code == "" {
		return goerr.New("work group code is required")
	}
	if g.Name == "" {
		return goerr.New("work group name is required", goerr.V("code", g.Code))
	}
	for _, m := range g.Members {
		if m == "" {
			return goerr.New("empty member ID", goerr.V("code", g.Code))
		}
	}
	return nil
}

// Validate checks if the TopologyConfig is valid
func (t *TopologyConfig) Validate() error {
	groupCodes := make(map[string]bool)
	for i := range t.Groups {
		g := &t.Groups[i]
		if err := g.Validate(); err != nil {
			return goerr.Wrap(err, "invalid work group")
		}
		if groupCodes[g.Code] {
			return goerr.New("duplicate work group code", goerr.V("code", g.Code))
		}
		groupCodes[g.Code] = true
	}

	basketCodes := make(map[string]bool)
	for i := range t.Baskets {
		b := &t.Baskets[i]
		if err := b.Validate(); err != nil {
			return goerr.Wrap(err, "invalid work basket")
		}
		if basketCodes[b.Code] {
			return goerr.New("duplicate work basket code", goerr.V("code", b.Code))
		}
		basketCodes[b.Code] = true

		// Basket group references must resolve within this file
		for _, gc := range b.Groups {
			if !groupCodes[gc] {
				return goerr.New("work basket references unknown group",
					goerr.V("basket", b.Code), goerr.V("group", gc))
			}
		}
	}

	return nil
}

// LoadTopologyConfig loads the topology seed from a TOML file
func LoadTopologyConfig(path string) (*TopologyConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read topology file", goerr.V("path", path))
	}

	var config TopologyConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML topology", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "topology validation failed", goerr.V("path", path))
	}

	return &config, nil
}
