// Package simconfig defines the on-disk configuration schema for a
// simulation run and loads it via viper, the same way the ambient CLI
// stack loads every other setting.
package simconfig

import "fmt"

// Config is the full configuration for one simulation run.
type Config struct {
	Network         NetworkConfig `mapstructure:"network"`
	RoutingProtocol string        `mapstructure:"routing_protocol"`
	Deadline        float64       `mapstructure:"deadline"`
	Run             RunConfig     `mapstructure:"run"`
}

// NetworkConfig is the static topology: its nodes and the links between
// them.
type NetworkConfig struct {
	Nodes []NodeConfig `mapstructure:"nodes"`
	Links []LinkConfig `mapstructure:"links"`
}

// NodeConfig describes one node. Kind must be "sink" or "sensing".
type NodeConfig struct {
	Address       string  `mapstructure:"address"`
	Name          string  `mapstructure:"name"`
	Kind          string  `mapstructure:"kind"`
	SensingPeriod float64 `mapstructure:"sensing_period"`
	SensingOffset float64 `mapstructure:"sensing_offset"`
}

// LinkConfig describes one undirected link and its delay distribution.
type LinkConfig struct {
	A     string      `mapstructure:"a"`
	B     string      `mapstructure:"b"`
	Delay DelayConfig `mapstructure:"delay"`
}

// DelayConfig picks a delay distribution. Type selects which of the
// remaining fields apply: "constant" uses Value; "uniform" uses Min/Max;
// "gamma" uses Shape/Scale.
type DelayConfig struct {
	Type  string  `mapstructure:"type"`
	Value float64 `mapstructure:"value"`
	Min   float64 `mapstructure:"min"`
	Max   float64 `mapstructure:"max"`
	Shape float64 `mapstructure:"shape"`
	Scale float64 `mapstructure:"scale"`
}

// RunConfig controls how long the simulation runs and its RNG seed.
type RunConfig struct {
	Time float64 `mapstructure:"time"`
	Seed int64   `mapstructure:"seed"`
}

const (
	defaultSensingPeriod = 3600.0
	defaultSinkOffset    = 60.0
	defaultSensingOffset = 30.0
	// DefaultSeed is the original source's hard-coded RNG seed.
	DefaultSeed = 290696
)

// Default returns a Config with every optional field at its normative
// default: a two-node sink/sensing network on a constant-delay link,
// min-hop routing, a zero deadline (dap routing does not validate until
// one is set, and the performance collector counts every positive delay
// as a miss), and the default seed.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Nodes: []NodeConfig{
				{Address: "sink", Kind: "sink", SensingOffset: defaultSinkOffset},
				{Address: "1", Kind: "sensing", SensingPeriod: defaultSensingPeriod, SensingOffset: defaultSensingOffset},
			},
			Links: []LinkConfig{
				{A: "sink", B: "1", Delay: DelayConfig{Type: "constant", Value: 1}},
			},
		},
		RoutingProtocol: "min-hop",
		Run:             RunConfig{Time: 3600, Seed: DefaultSeed},
	}
}

// Validate checks the configuration against the config-error rules:
// fatal at construction, never at run time.
func (c *Config) Validate() error {
	switch c.RoutingProtocol {
	case "min-hop", "etx", "dap":
	default:
		return fmt.Errorf("simconfig: unknown routing_protocol %q (must be min-hop, etx, or dap)", c.RoutingProtocol)
	}

	if len(c.Network.Nodes) == 0 {
		return fmt.Errorf("simconfig: network.nodes must not be empty")
	}

	sinks := 0
	seen := make(map[string]bool, len(c.Network.Nodes))
	for i, n := range c.Network.Nodes {
		if n.Address == "" {
			return fmt.Errorf("simconfig: network.nodes[%d].address is required", i)
		}
		if seen[n.Address] {
			return fmt.Errorf("simconfig: network.nodes[%d]: duplicate address %q", i, n.Address)
		}
		seen[n.Address] = true
		switch n.Kind {
		case "sink":
			sinks++
		case "sensing":
		default:
			return fmt.Errorf("simconfig: network.nodes[%d]: invalid kind %q (must be sink or sensing)", i, n.Kind)
		}
	}
	if sinks != 1 {
		return fmt.Errorf("simconfig: network must have exactly one sink node, found %d", sinks)
	}

	for i, l := range c.Network.Links {
		if l.A == "" || l.B == "" {
			return fmt.Errorf("simconfig: network.links[%d]: both endpoints are required", i)
		}
		if !seen[l.A] || !seen[l.B] {
			return fmt.Errorf("simconfig: network.links[%d]: endpoint not declared in network.nodes", i)
		}
		switch l.Delay.Type {
		case "constant", "uniform", "gamma":
		default:
			return fmt.Errorf("simconfig: network.links[%d]: invalid delay.type %q", i, l.Delay.Type)
		}
	}

	if c.RoutingProtocol == "dap" && c.Deadline <= 0 {
		return fmt.Errorf("simconfig: deadline is required (and must be positive) for dap routing")
	}

	return nil
}

// applyDefaults fills in the zero-valued optional fields every node and
// run config is allowed to omit.
func (c *Config) applyDefaults() {
	for i := range c.Network.Nodes {
		n := &c.Network.Nodes[i]
		if n.Name == "" {
			n.Name = n.Address
		}
		if n.Kind == "sensing" && n.SensingPeriod == 0 {
			n.SensingPeriod = defaultSensingPeriod
		}
		if n.SensingOffset == 0 {
			if n.Kind == "sink" {
				n.SensingOffset = defaultSinkOffset
			} else {
				n.SensingOffset = defaultSensingOffset
			}
		}
	}
	if c.Run.Seed == 0 {
		c.Run.Seed = DefaultSeed
	}
}
