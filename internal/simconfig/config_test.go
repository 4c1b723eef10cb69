package simconfig

import (
	"math"
	"math/rand"
	"testing"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate_RejectsUnknownRoutingProtocol(t *testing.T) {
	c := Default()
	c.RoutingProtocol = "aodv"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject an unknown routing_protocol")
	}
}

func TestValidate_RequiresExactlyOneSink(t *testing.T) {
	c := Default()
	c.Network.Nodes[1].Kind = "sink"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a network with two sinks")
	}

	c = Default()
	c.Network.Nodes[0].Kind = "sensing"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a network with no sink")
	}
}

func TestValidate_RejectsDanglingLinkEndpoint(t *testing.T) {
	c := Default()
	c.Network.Links[0].B = "ghost"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a link to an undeclared node")
	}
}

func TestValidate_DAPRequiresPositiveDeadline(t *testing.T) {
	c := Default()
	c.RoutingProtocol = "dap"
	if err := c.Validate(); err == nil {
		t.Error("Validate() should require a positive deadline for dap routing")
	}
	c.Deadline = 30
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v after setting a positive deadline", err)
	}
}

func TestApplyDefaults_FillsSensingFields(t *testing.T) {
	c := &Config{
		Network: NetworkConfig{
			Nodes: []NodeConfig{
				{Address: "sink", Kind: "sink"},
				{Address: "1", Kind: "sensing"},
			},
		},
	}
	c.applyDefaults()

	if c.Network.Nodes[0].SensingOffset != defaultSinkOffset {
		t.Errorf("sink SensingOffset = %v, want %v", c.Network.Nodes[0].SensingOffset, defaultSinkOffset)
	}
	if c.Network.Nodes[1].SensingOffset != defaultSensingOffset {
		t.Errorf("sensing SensingOffset = %v, want %v", c.Network.Nodes[1].SensingOffset, defaultSensingOffset)
	}
	if c.Network.Nodes[1].SensingPeriod != defaultSensingPeriod {
		t.Errorf("sensing SensingPeriod = %v, want %v", c.Network.Nodes[1].SensingPeriod, defaultSensingPeriod)
	}
	if c.Run.Seed != DefaultSeed {
		t.Errorf("Seed = %v, want %v", c.Run.Seed, DefaultSeed)
	}
}

func TestDelayConfig_Sampler_Constant(t *testing.T) {
	s, err := DelayConfig{Type: "constant", Value: 4.5}.Sampler(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Sampler() error = %v", err)
	}
	if got := s(); got != 4.5 {
		t.Errorf("constant sampler = %v, want 4.5", got)
	}
}

func TestDelayConfig_Sampler_UniformWithinBounds(t *testing.T) {
	s, err := DelayConfig{Type: "uniform", Min: 5, Max: 10}.Sampler(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Sampler() error = %v", err)
	}
	for i := 0; i < 1000; i++ {
		if v := s(); v < 5 || v > 10 {
			t.Fatalf("uniform sampler produced %v, want [5, 10]", v)
		}
	}
}

func TestDelayConfig_Sampler_GammaIsPositiveAndFiniteMean(t *testing.T) {
	s, err := DelayConfig{Type: "gamma", Shape: 2, Scale: 3}.Sampler(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Sampler() error = %v", err)
	}
	var sum float64
	const n = 5000
	for i := 0; i < n; i++ {
		v := s()
		if v < 0 {
			t.Fatalf("gamma sampler produced a negative delay: %v", v)
		}
		sum += v
	}
	mean := sum / n
	want := 2.0 * 3.0
	if math.Abs(mean-want) > 1.0 {
		t.Errorf("gamma sampler mean over %d draws = %v, want close to %v", n, mean, want)
	}
}

func TestDelayConfig_Sampler_UnknownTypeErrors(t *testing.T) {
	if _, err := (DelayConfig{Type: "exponential"}).Sampler(rand.New(rand.NewSource(1))); err == nil {
		t.Error("Sampler() should error on an unrecognized delay type")
	}
}
