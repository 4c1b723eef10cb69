package simconfig

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kprusa/wsnsim/internal/topology"
)

// Sampler builds the topology.DelaySampler a DelayConfig describes,
// drawing from rng (the scheduler-wide RNG — the RNG discipline that
// makes a seed reproduce a bit-identical trace applies to link delays
// too).
func (d DelayConfig) Sampler(rng *rand.Rand) (topology.DelaySampler, error) {
	switch d.Type {
	case "constant":
		v := d.Value
		return func() float64 { return v }, nil
	case "uniform":
		lo, hi := d.Min, d.Max
		return func() float64 { return lo + (hi-lo)*rng.Float64() }, nil
	case "gamma":
		shape, scale := d.Shape, d.Scale
		return func() float64 { return sampleGamma(rng, shape, scale) }, nil
	default:
		return nil, fmt.Errorf("simconfig: unknown delay type %q", d.Type)
	}
}

// sampleGamma draws from a Gamma(shape, scale) distribution using the
// Marsaglia-Tsang method, boosted for shape < 1 (Marsaglia & Tsang,
// "A Simple Method for Generating Gamma Variables", 2000). No library in
// the corpus exposes a Gamma distribution, so this stands on
// math/rand alone.
func sampleGamma(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1, scale) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}
