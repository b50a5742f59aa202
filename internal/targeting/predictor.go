package targeting

import (
	"math/rand/v2"

	"github.com/elixoids/miner/internal/geo"
	"github.com/elixoids/miner/internal/model/core"
)

// DefaultSigma is the aim jitter, equal to the original firing tolerance.
const DefaultSigma = 0.05

// Noise produces the aim perturbation for a given standard deviation.
type Noise interface {
	Sample(sigma float64) float64
}

// NoNoise disables jitter.
type NoNoise struct{}

// Sample always returns 0.
func (NoNoise) Sample(float64) float64 { return 0 }

// GaussianNoise draws zero-mean normal samples from a seeded source.
type GaussianNoise struct {
	rng *rand.Rand
}

// NewGaussianNoise returns a deterministic source for the given seed.
func NewGaussianNoise(seed uint64) *GaussianNoise {
	return &GaussianNoise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample returns N(0, sigma²).
func (g *GaussianNoise) Sample(sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return g.rng.NormFloat64() * sigma
}

// Predictor extrapolates a target's next bearing and perturbs it.
type Predictor struct {
	Sigma float64
	Noise Noise
}

// Lead is the first-order, unit-step extrapolation of the bearing.
func (p Predictor) Lead(r core.CorrelatedRecord) float64 {
	return geo.Normalize(r.Current.Bearing + (r.Current.Bearing - r.Previous.Bearing))
}

// Aim is Lead plus jitter.
func (p Predictor) Aim(r core.CorrelatedRecord) float64 {
	return p.Perturb(p.Lead(r))
}

// Perturb adds jitter to a bearing.
func (p Predictor) Perturb(theta float64) float64 {
	if p.Noise == nil || p.Sigma == 0 {
		return geo.Normalize(theta)
	}
	return geo.Normalize(theta + p.Noise.Sample(p.Sigma))
}
