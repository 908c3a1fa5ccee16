package particle

import (
	"fmt"
	"math"

	localize "github.com/milosgajdos/go-localize"
	"github.com/milosgajdos/go-localize/estimate"
	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Set is an ordered collection of particles of a fixed size.
type Set struct {
	p []Particle
}

// NewSet creates new particle set with n particles and returns it.
// All particles are placed at the origin with unit weight.
// It returns error if n is not positive.
func NewSet(n int) (*Set, error) {
	// must have at least one particle; can't be negative
	if n <= 0 {
		return nil, fmt.Errorf("invalid particle count: %d", n)
	}

	p := make([]Particle, n)
	for i := range p {
		p[i] = Particle{ID: i, Weight: 1.0}
	}

	return &Set{p: p}, nil
}

// Len returns the number of particles in the set.
func (s *Set) Len() int {
	return len(s.p)
}

// At returns a pointer to the i-th particle of the set.
// It panics if i is out of range.
func (s *Set) At(i int) *Particle {
	return &s.p[i]
}

// Reset replaces set particles with deep copies of ps.
// It returns error if the number of particles does not match the set size.
func (s *Set) Reset(ps []Particle) error {
	if len(ps) != len(s.p) {
		return fmt.Errorf("invalid particle count: %d, expected: %d", len(ps), len(s.p))
	}

	for i := range ps {
		s.p[i] = ps[i].clone()
	}

	return nil
}

// Particles returns a deep copy of set particles.
func (s *Set) Particles() []Particle {
	ps := make([]Particle, len(s.p))
	for i := range s.p {
		ps[i] = s.p[i].clone()
	}

	return ps
}

// Weights returns a slice of particle weights in particle order.
func (s *Set) Weights() []float64 {
	w := make([]float64, len(s.p))
	for i := range s.p {
		w[i] = s.p[i].Weight
	}

	return w
}

// Select replaces set particles with copies of the particles at indices.
// Selected particles keep their pose, weight and associations;
// their IDs are set to their new position in the set.
// It returns error if the number of indices does not match the set size
// or if any of the indices is out of range.
func (s *Set) Select(indices []int) error {
	if len(indices) != len(s.p) {
		return fmt.Errorf("invalid index count: %d, expected: %d", len(indices), len(s.p))
	}

	p := make([]Particle, len(s.p))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.p) {
			return fmt.Errorf("particle index out of range: %d", idx)
		}
		p[i] = s.p[idx].clone()
		p[i].ID = i
	}
	s.p = p

	return nil
}

// Best returns a copy of the particle with the highest weight.
// Ties are resolved in favour of the first particle.
func (s *Set) Best() Particle {
	best := 0
	for i := range s.p {
		if s.p[i].Weight > s.p[best].Weight {
			best = i
		}
	}

	return s.p[best].clone()
}

// ESS returns effective sample size of the set: (sum w)^2 / sum w^2.
// It returns 0 if all the weights are zero.
func (s *Set) ESS() float64 {
	var sum, sq float64
	for i := range s.p {
		sum += s.p[i].Weight
		sq += s.p[i].Weight * s.p[i].Weight
	}
	if sq == 0 {
		return 0
	}

	return sum * sum / sq
}

// Poses returns particle poses stored as matrix columns: [x, y, theta].
func (s *Set) Poses() *mat.Dense {
	x := mat.NewDense(3, len(s.p), nil)
	for c := range s.p {
		x.Set(0, c, s.p[c].X)
		x.Set(1, c, s.p[c].Y)
		x.Set(2, c, s.p[c].Theta)
	}

	return x
}

// Estimate returns weighted mean pose of the set together with particle covariance.
// Heading is averaged on the unit circle. If the weights do not sum up to a positive
// finite value every particle is weighted equally.
// It returns error if the particle covariance fails to be calculated.
func (s *Set) Estimate() (*estimate.Base, error) {
	w := s.Weights()
	var sum float64
	for i := range w {
		sum += w[i]
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		for i := range w {
			w[i] = 1
		}
		sum = float64(len(w))
	}

	var x, y, sin, cos float64
	for i := range s.p {
		x += w[i] * s.p[i].X
		y += w[i] * s.p[i].Y
		sin += w[i] * math.Sin(s.p[i].Theta)
		cos += w[i] * math.Cos(s.p[i].Theta)
	}
	mean := localize.Pose{X: x / sum, Y: y / sum, Theta: math.Atan2(sin, cos)}

	if len(s.p) < 2 {
		return estimate.NewBase(mean), nil
	}

	cov, err := matrix.Cov(s.Poses(), "cols")
	if err != nil {
		return nil, fmt.Errorf("failed to calculate covariance matrix: %w", err)
	}

	return estimate.NewBaseWithCov(mean, cov)
}
