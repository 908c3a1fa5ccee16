package noise

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Diagonal is zero mean gaussian noise with uncorrelated components.
// Unlike Gaussian it allows zero standard deviations: such components
// are sampled as exact zeros.
type Diagonal struct {
	// dists stores one normal distribution per noise component
	dists []distuv.Normal
}

// NewDiagonal creates new Diagonal noise with per component standard deviations std.
// Samples are drawn from src; src must not be nil.
// It returns error if std is empty or any of its values is negative or not finite.
func NewDiagonal(std []float64, src rand.Source) (*Diagonal, error) {
	if src == nil {
		return nil, fmt.Errorf("invalid random source: %v", src)
	}

	if len(std) == 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", len(std))
	}

	dists := make([]distuv.Normal, len(std))
	for i, s := range std {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("invalid standard deviation %d: %v", i, s)
		}
		dists[i] = distuv.Normal{Mu: 0, Sigma: s, Src: src}
	}

	return &Diagonal{dists: dists}, nil
}

// Sample generates a sample from Diagonal noise and returns it.
// Components are drawn in order, one value each.
func (d *Diagonal) Sample() mat.Vector {
	data := make([]float64, len(d.dists))
	for i := range d.dists {
		if d.dists[i].Sigma == 0 {
			continue
		}
		data[i] = d.dists[i].Rand()
	}

	return mat.NewVecDense(len(data), data)
}

// Cov returns diagonal covariance matrix of the noise.
func (d *Diagonal) Cov() mat.Symmetric {
	cov := mat.NewSymDense(len(d.dists), nil)
	for i := range d.dists {
		cov.SetSym(i, i, d.dists[i].Sigma*d.dists[i].Sigma)
	}

	return cov
}

// Mean returns Diagonal mean: a slice of zeros.
func (d *Diagonal) Mean() []float64 {
	return make([]float64, len(d.dists))
}

// String implements the Stringer interface.
func (d *Diagonal) String() string {
	return fmt.Sprintf("Diagonal{\nMean=%v\nCov=%v\n}", d.Mean(), mat.Formatted(d.Cov(), mat.Prefix("    "), mat.Squeeze()))
}
