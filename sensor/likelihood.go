package sensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Likelihood is a bivariate uncorrelated Gaussian observation likelihood.
type Likelihood struct {
	// pdf is zero mean normal distribution of observation residuals
	pdf *distmv.Normal
	// sx and sy are residual standard deviations
	sx, sy float64
}

// NewLikelihood creates new observation likelihood with residual standard deviations sx and sy.
// It returns error if either of the deviations is not positive and finite.
func NewLikelihood(sx, sy float64) (*Likelihood, error) {
	for _, s := range []float64{sx, sy} {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("invalid standard deviation: %v", s)
		}
	}

	cov := mat.NewSymDense(2, []float64{sx * sx, 0, 0, sy * sy})
	pdf, ok := distmv.NewNormal([]float64{0, 0}, cov, nil)
	if !ok {
		return nil, fmt.Errorf("failed to create residual distribution")
	}

	return &Likelihood{
		pdf: pdf,
		sx:  sx,
		sy:  sy,
	}, nil
}

// Prob returns the probability density of residual [dx, dy].
// It is safe for concurrent use.
func (l *Likelihood) Prob(dx, dy float64) float64 {
	return math.Exp(l.pdf.LogProb([]float64{dx, dy}))
}

// Max returns the largest density value, attained at zero residual.
func (l *Likelihood) Max() float64 {
	return 1 / (2 * math.Pi * l.sx * l.sy)
}
