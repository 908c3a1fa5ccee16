package estimate

import (
	"fmt"

	localize "github.com/milosgajdos/go-localize"
	"gonum.org/v1/gonum/mat"
)

// Base is base pose estimate
type Base struct {
	// val is estimated value: [x, y, theta]
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given pose p with zero covariance
func NewBase(p localize.Pose) *Base {
	return &Base{
		val: mat.NewVecDense(3, []float64{p.X, p.Y, p.Theta}),
		cov: mat.NewSymDense(3, nil),
	}
}

// NewBaseWithCov returns base estimate given pose p and its covariance
func NewBaseWithCov(p localize.Pose, cov mat.Symmetric) (*Base, error) {
	if rc := cov.SymmetricDim(); rc != 3 {
		return nil, fmt.Errorf("invalid covariance dimensions: %d x %d", rc, rc)
	}

	c := mat.NewSymDense(3, nil)
	c.CopySym(cov)

	return &Base{
		val: mat.NewVecDense(3, []float64{p.X, p.Y, p.Theta}),
		cov: c,
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// Pose returns estimated pose
func (b *Base) Pose() localize.Pose {
	return localize.Pose{
		X:     b.val.AtVec(0),
		Y:     b.val.AtVec(1),
		Theta: b.val.AtVec(2),
	}
}
