package sample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerate is returned when the probability weights sum up to (almost) zero.
var ErrDegenerate = errors.New("degenerate probability weights")

// minWeightSum is the smallest weight sum considered a valid distribution.
const minWeightSum = 1e-300

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with covariance cov.
// It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive or if SVD factorization of cov fails.
func WithCovN(cov mat.Symmetric, n int, rng *rand.Rand) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	// Use SVD instead of Cholesky as Cholesky can be numerically unstable if cov is (almost) singular
	var svd mat.SVD
	ok := svd.Factorize(cov, mat.SVDFull)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	diag := mat.NewDiagDense(len(vals), vals)
	U.Mul(U, diag)

	rows, _ := cov.Dims()
	data := make([]float64, rows*n)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	samples := mat.NewDense(rows, n, data)
	samples.Mul(U, samples)

	return samples, nil
}

// RouletteDrawN draws n numbers randomly from a probability mass function (PMF) defined by weights in p.
// RouletteDrawN implements the Roulette Wheel Draw a.k.a. Fitness Proportionate Selection:
// - https://en.wikipedia.org/wiki/Fitness_proportionate_selection
// - http://www.keithschwarz.com/darts-dice-coins/
// It returns a slice of n indices into the slice p.
// Weights in p do not need to be normalized.
// It fails with error if p is empty or contains invalid weights
// and with ErrDegenerate if the weights sum up to zero.
func RouletteDrawN(p []float64, n int, rng *rand.Rand) ([]int, error) {
	cdf, err := cumSum(p)
	if err != nil {
		return nil, err
	}

	uni := distuv.Uniform{Min: 0, Max: 1, Src: rng}

	// Generation:
	// 1. Generate a uniformly-random value x in the range [0,1)
	// 2. Using a binary search, find the index of the smallest element in cdf larger than x
	var val float64
	indices := make([]int, n)
	for i := range indices {
		// multiply the sample with the largest CDF value; easier than normalizing to [0,1)
		val = uni.Rand() * cdf[len(cdf)-1]
		indices[i] = search(cdf, val)
	}

	return indices, nil
}

// SystematicDrawN draws n numbers from a PMF defined by weights in p using systematic resampling:
// a single uniform offset u in [0, 1/n) selects the indices at CDF positions u + i/n.
// - https://people.isy.liu.se/rt/schon/Publications/HolSG2006.pdf
// Every index i is drawn either floor(n*p[i]) or ceil(n*p[i]) times for normalized p.
// It fails with error if p is empty or contains invalid weights
// and with ErrDegenerate if the weights sum up to zero.
func SystematicDrawN(p []float64, n int, rng *rand.Rand) ([]int, error) {
	cdf, err := cumSum(p)
	if err != nil {
		return nil, err
	}

	total := cdf[len(cdf)-1]
	step := total / float64(n)
	u := distuv.Uniform{Min: 0, Max: 1, Src: rng}.Rand() * step

	indices := make([]int, n)
	for i := range indices {
		indices[i] = search(cdf, u+float64(i)*step)
	}

	return indices, nil
}

// cumSum validates the weights in p and returns their discrete CDF.
func cumSum(p []float64) ([]float64, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("invalid probability weights: %v", p)
	}

	for i, w := range p {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid probability weight %d: %v", i, w)
		}
	}

	// We know that cdf is sorted in ascending order
	cdf := make([]float64, len(p))
	floats.CumSum(cdf, p)

	if cdf[len(cdf)-1] < minWeightSum {
		return nil, ErrDegenerate
	}

	return cdf, nil
}

// search returns the smallest index i such that cdf[i] > val.
// Values beyond the last CDF value caused by rounding map to the last index
// holding non-zero probability mass.
func search(cdf []float64, val float64) int {
	i := sort.Search(len(cdf), func(i int) bool { return cdf[i] > val })
	if i < len(cdf) {
		return i
	}

	last := cdf[len(cdf)-1]
	return sort.Search(len(cdf), func(i int) bool { return cdf[i] >= last })
}

// Systematic is a low variance Resampler based on SystematicDrawN.
type Systematic struct{}

// Resample draws len(w) indices into w.
func (Systematic) Resample(w []float64, rng *rand.Rand) ([]int, error) {
	return SystematicDrawN(w, len(w), rng)
}

// Multinomial is a Resampler based on RouletteDrawN.
type Multinomial struct{}

// Resample draws len(w) indices into w.
func (Multinomial) Resample(w []float64, rng *rand.Rand) ([]int, error) {
	return RouletteDrawN(w, len(w), rng)
}
