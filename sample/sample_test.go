package sample

import (
	"errors"
	"math"
	"testing"

	localize "github.com/milosgajdos/go-localize"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestWithCovN(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(1))
	data := []float64{1.0, 0.0, 0.0, 1.0}
	covTest := mat.NewSymDense(2, data)
	covR, _ := covTest.Dims()

	// n must be bigger than 1
	nTest := -3
	res, err := WithCovN(covTest, nTest, rng)
	assert.Error(err)
	assert.Nil(res)

	nTest = 1
	res, err = WithCovN(covTest, nTest, rng)
	assert.NoError(err)
	assert.NotNil(res)

	// 2 samples
	nTest = 2
	res, err = WithCovN(covTest, nTest, rng)
	assert.NoError(err)
	assert.NotNil(res)
	r, c := res.Dims()
	assert.Equal(r, covR)
	assert.Equal(c, nTest)
}

func TestWithCovNStats(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(11))
	cov := mat.NewSymDense(2, []float64{4, 0, 0, 0.25})

	n := 5000
	res, err := WithCovN(cov, n, rng)
	assert.NoError(err)

	xs := mat.Row(nil, 0, res)
	ys := mat.Row(nil, 1, res)
	assert.InDelta(4.0, stat.Variance(xs, nil), 0.4)
	assert.InDelta(0.25, stat.Variance(ys, nil), 0.025)
}

func TestRouletteDrawN(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(1))

	// p can't be nil or empty
	indices, err := RouletteDrawN(nil, 10, rng)
	assert.Error(err)
	assert.Nil(indices)

	p := []float64{0.1, 0.7, 0.3, 0.4}
	n := 10
	indices, err = RouletteDrawN(p, n, rng)
	assert.NoError(err)
	assert.NotNil(indices)
	assert.Equal(n, len(indices))
	for _, i := range indices {
		assert.True(i >= 0 && i < len(p))
	}
}

func TestInvalidWeights(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(1))
	draws := map[string]func([]float64, int, *rand.Rand) ([]int, error){
		"roulette":   RouletteDrawN,
		"systematic": SystematicDrawN,
	}

	for name, draw := range draws {
		for _, p := range [][]float64{
			nil,
			{},
			{0.5, -0.1},
			{0.5, math.NaN()},
			{math.Inf(1), 1},
		} {
			indices, err := draw(p, 4, rng)
			assert.Error(err, name)
			assert.Nil(indices, name)
			assert.False(errors.Is(err, ErrDegenerate), name)
		}

		indices, err := draw([]float64{0, 0, 0, 0}, 4, rng)
		assert.Nil(indices, name)
		assert.True(errors.Is(err, ErrDegenerate), name)
	}
}

func TestSingleNonZeroWeight(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(5))
	w := []float64{0, 0, 0, 1}

	for _, r := range []localize.Resampler{Systematic{}, Multinomial{}} {
		for i := 0; i < 100; i++ {
			indices, err := r.Resample(w, rng)
			assert.NoError(err)
			assert.Equal([]int{3, 3, 3, 3}, indices)
		}
	}
}

func TestSystematicDrawN(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(42))

	// unnormalized weights 1:3 must be drawn exactly 1 and 3 times
	for i := 0; i < 50; i++ {
		indices, err := SystematicDrawN([]float64{1, 3}, 4, rng)
		assert.NoError(err)
		assert.Equal([]int{0, 1, 1, 1}, indices)
	}

	// indices are drawn in ascending order and respect floor/ceil counts
	w := []float64{0.05, 0.45, 0.2, 0.3}
	n := 20
	indices, err := SystematicDrawN(w, n, rng)
	assert.NoError(err)
	counts := make([]int, len(w))
	for j, i := range indices {
		if j > 0 {
			assert.True(indices[j-1] <= i)
		}
		counts[i]++
	}
	for i := range w {
		exp := w[i] * float64(n)
		assert.True(float64(counts[i]) >= math.Floor(exp)-1e-9 && float64(counts[i]) <= math.Ceil(exp)+1e-9)
	}
}

func TestMultinomialProportion(t *testing.T) {
	assert := assert.New(t)

	rng := rand.New(rand.NewSource(9))
	w := []float64{1, 2, 7}

	n := 20000
	indices, err := RouletteDrawN(w, n, rng)
	assert.NoError(err)

	counts := make([]float64, len(w))
	for _, i := range indices {
		counts[i]++
	}
	assert.InDelta(0.1, counts[0]/float64(n), 0.02)
	assert.InDelta(0.2, counts[1]/float64(n), 0.02)
	assert.InDelta(0.7, counts[2]/float64(n), 0.02)
}
