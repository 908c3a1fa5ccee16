package sensor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	localize "github.com/milosgajdos/go-localize"
	"github.com/stretchr/testify/assert"
)

func TestToWorld(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		p   localize.Pose
		o   localize.Observation
		exp localize.Observation
	}{
		{
			p:   localize.Pose{},
			o:   localize.Observation{X: 2.1, Y: 2.0},
			exp: localize.Observation{X: 2.1, Y: 2.0},
		},
		{
			p:   localize.Pose{X: 4, Y: 5, Theta: -math.Pi / 2},
			o:   localize.Observation{X: 2, Y: 2},
			exp: localize.Observation{X: 6, Y: 3},
		},
		{
			p:   localize.Pose{X: 4, Y: 5, Theta: -math.Pi / 2},
			o:   localize.Observation{X: 3, Y: -4},
			exp: localize.Observation{X: 0, Y: 2},
		},
		{
			p:   localize.Pose{X: 1, Y: 1, Theta: math.Pi},
			o:   localize.Observation{X: 1, Y: 0},
			exp: localize.Observation{X: 0, Y: 1},
		},
	} {
		w := ToWorld(test.p, test.o)
		assert.InDelta(test.exp.X, w.X, 1e-9)
		assert.InDelta(test.exp.Y, w.Y, 1e-9)
	}
}

func TestToLocal(t *testing.T) {
	assert := assert.New(t)

	p := localize.Pose{X: -3.2, Y: 7.5, Theta: 2.3}
	for _, o := range []localize.Observation{{X: 0, Y: 0}, {X: 10, Y: -1}, {X: -4.5, Y: 3.3}} {
		l := ToLocal(p, ToWorld(p, o))
		assert.InDelta(o.X, l.X, 1e-9)
		assert.InDelta(o.Y, l.Y, 1e-9)
	}
}

func TestNearest(t *testing.T) {
	assert := assert.New(t)

	lms := []localize.Landmark{{ID: 1, X: 5, Y: 5}, {ID: 2, X: 2, Y: 2}}
	i := Nearest(localize.Observation{X: 2.1, Y: 2.0}, lms)
	assert.Equal(1, i)
	assert.Equal(2, lms[i].ID)

	// no candidates
	assert.Equal(-1, Nearest(localize.Observation{X: 2.1, Y: 2.0}, nil))

	// ties go to the first landmark
	tied := []localize.Landmark{{ID: 10, X: 1, Y: 0}, {ID: 11, X: -1, Y: 0}, {ID: 12, X: 0, Y: 1}}
	assert.Equal(0, Nearest(localize.Observation{}, tied))
}

func TestAssociate(t *testing.T) {
	lms := []localize.Landmark{{ID: 1, X: 5, Y: 5}, {ID: 2, X: 2, Y: 2}, {ID: 3, X: -6, Y: 1}}
	obs := []localize.Observation{{X: 2.1, Y: 2.0}, {X: 4.2, Y: 5.5}, {X: -5, Y: 0}}

	got := Associate(obs, lms)
	if diff := cmp.Diff([]int{1, 0, 2}, got); diff != "" {
		t.Errorf("Associate() mismatch (-want +got):\n%s", diff)
	}

	got = Associate(obs, nil)
	if diff := cmp.Diff([]int{-1, -1, -1}, got); diff != "" {
		t.Errorf("Associate() mismatch (-want +got):\n%s", diff)
	}

	if got := Associate(nil, lms); len(got) != 0 {
		t.Errorf("expected no associations, got: %v", got)
	}
}

func TestNewLikelihood(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		sx, sy float64
		ok     bool
	}{
		{sx: 0.3, sy: 0.3, ok: true},
		{sx: 1, sy: 2, ok: true},
		{sx: 0, sy: 0.3, ok: false},
		{sx: 0.3, sy: -1, ok: false},
		{sx: math.NaN(), sy: 1, ok: false},
		{sx: 1, sy: math.Inf(1), ok: false},
	} {
		l, err := NewLikelihood(test.sx, test.sy)
		if test.ok {
			assert.NotNil(l)
			assert.NoError(err)
			continue
		}
		assert.Nil(l)
		assert.Error(err)
	}
}

func TestLikelihoodProb(t *testing.T) {
	assert := assert.New(t)

	sx, sy := 0.3, 0.5
	l, err := NewLikelihood(sx, sy)
	assert.NoError(err)

	max := 1 / (2 * math.Pi * sx * sy)
	assert.InDelta(max, l.Max(), 1e-12)
	assert.InDelta(max, l.Prob(0, 0), 1e-9)

	// closed form density
	dx, dy := 0.2, -0.1
	exp := max * math.Exp(-(dx*dx/(2*sx*sx) + dy*dy/(2*sy*sy)))
	assert.InDelta(exp, l.Prob(dx, dy), 1e-9)

	// density strictly decreases with growing residual
	prev := l.Prob(0, 0)
	for _, d := range []float64{0.01, 0.1, 0.5, 1, 2} {
		p := l.Prob(d, d)
		assert.True(p < prev, "residual %v", d)
		assert.True(p >= 0)
		prev = p
	}
}
