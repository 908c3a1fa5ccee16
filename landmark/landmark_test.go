package landmark

import (
	"errors"
	"math"
	"testing"

	localize "github.com/milosgajdos/go-localize"
	"github.com/stretchr/testify/assert"
)

func TestNewMap(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		lms []localize.Landmark
		ok  bool
	}{
		{lms: nil, ok: true},
		{lms: []localize.Landmark{{ID: 1, X: 5, Y: 5}, {ID: 2, X: 2, Y: 2}}, ok: true},
		{lms: []localize.Landmark{{ID: 1, X: 5, Y: 5}, {ID: 1, X: 2, Y: 2}}, ok: false},
		{lms: []localize.Landmark{{ID: 1, X: math.NaN(), Y: 5}}, ok: false},
		{lms: []localize.Landmark{{ID: 1, X: 1, Y: math.Inf(1)}}, ok: false},
	} {
		m, err := NewMap(test.lms)
		if test.ok {
			assert.NotNil(m)
			assert.NoError(err)
			assert.Equal(len(test.lms), m.Len())
			continue
		}
		assert.Nil(m)
		assert.Error(err)
	}

	_, err := NewMap([]localize.Landmark{{ID: 3}, {ID: 3}})
	assert.True(errors.Is(err, ErrDuplicateID))
}

func TestGetLandmarks(t *testing.T) {
	assert := assert.New(t)

	lms := []localize.Landmark{{ID: 7, X: 1, Y: 2}, {ID: 3, X: -4, Y: 0.5}}
	m, err := NewMap(lms)
	assert.NoError(err)

	l, ok := m.Get(3)
	assert.True(ok)
	assert.Equal(lms[1], l)

	_, ok = m.Get(42)
	assert.False(ok)

	// returned landmarks must not alias map storage
	got := m.Landmarks()
	assert.Equal(lms, got)
	got[0].X = 100
	l, _ = m.Get(7)
	assert.Equal(1.0, l.X)

	// neither must the input slice
	lms[1].Y = 100
	l, _ = m.Get(3)
	assert.Equal(0.5, l.Y)
}

func TestInRange(t *testing.T) {
	assert := assert.New(t)

	m, err := NewMap([]localize.Landmark{
		{ID: 1, X: 3, Y: 4},
		{ID: 2, X: 10, Y: 0},
		{ID: 3, X: -3, Y: -4},
		{ID: 4, X: 0, Y: 1},
	})
	assert.NoError(err)

	// landmarks exactly at the range boundary are included
	in := m.InRange(0, 0, 5)
	ids := make([]int, len(in))
	for i := range in {
		ids[i] = in[i].ID
	}
	assert.Equal([]int{1, 3, 4}, ids)

	assert.Len(m.InRange(0, 0, 0.5), 0)
	assert.Len(m.InRange(10, 0, 0), 1)
	assert.Len(m.InRange(0, 0, 100), 4)
}
