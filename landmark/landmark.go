package landmark

import (
	"errors"
	"fmt"
	"math"

	localize "github.com/milosgajdos/go-localize"
)

// ErrDuplicateID is returned when two landmarks share the same ID.
var ErrDuplicateID = errors.New("duplicate landmark id")

// Map is an immutable set of known landmarks.
type Map struct {
	// lms stores landmarks in the order they were supplied
	lms []localize.Landmark
	// idx maps landmark IDs to positions in lms
	idx map[int]int
}

// NewMap creates new landmark map from lms and returns it.
// The landmarks are copied, the order of lms is preserved.
// It returns error if lms contain duplicate IDs or non-finite positions.
func NewMap(lms []localize.Landmark) (*Map, error) {
	m := &Map{
		lms: make([]localize.Landmark, len(lms)),
		idx: make(map[int]int, len(lms)),
	}

	for i, l := range lms {
		if math.IsNaN(l.X) || math.IsNaN(l.Y) || math.IsInf(l.X, 0) || math.IsInf(l.Y, 0) {
			return nil, fmt.Errorf("invalid landmark %d position: [%v, %v]", l.ID, l.X, l.Y)
		}
		if _, ok := m.idx[l.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, l.ID)
		}
		m.idx[l.ID] = i
		m.lms[i] = l
	}

	return m, nil
}

// Len returns the number of landmarks in the map
func (m *Map) Len() int {
	return len(m.lms)
}

// Get returns landmark with the given id.
func (m *Map) Get(id int) (localize.Landmark, bool) {
	i, ok := m.idx[id]
	if !ok {
		return localize.Landmark{}, false
	}

	return m.lms[i], true
}

// Landmarks returns a copy of all map landmarks in map order.
func (m *Map) Landmarks() []localize.Landmark {
	lms := make([]localize.Landmark, len(m.lms))
	copy(lms, m.lms)

	return lms
}

// InRange returns landmarks whose Euclidean distance from [x, y] is at most r.
// Landmarks lying exactly at distance r are included. Map order is preserved.
func (m *Map) InRange(x, y, r float64) []localize.Landmark {
	var lms []localize.Landmark
	for _, l := range m.lms {
		if math.Hypot(l.X-x, l.Y-y) <= r {
			lms = append(lms, l)
		}
	}

	return lms
}
