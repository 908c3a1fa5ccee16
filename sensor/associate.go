package sensor

import (
	"math"

	localize "github.com/milosgajdos/go-localize"
)

// Nearest returns the index of the landmark in lms nearest to o.
// Ties are resolved in favour of the landmark encountered first.
// It returns -1 if lms is empty.
func Nearest(o localize.Observation, lms []localize.Landmark) int {
	idx := -1
	minDist := math.Inf(1)
	for i, l := range lms {
		if d := math.Hypot(o.X-l.X, o.Y-l.Y); d < minDist {
			minDist = d
			idx = i
		}
	}

	return idx
}

// Associate returns the index of the nearest landmark in lms for every observation in obs.
// Observations with no candidate landmark are associated with -1.
func Associate(obs []localize.Observation, lms []localize.Landmark) []int {
	indices := make([]int, len(obs))
	for i := range obs {
		indices[i] = Nearest(obs[i], lms)
	}

	return indices
}
