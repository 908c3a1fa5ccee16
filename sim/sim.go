package sim

import (
	"fmt"
	"math"

	localize "github.com/milosgajdos/go-localize"
	"github.com/milosgajdos/go-localize/landmark"
	"github.com/milosgajdos/go-localize/motion"
	"github.com/milosgajdos/go-localize/sensor"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewMap creates a map of n landmarks placed uniformly at random
// in the rectangle [0, width] x [0, height] and returns it.
// Landmarks are given IDs 1 to n.
// It returns error if n is negative or the rectangle is invalid.
func NewMap(n int, width, height float64, rng *rand.Rand) (*landmark.Map, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid landmark count: %d", n)
	}

	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("invalid map size: %v x %v", width, height)
	}

	ux := distuv.Uniform{Min: 0, Max: width, Src: rng}
	uy := distuv.Uniform{Min: 0, Max: height, Src: rng}

	lms := make([]localize.Landmark, n)
	for i := range lms {
		lms[i] = localize.Landmark{ID: i + 1, X: ux.Rand(), Y: uy.Rand()}
	}

	return landmark.NewMap(lms)
}

// Vehicle is a simulated vehicle driven by a bicycle model.
type Vehicle struct {
	// pose is the ground truth pose
	pose localize.Pose
	// model propagates the vehicle pose
	model *motion.Bicycle
	// q is optional process noise
	q localize.Noise
}

// NewVehicle creates new vehicle at pose p with process noise q and returns it.
// q may be nil in which case the vehicle follows its controls exactly.
// It returns error if q is not three dimensional.
func NewVehicle(p localize.Pose, q localize.Noise) (*Vehicle, error) {
	if q != nil && len(q.Mean()) != 3 {
		return nil, fmt.Errorf("invalid process noise dimension: %d", len(q.Mean()))
	}

	return &Vehicle{
		pose:  p,
		model: &motion.Bicycle{},
		q:     q,
	}, nil
}

// Pose returns ground truth vehicle pose
func (v *Vehicle) Pose() localize.Pose {
	return v.pose
}

// Step moves the vehicle given control c.
// It returns error if the vehicle fails to be propagated.
func (v *Vehicle) Step(c localize.Control) error {
	var err error
	if v.q == nil {
		v.pose, err = v.model.Propagate(v.pose, c, nil)
		return err
	}
	v.pose, err = v.model.Propagate(v.pose, c, v.q.Sample())

	return err
}

// Sensor is a simulated landmark sensor.
type Sensor struct {
	// Range is maximum landmark detection range
	Range float64
	// r is optional measurement noise
	r localize.Noise
}

// NewSensor creates new sensor with detection range rng and measurement noise r and returns it.
// r may be nil in which case the observations are exact.
// It returns error if rng is negative or r is not two dimensional.
func NewSensor(rng float64, r localize.Noise) (*Sensor, error) {
	if rng < 0 || math.IsNaN(rng) {
		return nil, fmt.Errorf("invalid sensor range: %v", rng)
	}

	if r != nil && len(r.Mean()) != 2 {
		return nil, fmt.Errorf("invalid measurement noise dimension: %d", len(r.Mean()))
	}

	return &Sensor{Range: rng, r: r}, nil
}

// Observe returns sensor frame observations of the landmarks in m within sensor range of pose p.
// Observations are returned in map order.
func (s *Sensor) Observe(p localize.Pose, m *landmark.Map) []localize.Observation {
	lms := m.InRange(p.X, p.Y, s.Range)

	obs := make([]localize.Observation, len(lms))
	for i, l := range lms {
		obs[i] = sensor.ToLocal(p, localize.Observation{X: l.X, Y: l.Y})
		if s.r != nil {
			n := s.r.Sample()
			obs[i].X += n.AtVec(0)
			obs[i].Y += n.AtVec(1)
		}
	}

	return obs
}
