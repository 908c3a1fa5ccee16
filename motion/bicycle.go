package motion

import (
	"fmt"
	"math"

	localize "github.com/milosgajdos/go-localize"
	"gonum.org/v1/gonum/mat"
)

// MinYawRate is the smallest yaw rate magnitude propagated along an arc.
// Smaller yaw rates are treated as driving straight.
const MinYawRate = 1e-5

// Bicycle is a kinematic bicycle model with constant velocity and yaw rate.
type Bicycle struct{}

// Propagate propagates pose p to the next step given control c and process noise q.
// q is added to [x, y, theta] after the deterministic update; nil q adds no noise.
// Heading is not wrapped.
// It returns error if q has invalid dimension or c is not finite.
func (b *Bicycle) Propagate(p localize.Pose, c localize.Control, q mat.Vector) (localize.Pose, error) {
	if q != nil && q.Len() != 3 {
		return localize.Pose{}, fmt.Errorf("invalid noise vector dimension: %d", q.Len())
	}

	for _, v := range []float64{c.Dt, c.Velocity, c.YawRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return localize.Pose{}, fmt.Errorf("invalid control: %+v", c)
		}
	}

	next := p
	if math.Abs(c.YawRate) < MinYawRate {
		next.X += c.Velocity * c.Dt * math.Cos(p.Theta)
		next.Y += c.Velocity * c.Dt * math.Sin(p.Theta)
	} else {
		r := c.Velocity / c.YawRate
		next.Theta = p.Theta + c.YawRate*c.Dt
		next.X += r * (math.Sin(next.Theta) - math.Sin(p.Theta))
		next.Y += r * (math.Cos(p.Theta) - math.Cos(next.Theta))
	}

	if q != nil {
		next.X += q.AtVec(0)
		next.Y += q.AtVec(1)
		next.Theta += q.AtVec(2)
	}

	return next, nil
}
