package sensor

import (
	"math"

	localize "github.com/milosgajdos/go-localize"
)

// ToWorld transforms sensor frame observation o into the map frame
// assuming the sensor is located at pose p.
func ToWorld(p localize.Pose, o localize.Observation) localize.Observation {
	sin, cos := math.Sincos(p.Theta)

	return localize.Observation{
		X: p.X + cos*o.X - sin*o.Y,
		Y: p.Y + sin*o.X + cos*o.Y,
	}
}

// ToLocal transforms map frame point w into the sensor frame of pose p.
// It is the inverse of ToWorld.
func ToLocal(p localize.Pose, w localize.Observation) localize.Observation {
	sin, cos := math.Sincos(p.Theta)
	dx, dy := w.X-p.X, w.Y-p.Y

	return localize.Observation{
		X: cos*dx + sin*dy,
		Y: -sin*dx + cos*dy,
	}
}
