package particle

import (
	"fmt"
	"strconv"
	"strings"

	localize "github.com/milosgajdos/go-localize"
)

// Axis selects a map frame coordinate axis.
type Axis int

const (
	// AxisX is the x axis
	AxisX Axis = iota
	// AxisY is the y axis
	AxisY
)

// Particle is a weighted pose hypothesis.
type Particle struct {
	// ID identifies the particle within a single generation
	ID int
	// X is position on the x axis of the map
	X float64
	// Y is position on the y axis of the map
	Y float64
	// Theta is heading in radians
	Theta float64
	// Weight is unnormalized particle likelihood
	Weight float64
	// Associations stores IDs of landmarks matched in the latest update
	Associations []int
	// SenseX stores map frame x coordinates of the matched observations
	SenseX []float64
	// SenseY stores map frame y coordinates of the matched observations
	SenseY []float64
}

// Pose returns particle pose.
func (p *Particle) Pose() localize.Pose {
	return localize.Pose{X: p.X, Y: p.Y, Theta: p.Theta}
}

// SetPose sets particle pose to pose.
func (p *Particle) SetPose(pose localize.Pose) {
	p.X, p.Y, p.Theta = pose.X, pose.Y, pose.Theta
}

// SetAssociations replaces particle associations with landmark ids
// and the map frame coordinates of the observations they were matched with.
// It returns error if the slices differ in length.
func (p *Particle) SetAssociations(ids []int, senseX, senseY []float64) error {
	if len(ids) != len(senseX) || len(ids) != len(senseY) {
		return fmt.Errorf("association size mismatch: ids %d, x %d, y %d", len(ids), len(senseX), len(senseY))
	}

	p.Associations = append(p.Associations[:0], ids...)
	p.SenseX = append(p.SenseX[:0], senseX...)
	p.SenseY = append(p.SenseY[:0], senseY...)

	return nil
}

// AssociationList returns particle associations in observation order.
func (p *Particle) AssociationList() []localize.Association {
	as := make([]localize.Association, len(p.Associations))
	for i := range as {
		as[i] = localize.Association{
			LandmarkID: p.Associations[i],
			X:          p.SenseX[i],
			Y:          p.SenseY[i],
		}
	}

	return as
}

// AssociationString returns space separated IDs of the associated landmarks.
func (p *Particle) AssociationString() string {
	var sb strings.Builder
	for i, id := range p.Associations {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(id))
	}

	return sb.String()
}

// SenseCoord returns space separated map frame coordinates of the associated observations on axis a.
func (p *Particle) SenseCoord(a Axis) string {
	vals := p.SenseX
	if a == AxisY {
		vals = p.SenseY
	}

	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}

	return sb.String()
}

// clone returns a deep copy of p.
func (p *Particle) clone() Particle {
	c := *p
	c.Associations = append([]int(nil), p.Associations...)
	c.SenseX = append([]float64(nil), p.SenseX...)
	c.SenseY = append([]float64(nil), p.SenseY...)

	return c
}
