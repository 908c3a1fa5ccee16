package localize

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Pose is a 2D pose of the localized agent.
type Pose struct {
	// X is the position on the x axis of the map
	X float64
	// Y is the position on the y axis of the map
	Y float64
	// Theta is heading in radians
	Theta float64
}

// Landmark is a known map landmark.
type Landmark struct {
	// ID identifies the landmark in the map
	ID int
	// X is landmark position on the x axis of the map
	X float64
	// Y is landmark position on the y axis of the map
	Y float64
}

// Observation is a single detected point.
// Depending on context it is expressed either in the sensor frame
// of the agent or in the map frame.
type Observation struct {
	X float64
	Y float64
}

// Control is a single control input of the motion model.
type Control struct {
	// Dt is time elapsed since the previous control
	Dt float64
	// Velocity is forward velocity
	Velocity float64
	// YawRate is heading change rate in radians per unit of time
	YawRate float64
}

// Association pairs an observation with the landmark it was matched to.
type Association struct {
	// LandmarkID is the ID of the matched landmark
	LandmarkID int
	// X is the map frame x coordinate of the observation
	X float64
	// Y is the map frame y coordinate of the observation
	Y float64
}

// Estimate is a pose estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
}

// Resampler draws particle indices proportionally to their weights
type Resampler interface {
	// Resample returns len(w) indices into w drawn using rng
	Resample(w []float64, rng *rand.Rand) ([]int, error)
}
