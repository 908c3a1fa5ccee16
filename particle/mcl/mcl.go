package mcl

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	localize "github.com/milosgajdos/go-localize"
	"github.com/milosgajdos/go-localize/landmark"
	"github.com/milosgajdos/go-localize/motion"
	"github.com/milosgajdos/go-localize/noise"
	"github.com/milosgajdos/go-localize/particle"
	"github.com/milosgajdos/go-localize/sample"
	"github.com/milosgajdos/go-localize/sensor"
	"github.com/milosgajdos/matrix"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// DefaultNoMatch is the default likelihood of an observation with no landmark in sensor range.
// It leaves the particle weight unchanged.
const DefaultNoMatch = 1.0

// ErrNotInitialized is returned when the filter is used before it has been initialized.
var ErrNotInitialized = errors.New("filter not initialized")

// Config is Monte Carlo Localization filter configuration
type Config struct {
	// ParticleCount specifies number of filter particles
	ParticleCount int
	// Workers limits the number of goroutines updating particle weights.
	// Non-positive value uses runtime.GOMAXPROCS.
	Workers int
	// SensorRange is the range of the landmark sensor used by Run
	SensorRange float64
	// StdPos are process noise standard deviations [x, y, theta] used by Run
	StdPos [3]float64
	// StdLandmark are observation standard deviations [x, y] used by Run
	StdLandmark [2]float64
	// NoMatch is the likelihood of an observation with no landmark in sensor range
	NoMatch float64
	// Resampler draws new particle generations; nil uses sample.Systematic
	Resampler localize.Resampler
	// Roughening scales the noise added to resampled particles:
	// zero disables roughening, negative value uses AlphaGauss
	Roughening float64
	// Logger logs filter diagnostics; nil disables logging
	Logger *zap.Logger
}

// DefaultConfig returns default filter configuration.
func DefaultConfig() *Config {
	return &Config{
		ParticleCount: 100,
		SensorRange:   50,
		StdPos:        [3]float64{0.3, 0.3, 0.01},
		StdLandmark:   [2]float64{0.3, 0.3},
		NoMatch:       DefaultNoMatch,
		Resampler:     sample.Systematic{},
	}
}

// MCL is Monte Carlo Localization filter a.k.a. particle filter localizer.
// It localizes an agent in a map of known landmarks.
type MCL struct {
	// m is the map of known landmarks
	m *landmark.Map
	// set stores filter particles
	set *particle.Set
	// model propagates particle poses
	model *motion.Bicycle
	// rng is the only source of randomness of the filter
	rng *rand.Rand
	// resampler draws new particle generations
	resampler localize.Resampler
	// c is filter configuration
	c Config
	// workers is the number of weight update goroutines
	workers int
	// log is filter logger
	log *zap.Logger
	// init is true once the particles have been initialized
	init bool
	// tick counts filter runs
	tick int
}

// New creates new MCL filter for the landmark map m with configuration c and returns it.
// Every random draw of the filter is made from src.
// It returns error if any of the parameters is invalid.
func New(m *landmark.Map, c *Config, src rand.Source) (*MCL, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid landmark map: %v", m)
	}

	if c == nil {
		return nil, fmt.Errorf("invalid config: %v", c)
	}

	if src == nil {
		return nil, fmt.Errorf("invalid random source: %v", src)
	}

	if c.NoMatch < 0 || math.IsNaN(c.NoMatch) || math.IsInf(c.NoMatch, 0) {
		return nil, fmt.Errorf("invalid no match likelihood: %v", c.NoMatch)
	}

	if math.IsNaN(c.Roughening) || math.IsInf(c.Roughening, 0) {
		return nil, fmt.Errorf("invalid roughening: %v", c.Roughening)
	}

	set, err := particle.NewSet(c.ParticleCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create particles: %w", err)
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	resampler := c.Resampler
	if resampler == nil {
		resampler = sample.Systematic{}
	}

	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("filter created",
		zap.Int("particles", c.ParticleCount),
		zap.Int("landmarks", m.Len()),
		zap.Int("workers", workers))

	return &MCL{
		m:         m,
		set:       set,
		model:     &motion.Bicycle{},
		rng:       rand.New(src),
		resampler: resampler,
		c:         *c,
		workers:   workers,
		log:       log,
	}, nil
}

// Init initializes filter particles by sampling poses around [x, y, theta]
// with standard deviations std. All particles are given unit weight.
// It returns error if std contains invalid values.
func (f *MCL) Init(x, y, theta float64, std [3]float64) error {
	q, err := noise.NewDiagonal(std[:], f.rng)
	if err != nil {
		return fmt.Errorf("failed to create initial noise: %w", err)
	}

	for i := 0; i < f.set.Len(); i++ {
		s := q.Sample()
		*f.set.At(i) = particle.Particle{
			ID:     i,
			X:      x + s.AtVec(0),
			Y:      y + s.AtVec(1),
			Theta:  theta + s.AtVec(2),
			Weight: 1.0,
		}
	}
	f.init = true

	f.log.Debug("filter initialized",
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.Float64("theta", theta))

	return nil
}

// InitParticles initializes the filter with copies of particles ps.
// It returns error if the number of particles does not match the filter particle count.
func (f *MCL) InitParticles(ps []particle.Particle) error {
	if err := f.set.Reset(ps); err != nil {
		return fmt.Errorf("failed to initialize particles: %w", err)
	}
	f.init = true

	return nil
}

// Initialized returns true if the filter particles have been initialized.
func (f *MCL) Initialized() bool {
	return f.init
}

// Predict propagates every particle by a time step dt given velocity and yaw rate.
// Gaussian process noise with standard deviations stdPos is added to each propagated pose.
// It returns error if the filter has not been initialized or if the propagation fails.
func (f *MCL) Predict(dt float64, stdPos [3]float64, velocity, yawRate float64) error {
	if !f.init {
		return ErrNotInitialized
	}

	q, err := noise.NewDiagonal(stdPos[:], f.rng)
	if err != nil {
		return fmt.Errorf("failed to create process noise: %w", err)
	}

	c := localize.Control{Dt: dt, Velocity: velocity, YawRate: yawRate}
	for i := 0; i < f.set.Len(); i++ {
		p := f.set.At(i)
		next, err := f.model.Propagate(p.Pose(), c, q.Sample())
		if err != nil {
			return fmt.Errorf("particle %d propagation failed: %w", i, err)
		}
		p.SetPose(next)
	}

	return nil
}

// UpdateWeights sets the weight of every particle to the likelihood of observations obs.
// Observations are transformed into the map frame of each particle and associated with
// the nearest landmark within sensorRange of the particle. Each matched observation
// multiplies the weight by a bivariate Gaussian density with standard deviations stdLandmark;
// each unmatched observation multiplies it by the configured no match likelihood.
// Weights are not normalized.
// It returns error if the filter has not been initialized or the parameters are invalid.
func (f *MCL) UpdateWeights(sensorRange float64, stdLandmark [2]float64, obs []localize.Observation) error {
	if !f.init {
		return ErrNotInitialized
	}

	if sensorRange < 0 || math.IsNaN(sensorRange) {
		return fmt.Errorf("invalid sensor range: %v", sensorRange)
	}

	lh, err := sensor.NewLikelihood(stdLandmark[0], stdLandmark[1])
	if err != nil {
		return fmt.Errorf("failed to create likelihood: %w", err)
	}

	n := f.set.Len()
	chunk := (n + f.workers - 1) / f.workers

	var g errgroup.Group
	g.SetLimit(f.workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := f.weigh(f.set.At(i), sensorRange, lh, obs); err != nil {
					return fmt.Errorf("particle %d weight update failed: %w", i, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// weigh computes the weight and associations of particle p.
func (f *MCL) weigh(p *particle.Particle, sensorRange float64, lh *sensor.Likelihood, obs []localize.Observation) error {
	lms := f.m.InRange(p.X, p.Y, sensorRange)
	pose := p.Pose()

	ids := make([]int, 0, len(obs))
	senseX := make([]float64, 0, len(obs))
	senseY := make([]float64, 0, len(obs))

	w := 1.0
	for _, o := range obs {
		t := sensor.ToWorld(pose, o)
		j := sensor.Nearest(t, lms)
		if j < 0 {
			w *= f.c.NoMatch
			continue
		}
		w *= lh.Prob(t.X-lms[j].X, t.Y-lms[j].Y)

		ids = append(ids, lms[j].ID)
		senseX = append(senseX, t.X)
		senseY = append(senseY, t.Y)
	}
	p.Weight = w

	return p.SetAssociations(ids, senseX, senseY)
}

// Resample replaces filter particles with a new generation drawn proportionally to their weights.
// Resampled particles carry over their weights until the next weight update.
// It returns error if the filter has not been initialized or if the resampling fails.
// If all the particle weights are zero the returned error wraps sample.ErrDegenerate
// and the particles are left untouched.
func (f *MCL) Resample() error {
	if !f.init {
		return ErrNotInitialized
	}

	indices, err := f.resampler.Resample(f.set.Weights(), f.rng)
	if err != nil {
		if errors.Is(err, sample.ErrDegenerate) {
			f.log.Warn("degenerate particle weights", zap.Int("tick", f.tick))
		}
		return fmt.Errorf("failed to resample particles: %w", err)
	}

	if err := f.set.Select(indices); err != nil {
		return fmt.Errorf("failed to select particles: %w", err)
	}

	if f.c.Roughening != 0 {
		if err := f.roughen(); err != nil {
			return fmt.Errorf("failed to roughen particles: %w", err)
		}
	}

	return nil
}

// roughen perturbs particle poses with noise drawn from the particle covariance.
func (f *MCL) roughen() error {
	n := f.set.Len()
	if n < 2 {
		return nil
	}

	// We need to calculate covariance matrix of particles
	cov, err := matrix.Cov(f.set.Poses(), "cols")
	if err != nil {
		return fmt.Errorf("failed to calculate covariance matrix: %w", err)
	}

	// randomly draw values with given particle covariance
	m, err := sample.WithCovN(cov, n, f.rng)
	if err != nil {
		return fmt.Errorf("failed to draw random particle perturbations: %w", err)
	}

	// if negative alpha is given, use the optimal value for Gaussian
	alpha := f.c.Roughening
	if alpha < 0 {
		alpha = AlphaGauss(3, n)
	}
	m.Scale(alpha, m)

	for c := 0; c < n; c++ {
		p := f.set.At(c)
		p.X += m.At(0, c)
		p.Y += m.At(1, c)
		p.Theta += m.At(2, c)
	}

	return nil
}

// Run runs one filter cycle for control c and observations obs:
// it predicts particle poses, updates their weights and resamples them.
// Run uses sensor range and noise parameters from the filter configuration.
// It returns the weighted mean pose estimate of the updated particles before resampling.
func (f *MCL) Run(c localize.Control, obs []localize.Observation) (localize.Estimate, error) {
	if !f.init {
		return nil, ErrNotInitialized
	}

	if err := f.Predict(c.Dt, f.c.StdPos, c.Velocity, c.YawRate); err != nil {
		return nil, err
	}

	if err := f.UpdateWeights(f.c.SensorRange, f.c.StdLandmark, obs); err != nil {
		return nil, err
	}

	est, err := f.set.Estimate()
	if err != nil {
		return nil, fmt.Errorf("failed to estimate pose: %w", err)
	}

	f.log.Debug("weights updated",
		zap.Int("tick", f.tick),
		zap.Int("observations", len(obs)),
		zap.Float64("ess", f.set.ESS()))

	if err := f.Resample(); err != nil {
		return nil, err
	}
	f.tick++

	return est, nil
}

// Estimate returns weighted mean pose estimate of the current filter particles.
// It returns error if the filter has not been initialized.
func (f *MCL) Estimate() (localize.Estimate, error) {
	if !f.init {
		return nil, ErrNotInitialized
	}

	est, err := f.set.Estimate()
	if err != nil {
		return nil, err
	}

	return est, nil
}

// Particles returns a copy of filter particles
func (f *MCL) Particles() []particle.Particle {
	return f.set.Particles()
}

// Weights returns a vector containing filter particle weights
func (f *MCL) Weights() mat.Vector {
	w := f.set.Weights()

	return mat.NewVecDense(len(w), w)
}

// Best returns a copy of the particle with the highest weight
func (f *MCL) Best() particle.Particle {
	return f.set.Best()
}

// Associations returns associations of the best particle
func (f *MCL) Associations() []localize.Association {
	best := f.set.Best()

	return best.AssociationList()
}

// AssociationString returns space separated IDs of landmarks associated with the best particle
func (f *MCL) AssociationString() string {
	best := f.set.Best()

	return best.AssociationString()
}

// SenseCoord returns space separated map frame coordinates of the observations
// associated by the best particle on axis a
func (f *MCL) SenseCoord(a particle.Axis) string {
	best := f.set.Best()

	return best.SenseCoord(a)
}

// AlphaGauss computes optimal regularization parameter for Gaussian kernel and returns it.
func AlphaGauss(r, c int) float64 {
	return math.Pow(4.0/(float64(c)*(float64(r)+2.0)), 1/(float64(r)+4.0))
}
