package sensor

import (
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// Sample is one ambient light reading in lux.
type Sample uint32

// MaxLux is the top of the simulated sensor range.
const MaxLux Sample = 4000

// Light simulates an ambient light sensor: a slow daylight swing with read noise.
type Light struct {
	mu        sync.Mutex
	rng       *rand.Rand
	reads     int
	base      float64
	amplitude float64
	period    int
	noise     float64
}

func NewLight(seed uint64) *Light {
	return &Light{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		base:      float64(MaxLux) / 2,
		amplitude: float64(MaxLux) / 3,
		period:    512,
		noise:     25,
	}
}

func (s *Light) Read() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	phase := 2 * math.Pi * float64(s.reads%s.period) / float64(s.period)
	s.reads++

	lux := s.base + s.amplitude*math.Sin(phase) + s.rng.NormFloat64()*s.noise
	return clamp(lux)
}

func clamp(lux float64) Sample {
	switch {
	case lux <= 0:
		return 0
	case lux >= float64(MaxLux):
		return MaxLux
	default:
		return Sample(math.Round(lux))
	}
}

// Constant always reads the same value.
type Constant Sample

func (c Constant) Read() Sample {
	return Sample(c)
}

// Sequence reads start, start+1, start+2, ...
type Sequence struct {
	next atomic.Uint32
}

func NewSequence(start Sample) *Sequence {
	s := &Sequence{}
	s.next.Store(uint32(start))
	return s
}

func (s *Sequence) Read() Sample {
	return Sample(s.next.Add(1) - 1)
}
