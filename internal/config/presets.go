package config

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/san-kum/orrery/internal/body"
)

const (
	SunMass  = 1.989e30
	AU       = 1.496e11
	MoonDist = 3.844e8
	MoonVel  = 1022.0

	DefaultRandomBodies = 24
	DefaultRandomSeed   = 1
)

type planet struct {
	name  string
	dist  float64
	speed float64
	mass  float64
}

var planets = []planet{
	{"mercury", 5.79e10, 47362, 3.301e23},
	{"venus", 1.082e11, 35020, 4.867e24},
	{"earth", AU, 29783, 5.972e24},
	{"mars", 2.279e11, 24077, 6.39e23},
	{"jupiter", 7.785e11, 13060, 1.898e27},
	{"saturn", 1.434e12, 9680, 5.683e26},
	{"uranus", 2.871e12, 6810, 8.681e25},
	{"neptune", 4.498e12, 5430, 1.024e26},
	{"pluto", 5.906e12, 4748, 1.303e22},
}

func (p planet) config() BodyConfig {
	return BodyConfig{
		Name:     p.name,
		Position: Vec{X: p.dist},
		Velocity: Vec{Y: p.speed},
		Mass:     p.mass,
	}
}

func sun() BodyConfig {
	return BodyConfig{Name: "sun", Mass: SunMass}
}

// SolarSystem returns the sun, the nine classical planets on the +x axis
// moving in +y, and the moon offset from the earth.
func SolarSystem() []BodyConfig {
	out := []BodyConfig{sun()}
	for _, p := range planets {
		out = append(out, p.config())
	}
	earth := planets[2]
	out = append(out, BodyConfig{
		Name:     "moon",
		Position: Vec{X: earth.dist + MoonDist},
		Velocity: Vec{Y: earth.speed + MoonVel},
		Mass:     7.348e22,
	})
	return out
}

func innerSystem() []BodyConfig {
	out := []BodyConfig{sun()}
	for _, p := range planets[:4] {
		out = append(out, p.config())
	}
	return out
}

// Binary is the earth at rest at the origin with the sun at rest one AU
// along +x.
func Binary() []BodyConfig {
	return []BodyConfig{
		{Name: "earth", Mass: 5.972e24},
		{Name: "sun", Position: Vec{X: AU}, Mass: SunMass},
	}
}

// RandomBodies places a central star and n-1 bodies on roughly circular
// orbits between 0.3 and 5 AU. The same seed always yields the same set.
func RandomBodies(n int, seed uint64) []BodyConfig {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([]BodyConfig, 0, n)
	out = append(out, BodyConfig{Name: "star", Mass: SunMass})
	for i := 1; i < n; i++ {
		r := (0.3 + rng.Float64()*4.7) * AU
		theta := rng.Float64() * 2 * math.Pi
		v := math.Sqrt(body.G * SunMass / r)
		sin, cos := math.Sincos(theta)
		out = append(out, BodyConfig{
			Name:     "b" + strconv.Itoa(i),
			Position: Vec{X: r * cos, Y: r * sin},
			Velocity: Vec{X: -v * sin, Y: v * cos},
			Mass:     math.Pow(10, 20+rng.Float64()*6),
		})
	}
	return out
}

var Presets = map[string]func() *Config{
	"solar": func() *Config {
		return preset(DefaultDt, SolarSystem())
	},
	"inner": func() *Config {
		return preset(3600, innerSystem())
	},
	"binary": func() *Config {
		return preset(DefaultDt, Binary())
	},
	"random": func() *Config {
		c := preset(3600, RandomBodies(DefaultRandomBodies, DefaultRandomSeed))
		c.Seed = DefaultRandomSeed
		return c
	},
}

func preset(dt float64, bodies []BodyConfig) *Config {
	c := DefaultConfig()
	c.Dt = dt
	c.Bodies = bodies
	return c
}

// GetPreset returns a complete configuration for the named preset, or nil.
// Each call builds a new value.
func GetPreset(name string) *Config {
	f, ok := Presets[name]
	if !ok {
		return nil
	}
	c := f()
	c.Preset = name
	return c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
