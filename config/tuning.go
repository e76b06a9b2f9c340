package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/milk9111/slingshot/physics"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// Tuning holds the gameplay constants of the play mode.
type Tuning struct {
	Gravity            float64 `yaml:"gravity"`
	TimeStep           float64 `yaml:"time_step"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`

	BirdsPerRound      int           `yaml:"birds_per_round"`
	PigPoints          int           `yaml:"pig_points"`
	DestroyImpulse     float64       `yaml:"destroy_impulse"`
	LaunchMultiplier   float64       `yaml:"launch_multiplier"`
	KeepScoreOnRestart bool          `yaml:"keep_score_on_restart"`
	GameOverDelay      time.Duration `yaml:"game_over_delay"`

	BirdPickRadius float64 `yaml:"bird_pick_radius"`
	BoxPickRadius  float64 `yaml:"box_pick_radius"`
	PigPickRadius  float64 `yaml:"pig_pick_radius"`

	BoundsMaxX float64 `yaml:"bounds_max_x"`
	BoundsMinY float64 `yaml:"bounds_min_y"`
	RestSpeed  float64 `yaml:"rest_speed"`

	LaunchOrigin    Point   `yaml:"launch_origin"`
	GroundY         float64 `yaml:"ground_y"`
	GroundHalfWidth float64 `yaml:"ground_half_width"`

	BirdRadius float64 `yaml:"bird_radius"`
	PigRadius  float64 `yaml:"pig_radius"`
	BoxWidth   float64 `yaml:"box_width"`
	BoxHeight  float64 `yaml:"box_height"`

	Materials Materials `yaml:"materials"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Vec() physics.Vec {
	return physics.Vec{X: p.X, Y: p.Y}
}

type Materials struct {
	Ground MaterialSpec `yaml:"ground"`
	Box    MaterialSpec `yaml:"box"`
	Pig    MaterialSpec `yaml:"pig"`
	Bird   MaterialSpec `yaml:"bird"`
}

type MaterialSpec struct {
	Density    float64 `yaml:"density"`
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
}

func (m MaterialSpec) Material() physics.Material {
	return physics.Material{Density: m.Density, Friction: m.Friction, Elasticity: m.Elasticity}
}

// DefaultTuning returns the built-in tuning, used when no YAML can be read.
func DefaultTuning() Tuning {
	return Tuning{
		Gravity:            -10,
		TimeStep:           1.0 / 60.0,
		VelocityIterations: 8,
		PositionIterations: 3,
		BirdsPerRound:      3,
		PigPoints:          100,
		DestroyImpulse:     1.0,
		LaunchMultiplier:   5,
		GameOverDelay:      500 * time.Millisecond,
		BirdPickRadius:     0.5,
		BoxPickRadius:      1.0,
		PigPickRadius:      0.3,
		BoundsMaxX:         50,
		BoundsMinY:         -10,
		RestSpeed:          0.1,
		LaunchOrigin:       Point{X: 5, Y: 1},
		GroundY:            0,
		GroundHalfWidth:    100,
		BirdRadius:         0.3,
		PigRadius:          0.3,
		BoxWidth:           1,
		BoxHeight:          1,
		Materials: Materials{
			Ground: MaterialSpec{Friction: 0.8},
			Box:    MaterialSpec{Density: 1, Friction: 0.6, Elasticity: 0.1},
			Pig:    MaterialSpec{Density: 1, Friction: 0.5, Elasticity: 0.2},
			Bird:   MaterialSpec{Density: 2, Friction: 0.5, Elasticity: 0.4},
		},
	}
}

// LoadTuning loads gameplay tuning.
// Search order: customPath -> ./configs/tuning.yaml -> embedded default.
func LoadTuning(customPath string) (Tuning, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Tuning{}, fmt.Errorf("config: read tuning %s: %w", customPath, err)
		}
		return ParseTuning(data)
	}

	if data, err := os.ReadFile("configs/tuning.yaml"); err == nil {
		if t, err := ParseTuning(data); err == nil {
			return t, nil
		}
	}

	t, err := ParseTuning(defaultTuningYAML)
	if err != nil {
		return DefaultTuning(), nil
	}
	return t, nil
}

// ParseTuning decodes YAML over the defaults, so omitted keys keep their default value.
func ParseTuning(data []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: parse tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TimeStep <= 0:
		return fmt.Errorf("config: time_step must be positive, got %v", t.TimeStep)
	case t.BirdsPerRound < 1:
		return fmt.Errorf("config: birds_per_round must be at least 1, got %d", t.BirdsPerRound)
	case t.BirdRadius <= 0 || t.PigRadius <= 0:
		return fmt.Errorf("config: bird_radius and pig_radius must be positive")
	case t.BoxWidth <= 0 || t.BoxHeight <= 0:
		return fmt.Errorf("config: box_width and box_height must be positive")
	}
	return nil
}
