// Package config provides YAML-based configuration loading and spawn difficulty
// derivation for the shooter server.
package config

import (
	"errors"
	"fmt"
	"math"
)

// ShooterConfig contains all tunable parameters of the game and its server.
type ShooterConfig struct {
	Field   FieldConfig  `yaml:"field"`
	Player  PlayerConfig `yaml:"player"`
	Bullets BulletConfig `yaml:"bullets"`
	Enemies EnemyConfig  `yaml:"enemies"`
	Spawn   SpawnConfig  `yaml:"spawn"`
	Server  ServerConfig `yaml:"server"`
}

// FieldConfig defines the play field geometry in pixels.
type FieldConfig struct {
	Width     float64 `yaml:"width"`      // Used when the first client sends no dimensions
	Height    float64 `yaml:"height"`     // Used when the first client sends no dimensions
	MinWidth  float64 `yaml:"min_width"`  // Client-provided dimensions are clamped to these bounds
	MinHeight float64 `yaml:"min_height"` //
	MaxWidth  float64 `yaml:"max_width"`  //
	MaxHeight float64 `yaml:"max_height"` //
	Margin    float64 `yaml:"margin"`     // Horizontal inset players and zigzag enemies stay within
	DespawnY  float64 `yaml:"despawn_y"`  // Enemies below this line are removed and count as avoided
}

// PlayerConfig defines player movement and firing.
type PlayerConfig struct {
	Speed       float64 `yaml:"speed"`        // Pixels per tick
	SpawnOffset float64 `yaml:"spawn_offset"` // Distance of the spawn line from the field bottom
	ReloadTicks int     `yaml:"reload_ticks"` // Cooldown after each shot
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
}

// BulletConfig defines projectile behavior.
type BulletConfig struct {
	Speed     float64 `yaml:"speed"` // Pixels per tick, upward
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	KillScore int     `yaml:"kill_score"` // Score awarded per destroyed enemy
}

// EnemyConfig defines enemy geometry and motion.
type EnemyConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	SpawnY     float64 `yaml:"spawn_y"`     // Start line, above the visible field
	ZigzagStep float64 `yaml:"zigzag_step"` // Horizontal pixels per tick for zigzag enemies
}

// SpawnConfig defines the level-dependent spawn cadence and wave parameters.
type SpawnConfig struct {
	BaseInterval    int     `yaml:"base_interval"`     // Interval before the level reduction
	IntervalStep    int     `yaml:"interval_step"`     // Interval reduction per level
	MinInterval     int     `yaml:"min_interval"`      // Lower bound for the interval, must be >= 1
	BaseSpeed       float64 `yaml:"base_speed"`        // Enemy speed before the level bonus
	SpeedPerLevel   float64 `yaml:"speed_per_level"`   //
	ZigzagFromLevel int     `yaml:"zigzag_from_level"` // First level that spawns zigzag enemies
	PerPlayer       int     `yaml:"per_player"`        // Enemies per connected player per wave
	MaxLevel        int     `yaml:"max_level"`         // Progression stops here
}

// ServerConfig defines the transport and hosting parameters.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	TickRate      int    `yaml:"tick_rate"`   // Simulation ticks per second
	MinPlayers    int    `yaml:"min_players"` // Players required before the run starts
	Codec         string `yaml:"codec"`       // Default wire codec when the client does not ask for one
	SSHAddr       string `yaml:"ssh_addr"`    // Empty disables SSH hosting
	HostKeyPath   string `yaml:"host_key"`
	IdleTimeout   int    `yaml:"idle_timeout"` // Minutes before idle SSH sessions are closed
	DBPath        string `yaml:"db"`
	RulesPath     string `yaml:"rules"`     // Custom level rules table, empty uses the built-in one
	DialoguesPath string `yaml:"dialogues"` // Custom dialogue table, empty uses the built-in one
	Metrics       bool   `yaml:"metrics"`   // Expose /metrics
}

// Validate rejects configurations the simulation cannot run with.
func (c ShooterConfig) Validate() error {
	var errs []error

	if c.Field.Margin < 0 {
		errs = append(errs, errors.New("field.margin must not be negative"))
	}
	if c.Field.MinWidth <= 2*c.Field.Margin {
		errs = append(errs, fmt.Errorf("field.min_width %.0f must exceed twice the margin", c.Field.MinWidth))
	}
	if c.Field.MaxWidth < c.Field.MinWidth || c.Field.MaxHeight < c.Field.MinHeight {
		errs = append(errs, errors.New("field maximum dimensions must not be below the minimums"))
	}
	if c.Field.MinHeight <= 0 {
		errs = append(errs, errors.New("field.min_height must be positive"))
	}
	if c.Player.ReloadTicks < 0 {
		errs = append(errs, errors.New("player.reload_ticks must not be negative"))
	}
	if c.Bullets.Speed <= 0 {
		errs = append(errs, errors.New("bullets.speed must be positive"))
	}
	if c.Spawn.MinInterval < 1 {
		errs = append(errs, errors.New("spawn.min_interval must be at least 1"))
	}
	if c.Spawn.MaxLevel < 1 {
		errs = append(errs, errors.New("spawn.max_level must be at least 1"))
	}
	if c.Spawn.PerPlayer < 0 {
		errs = append(errs, errors.New("spawn.per_player must not be negative"))
	}
	if c.Server.TickRate < 1 {
		errs = append(errs, errors.New("server.tick_rate must be at least 1"))
	}
	if c.Server.MinPlayers < 1 {
		errs = append(errs, errors.New("server.min_players must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// ClampDimensions fits client-provided field dimensions into the configured
// bounds. Zero, negative and non-finite values select the configured defaults.
func (c FieldConfig) ClampDimensions(width, height float64) (float64, float64) {
	if !usableDimension(width) {
		width = c.Width
	}
	if !usableDimension(height) {
		height = c.Height
	}
	return clampF(width, c.MinWidth, c.MaxWidth), clampF(height, c.MinHeight, c.MaxHeight)
}

func usableDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
