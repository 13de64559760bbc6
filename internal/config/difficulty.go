package config

// Difficulty derives level-dependent spawn parameters from a SpawnConfig.
type Difficulty struct {
	cfg SpawnConfig
}

// NewDifficulty creates a difficulty schedule for the given spawn settings.
func NewDifficulty(cfg SpawnConfig) *Difficulty {
	return &Difficulty{cfg: cfg}
}

// Interval returns the number of ticks between waves at the given level.
// It never drops below MinInterval, and never below 1.
func (d *Difficulty) Interval(level int) int {
	interval := d.cfg.BaseInterval - level*d.cfg.IntervalStep
	if interval < d.cfg.MinInterval {
		interval = d.cfg.MinInterval
	}
	if interval < 1 {
		interval = 1
	}
	return interval
}

// WaveSize returns how many enemies spawn per wave for the given player count.
func (d *Difficulty) WaveSize(players int) int {
	if players <= 0 || d.cfg.PerPlayer <= 0 {
		return 0
	}
	return players * d.cfg.PerPlayer
}

// EnemySpeed returns the vertical speed of enemies spawned at the given level.
func (d *Difficulty) EnemySpeed(level int) float64 {
	return d.cfg.BaseSpeed + float64(level)*d.cfg.SpeedPerLevel
}

// Zigzag reports whether enemies spawned at the given level move sideways.
func (d *Difficulty) Zigzag(level int) bool {
	return d.cfg.ZigzagFromLevel > 0 && level >= d.cfg.ZigzagFromLevel
}

// CanAdvance reports whether progression past the given level is allowed.
func (d *Difficulty) CanAdvance(level int) bool {
	return level < d.cfg.MaxLevel
}

// MaxLevel returns the last reachable level.
func (d *Difficulty) MaxLevel() int {
	return d.cfg.MaxLevel
}

func clampF(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
