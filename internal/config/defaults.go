package config

import (
	_ "embed"
)

//go:embed defaults/skyfall.yaml
var defaultShooterYAML []byte

// DefaultShooterConfig returns the built-in configuration.
func DefaultShooterConfig() ShooterConfig {
	return ShooterConfig{
		Field: FieldConfig{
			Width:     800,
			Height:    600,
			MinWidth:  200,
			MinHeight: 200,
			MaxWidth:  3840,
			MaxHeight: 2160,
			Margin:    20,
			DespawnY:  1000,
		},
		Player: PlayerConfig{
			Speed:       5,
			SpawnOffset: 60,
			ReloadTicks: 20,
			Width:       40,
			Height:      40,
		},
		Bullets: BulletConfig{
			Speed:     10,
			Width:     6,
			Height:    12,
			KillScore: 10,
		},
		Enemies: EnemyConfig{
			Width:      40,
			Height:     40,
			SpawnY:     -20,
			ZigzagStep: 2,
		},
		Spawn: SpawnConfig{
			BaseInterval:    60,
			IntervalStep:    5,
			MinInterval:     5,
			BaseSpeed:       2,
			SpeedPerLevel:   0.5,
			ZigzagFromLevel: 3,
			PerPlayer:       2,
			MaxLevel:        11,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			TickRate:    60,
			MinPlayers:  1,
			Codec:       "json",
			HostKeyPath: ".ssh/skyfall_ed25519",
			IdleTimeout: 30,
			DBPath:      "~/.skyfall/runs.db",
			Metrics:     true,
		},
	}
}

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultShooterYAML
}
