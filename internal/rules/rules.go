// Package rules maps levels to the rule set that governs them.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultLevelsYAML []byte

// GoalType identifies what a level asks the players to do.
type GoalType string

const (
	GoalScore GoalType = "score" // Reach a total score
	GoalAvoid GoalType = "avoid" // Let enemies pass the bottom of the field
)

// Valid reports whether t is a known goal type.
func (t GoalType) Valid() bool {
	return t == GoalScore || t == GoalAvoid
}

// Goal is the condition that completes a level.
type Goal struct {
	Type  GoalType `yaml:"type" json:"type" msgpack:"type"`
	Value int      `yaml:"value" json:"value" msgpack:"value"`
}

// LevelRules parameterizes the simulation for one level.
type LevelRules struct {
	CanFire bool `yaml:"can_fire" json:"canFire" msgpack:"canFire"`
	Goal    Goal `yaml:"goal" json:"goal" msgpack:"goal"`
}

// Entry is one row of the rules table.
type Entry struct {
	Level      int `yaml:"level"`
	LevelRules `yaml:",inline"`
}

// Fallback is returned for levels the table does not list.
var Fallback = LevelRules{CanFire: true, Goal: Goal{Type: GoalScore, Value: 1000}}

// System is an immutable level rules table. It is safe for concurrent use.
type System struct {
	byLevel map[int]LevelRules
}

type document struct {
	Levels []Entry `yaml:"levels"`
}

// New builds a table from in-memory entries.
func New(entries []Entry) (*System, error) {
	s := &System{byLevel: make(map[int]LevelRules, len(entries))}
	var errs []error
	for _, e := range entries {
		switch {
		case e.Level < 1:
			errs = append(errs, fmt.Errorf("level %d: level must be at least 1", e.Level))
		case !e.Goal.Type.Valid():
			errs = append(errs, fmt.Errorf("level %d: unknown goal type %q", e.Level, e.Goal.Type))
		case e.Goal.Value <= 0:
			errs = append(errs, fmt.Errorf("level %d: goal value must be positive", e.Level))
		default:
			if _, dup := s.byLevel[e.Level]; dup {
				errs = append(errs, fmt.Errorf("level %d: duplicate entry", e.Level))
				continue
			}
			s.byLevel[e.Level] = e.LevelRules
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("rules: invalid table: %w", errors.Join(errs...))
	}
	return s, nil
}

// Parse builds a table from a YAML document with a top-level "levels" list.
func Parse(data []byte) (*System, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: parse: %w", err)
	}
	return New(doc.Levels)
}

// Load reads a custom rules table from path.
func Load(path string) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(data)
}

var (
	defaultOnce   sync.Once
	defaultSystem *System
)

// Default returns the built-in table.
func Default() *System {
	defaultOnce.Do(func() {
		s, err := Parse(defaultLevelsYAML)
		if err != nil {
			panic(err)
		}
		defaultSystem = s
	})
	return defaultSystem
}

// ForLevel returns the rules for level, or Fallback when the table has no entry.
func (s *System) ForLevel(level int) LevelRules {
	if s != nil {
		if r, ok := s.byLevel[level]; ok {
			return r
		}
	}
	return Fallback
}

// Levels lists the table entries ordered by level.
func (s *System) Levels() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.byLevel))
	for level, r := range s.byLevel {
		out = append(out, Entry{Level: level, LevelRules: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}
