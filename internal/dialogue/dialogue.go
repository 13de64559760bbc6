// Package dialogue provides the story lines shown when levels start and end.
package dialogue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed dialogues.yaml
var defaultDialoguesYAML []byte

// Line is one spoken line.
type Line struct {
	Speaker string `yaml:"speaker" json:"playerName" msgpack:"playerName"`
	Text    string `yaml:"text" json:"dialogue" msgpack:"dialogue"`
}

// Dialogue holds the lines played before and after one level.
type Dialogue struct {
	Level int    `yaml:"level" json:"level" msgpack:"level"`
	Intro []Line `yaml:"intro" json:"levelIntro" msgpack:"levelIntro"`
	Outro []Line `yaml:"outro" json:"levelOutro" msgpack:"levelOutro"`
}

// System is an immutable dialogue table keyed by level.
type System struct {
	byLevel map[int]Dialogue
}

type document struct {
	Dialogues []Dialogue `yaml:"dialogues"`
}

// New builds a table from in-memory dialogues.
func New(dialogues []Dialogue) (*System, error) {
	s := &System{byLevel: make(map[int]Dialogue, len(dialogues))}
	var errs []error
	for _, d := range dialogues {
		if d.Level < 1 {
			errs = append(errs, fmt.Errorf("level %d: level must be at least 1", d.Level))
			continue
		}
		if _, dup := s.byLevel[d.Level]; dup {
			errs = append(errs, fmt.Errorf("level %d: duplicate entry", d.Level))
			continue
		}
		s.byLevel[d.Level] = d
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("dialogue: invalid table: %w", errors.Join(errs...))
	}
	return s, nil
}

// Parse builds a table from a YAML document with a top-level "dialogues" list.
func Parse(data []byte) (*System, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dialogue: parse: %w", err)
	}
	return New(doc.Dialogues)
}

// Load reads a custom dialogue table from path.
func Load(path string) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dialogue: read %s: %w", path, err)
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
		s, err := Parse(defaultDialoguesYAML)
		if err != nil {
			panic(err)
		}
		defaultSystem = s
	})
	return defaultSystem
}

// ForLevel returns the dialogue for level with every {key} in speakers and
// text replaced by placeholders[key]. The returned value never aliases the table.
func (s *System) ForLevel(level int, placeholders map[string]string) (Dialogue, bool) {
	if s == nil {
		return Dialogue{}, false
	}
	d, ok := s.byLevel[level]
	if !ok {
		return Dialogue{}, false
	}

	r := newReplacer(placeholders)
	return Dialogue{
		Level: d.Level,
		Intro: substitute(d.Intro, r),
		Outro: substitute(d.Outro, r),
	}, true
}

// Levels reports how many levels have dialogue.
func (s *System) Levels() int {
	if s == nil {
		return 0
	}
	return len(s.byLevel)
}

func newReplacer(placeholders map[string]string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(placeholders))
	for k, v := range placeholders {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

func substitute(lines []Line, r *strings.Replacer) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{Speaker: r.Replace(l.Speaker), Text: r.Replace(l.Text)}
	}
	return out
}
