package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the fixed exercise difficulty scale, ordered easy < medium < hard.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Rank returns the position of the difficulty on the fixed scale.
// Unknown values rank last so they surface during catalog validation.
func (d Difficulty) Rank() int {
	switch d {
	case Easy:
		return 0
	case Medium:
		return 1
	case Hard:
		return 2
	}
	return 3
}

// Valid reports whether d is one of the three known difficulty values.
func (d Difficulty) Valid() bool {
	return d.Rank() < 3
}

// TableList is an ordered list of table names. Fixture files may carry it
// either as an already-structured YAML list or as a single comma-joined
// string; both decode to the same value.
type TableList []string

// UnmarshalYAML accepts "a,b,c" or [a, b, c].
func (t *TableList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var joined string
	if err := unmarshal(&joined); err == nil {
		var names []string
		for _, part := range strings.Split(joined, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				names = append(names, trimmed)
			}
		}
		*t = names
		return nil
	}

	var names []string
	if err := unmarshal(&names); err != nil {
		return fmt.Errorf("tables_used must be a string or a list of strings: %w", err)
	}
	*t = names
	return nil
}

// Exercise is one gradable SQL question. Exercises are created once by the
// fixture catalog at load time and never mutated afterwards.
type Exercise struct {
	Name          string     `yaml:"exercise_name" validate:"required"`
	Theme         string     `yaml:"theme" validate:"required"`
	Difficulty    Difficulty `yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	Author        string     `yaml:"author" validate:"required"`
	Question      string     `yaml:"question" validate:"required"`
	TablesUsed    TableList  `yaml:"tables_used" validate:"required,min=1"`
	DisplayTables []string   `yaml:"tables"`
	Answer        string     `yaml:"answers" validate:"required"`
	LastReviewed  string     `yaml:"last_reviewed"`
}

// Filter narrows the candidate set for next-due selection. An empty field
// means "no constraint"; present fields match exactly, case-sensitively.
type Filter struct {
	Theme      string
	Difficulty Difficulty
	Author     string
}

// Match reports whether the exercise satisfies every present field.
func (f Filter) Match(e Exercise) bool {
	if f.Theme != "" && e.Theme != f.Theme {
		return false
	}
	if f.Difficulty != "" && e.Difficulty != f.Difficulty {
		return false
	}
	if f.Author != "" && e.Author != f.Author {
		return false
	}
	return true
}
