// Package catalog loads the static exercise and table fixtures. The catalog
// is read-only after Load; a fixture set that fails its integrity checks is
// rejected outright rather than partially loaded.
package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/example/sqlrevise/internal/domain"
)

const (
	exercisesFile = "exercises.yaml"
	tablesFile    = "tables.yaml"
)

// scalarTypes is the fixed vocabulary for table column type tags.
var scalarTypes = map[string]bool{
	"int":   true,
	"float": true,
	"str":   true,
}

// IntegrityError reports a corrupt fixture set. It is fatal at load time;
// the process must not proceed with a catalog that fails these checks.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string {
	return "catalog integrity: " + e.Msg
}

// Catalog holds the loaded fixtures. All accessors return copies or
// read-only views; nothing mutates a catalog after Load.
type Catalog struct {
	exercises []domain.Exercise
	tables    []domain.TableFixture
	byName    map[string]int
}

// Load reads exercises.yaml and tables.yaml from dir and validates the set.
func Load(dir string) (*Catalog, error) {
	ef, err := os.Open(filepath.Join(dir, exercisesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open exercise fixtures: %w", err)
	}
	defer ef.Close()

	tf, err := os.Open(filepath.Join(dir, tablesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open table fixtures: %w", err)
	}
	defer tf.Close()

	return Parse(ef, tf)
}

// Parse reads exercise and table fixtures from the given readers.
func Parse(exercises, tables io.Reader) (*Catalog, error) {
	var exs []domain.Exercise
	if err := decodeYAML(exercises, &exs); err != nil {
		return nil, fmt.Errorf("failed to parse exercise fixtures: %w", err)
	}

	var tabs []domain.TableFixture
	if err := decodeYAML(tables, &tabs); err != nil {
		return nil, fmt.Errorf("failed to parse table fixtures: %w", err)
	}

	c := &Catalog{
		exercises: exs,
		tables:    tabs,
		byName:    make(map[string]int, len(exs)),
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeYAML(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// check enforces the load-time invariants: valid field values per record,
// unique names, a known type tag on every column, and every tables_used
// entry resolving to a loaded table.
func (c *Catalog) check() error {
	validate := validator.New()

	known := make(map[string]bool, len(c.tables))
	for _, t := range c.tables {
		if t.Name == "" {
			return &IntegrityError{Msg: "table fixture with empty name"}
		}
		if known[t.Name] {
			return &IntegrityError{Msg: fmt.Sprintf("duplicate table fixture %q", t.Name)}
		}
		known[t.Name] = true

		if len(t.ColumnNames) == 0 || len(t.ColumnNames) != len(t.ColumnTypes) {
			return &IntegrityError{Msg: fmt.Sprintf("table %q: column names and types must align", t.Name)}
		}
		for _, tag := range t.ColumnTypes {
			if !scalarTypes[tag] {
				return &IntegrityError{Msg: fmt.Sprintf("table %q: unsupported type tag %q", t.Name, tag)}
			}
		}
		for i, row := range t.Rows {
			if len(row) != len(t.ColumnNames) {
				return &IntegrityError{Msg: fmt.Sprintf("table %q: row %d has %d values, want %d", t.Name, i, len(row), len(t.ColumnNames))}
			}
		}
	}

	for i, e := range c.exercises {
		if err := validate.Struct(e); err != nil {
			return &IntegrityError{Msg: fmt.Sprintf("exercise %q: %v", e.Name, err)}
		}
		if _, dup := c.byName[e.Name]; dup {
			return &IntegrityError{Msg: fmt.Sprintf("duplicate exercise %q", e.Name)}
		}
		c.byName[e.Name] = i

		for _, table := range e.TablesUsed {
			if !known[table] {
				return &IntegrityError{Msg: fmt.Sprintf("exercise %q references unknown table %q", e.Name, table)}
			}
		}
	}
	return nil
}

// Exercises returns the exercises in fixture order.
func (c *Catalog) Exercises() []domain.Exercise {
	out := make([]domain.Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Tables returns the table fixtures in fixture order.
func (c *Catalog) Tables() []domain.TableFixture {
	out := make([]domain.TableFixture, len(c.tables))
	copy(out, c.tables)
	return out
}

// Find returns the exercise with the given name.
func (c *Catalog) Find(name string) (domain.Exercise, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Exercise{}, false
	}
	return c.exercises[i], true
}

// Names returns every exercise name in fixture order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.exercises))
	for i, e := range c.exercises {
		names[i] = e.Name
	}
	return names
}

// Themes returns the distinct themes, sorted.
func (c *Catalog) Themes() []string {
	return c.distinct(func(e domain.Exercise) string { return e.Theme })
}

// Authors returns the distinct authors, sorted.
func (c *Catalog) Authors() []string {
	return c.distinct(func(e domain.Exercise) string { return e.Author })
}

// Difficulties returns the difficulties present in the catalog, in the
// fixed easy, medium, hard order.
func (c *Catalog) Difficulties() []domain.Difficulty {
	present := make(map[domain.Difficulty]bool)
	for _, e := range c.exercises {
		present[e.Difficulty] = true
	}
	var out []domain.Difficulty
	for _, d := range []domain.Difficulty{domain.Easy, domain.Medium, domain.Hard} {
		if present[d] {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) distinct(field func(domain.Exercise) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.exercises {
		v := field(e)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
