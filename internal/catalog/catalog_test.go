package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/sqlrevise/internal/domain"
)

const goodTables = `
- table_name: beverages
  column_names: [beverage, price]
  column_types: [str, int]
  rows:
    - ["orange juice", "2"]
    - ["tea", "3"]
- table_name: food_items
  column_names: [food_item, price]
  column_types: [str, float]
  rows:
    - ["sandwich", "4.5"]
`

const goodExercises = `
- exercise_name: beverage_prices
  theme: joins
  difficulty: easy
  author: ana
  question: "List every beverage with its price."
  tables_used: [beverages]
  last_reviewed: "1970-01-01"
  answers: "SELECT beverage, price FROM beverages"
- exercise_name: cross_sell
  theme: joins
  difficulty: medium
  author: bruno
  question: "Pair every beverage with every food item."
  tables_used: "beverages, food_items"
  answers: "SELECT * FROM beverages CROSS JOIN food_items"
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(goodExercises), strings.NewReader(goodTables))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	exercises := c.Exercises()
	if len(exercises) != 2 {
		t.Fatalf("Expected 2 exercises, got %d", len(exercises))
	}

	t.Run("comma-joined tables_used", func(t *testing.T) {
		ex, ok := c.Find("cross_sell")
		if !ok {
			t.Fatal("Expected to find cross_sell")
		}
		want := domain.TableList{"beverages", "food_items"}
		if diff := cmp.Diff(want, ex.TablesUsed); diff != "" {
			t.Errorf("tables_used mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("structured tables_used", func(t *testing.T) {
		ex, _ := c.Find("beverage_prices")
		want := domain.TableList{"beverages"}
		if diff := cmp.Diff(want, ex.TablesUsed); diff != "" {
			t.Errorf("tables_used mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("distinct filter options", func(t *testing.T) {
		if got := c.Themes(); len(got) != 1 || got[0] != "joins" {
			t.Errorf("Expected themes [joins], got %v", got)
		}
		if got := c.Authors(); len(got) != 2 || got[0] != "ana" || got[1] != "bruno" {
			t.Errorf("Expected authors [ana bruno], got %v", got)
		}
		wantDiff := []domain.Difficulty{domain.Easy, domain.Medium}
		if diff := cmp.Diff(wantDiff, c.Difficulties()); diff != "" {
			t.Errorf("difficulties mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParseIntegrityErrors(t *testing.T) {
	cases := []struct {
		name      string
		exercises string
		tables    string
	}{
		{
			name: "unknown difficulty",
			exercises: `
- exercise_name: e1
  theme: basics
  difficulty: brutal
  author: ana
  question: q
  tables_used: [beverages]
  answers: "SELECT 1"
`,
			tables: goodTables,
		},
		{
			name: "unresolvable table",
			exercises: `
- exercise_name: e1
  theme: basics
  difficulty: easy
  author: ana
  question: q
  tables_used: [missing_table]
  answers: "SELECT 1"
`,
			tables: goodTables,
		},
		{
			name:      "unsupported type tag",
			exercises: goodExercises,
			tables: `
- table_name: beverages
  column_names: [beverage]
  column_types: [decimal]
  rows: []
- table_name: food_items
  column_names: [food_item]
  column_types: [str]
  rows: []
`,
		},
		{
			name: "duplicate exercise name",
			exercises: `
- exercise_name: e1
  theme: basics
  difficulty: easy
  author: ana
  question: q
  tables_used: [beverages]
  answers: "SELECT 1"
- exercise_name: e1
  theme: basics
  difficulty: easy
  author: ana
  question: q
  tables_used: [beverages]
  answers: "SELECT 1"
`,
			tables: goodTables,
		},
		{
			name: "empty tables_used",
			exercises: `
- exercise_name: e1
  theme: basics
  difficulty: easy
  author: ana
  question: q
  tables_used: []
  answers: "SELECT 1"
`,
			tables: goodTables,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.exercises), strings.NewReader(tc.tables))
			if err == nil {
				t.Fatal("Expected an integrity error, got nil")
			}
			var integrity *IntegrityError
			if !errors.As(err, &integrity) {
				t.Errorf("Expected IntegrityError, got %T: %v", err, err)
			}
		})
	}
}

func TestParseRejectsMisalignedRows(t *testing.T) {
	tables := `
- table_name: beverages
  column_names: [beverage, price]
  column_types: [str, int]
  rows:
    - ["tea"]
`
	_, err := Parse(strings.NewReader(goodExercises), strings.NewReader(tables))
	if err == nil {
		t.Fatal("Expected an integrity error for a short row, got nil")
	}
}
