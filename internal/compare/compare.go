// Package compare grades a submitted query result against the canonical one.
// Compare is a pure function: no I/O, no state between calls, identical
// inputs always produce the identical verdict.
package compare

import (
	"github.com/example/sqlrevise/internal/domain"
)

// Outcome classifies one verification.
type Outcome string

const (
	Correct          Outcome = "correct"
	RowCountMismatch Outcome = "row_count_mismatch"
	ColumnMismatch   Outcome = "column_mismatch"
	ContentMismatch  Outcome = "content_mismatch"
	SyntaxError      Outcome = "syntax_error"
)

// RowDiff is one mismatched row pair. A nil side means the row exists only
// in the other result.
type RowDiff struct {
	Row       int
	Submitted []any
	Canonical []any
}

// Verdict is the structured outcome of one verification. Produced fresh per
// submission and never stored.
type Verdict struct {
	Outcome        Outcome
	RowCountDelta  int
	ColumnMismatch bool
	CellDiff       []RowDiff
}

// Compare applies the grading policy in strict precedence order: execution
// failure, then row count, then column set, then cell-wise content. Row
// order matters; there is no implicit sort, so the canonical query's own
// ORDER BY (if any) is part of what is graded.
func Compare(submitted, canonical *domain.Result) Verdict {
	if submitted == nil {
		return Verdict{Outcome: SyntaxError}
	}

	order, columnsAlign := columnOrder(submitted.Columns, canonical.Columns)

	if submitted.RowCount() != canonical.RowCount() {
		v := Verdict{
			Outcome:       RowCountMismatch,
			RowCountDelta: submitted.RowCount() - canonical.RowCount(),
		}
		// Best effort: attach the content diff anyway when the column
		// sets line up, so the learner sees where the rows diverge.
		if columnsAlign {
			v.CellDiff = diffRows(submitted, canonical, order)
		}
		return v
	}

	if !columnsAlign {
		return Verdict{Outcome: ColumnMismatch, ColumnMismatch: true}
	}

	diff := diffRows(submitted, canonical, order)
	if len(diff) > 0 {
		return Verdict{Outcome: ContentMismatch, CellDiff: diff}
	}
	return Verdict{Outcome: Correct}
}

// columnOrder matches submitted column names to canonical ones, name-equal
// and order-insensitive. When the sets are equal it returns, for each
// canonical column, the index of that column in the submitted result.
func columnOrder(submitted, canonical []string) ([]int, bool) {
	if len(submitted) != len(canonical) {
		return nil, false
	}
	index := make(map[string]int, len(submitted))
	for i, name := range submitted {
		if _, dup := index[name]; dup {
			return nil, false
		}
		index[name] = i
	}
	order := make([]int, len(canonical))
	for i, name := range canonical {
		j, ok := index[name]
		if !ok {
			return nil, false
		}
		order[i] = j
	}
	return order, true
}

// diffRows compares cell-wise, row-for-row in the rows' existing order,
// with submitted columns reordered to the canonical column order.
func diffRows(submitted, canonical *domain.Result, order []int) []RowDiff {
	var diffs []RowDiff
	n := min(len(submitted.Rows), len(canonical.Rows))

	for i := 0; i < n; i++ {
		got := reorder(submitted.Rows[i], order)
		want := canonical.Rows[i]
		if !rowsEqual(got, want) {
			diffs = append(diffs, RowDiff{Row: i, Submitted: got, Canonical: want})
		}
	}
	for i := n; i < len(submitted.Rows); i++ {
		diffs = append(diffs, RowDiff{Row: i, Submitted: reorder(submitted.Rows[i], order)})
	}
	for i := n; i < len(canonical.Rows); i++ {
		diffs = append(diffs, RowDiff{Row: i, Canonical: canonical.Rows[i]})
	}
	return diffs
}

func reorder(row []any, order []int) []any {
	out := make([]any, len(order))
	for i, j := range order {
		out[i] = row[j]
	}
	return out
}

func rowsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !cellEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// cellEqual compares two scalar cells. Integer and float cells compare by
// numeric value, since drivers are free to widen either representation.
func cellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
