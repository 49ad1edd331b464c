package domain

// TableFixture is one static backing table: its name, column names, declared
// scalar types and row data. Loaded once and queried read-only.
type TableFixture struct {
	Name        string     `yaml:"table_name"`
	ColumnNames []string   `yaml:"column_names"`
	ColumnTypes []string   `yaml:"column_types"`
	Rows        [][]string `yaml:"rows"`
}

// Result is a tabular query result. Column order and row order are
// significant and are preserved exactly as the query engine produced them.
type Result struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() int {
	return len(r.Rows)
}
