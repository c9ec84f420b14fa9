package db

import (
	"strconv"
	"strings"
)

// Assignments collects the column updates of a partial UPDATE statement.
type Assignments struct {
	cols []string
	args []any
}

// Set queues column = value.
func (a *Assignments) Set(col string, value any) {
	a.cols = append(a.cols, col)
	a.args = append(a.args, value)
}

// Empty reports whether no column was queued.
func (a *Assignments) Empty() bool {
	return len(a.cols) == 0
}

// Columns returns the queued column names in order.
func (a *Assignments) Columns() []string {
	return append([]string(nil), a.cols...)
}

// UpdateByID renders "UPDATE table SET ... WHERE id = $n RETURNING returning"
// and the matching argument list, with id as the last argument.
func (a *Assignments) UpdateByID(table string, id int64, returning string) (string, []any) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	for i, col := range a.cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(" = $")
		b.WriteString(strconv.Itoa(i + 1))
	}
	b.WriteString(" WHERE id = $")
	b.WriteString(strconv.Itoa(len(a.cols) + 1))
	if returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(returning)
	}
	args := append(append([]any(nil), a.args...), id)
	return b.String(), args
}

// Insert renders "INSERT INTO table (...) VALUES (...) RETURNING returning".
// With no queued columns it falls back to DEFAULT VALUES.
func (a *Assignments) Insert(table, returning string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	if a.Empty() {
		b.WriteString(" DEFAULT VALUES")
	} else {
		b.WriteString(" (")
		b.WriteString(strings.Join(a.cols, ", "))
		b.WriteString(") VALUES (")
		for i := range a.cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("$")
			b.WriteString(strconv.Itoa(i + 1))
		}
		b.WriteString(")")
	}
	if returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(returning)
	}
	return b.String(), append([]any(nil), a.args...)
}
