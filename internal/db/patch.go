package db

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFields is returned by partial updates that would change nothing.
var ErrNoFields = errors.New("no fields to update")

// Patch accumulates column assignments for a partial UPDATE. Columns are rendered in the order they were set.
type Patch struct {
	cols []string
	args []any
	raw  []string
}

// Set assigns v to col.
func (p *Patch) Set(col string, v any) {
	p.args = append(p.args, v)
	p.cols = append(p.cols, fmt.Sprintf("%s = $%d", col, len(p.args)))
}

// SetExpr assigns a literal SQL expression (e.g. "now()") to col. It does not count as a field for Empty.
func (p *Patch) SetExpr(col, expr string) {
	p.raw = append(p.raw, col+" = "+expr)
}

// Empty reports whether no bound column has been set.
func (p *Patch) Empty() bool { return len(p.cols) == 0 }

// Update renders UPDATE table SET ... WHERE keyCol = $n RETURNING returning, binding key last.
func (p *Patch) Update(table, keyCol string, key any, returning string) (string, []any) {
	sets := append(append([]string{}, p.cols...), p.raw...)
	args := append(append([]any{}, p.args...), key)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", table, strings.Join(sets, ", "), keyCol, len(args))
	if returning != "" {
		q += " RETURNING " + returning
	}
	return q, args
}

// SetPtr assigns *v to col when v is non-nil.
func SetPtr[T any](p *Patch, col string, v *T) {
	if v != nil {
		p.Set(col, *v)
	}
}
